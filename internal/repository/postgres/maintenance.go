package postgres

import (
	"context"
	"time"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/repository"
)

type maintenanceRepository struct {
	db DBTX
}

func NewMaintenanceRepository(db DBTX) repository.MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

func (r *maintenanceRepository) Create(ctx context.Context, t *domain.MaintenanceTicket) error {
	query := `INSERT INTO mantenimientos (item_id, tipo, severidad, descripcion, estado)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, fecha_apertura`
	return r.db.QueryRowContext(ctx, query, t.ItemID, t.Kind, t.Severity, t.Description, t.Status).
		Scan(&t.ID, &t.OpenedAt)
}

func (r *maintenanceRepository) CloseTicket(ctx context.Context, id int32, at time.Time) error {
	query := `UPDATE mantenimientos SET estado = $1, fecha_cierre = $2 WHERE id = $3 AND estado <> $1`
	res, err := r.db.ExecContext(ctx, query, domain.TicketStatusClosed, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *maintenanceRepository) ListOpen(ctx context.Context) ([]domain.MaintenanceTicket, error) {
	query := `SELECT id, item_id, tipo, severidad, descripcion, estado, fecha_apertura, fecha_cierre
	          FROM mantenimientos WHERE estado <> $1 ORDER BY fecha_apertura DESC`
	rows, err := r.db.QueryContext(ctx, query, domain.TicketStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.MaintenanceTicket
	for rows.Next() {
		var t domain.MaintenanceTicket
		if err := rows.Scan(&t.ID, &t.ItemID, &t.Kind, &t.Severity, &t.Description, &t.Status, &t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *maintenanceRepository) CountRecentByItem(ctx context.Context, itemID int32, since time.Time) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM mantenimientos WHERE item_id = $1 AND fecha_apertura >= $2`,
		itemID, since).Scan(&count)
	return count, err
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/repository"
)

type reservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `r.id, r.item_id, COALESCE(i.code, ''), r.tipo, r.nivel, r.turno, r.aula,
	r.solicitante, r.canal_externo, r.inicio, r.expira, r.estado, r.observaciones,
	COALESCE(r.aprobada_por, ''), r.aprobada_at, COALESCE(r.cancelada_por, ''), r.cancelada_at, r.cancel_motivo`

const reservationFrom = ` FROM reservas r LEFT JOIN items i ON i.id = r.item_id`

func scanReservation(row interface{ Scan(...any) error }) (*domain.Reservation, error) {
	rv := &domain.Reservation{}
	err := row.Scan(&rv.ID, &rv.ItemID, &rv.ItemCode, &rv.Category, &rv.Level, &rv.Shift, &rv.Classroom,
		&rv.Requester, &rv.ChannelID, &rv.CreatedAt, &rv.ExpiresAt, &rv.Status, &rv.Notes,
		&rv.ApprovedBy, &rv.ApprovedAt, &rv.CancelledBy, &rv.CancelledAt, &rv.CancelNote)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rv, nil
}

func (r *reservationRepository) Create(ctx context.Context, rv *domain.Reservation) error {
	query := `INSERT INTO reservas (item_id, tipo, nivel, turno, aula, solicitante, canal_externo, expira, estado, observaciones)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, inicio`
	return r.db.QueryRowContext(ctx, query,
		rv.ItemID, rv.Category, rv.Level, rv.Shift, rv.Classroom, rv.Requester,
		rv.ChannelID, rv.ExpiresAt, rv.Status, rv.Notes,
	).Scan(&rv.ID, &rv.CreatedAt)
}

func (r *reservationRepository) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + reservationFrom + ` WHERE r.id = $1`
	return scanReservation(r.db.QueryRowContext(ctx, query, id))
}

func (r *reservationRepository) listWhere(ctx context.Context, where string, args ...any) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + reservationFrom + ` ` + where
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var rv domain.Reservation
		if err := rows.Scan(&rv.ID, &rv.ItemID, &rv.ItemCode, &rv.Category, &rv.Level, &rv.Shift, &rv.Classroom,
			&rv.Requester, &rv.ChannelID, &rv.CreatedAt, &rv.ExpiresAt, &rv.Status, &rv.Notes,
			&rv.ApprovedBy, &rv.ApprovedAt, &rv.CancelledBy, &rv.CancelledAt, &rv.CancelNote); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *reservationRepository) ListActive(ctx context.Context) ([]domain.Reservation, error) {
	return r.listWhere(ctx, `WHERE r.estado = $1 ORDER BY r.expira ASC, r.inicio ASC`,
		domain.ReservationStatusActive)
}

func (r *reservationRepository) ListActiveByRequester(ctx context.Context, requester string) ([]domain.Reservation, error) {
	return r.listWhere(ctx, `WHERE r.solicitante = $1 AND r.estado = $2 ORDER BY r.inicio DESC`,
		requester, domain.ReservationStatusActive)
}

func (r *reservationRepository) HasActiveByRequester(ctx context.Context, requester string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reservas WHERE solicitante = $1 AND estado = $2)`,
		requester, domain.ReservationStatusActive).Scan(&exists)
	return exists, err
}

func (r *reservationRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	return r.listWhere(ctx, `WHERE r.estado = $1 AND r.expira <= $2 ORDER BY r.expira ASC`,
		domain.ReservationStatusActive, now)
}

func (r *reservationRepository) flipFromActive(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *reservationRepository) Convert(ctx context.Context, id int32, approver string, at time.Time) (bool, error) {
	query := `UPDATE reservas SET estado = $1, aprobada_por = $2, aprobada_at = $3
	          WHERE id = $4 AND estado = $5`
	return r.flipFromActive(ctx, query,
		domain.ReservationStatusConverted, approver, at, id, domain.ReservationStatusActive)
}

func (r *reservationRepository) Cancel(ctx context.Context, id int32, actor string, at time.Time, reason string) (bool, error) {
	query := `UPDATE reservas SET estado = $1, cancelada_por = $2, cancelada_at = $3, cancel_motivo = $4
	          WHERE id = $5 AND estado = $6`
	return r.flipFromActive(ctx, query,
		domain.ReservationStatusCancelled, actor, at, reason, id, domain.ReservationStatusActive)
}

func (r *reservationRepository) Expire(ctx context.Context, id int32) (bool, error) {
	query := `UPDATE reservas SET estado = $1 WHERE id = $2 AND estado = $3`
	return r.flipFromActive(ctx, query,
		domain.ReservationStatusExpired, id, domain.ReservationStatusActive)
}

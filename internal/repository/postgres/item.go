package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/repository"
)

type itemRepository struct {
	db DBTX
}

func NewItemRepository(db DBTX) repository.ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, code, tipo, estado, uso_acumulado_horas, usos_acumulados, creado`

func scanItem(row interface{ Scan(...any) error }) (*domain.Item, error) {
	it := &domain.Item{}
	err := row.Scan(&it.ID, &it.Code, &it.Category, &it.Status, &it.UsageHours, &it.UsageCount, &it.CreatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return it, nil
}

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	query := `INSERT INTO items (code, tipo, estado, uso_acumulado_horas, usos_acumulados)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, creado`
	return r.db.QueryRowContext(ctx, query, it.Code, it.Category, it.Status, it.UsageHours, it.UsageCount).
		Scan(&it.ID, &it.CreatedOn)
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	return scanItem(r.db.QueryRowContext(ctx, query, id))
}

func (r *itemRepository) GetByCode(ctx context.Context, code string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE upper(code) = upper($1)`
	return scanItem(r.db.QueryRowContext(ctx, query, code))
}

func (r *itemRepository) ListAvailable(ctx context.Context, category domain.Category) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE tipo = $1 AND estado = $2 ORDER BY code ASC`
	rows, err := r.db.QueryContext(ctx, query, category, domain.ItemStatusAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Code, &it.Category, &it.Status, &it.UsageHours, &it.UsageCount, &it.CreatedOn); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *itemRepository) List(ctx context.Context) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY code ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Code, &it.Category, &it.Status, &it.UsageHours, &it.UsageCount, &it.CreatedOn); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *itemRepository) CountByCategory(ctx context.Context, category domain.Category) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM items WHERE tipo = $1`, category).Scan(&count)
	return count, err
}

func (r *itemRepository) Transition(ctx context.Context, id int32, from []domain.ItemStatus, to domain.ItemStatus) error {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	query := `UPDATE items SET estado = $1 WHERE id = $2 AND estado = ANY($3)`
	res, err := r.db.ExecContext(ctx, query, to, id, pq.Array(states))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrItemNotAvailable
	}
	return nil
}

func (r *itemRepository) AddUsage(ctx context.Context, id int32, hours float64) error {
	query := `UPDATE items
	          SET uso_acumulado_horas = ROUND(uso_acumulado_horas + $1::numeric, 2),
	              usos_acumulados = usos_acumulados + 1
	          WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, hours, id)
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

func (r *itemRepository) CountByStatus(ctx context.Context, status domain.ItemStatus) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM items WHERE estado = $1`, status).Scan(&count)
	return count, err
}

func (r *itemRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		// Historical loans and reservations reference items with
		// ON DELETE RESTRICT; surface the FK violation as a validation
		// rejection rather than cascading.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return domain.ErrValidation
		}
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

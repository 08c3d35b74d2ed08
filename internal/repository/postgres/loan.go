package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/repository"
)

type loanRepository struct {
	db DBTX
}

func NewLoanRepository(db DBTX) repository.LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `p.id, p.item_id, i.code, p.nivel, p.carrera, p.anio, p.turno, p.aula, p.solicitante,
	p.inicio, p.fin_prevista, p.fin_real, p.duracion_horas, p.estado, p.observaciones`

func scanLoan(row interface{ Scan(...any) error }) (*domain.Loan, error) {
	l := &domain.Loan{}
	err := row.Scan(&l.ID, &l.ItemID, &l.ItemCode, &l.Level, &l.Program, &l.Year, &l.Shift, &l.Classroom,
		&l.Requester, &l.StartedAt, &l.DueAt, &l.ReturnedAt, &l.DurationHours, &l.Status, &l.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	query := `INSERT INTO prestamos (item_id, nivel, carrera, anio, turno, aula, solicitante, inicio, fin_prevista, estado, observaciones)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		l.ItemID, l.Level, l.Program, l.Year, l.Shift, l.Classroom, l.Requester,
		l.StartedAt, l.DueAt, l.Status, l.Notes,
	).Scan(&l.ID)
}

func (r *loanRepository) GetByID(ctx context.Context, id int32) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM prestamos p JOIN items i ON i.id = p.item_id WHERE p.id = $1`
	return scanLoan(r.db.QueryRowContext(ctx, query, id))
}

func (r *loanRepository) FindOpenByItemCode(ctx context.Context, code string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + `
	          FROM prestamos p JOIN items i ON i.id = p.item_id
	          WHERE upper(i.code) = upper($1) AND p.fin_real IS NULL
	          ORDER BY p.inicio DESC LIMIT 1`
	return scanLoan(r.db.QueryRowContext(ctx, query, code))
}

func (r *loanRepository) Close(ctx context.Context, id int32, when time.Time, hours float64) (bool, error) {
	query := `UPDATE prestamos SET fin_real = $1, duracion_horas = $2, estado = $3
	          WHERE id = $4 AND fin_real IS NULL`
	res, err := r.db.ExecContext(ctx, query, when, hours, domain.LoanStatusClosed, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *loanRepository) ListOpenByRequester(ctx context.Context, requester string) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + `
	          FROM prestamos p JOIN items i ON i.id = p.item_id
	          WHERE p.solicitante = $1 AND p.fin_real IS NULL
	          ORDER BY p.inicio DESC`
	rows, err := r.db.QueryContext(ctx, query, requester)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		var l domain.Loan
		if err := rows.Scan(&l.ID, &l.ItemID, &l.ItemCode, &l.Level, &l.Program, &l.Year, &l.Shift, &l.Classroom,
			&l.Requester, &l.StartedAt, &l.DueAt, &l.ReturnedAt, &l.DurationHours, &l.Status, &l.Notes); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (r *loanRepository) CountClosedSince(ctx context.Context, category domain.Category, shift domain.Shift, since time.Time) (int32, error) {
	query := `SELECT count(*)
	          FROM prestamos p JOIN items i ON i.id = p.item_id
	          WHERE i.tipo = $1 AND p.turno = $2 AND p.inicio >= $3 AND p.fin_real IS NOT NULL`
	var count int32
	err := r.db.QueryRowContext(ctx, query, category, shift, since).Scan(&count)
	return count, err
}

func (r *loanRepository) LateFraction(ctx context.Context, category domain.Category, since time.Time) (float64, error) {
	query := `SELECT COALESCE(AVG(CASE WHEN p.fin_real > p.fin_prevista THEN 1.0 ELSE 0.0 END), 0)
	          FROM prestamos p JOIN items i ON i.id = p.item_id
	          WHERE i.tipo = $1 AND p.inicio >= $2
	            AND p.fin_prevista IS NOT NULL AND p.fin_real IS NOT NULL`
	var frac float64
	err := r.db.QueryRowContext(ctx, query, category, since).Scan(&frac)
	return frac, err
}

func (r *loanRepository) UsageStats(ctx context.Context, since time.Time) (*domain.UsageStats, error) {
	stats := &domain.UsageStats{
		HoursByCategory: make(map[domain.Category]float64),
		HoursByShift:    make(map[domain.Shift]float64),
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(duracion_horas), 0), COALESCE(AVG(duracion_horas), 0)
		 FROM prestamos WHERE fin_real IS NOT NULL AND fin_real >= $1`, since).
		Scan(&stats.TotalHours, &stats.AvgDuration)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT i.tipo, COALESCE(SUM(p.duracion_horas), 0)
		 FROM prestamos p JOIN items i ON i.id = p.item_id
		 WHERE p.fin_real IS NOT NULL AND p.fin_real >= $1
		 GROUP BY i.tipo`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cat domain.Category
		var hours float64
		if err := rows.Scan(&cat, &hours); err != nil {
			return nil, err
		}
		stats.HoursByCategory[cat] = hours
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	shiftRows, err := r.db.QueryContext(ctx,
		`SELECT turno, COALESCE(SUM(duracion_horas), 0)
		 FROM prestamos WHERE fin_real IS NOT NULL AND fin_real >= $1
		 GROUP BY turno`, since)
	if err != nil {
		return nil, err
	}
	defer shiftRows.Close()
	for shiftRows.Next() {
		var shift domain.Shift
		var hours float64
		if err := shiftRows.Scan(&shift, &hours); err != nil {
			return nil, err
		}
		stats.HoursByShift[shift] = hours
	}
	if err := shiftRows.Err(); err != nil {
		return nil, err
	}

	topRows, err := r.db.QueryContext(ctx,
		`SELECT i.code, i.tipo, COALESCE(SUM(p.duracion_horas), 0) AS horas
		 FROM prestamos p JOIN items i ON i.id = p.item_id
		 WHERE p.fin_real IS NOT NULL AND p.fin_real >= $1
		 GROUP BY i.code, i.tipo ORDER BY horas DESC LIMIT 5`, since)
	if err != nil {
		return nil, err
	}
	defer topRows.Close()
	for topRows.Next() {
		var u domain.ItemUsage
		if err := topRows.Scan(&u.Code, &u.Category, &u.Hours); err != nil {
			return nil, err
		}
		stats.TopItems = append(stats.TopItems, u)
	}
	if err := topRows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM prestamos WHERE fin_prevista IS NOT NULL AND fin_real > fin_prevista`).
		Scan(&stats.LateReturns)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"prestamos-backend/internal/logger"
	"prestamos-backend/internal/repository"
)

// DBTX is the slice of *sql.DB / *sql.Tx the repositories need, so the
// same repository code runs standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db           *sql.DB
	items        repository.ItemRepository
	loans        repository.LoanRepository
	reservations repository.ReservationRepository
	maintenance  repository.MaintenanceRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		items:        NewItemRepository(db),
		loans:        NewLoanRepository(db),
		reservations: NewReservationRepository(db),
		maintenance:  NewMaintenanceRepository(db),
	}
}

func (s *Store) Items() repository.ItemRepository                { return s.items }
func (s *Store) Loans() repository.LoanRepository                { return s.loans }
func (s *Store) Reservations() repository.ReservationRepository  { return s.reservations }
func (s *Store) Maintenance() repository.MaintenanceRepository   { return s.maintenance }

// InTx runs fn against a store whose repositories are bound to a single
// transaction. Commit on nil, rollback on error.
func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	txStore := &Store{
		db:           s.db,
		items:        NewItemRepository(tx),
		loans:        NewLoanRepository(tx),
		reservations: NewReservationRepository(tx),
		maintenance:  NewMaintenanceRepository(tx),
	}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

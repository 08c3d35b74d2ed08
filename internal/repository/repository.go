package repository

import (
	"context"
	"time"

	"prestamos-backend/internal/domain"
)

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id int32) (*domain.Item, error)
	GetByCode(ctx context.Context, code string) (*domain.Item, error)
	ListAvailable(ctx context.Context, category domain.Category) ([]domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
	CountByCategory(ctx context.Context, category domain.Category) (int32, error)

	// Transition flips the item status only while the current status is one
	// of from; it returns domain.ErrItemNotAvailable when the item has
	// already moved on. This conditional write is what serializes racing
	// reservers at the database.
	Transition(ctx context.Context, id int32, from []domain.ItemStatus, to domain.ItemStatus) error

	// AddUsage accumulates one closed loan into the item counters.
	AddUsage(ctx context.Context, id int32, hours float64) error

	CountByStatus(ctx context.Context, status domain.ItemStatus) (int32, error)

	// Delete rejects with domain.ErrValidation while historical loans or
	// reservations still reference the item.
	Delete(ctx context.Context, id int32) error
}

type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id int32) (*domain.Loan, error)

	// FindOpenByItemCode returns the most recently started open loan for
	// the item, or domain.ErrNotFound.
	FindOpenByItemCode(ctx context.Context, code string) (*domain.Loan, error)

	// Close sets fin_real/duration/status only while fin_real is still
	// null. The bool reports whether this call performed the close.
	Close(ctx context.Context, id int32, when time.Time, hours float64) (bool, error)

	ListOpenByRequester(ctx context.Context, requester string) ([]domain.Loan, error)
	CountClosedSince(ctx context.Context, category domain.Category, shift domain.Shift, since time.Time) (int32, error)

	// LateFraction is the recent empirical late-return rate for a
	// category, used as the tardiness fallback estimator.
	LateFraction(ctx context.Context, category domain.Category, since time.Time) (float64, error)

	UsageStats(ctx context.Context, since time.Time) (*domain.UsageStats, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id int32) (*domain.Reservation, error)
	ListActive(ctx context.Context) ([]domain.Reservation, error)
	ListActiveByRequester(ctx context.Context, requester string) ([]domain.Reservation, error)
	HasActiveByRequester(ctx context.Context, requester string) (bool, error)
	ListExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error)

	// The three terminal transitions are conditional on estado='activa';
	// the bool reports whether the row actually flipped. Terminal rows are
	// never mutated again.
	Convert(ctx context.Context, id int32, approver string, at time.Time) (bool, error)
	Cancel(ctx context.Context, id int32, actor string, at time.Time, reason string) (bool, error)
	Expire(ctx context.Context, id int32) (bool, error)
}

type MaintenanceRepository interface {
	Create(ctx context.Context, t *domain.MaintenanceTicket) error
	CloseTicket(ctx context.Context, id int32, at time.Time) error
	ListOpen(ctx context.Context) ([]domain.MaintenanceTicket, error)
	CountRecentByItem(ctx context.Context, itemID int32, since time.Time) (int32, error)
}

// Store aggregates the repositories and provides transactional scope.
// Every multi-entity business mutation runs inside InTx so partial writes
// are never visible to concurrent operations.
type Store interface {
	Items() ItemRepository
	Loans() LoanRepository
	Reservations() ReservationRepository
	Maintenance() MaintenanceRepository

	// InTx runs fn against a Store whose repositories share one database
	// transaction, committing on nil and rolling back on error.
	InTx(ctx context.Context, fn func(Store) error) error
}

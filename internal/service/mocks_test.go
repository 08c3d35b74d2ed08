package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/repository"
)

// MockItemRepo
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) Create(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockItemRepo) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) GetByCode(ctx context.Context, code string) (*domain.Item, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) ListAvailable(ctx context.Context, category domain.Category) ([]domain.Item, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}
func (m *MockItemRepo) List(ctx context.Context) ([]domain.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}
func (m *MockItemRepo) CountByCategory(ctx context.Context, category domain.Category) (int32, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockItemRepo) Transition(ctx context.Context, id int32, from []domain.ItemStatus, to domain.ItemStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}
func (m *MockItemRepo) AddUsage(ctx context.Context, id int32, hours float64) error {
	args := m.Called(ctx, id, hours)
	return args.Error(0)
}
func (m *MockItemRepo) CountByStatus(ctx context.Context, status domain.ItemStatus) (int32, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockItemRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLoanRepo
type MockLoanRepo struct {
	mock.Mock
}

func (m *MockLoanRepo) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}
func (m *MockLoanRepo) GetByID(ctx context.Context, id int32) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) FindOpenByItemCode(ctx context.Context, code string) (*domain.Loan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) Close(ctx context.Context, id int32, when time.Time, hours float64) (bool, error) {
	args := m.Called(ctx, id, when, hours)
	return args.Bool(0), args.Error(1)
}
func (m *MockLoanRepo) ListOpenByRequester(ctx context.Context, requester string) ([]domain.Loan, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) CountClosedSince(ctx context.Context, category domain.Category, shift domain.Shift, since time.Time) (int32, error) {
	args := m.Called(ctx, category, shift, since)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockLoanRepo) LateFraction(ctx context.Context, category domain.Category, since time.Time) (float64, error) {
	args := m.Called(ctx, category, since)
	return args.Get(0).(float64), args.Error(1)
}
func (m *MockLoanRepo) UsageStats(ctx context.Context, since time.Time) (*domain.UsageStats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageStats), args.Error(1)
}

// MockReservationRepo
type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReservationRepo) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListActive(ctx context.Context) ([]domain.Reservation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListActiveByRequester(ctx context.Context, requester string) ([]domain.Reservation, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) HasActiveByRequester(ctx context.Context, requester string) (bool, error) {
	args := m.Called(ctx, requester)
	return args.Bool(0), args.Error(1)
}
func (m *MockReservationRepo) ListExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) Convert(ctx context.Context, id int32, approver string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, approver, at)
	return args.Bool(0), args.Error(1)
}
func (m *MockReservationRepo) Cancel(ctx context.Context, id int32, actor string, at time.Time, reason string) (bool, error) {
	args := m.Called(ctx, id, actor, at, reason)
	return args.Bool(0), args.Error(1)
}
func (m *MockReservationRepo) Expire(ctx context.Context, id int32) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockMaintenanceRepo
type MockMaintenanceRepo struct {
	mock.Mock
}

func (m *MockMaintenanceRepo) Create(ctx context.Context, t *domain.MaintenanceTicket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockMaintenanceRepo) CloseTicket(ctx context.Context, id int32, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
func (m *MockMaintenanceRepo) ListOpen(ctx context.Context) ([]domain.MaintenanceTicket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MaintenanceTicket), args.Error(1)
}
func (m *MockMaintenanceRepo) CountRecentByItem(ctx context.Context, itemID int32, since time.Time) (int32, error) {
	args := m.Called(ctx, itemID, since)
	return args.Get(0).(int32), args.Error(1)
}

// mockStore bundles the repository mocks. InTx just runs the function
// against the same store, so expectations cover transactional calls too.
type mockStore struct {
	items        *MockItemRepo
	loans        *MockLoanRepo
	reservations *MockReservationRepo
	maintenance  *MockMaintenanceRepo
}

func newMockStore() *mockStore {
	return &mockStore{
		items:        new(MockItemRepo),
		loans:        new(MockLoanRepo),
		reservations: new(MockReservationRepo),
		maintenance:  new(MockMaintenanceRepo),
	}
}

func (s *mockStore) Items() repository.ItemRepository               { return s.items }
func (s *mockStore) Loans() repository.LoanRepository               { return s.loans }
func (s *mockStore) Reservations() repository.ReservationRepository { return s.reservations }
func (s *mockStore) Maintenance() repository.MaintenanceRepository  { return s.maintenance }

func (s *mockStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

// mockNotifier records what would have gone to the channel.
type mockNotifier struct {
	messages []string
}

func (n *mockNotifier) Notify(_ context.Context, text string) {
	n.messages = append(n.messages, text)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prestamos-backend/internal/domain"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
}

func newLoanServiceForTest(store *mockStore) (*loanService, *mockNotifier) {
	notifier := &mockNotifier{}
	svc := NewLoanService(store, notifier).(*loanService)
	svc.now = fixedNow
	return svc, notifier
}

func TestStartLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := newMockStore()
		svc, notifier := newLoanServiceForTest(store)

		item := &domain.Item{ID: 7, Code: "NB-01", Category: domain.CategoryNotebook, Status: domain.ItemStatusAvailable}
		store.items.On("GetByCode", ctx, "NB-01").Return(item, nil)
		store.items.On("Transition", ctx, int32(7),
			[]domain.ItemStatus{domain.ItemStatusAvailable}, domain.ItemStatusInUse).Return(nil)
		store.loans.On("Create", ctx, mock.AnythingOfType("*domain.Loan")).Return(nil)

		loan, err := svc.StartLoan(ctx, StartLoanRequest{
			ItemCode:  "NB-01",
			Level:     domain.LevelSecondary,
			Shift:     domain.ShiftMorning,
			Classroom: "Aula 3",
			Requester: "mgarcia",
		})
		require.NoError(t, err)
		assert.Equal(t, int32(7), loan.ItemID)
		assert.Equal(t, domain.LoanStatusOpen, loan.Status)
		assert.Equal(t, domain.ShiftMorning, loan.Shift)
		assert.Equal(t, fixedNow(), loan.StartedAt)
		assert.Len(t, notifier.messages, 1)
		store.items.AssertExpectations(t)
		store.loans.AssertExpectations(t)
	})

	t.Run("HigherEducationForcesNightShift", func(t *testing.T) {
		store := newMockStore()
		svc, _ := newLoanServiceForTest(store)

		item := &domain.Item{ID: 2, Code: "TB-01", Category: domain.CategoryTablet, Status: domain.ItemStatusAvailable}
		store.items.On("GetByCode", ctx, "TB-01").Return(item, nil)
		store.items.On("Transition", ctx, int32(2),
			[]domain.ItemStatus{domain.ItemStatusAvailable}, domain.ItemStatusInUse).Return(nil)
		store.loans.On("Create", ctx, mock.AnythingOfType("*domain.Loan")).Return(nil)

		program := domain.ProgramTCD
		year := int32(2)
		loan, err := svc.StartLoan(ctx, StartLoanRequest{
			ItemCode:  "TB-01",
			Level:     domain.LevelHigher,
			Program:   &program,
			Year:      &year,
			Shift:     domain.ShiftMorning,
			Requester: "jlopez",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ShiftNight, loan.Shift)
	})

	t.Run("HigherEducationRequiresProgramAndYear", func(t *testing.T) {
		store := newMockStore()
		svc, _ := newLoanServiceForTest(store)

		_, err := svc.StartLoan(ctx, StartLoanRequest{
			ItemCode:  "TB-01",
			Level:     domain.LevelHigher,
			Shift:     domain.ShiftNight,
			Requester: "jlopez",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("YearBeyondSecondRejected", func(t *testing.T) {
		store := newMockStore()
		svc, _ := newLoanServiceForTest(store)

		program := domain.ProgramTCD
		year := int32(3)
		_, err := svc.StartLoan(ctx, StartLoanRequest{
			ItemCode:  "TB-01",
			Level:     domain.LevelHigher,
			Program:   &program,
			Year:      &year,
			Shift:     domain.ShiftNight,
			Requester: "jlopez",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("ProgramRejectedForSecondary", func(t *testing.T) {
		store := newMockStore()
		svc, _ := newLoanServiceForTest(store)

		program := domain.ProgramTCD
		_, err := svc.StartLoan(ctx, StartLoanRequest{
			ItemCode:  "NB-01",
			Level:     domain.LevelSecondary,
			Program:   &program,
			Shift:     domain.ShiftMorning,
			Requester: "mgarcia",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("ItemNotAvailable", func(t *testing.T) {
		store := newMockStore()
		svc, notifier := newLoanServiceForTest(store)

		item := &domain.Item{ID: 7, Code: "NB-01", Category: domain.CategoryNotebook, Status: domain.ItemStatusInUse}
		store.items.On("GetByCode", ctx, "NB-01").Return(item, nil)
		store.items.On("Transition", ctx, int32(7),
			[]domain.ItemStatus{domain.ItemStatusAvailable}, domain.ItemStatusInUse).
			Return(domain.ErrItemNotAvailable)

		_, err := svc.StartLoan(ctx, StartLoanRequest{
			ItemCode:  "NB-01",
			Level:     domain.LevelSecondary,
			Shift:     domain.ShiftMorning,
			Requester: "mgarcia",
		})
		assert.ErrorIs(t, err, domain.ErrItemNotAvailable)
		assert.Empty(t, notifier.messages)
	})
}

func TestCloseLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("ComputesDurationAndAccumulatesUsage", func(t *testing.T) {
		store := newMockStore()
		svc, _ := newLoanServiceForTest(store)

		started := fixedNow().Add(-2 * time.Hour)
		open := &domain.Loan{ID: 4, ItemID: 7, ItemCode: "NB-01", StartedAt: started, Status: domain.LoanStatusOpen}
		store.loans.On("GetByID", ctx, int32(4)).Return(open, nil)
		store.loans.On("Close", ctx, int32(4), fixedNow(), 2.0).Return(true, nil)
		store.items.On("AddUsage", ctx, int32(7), 2.0).Return(nil)
		store.items.On("Transition", ctx, int32(7),
			[]domain.ItemStatus{domain.ItemStatusInUse}, domain.ItemStatusAvailable).Return(nil)

		loan, err := svc.CloseLoan(ctx, 4, time.Time{})
		require.NoError(t, err)
		require.NotNil(t, loan.DurationHours)
		assert.Equal(t, 2.0, *loan.DurationHours)
		assert.Equal(t, domain.LoanStatusClosed, loan.Status)
		require.NotNil(t, loan.ReturnedAt)
		assert.Equal(t, fixedNow(), *loan.ReturnedAt)
		store.items.AssertExpectations(t)
	})

	t.Run("IdempotentOnClosedLoan", func(t *testing.T) {
		store := newMockStore()
		svc, notifier := newLoanServiceForTest(store)

		returned := fixedNow().Add(-time.Hour)
		hours := 1.5
		closed := &domain.Loan{
			ID: 4, ItemID: 7, ItemCode: "NB-01",
			StartedAt: returned.Add(-90 * time.Minute), ReturnedAt: &returned,
			DurationHours: &hours, Status: domain.LoanStatusClosed,
		}
		store.loans.On("GetByID", ctx, int32(4)).Return(closed, nil)

		loan, err := svc.CloseLoan(ctx, 4, fixedNow())
		require.NoError(t, err)
		assert.Equal(t, 1.5, *loan.DurationHours)
		assert.Equal(t, returned, *loan.ReturnedAt)
		assert.Empty(t, notifier.messages)
		store.items.AssertNotCalled(t, "AddUsage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LosingCloseRaceReturnsWinnerRow", func(t *testing.T) {
		store := newMockStore()
		svc, _ := newLoanServiceForTest(store)

		started := fixedNow().Add(-time.Hour)
		open := &domain.Loan{ID: 4, ItemID: 7, ItemCode: "NB-01", StartedAt: started, Status: domain.LoanStatusOpen}
		returned := fixedNow().Add(-time.Minute)
		hours := 0.98
		winner := &domain.Loan{
			ID: 4, ItemID: 7, ItemCode: "NB-01", StartedAt: started,
			ReturnedAt: &returned, DurationHours: &hours, Status: domain.LoanStatusClosed,
		}
		store.loans.On("GetByID", ctx, int32(4)).Return(open, nil).Once()
		store.loans.On("Close", ctx, int32(4), fixedNow(), 1.0).Return(false, nil)
		store.loans.On("GetByID", ctx, int32(4)).Return(winner, nil).Once()

		loan, err := svc.CloseLoan(ctx, 4, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 0.98, *loan.DurationHours)
		store.items.AssertNotCalled(t, "AddUsage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ReturnBeforeStartRejected", func(t *testing.T) {
		store := newMockStore()
		svc, _ := newLoanServiceForTest(store)

		open := &domain.Loan{ID: 4, ItemID: 7, StartedAt: fixedNow(), Status: domain.LoanStatusOpen}
		store.loans.On("GetByID", ctx, int32(4)).Return(open, nil)

		_, err := svc.CloseLoan(ctx, 4, fixedNow().Add(-time.Hour))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

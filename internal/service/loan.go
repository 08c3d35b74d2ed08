package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/logger"
	"prestamos-backend/internal/repository"
)

type loanService struct {
	store    repository.Store
	notifier Notifier
	now      func() time.Time
}

func NewLoanService(store repository.Store, notifier Notifier) LoanService {
	return &loanService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validateAcademicFields(level domain.Level, program *domain.Program, year *int32) error {
	if !level.Valid() {
		return fmt.Errorf("%w: unknown level %q", domain.ErrValidation, level)
	}
	if level == domain.LevelHigher {
		if program == nil || year == nil {
			return fmt.Errorf("%w: program and year are required for %s", domain.ErrValidation, level.Display())
		}
		if !program.Valid() {
			return fmt.Errorf("%w: unknown program %q", domain.ErrValidation, *program)
		}
		if *year < 1 || *year > 2 {
			return fmt.Errorf("%w: year must be 1 or 2", domain.ErrValidation)
		}
		return nil
	}
	if program != nil || year != nil {
		return fmt.Errorf("%w: program and year only apply to %s", domain.ErrValidation, domain.LevelHigher.Display())
	}
	return nil
}

func (s *loanService) StartLoan(ctx context.Context, req StartLoanRequest) (*domain.Loan, error) {
	if req.ItemCode == "" {
		return nil, fmt.Errorf("%w: item code is required", domain.ErrValidation)
	}
	if req.Requester == "" {
		return nil, fmt.Errorf("%w: requester is required", domain.ErrValidation)
	}
	if err := validateAcademicFields(req.Level, req.Program, req.Year); err != nil {
		return nil, err
	}
	if !req.Shift.Valid() {
		return nil, fmt.Errorf("%w: unknown shift %q", domain.ErrValidation, req.Shift)
	}
	shift := domain.NormalizeShift(req.Level, req.Shift)

	var loan *domain.Loan
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		it, err := tx.Items().GetByCode(ctx, req.ItemCode)
		if err != nil {
			return err
		}
		if err := tx.Items().Transition(ctx, it.ID,
			[]domain.ItemStatus{domain.ItemStatusAvailable}, domain.ItemStatusInUse); err != nil {
			return err
		}
		loan = &domain.Loan{
			ItemID:    it.ID,
			ItemCode:  it.Code,
			Level:     req.Level,
			Program:   req.Program,
			Year:      req.Year,
			Shift:     shift,
			Classroom: req.Classroom,
			Requester: req.Requester,
			StartedAt: s.now(),
			DueAt:     req.DueAt,
			Status:    domain.LoanStatusOpen,
			Notes:     req.Notes,
		}
		return tx.Loans().Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, fmt.Sprintf("✅ %s inició préstamo de %s (%s, turno %s).",
		loan.Requester, loan.ItemCode, loan.Level.Display(), loan.Shift.Display()))
	return loan, nil
}

func (s *loanService) CloseLoan(ctx context.Context, loanID int32, when time.Time) (*domain.Loan, error) {
	if when.IsZero() {
		when = s.now()
	}

	var loan *domain.Loan
	var closedNow bool
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		l, err := tx.Loans().GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if l.Closed() {
			loan = l
			return nil
		}
		if when.Before(l.StartedAt) {
			return fmt.Errorf("%w: return time precedes loan start", domain.ErrValidation)
		}

		hours := round2(when.Sub(l.StartedAt).Hours())
		closed, err := tx.Loans().Close(ctx, l.ID, when, hours)
		if err != nil {
			return err
		}
		if !closed {
			// Lost the race to another close; reread and report the
			// already-closed row.
			loan, err = tx.Loans().GetByID(ctx, loanID)
			return err
		}

		if err := tx.Items().AddUsage(ctx, l.ItemID, hours); err != nil {
			return err
		}
		if err := tx.Items().Transition(ctx, l.ItemID,
			[]domain.ItemStatus{domain.ItemStatusInUse}, domain.ItemStatusAvailable); err != nil {
			// The item may have been retired or pulled to maintenance while
			// out; the loan still closes.
			logger.Warn("Item did not return to available on loan close",
				"loanId", l.ID, "itemId", l.ItemID, "error", err)
		}

		l.ReturnedAt = &when
		l.DurationHours = &hours
		l.Status = domain.LoanStatusClosed
		loan = l
		closedNow = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if closedNow && loan.DurationHours != nil {
		s.notifier.Notify(ctx, fmt.Sprintf("📦 %s devolvió %s (%.2f h).",
			loan.Requester, loan.ItemCode, *loan.DurationHours))
	}
	return loan, nil
}

func (s *loanService) FindOpenLoan(ctx context.Context, itemCode string) (*domain.Loan, error) {
	return s.store.Loans().FindOpenByItemCode(ctx, itemCode)
}

func (s *loanService) ListOpenByRequester(ctx context.Context, requester string) ([]domain.Loan, error) {
	return s.store.Loans().ListOpenByRequester(ctx, requester)
}

func (s *loanService) UsageStats(ctx context.Context, days int) (*domain.UsageStats, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)
	stats, err := s.store.Loans().UsageStats(ctx, since)
	if err != nil {
		return nil, err
	}
	inMaint, err := s.store.Items().CountByStatus(ctx, domain.ItemStatusMaintenance)
	if err != nil {
		return nil, err
	}
	stats.InMaintenance = inMaint
	return stats, nil
}

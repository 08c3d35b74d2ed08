package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/logger"
	"prestamos-backend/internal/repository"
)

// errConversionRefused signals a clean refusal inside the conversion
// transaction; ApproveAndConvert translates it to (nil, nil).
var errConversionRefused = errors.New("conversion refused")

type reservationService struct {
	store       repository.Store
	notifier    Notifier
	loc         *time.Location
	closingHour int
	now         func() time.Time
}

func NewReservationService(store repository.Store, notifier Notifier, loc *time.Location, closingHour int) ReservationService {
	return &reservationService{
		store:       store,
		notifier:    notifier,
		loc:         loc,
		closingHour: closingHour,
		now:         time.Now,
	}
}

// defaultExpiry is the institutional closing time on the current day, or
// on the next day when the closing time has already passed.
func (s *reservationService) defaultExpiry() time.Time {
	now := s.now().In(s.loc)
	exp := time.Date(now.Year(), now.Month(), now.Day(), s.closingHour, 0, 0, 0, s.loc)
	if !exp.After(now) {
		exp = exp.AddDate(0, 0, 1)
	}
	return exp
}

func (s *reservationService) Reserve(ctx context.Context, req ReserveRequest) (*domain.Reservation, error) {
	if req.Requester == "" {
		return nil, fmt.Errorf("%w: requester is required", domain.ErrValidation)
	}
	if req.ItemCode == "" && !req.Category.Valid() {
		return nil, fmt.Errorf("%w: an item code or a category is required", domain.ErrValidation)
	}
	if !req.Level.Valid() {
		return nil, fmt.Errorf("%w: unknown level %q", domain.ErrValidation, req.Level)
	}
	if !req.Shift.Valid() {
		return nil, fmt.Errorf("%w: unknown shift %q", domain.ErrValidation, req.Shift)
	}
	shift := domain.NormalizeShift(req.Level, req.Shift)

	expiresAt := s.defaultExpiry()
	if req.ExpiresAt != nil {
		if req.ExpiresAt.Before(s.now()) {
			return nil, fmt.Errorf("%w: expiry is in the past", domain.ErrValidation)
		}
		expiresAt = *req.ExpiresAt
	}

	var res *domain.Reservation
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		taken, err := tx.Reservations().HasActiveByRequester(ctx, req.Requester)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: requester already holds an active reservation", domain.ErrValidation)
		}

		res = &domain.Reservation{
			Category:  req.Category,
			Level:     req.Level,
			Shift:     shift,
			Classroom: req.Classroom,
			Requester: req.Requester,
			ChannelID: req.ChannelID,
			CreatedAt: s.now(),
			ExpiresAt: expiresAt,
			Status:    domain.ReservationStatusActive,
		}

		if req.ItemCode != "" {
			it, err := tx.Items().GetByCode(ctx, req.ItemCode)
			if err != nil {
				return err
			}
			if err := tx.Items().Transition(ctx, it.ID,
				[]domain.ItemStatus{domain.ItemStatusAvailable}, domain.ItemStatusReserved); err != nil {
				return err
			}
			res.ItemID = &it.ID
			res.ItemCode = it.Code
			res.Category = it.Category
		} else {
			// Category-only requests take the first free unit; with none
			// free the reservation stays unbound until approval.
			avail, err := tx.Items().ListAvailable(ctx, req.Category)
			if err != nil {
				return err
			}
			for i := range avail {
				it := avail[i]
				if err := tx.Items().Transition(ctx, it.ID,
					[]domain.ItemStatus{domain.ItemStatusAvailable}, domain.ItemStatusReserved); err != nil {
					if errors.Is(err, domain.ErrItemNotAvailable) {
						continue
					}
					return err
				}
				res.ItemID = &it.ID
				res.ItemCode = it.Code
				break
			}
		}

		return tx.Reservations().Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	if res.ItemCode != "" {
		s.notifier.Notify(ctx, fmt.Sprintf("📝 %s reservó %s hasta las %s.",
			res.Requester, res.ItemCode, res.ExpiresAt.In(s.loc).Format("15:04")))
	} else {
		s.notifier.Notify(ctx, fmt.Sprintf("📝 %s reservó %s (sin unidad asignada).",
			res.Requester, res.Category.Display()))
	}
	return res, nil
}

func (s *reservationService) Cancel(ctx context.Context, reservationID int32, actor, reason string) (*domain.Reservation, error) {
	res, err := s.closeOut(ctx, reservationID, func(tx repository.Store, r *domain.Reservation) (bool, error) {
		at := s.now()
		ok, err := tx.Reservations().Cancel(ctx, r.ID, actor, at, reason)
		if ok {
			r.Status = domain.ReservationStatusCancelled
			r.CancelledBy = actor
			r.CancelledAt = &at
			r.CancelNote = reason
		}
		return ok, err
	})
	if err != nil {
		return nil, err
	}
	if reason != "" {
		s.notifier.Notify(ctx, fmt.Sprintf("🚫 Reserva de %s (%s) cancelada: %s.",
			res.Requester, reservationTarget(res), reason))
	} else {
		s.notifier.Notify(ctx, fmt.Sprintf("🚫 Reserva de %s (%s) cancelada.",
			res.Requester, reservationTarget(res)))
	}
	return res, nil
}

func (s *reservationService) Expire(ctx context.Context, reservationID int32) (*domain.Reservation, error) {
	res, err := s.closeOut(ctx, reservationID, func(tx repository.Store, r *domain.Reservation) (bool, error) {
		ok, err := tx.Reservations().Expire(ctx, r.ID)
		if ok {
			r.Status = domain.ReservationStatusExpired
		}
		return ok, err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, fmt.Sprintf("⌛ Reserva de %s (%s) expirada.",
		res.Requester, reservationTarget(res)))
	return res, nil
}

func reservationTarget(r *domain.Reservation) string {
	if r.ItemCode != "" {
		return r.ItemCode
	}
	return r.Category.Display()
}

// closeOut runs one terminal transition and releases the reserved item.
// The flip is conditional at the database, so a reservation that already
// reached a terminal state comes back as ErrInvalidStateTransition.
func (s *reservationService) closeOut(ctx context.Context, reservationID int32,
	flip func(repository.Store, *domain.Reservation) (bool, error)) (*domain.Reservation, error) {

	var res *domain.Reservation
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		r, err := tx.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		ok, err := flip(tx, r)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: reservation %d is already %s", domain.ErrInvalidStateTransition, r.ID, r.Status)
		}
		if r.ItemID != nil {
			if err := tx.Items().Transition(ctx, *r.ItemID,
				[]domain.ItemStatus{domain.ItemStatusReserved}, domain.ItemStatusAvailable); err != nil {
				logger.Warn("Reserved item did not release on reservation close",
					"reservationId", r.ID, "itemId", *r.ItemID, "error", err)
			}
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reservationService) CancelActiveFor(ctx context.Context, requester, actor, reason string) (*domain.Reservation, error) {
	active, err := s.store.Reservations().ListActiveByRequester(ctx, requester)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, domain.ErrNotFound
	}
	return s.Cancel(ctx, active[0].ID, actor, reason)
}

func (s *reservationService) ApproveAndConvert(ctx context.Context, reservationID int32, approver string) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		r, err := tx.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.Status.Terminal() || r.ItemID == nil {
			return errConversionRefused
		}
		// An early release can put the item back to Available while the
		// reservation stays active; both states convert into a loan.
		if err := tx.Items().Transition(ctx, *r.ItemID,
			[]domain.ItemStatus{domain.ItemStatusReserved, domain.ItemStatusAvailable}, domain.ItemStatusInUse); err != nil {
			if errors.Is(err, domain.ErrItemNotAvailable) {
				return errConversionRefused
			}
			return err
		}

		at := s.now()
		ok, err := tx.Reservations().Convert(ctx, r.ID, approver, at)
		if err != nil {
			return err
		}
		if !ok {
			return errConversionRefused
		}

		loan = &domain.Loan{
			ItemID:    *r.ItemID,
			ItemCode:  r.ItemCode,
			Level:     r.Level,
			Shift:     r.Shift,
			Classroom: r.Classroom,
			Requester: r.Requester,
			StartedAt: at,
			Status:    domain.LoanStatusOpen,
			Notes:     r.Notes,
		}
		return tx.Loans().Create(ctx, loan)
	})
	if errors.Is(err, errConversionRefused) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, fmt.Sprintf("✅ Reserva de %s aprobada por %s; préstamo de %s iniciado.",
		loan.Requester, approver, loan.ItemCode))
	return loan, nil
}

func (s *reservationService) ListActiveForRequester(ctx context.Context, requester string) ([]domain.Reservation, error) {
	return s.store.Reservations().ListActiveByRequester(ctx, requester)
}

func (s *reservationService) ListPending(ctx context.Context) ([]domain.Reservation, error) {
	return s.store.Reservations().ListActive(ctx)
}

func (s *reservationService) Sweep(ctx context.Context) (int, int, error) {
	now := s.now()

	overdue, err := s.store.Reservations().ListExpiredActive(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	var expired int
	for i := range overdue {
		if _, err := s.Expire(ctx, overdue[i].ID); err != nil {
			if errors.Is(err, domain.ErrInvalidStateTransition) || errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return expired, 0, err
		}
		expired++
	}

	// Past closing time nothing can be picked up today, so every
	// remaining hold is released.
	var cancelled int
	if now.In(s.loc).Hour() >= s.closingHour {
		active, err := s.store.Reservations().ListActive(ctx)
		if err != nil {
			return expired, cancelled, err
		}
		for i := range active {
			if _, err := s.Cancel(ctx, active[i].ID, "sistema", "cierre del día"); err != nil {
				if errors.Is(err, domain.ErrInvalidStateTransition) || errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return expired, cancelled, err
			}
			cancelled++
		}
	}

	if expired+cancelled > 0 {
		logger.Info("Reservation sweep finished", "expired", expired, "cancelled", cancelled)
	}
	return expired, cancelled, nil
}

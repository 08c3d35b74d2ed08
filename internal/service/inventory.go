package service

import (
	"context"
	"fmt"
	"time"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/repository"
)

type inventoryService struct {
	store    repository.Store
	notifier Notifier
	now      func() time.Time
}

func NewInventoryService(store repository.Store, notifier Notifier) InventoryService {
	return &inventoryService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *inventoryService) GetItem(ctx context.Context, code string) (*domain.Item, error) {
	return s.store.Items().GetByCode(ctx, code)
}

func (s *inventoryService) ListAvailable(ctx context.Context, category domain.Category) ([]domain.Item, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, category)
	}
	return s.store.Items().ListAvailable(ctx, category)
}

func (s *inventoryService) ProvisionItems(ctx context.Context, category domain.Category, count int) ([]domain.Item, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, category)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", domain.ErrValidation)
	}

	var items []domain.Item
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Items().CountByCategory(ctx, category)
		if err != nil {
			return err
		}
		for i := 1; i <= count; i++ {
			it := domain.Item{
				Code:     fmt.Sprintf("%s-%02d", category, int(existing)+i),
				Category: category,
				Status:   domain.ItemStatusAvailable,
			}
			if err := tx.Items().Create(ctx, &it); err != nil {
				return err
			}
			items = append(items, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *inventoryService) RemoveItem(ctx context.Context, code string) error {
	it, err := s.store.Items().GetByCode(ctx, code)
	if err != nil {
		return err
	}
	return s.store.Items().Delete(ctx, it.ID)
}

func (s *inventoryService) SendToMaintenance(ctx context.Context, code string, kind domain.TicketKind, severity int32, description string) (*domain.MaintenanceTicket, error) {
	if severity < 1 || severity > 5 {
		return nil, fmt.Errorf("%w: severity must be 1-5", domain.ErrValidation)
	}

	var ticket *domain.MaintenanceTicket
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		it, err := tx.Items().GetByCode(ctx, code)
		if err != nil {
			return err
		}
		// Items on loan or held by a reservation keep their state; only
		// idle units can be pulled out of service.
		if err := tx.Items().Transition(ctx, it.ID,
			[]domain.ItemStatus{domain.ItemStatusAvailable}, domain.ItemStatusMaintenance); err != nil {
			return err
		}
		ticket = &domain.MaintenanceTicket{
			ItemID:      it.ID,
			Kind:        kind,
			Severity:    severity,
			Description: description,
			Status:      domain.TicketStatusOpen,
		}
		return tx.Maintenance().Create(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, fmt.Sprintf("🔧 %s pasó a mantenimiento (%s, severidad %d).", code, kind, severity))
	return ticket, nil
}

func (s *inventoryService) ReturnToService(ctx context.Context, code string, ticketID int32) (*domain.Item, error) {
	var item *domain.Item
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		it, err := tx.Items().GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if err := tx.Maintenance().CloseTicket(ctx, ticketID, s.now()); err != nil {
			return err
		}
		if err := tx.Items().Transition(ctx, it.ID,
			[]domain.ItemStatus{domain.ItemStatusMaintenance}, domain.ItemStatusAvailable); err != nil {
			return err
		}
		it.Status = domain.ItemStatusAvailable
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

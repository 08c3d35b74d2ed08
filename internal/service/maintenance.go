package service

import (
	"context"
	"math"
	"sort"
	"time"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/repository"
)

type maintenanceService struct {
	store repository.Store
	now   func() time.Time
}

func NewMaintenanceService(store repository.Store) MaintenanceService {
	return &maintenanceService{store: store, now: time.Now}
}

// RiskScore is a 0-100 wear heuristic: accumulated hours saturate at 80,
// accumulated uses at 100, recent tickets (60 days) at 3.
func (s *maintenanceService) RiskScore(ctx context.Context, item *domain.Item) (float64, error) {
	since := s.now().AddDate(0, 0, -60)
	tickets, err := s.store.Maintenance().CountRecentByItem(ctx, item.ID, since)
	if err != nil {
		return 0, err
	}

	hours := math.Min(item.UsageHours/80.0, 1)
	uses := math.Min(float64(item.UsageCount)/100.0, 1)
	recent := math.Min(float64(tickets)/3.0, 1)
	score := 100 * (0.5*hours + 0.3*uses + 0.2*recent)
	return math.Round(score*100) / 100, nil
}

func (s *maintenanceService) ScanHighRisk(ctx context.Context, threshold float64) ([]ItemRisk, error) {
	items, err := s.store.Items().List(ctx)
	if err != nil {
		return nil, err
	}

	var risks []ItemRisk
	for i := range items {
		score, err := s.RiskScore(ctx, &items[i])
		if err != nil {
			return nil, err
		}
		if score >= threshold {
			risks = append(risks, ItemRisk{Code: items[i].Code, Score: score})
		}
	}
	sort.Slice(risks, func(i, j int) bool { return risks[i].Score > risks[j].Score })
	return risks, nil
}

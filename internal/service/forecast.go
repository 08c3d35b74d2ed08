package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/logger"
	"prestamos-backend/internal/repository"
)

type restyForecastClient struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// NewForecastClient talks to the model-serving endpoint. A tripped
// breaker or any transport/HTTP failure surfaces as
// domain.ErrModelUnavailable so callers fall back instead of erroring.
func NewForecastClient(baseURL string, timeout time.Duration) ForecastClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "forecast",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &restyForecastClient{client: client, breaker: breaker}
}

func (c *restyForecastClient) post(ctx context.Context, path string, body any) (float64, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var result struct {
			Value float64 `json:"value"`
		}
		logger.ExternalServiceCall("forecast", path)
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&result).
			Post(path)
		logger.ExternalServiceResult("forecast", path, err)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("forecast endpoint returned %d", resp.StatusCode())
		}
		return result.Value, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	return out.(float64), nil
}

func (c *restyForecastClient) PredictDemand(ctx context.Context, date time.Time, category domain.Category, shift domain.Shift) (float64, error) {
	return c.post(ctx, "/predict/demand", map[string]any{
		"date":  date.Format("2006-01-02"),
		"tipo":  category,
		"turno": shift,
	})
}

func (c *restyForecastClient) PredictTardiness(ctx context.Context, category domain.Category, level domain.Level, shift domain.Shift, hour float64, expectedHours float64) (float64, error) {
	return c.post(ctx, "/predict/tardiness", map[string]any{
		"tipo":           category,
		"nivel":          level,
		"turno":          shift,
		"hora":           hour,
		"duracion_horas": expectedHours,
	})
}

type forecastService struct {
	store          repository.Store
	client         ForecastClient
	loc            *time.Location
	ensembleWeight float64
	tardyMedium    float64
	tardyHigh      float64
	now            func() time.Time
}

func NewForecastService(store repository.Store, client ForecastClient, loc *time.Location, ensembleWeight, tardyMedium, tardyHigh float64) ForecastService {
	return &forecastService{
		store:          store,
		client:         client,
		loc:            loc,
		ensembleWeight: ensembleWeight,
		tardyMedium:    tardyMedium,
		tardyHigh:      tardyHigh,
		now:            time.Now,
	}
}

var forecastCategories = []domain.Category{
	domain.CategoryNotebook, domain.CategoryTablet, domain.CategoryExtensionCord,
}

var forecastShifts = []domain.Shift{
	domain.ShiftMorning, domain.ShiftAfternoon, domain.ShiftNight,
}

// lag7 is the plain historical estimator: closed loans over the last
// seven days, averaged per day.
func (s *forecastService) lag7(ctx context.Context, category domain.Category, shift domain.Shift) (float64, error) {
	count, err := s.store.Loans().CountClosedSince(ctx, category, shift, s.now().AddDate(0, 0, -7))
	if err != nil {
		return 0, err
	}
	return float64(count) / 7.0, nil
}

func (s *forecastService) DemandForecast(ctx context.Context, horizonDays int, mode string) ([]DemandPrediction, error) {
	if horizonDays <= 0 {
		horizonDays = 7
	}
	if horizonDays > 30 {
		return nil, fmt.Errorf("%w: horizon capped at 30 days", domain.ErrValidation)
	}
	switch mode {
	case "", "ensemble":
		mode = "ensemble"
	case "ml", "lag7":
	default:
		return nil, fmt.Errorf("%w: unknown forecast mode %q", domain.ErrValidation, mode)
	}

	today := s.now().In(s.loc)
	var out []DemandPrediction
	for d := 1; d <= horizonDays; d++ {
		date := today.AddDate(0, 0, d)
		for _, cat := range forecastCategories {
			for _, shift := range forecastShifts {
				lag, err := s.lag7(ctx, cat, shift)
				if err != nil {
					return nil, err
				}
				p := DemandPrediction{
					Date:     date.Format("2006-01-02"),
					Category: cat,
					Shift:    shift,
					Lag7:     lag,
					Mode:     mode,
				}

				switch mode {
				case "lag7":
					p.Pred = int(math.Round(lag))
				default:
					ml, err := s.client.PredictDemand(ctx, date, cat, shift)
					if err != nil {
						// Model down: degrade the whole cell to lag7.
						logger.Warn("Demand model unavailable, using lag7", "error", err)
						p.Pred = int(math.Round(lag))
						p.Mode = "lag7"
						break
					}
					p.ML = &ml
					if mode == "ml" {
						p.Pred = int(math.Round(ml))
					} else {
						p.Pred = int(math.Round(s.ensembleWeight*lag + (1-s.ensembleWeight)*ml))
					}
				}
				if p.Pred < 0 {
					p.Pred = 0
				}
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (s *forecastService) TardinessRisk(ctx context.Context, category domain.Category, level domain.Level, shift domain.Shift, at time.Time, expectedHours float64) (*TardinessPrediction, error) {
	if !category.Valid() || !level.Valid() || !shift.Valid() {
		return nil, fmt.Errorf("%w: bad category/level/shift", domain.ErrValidation)
	}
	if expectedHours <= 0 {
		expectedHours = typicalDuration(shift)
	}

	local := at.In(s.loc)
	hour := float64(local.Hour()) + float64(local.Minute())/60.0

	pred := &TardinessPrediction{}
	score, err := s.client.PredictTardiness(ctx, category, level, shift, hour, expectedHours)
	if err != nil {
		logger.Warn("Tardiness model unavailable, using historical late rate", "error", err)
		score, err = s.store.Loans().LateFraction(ctx, category, s.now().AddDate(0, 0, -60))
		if err != nil {
			return nil, err
		}
		pred.Fallback = true
	}

	pred.Score = math.Min(math.Max(score, 0), 1)
	switch {
	case pred.Score < s.tardyMedium:
		pred.Tier = "bajo"
	case pred.Score < s.tardyHigh:
		pred.Tier = "medio"
	default:
		pred.Tier = "alto"
	}
	return pred, nil
}

// typicalDuration is the institutional default loan length used when the
// caller gives no expected duration.
func typicalDuration(shift domain.Shift) float64 {
	if shift == domain.ShiftNight {
		return 2.0
	}
	return 1.5
}

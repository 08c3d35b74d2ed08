package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/repository"
)

type reportService struct {
	store    repository.Store
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewReportService(store repository.Store, notifier Notifier, loc *time.Location) ReportService {
	return &reportService{
		store:    store,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *reportService) WeeklySummary(ctx context.Context) (string, error) {
	since := s.now().AddDate(0, 0, -7)
	stats, err := s.store.Loans().UsageStats(ctx, since)
	if err != nil {
		return "", err
	}
	inMaint, err := s.store.Items().CountByStatus(ctx, domain.ItemStatusMaintenance)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Resumen semanal (%s al %s)\n",
		since.In(s.loc).Format("02/01"), s.now().In(s.loc).Format("02/01"))
	fmt.Fprintf(&b, "Horas de uso: %.2f (promedio %.2f h por préstamo)\n", stats.TotalHours, stats.AvgDuration)

	if len(stats.HoursByCategory) > 0 {
		b.WriteString("Por tipo:")
		for _, cat := range []domain.Category{domain.CategoryNotebook, domain.CategoryTablet, domain.CategoryExtensionCord} {
			if h, ok := stats.HoursByCategory[cat]; ok {
				fmt.Fprintf(&b, " %s %.1fh", cat.Display(), h)
			}
		}
		b.WriteString("\n")
	}
	if len(stats.HoursByShift) > 0 {
		b.WriteString("Por turno:")
		for _, shift := range []domain.Shift{domain.ShiftMorning, domain.ShiftAfternoon, domain.ShiftNight} {
			if h, ok := stats.HoursByShift[shift]; ok {
				fmt.Fprintf(&b, " %s %.1fh", shift.Display(), h)
			}
		}
		b.WriteString("\n")
	}
	if len(stats.TopItems) > 0 {
		b.WriteString("Más usados:")
		for _, u := range stats.TopItems {
			fmt.Fprintf(&b, " %s (%.1fh)", u.Code, u.Hours)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Devoluciones tarde: %d. Equipos en mantenimiento: %d.", stats.LateReturns, inMaint)

	text := b.String()
	s.notifier.Notify(ctx, text)
	return text, nil
}

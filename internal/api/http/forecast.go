package http

import (
	"net/http"
	"strconv"
	"time"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/service"
)

// nowFromRequest lets callers score a future pickup time via "hora"
// (RFC 3339); without it the risk is scored for right now.
func nowFromRequest(r *http.Request) time.Time {
	if v := r.URL.Query().Get("hora"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Now()
}

type ForecastHandler struct {
	forecast    service.ForecastService
	maintenance service.MaintenanceService
	reports     service.ReportService
	riskDefault float64
}

func NewForecastHandler(forecast service.ForecastService, maintenance service.MaintenanceService, reports service.ReportService, riskDefault float64) *ForecastHandler {
	return &ForecastHandler{
		forecast:    forecast,
		maintenance: maintenance,
		reports:     reports,
		riskDefault: riskDefault,
	}
}

func (h *ForecastHandler) Demand(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("dias"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, domain.ErrValidation)
			return
		}
		days = n
	}
	mode := r.URL.Query().Get("modo")

	preds, err := h.forecast.DemandForecast(r.Context(), days, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	if preds == nil {
		preds = []service.DemandPrediction{}
	}
	writeJSON(w, http.StatusOK, preds)
}

func (h *ForecastHandler) Tardiness(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hours := 0.0
	if v := q.Get("horas"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, domain.ErrValidation)
			return
		}
		hours = f
	}

	pred, err := h.forecast.TardinessRisk(r.Context(),
		domain.Category(q.Get("tipo")),
		domain.Level(q.Get("nivel")),
		domain.Shift(q.Get("turno")),
		nowFromRequest(r), hours)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func (h *ForecastHandler) MaintenanceRisk(w http.ResponseWriter, r *http.Request) {
	threshold := h.riskDefault
	if v := r.URL.Query().Get("umbral"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, domain.ErrValidation)
			return
		}
		threshold = f
	}

	risks, err := h.maintenance.ScanHighRisk(r.Context(), threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	if risks == nil {
		risks = []service.ItemRisk{}
	}
	writeJSON(w, http.StatusOK, risks)
}

type weeklyReportResponse struct {
	Report string `json:"report"`
}

func (h *ForecastHandler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	text, err := h.reports.WeeklySummary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weeklyReportResponse{Report: text})
}

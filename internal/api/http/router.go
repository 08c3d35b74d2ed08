package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"prestamos-backend/internal/security"
	"prestamos-backend/internal/service"
)

// Services bundles everything the router exposes.
type Services struct {
	Inventory    service.InventoryService
	Loans        service.LoanService
	Reservations service.ReservationService
	Chat         service.ChatService
	Forecast     service.ForecastService
	Maintenance  service.MaintenanceService
	Reports      service.ReportService
}

// NewRouter wires all handlers under /api/v1. Routes marked staff-only
// additionally require the staff role on the token.
func NewRouter(svcs Services, tokens security.TokenManager, riskThreshold float64) *mux.Router {
	auth := newAuthMiddleware(tokens)

	items := NewItemHandler(svcs.Inventory)
	loans := NewLoanHandler(svcs.Loans)
	reservations := NewReservationHandler(svcs.Reservations)
	chat := NewChatHandler(svcs.Chat)
	forecast := NewForecastHandler(svcs.Forecast, svcs.Maintenance, svcs.Reports, riskThreshold)

	r := mux.NewRouter()
	r.Use(RequestID, RequestLogger)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Authenticate)

	api.HandleFunc("/items/available", items.ListAvailable).Methods("GET")
	api.HandleFunc("/items/{code}", items.Get).Methods("GET")

	api.HandleFunc("/loans", loans.Start).Methods("POST")
	api.HandleFunc("/loans/open", loans.FindOpen).Methods("GET")
	api.HandleFunc("/loans/mine", loans.ListMine).Methods("GET")
	api.HandleFunc("/loans/{id}/close", loans.Close).Methods("POST")

	api.HandleFunc("/reservations", reservations.Create).Methods("POST")
	api.HandleFunc("/reservations/mine", reservations.ListMine).Methods("GET")
	api.HandleFunc("/reservations/{id}/cancel", reservations.Cancel).Methods("POST")

	api.HandleFunc("/chat", chat.Message).Methods("POST")

	api.HandleFunc("/forecast/demand", forecast.Demand).Methods("GET")
	api.HandleFunc("/forecast/tardiness", forecast.Tardiness).Methods("GET")

	staff := api.NewRoute().Subrouter()
	staff.Use(auth.RequireStaff)

	staff.HandleFunc("/items/provision", items.Provision).Methods("POST")
	staff.HandleFunc("/items/{code}", items.Remove).Methods("DELETE")
	staff.HandleFunc("/items/{code}/maintenance", items.SendToMaintenance).Methods("POST")
	staff.HandleFunc("/items/{code}/service", items.ReturnToService).Methods("POST")

	staff.HandleFunc("/reservations/pending", reservations.ListPending).Methods("GET")
	staff.HandleFunc("/reservations/{id}/approve", reservations.Approve).Methods("POST")
	staff.HandleFunc("/reservations/sweep", reservations.Sweep).Methods("POST")

	staff.HandleFunc("/stats/usage", loans.UsageStats).Methods("GET")
	staff.HandleFunc("/maintenance/risk", forecast.MaintenanceRisk).Methods("GET")
	staff.HandleFunc("/reports/weekly", forecast.WeeklyReport).Methods("POST")

	return r
}

package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/service"
)

type ReservationHandler struct {
	reservations service.ReservationService
}

func NewReservationHandler(reservations service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

type reserveRequest struct {
	ItemCode  string          `json:"item_code,omitempty"`
	Category  domain.Category `json:"tipo,omitempty"`
	Level     domain.Level    `json:"nivel"`
	Shift     domain.Shift    `json:"turno"`
	Classroom string          `json:"aula"`
	ExpiresAt *time.Time      `json:"expira,omitempty"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	claims := claimsFrom(r.Context())

	res, err := h.reservations.Reserve(r.Context(), service.ReserveRequest{
		ItemCode:  req.ItemCode,
		Category:  req.Category,
		Level:     req.Level,
		Shift:     req.Shift,
		Classroom: req.Classroom,
		Requester: claims.Username,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type cancelRequest struct {
	Reason string `json:"motivo"`
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	var req cancelRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	claims := claimsFrom(r.Context())

	res, err := h.reservations.Cancel(r.Context(), int32(id), claims.Username, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Approve converts a reservation into a loan. A refusal (reservation no
// longer convertible) comes back as 409, not as a server error.
func (h *ReservationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	claims := claimsFrom(r.Context())

	loan, err := h.reservations.ApproveAndConvert(r.Context(), int32(id), claims.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	if loan == nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "la reserva ya no puede convertirse"})
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	list, err := h.reservations.ListActiveForRequester(r.Context(), claims.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReservationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.reservations.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

type sweepResponse struct {
	Expired   int `json:"expiradas"`
	Cancelled int `json:"canceladas"`
}

func (h *ReservationHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	expired, cancelled, err := h.reservations.Sweep(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{Expired: expired, Cancelled: cancelled})
}

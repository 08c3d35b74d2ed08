package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/service"
)

type LoanHandler struct {
	loans service.LoanService
}

func NewLoanHandler(loans service.LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

type startLoanRequest struct {
	ItemCode  string          `json:"item_code"`
	Level     domain.Level    `json:"nivel"`
	Program   *domain.Program `json:"carrera,omitempty"`
	Year      *int32          `json:"anio,omitempty"`
	Shift     domain.Shift    `json:"turno"`
	Classroom string          `json:"aula"`
	DueAt     *time.Time      `json:"fin_prevista,omitempty"`
	Notes     string          `json:"observaciones"`
}

func (h *LoanHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startLoanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	claims := claimsFrom(r.Context())

	loan, err := h.loans.StartLoan(r.Context(), service.StartLoanRequest{
		ItemCode:  req.ItemCode,
		Level:     req.Level,
		Program:   req.Program,
		Year:      req.Year,
		Shift:     req.Shift,
		Classroom: req.Classroom,
		Requester: claims.Username,
		DueAt:     req.DueAt,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

type closeLoanRequest struct {
	When *time.Time `json:"fin_real,omitempty"`
}

func (h *LoanHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	var req closeLoanRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	when := time.Time{}
	if req.When != nil {
		when = *req.When
	}

	loan, err := h.loans.CloseLoan(r.Context(), int32(id), when)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) FindOpen(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("item")
	if code == "" {
		writeError(w, domain.ErrValidation)
		return
	}
	loan, err := h.loans.FindOpenLoan(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	loans, err := h.loans.ListOpenByRequester(r.Context(), claims.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	if loans == nil {
		loans = []domain.Loan{}
	}
	writeJSON(w, http.StatusOK, loans)
}

func (h *LoanHandler) UsageStats(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("dias"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, domain.ErrValidation)
			return
		}
		days = n
	}
	stats, err := h.loans.UsageStats(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

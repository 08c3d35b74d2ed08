package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/service"
)

type ItemHandler struct {
	inventory service.InventoryService
}

func NewItemHandler(inventory service.InventoryService) *ItemHandler {
	return &ItemHandler{inventory: inventory}
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.inventory.GetItem(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ItemHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	category := domain.Category(r.URL.Query().Get("tipo"))
	items, err := h.inventory.ListAvailable(r.Context(), category)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

type provisionRequest struct {
	Category domain.Category `json:"tipo"`
	Count    int             `json:"cantidad"`
}

func (h *ItemHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	items, err := h.inventory.ProvisionItems(r.Context(), req.Category, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, items)
}

func (h *ItemHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.RemoveItem(r.Context(), mux.Vars(r)["code"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type maintenanceRequest struct {
	Kind        domain.TicketKind `json:"tipo"`
	Severity    int32             `json:"severidad"`
	Description string            `json:"descripcion"`
}

func (h *ItemHandler) SendToMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ticket, err := h.inventory.SendToMaintenance(r.Context(), mux.Vars(r)["code"], req.Kind, req.Severity, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

type returnToServiceRequest struct {
	TicketID int32 `json:"ticket_id"`
}

func (h *ItemHandler) ReturnToService(w http.ResponseWriter, r *http.Request) {
	var req returnToServiceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	it, err := h.inventory.ReturnToService(r.Context(), mux.Vars(r)["code"], req.TicketID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

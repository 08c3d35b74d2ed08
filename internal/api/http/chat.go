package http

import (
	"net/http"

	"prestamos-backend/internal/domain"
	"prestamos-backend/internal/service"
)

type ChatHandler struct {
	chat service.ChatService
}

func NewChatHandler(chat service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Message == "" {
		writeError(w, domain.ErrValidation)
		return
	}
	claims := claimsFrom(r.Context())

	reply, err := h.chat.HandleMessage(r.Context(), claims.Username, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	if reply.Suggestions == nil {
		reply.Suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, reply)
}

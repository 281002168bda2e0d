package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vipudev/vipudev/internal/store"
)

// ChatStore is the persistence surface the chat routes need.
type ChatStore interface {
	CreateChatMessage(ctx context.Context, params store.CreateChatMessageParams) (*store.ChatMessage, error)
	ChatMessages(ctx context.Context, limit int) ([]*store.ChatMessage, error)
	ClearChatHistory(ctx context.Context) error
}

// chatHandler serves the conversation log.
type chatHandler struct {
	store  ChatStore
	logger *slog.Logger
}

// validRoles are the accepted chat message roles.
var validRoles = map[string]bool{
	store.RoleUser:      true,
	store.RoleAssistant: true,
	store.RoleSystem:    true,
}

// limitParam parses the ?limit query parameter, falling back on absence or
// garbage. Clamping happens in the store.
func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return limit
}

func (h *chatHandler) history(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.ChatMessages(r.Context(), limitParam(r, store.DefaultChatLimit))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to load chat history", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

type createMessageRequest struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	CodeContext string `json:"codeContext"`
}

func (h *chatHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if !validRoles[req.Role] {
		WriteError(w, http.StatusBadRequest, "validation_failed", "role must be one of user, assistant, system", h.logger)
		return
	}
	if req.Content == "" {
		WriteError(w, http.StatusBadRequest, "validation_failed", "content is required", h.logger)
		return
	}

	message, err := h.store.CreateChatMessage(r.Context(), store.CreateChatMessageParams{
		Role:        req.Role,
		Content:     req.Content,
		CodeContext: req.CodeContext,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to store chat message", h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"message": message})
}

func (h *chatHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearChatHistory(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to clear chat history", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

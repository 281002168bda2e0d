package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vipudev/vipudev/internal/store"
)

// ConfigStore is the persistence surface the operator config routes need.
type ConfigStore interface {
	Config(ctx context.Context) (*store.UserConfig, error)
	UpsertConfig(ctx context.Context, params store.UpsertConfigParams) (*store.UserConfig, error)
}

// configHandler serves the singleton operator configuration.
type configHandler struct {
	store  ConfigStore
	logger *slog.Logger
}

// get returns the config record, or an empty object when none has been
// saved yet. Absence is a normal state, not an error.
func (h *configHandler) get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Config(r.Context())
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteJSON(w, http.StatusOK, map[string]any{"config": map[string]any{}})
	case err != nil:
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to load config", h.logger)
	default:
		WriteJSON(w, http.StatusOK, map[string]any{"config": cfg})
	}
}

type upsertConfigRequest struct {
	BackendURL string `json:"backendUrl"`
	APIKey     string `json:"apiKey"`
}

// upsert creates or fully replaces the config record. Last write wins.
func (h *configHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	cfg, err := h.store.UpsertConfig(r.Context(), store.UpsertConfigParams{
		BackendURL: req.BackendURL,
		APIKey:     req.APIKey,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to save config", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

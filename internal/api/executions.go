package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vipudev/vipudev/internal/store"
)

// ExecutionStore is the persistence surface the execution log routes need.
type ExecutionStore interface {
	CreateCodeExecution(ctx context.Context, params store.CreateCodeExecutionParams) (*store.CodeExecution, error)
	CodeExecutions(ctx context.Context, limit int) ([]*store.CodeExecution, error)
}

// executionHandler serves the execution audit log.
type executionHandler struct {
	store  ExecutionStore
	logger *slog.Logger
}

func (h *executionHandler) list(w http.ResponseWriter, r *http.Request) {
	executions, err := h.store.CodeExecutions(r.Context(), limitParam(r, store.DefaultExecutionLimit))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to load executions", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"executions": executions})
}

type createExecutionRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}

func (h *executionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createExecutionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if req.Language == "" || req.Code == "" {
		WriteError(w, http.StatusBadRequest, "validation_failed", "language and code are required", h.logger)
		return
	}

	execution, err := h.store.CreateCodeExecution(r.Context(), store.CreateCodeExecutionParams{
		Language: req.Language,
		Code:     req.Code,
		Stdout:   req.Stdout,
		Stderr:   req.Stderr,
		ExitCode: req.ExitCode,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to store execution", h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"execution": execution})
}

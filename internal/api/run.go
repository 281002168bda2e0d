package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vipudev/vipudev/internal/metrics"
	"github.com/vipudev/vipudev/internal/sandbox"
)

// Runner is the execution surface the run routes need.
type Runner interface {
	Run(ctx context.Context, language, code string) (*sandbox.RunResult, error)
	RunProject(ctx context.Context, language, command string, files []sandbox.File) (*sandbox.ProjectResult, error)
}

// runHandler serves code execution: single snippets on the host and whole
// projects in a container.
type runHandler struct {
	runner  Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type runRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

func (h *runHandler) run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if req.Code == "" {
		WriteError(w, http.StatusBadRequest, "validation_failed", "code is required", h.logger)
		return
	}

	result, err := h.runner.Run(r.Context(), req.Language, req.Code)
	if err != nil {
		h.observe("host", "error")
		h.logger.Error("host run failed", "language", req.Language, "error", err)
		WriteError(w, http.StatusInternalServerError, "execution_error", "failed to execute code", h.logger)
		return
	}

	h.observe("host", runOutcome(result.TimedOut, result.ExitCode))
	WriteJSON(w, http.StatusOK, result)
}

type runProjectRequest struct {
	Language string         `json:"language"`
	Command  string         `json:"command"`
	Files    []sandbox.File `json:"files"`
}

func (h *runHandler) runProject(w http.ResponseWriter, r *http.Request) {
	var req runProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if len(req.Files) == 0 {
		WriteError(w, http.StatusBadRequest, "validation_failed", "files array is required", h.logger)
		return
	}

	result, err := h.runner.RunProject(r.Context(), req.Language, req.Command, req.Files)
	switch {
	case errors.Is(err, sandbox.ErrUnsafePath):
		h.observe("container", "error")
		WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(), h.logger)
		return
	case err != nil:
		h.observe("container", "error")
		h.logger.Error("project run failed", "language", req.Language, "error", err)
		WriteError(w, http.StatusInternalServerError, "execution_error", "failed to execute project", h.logger)
		return
	}

	h.observe("container", runOutcome(result.ExitCode == -1, result.ExitCode))
	WriteJSON(w, http.StatusOK, result)
}

func runOutcome(timedOut bool, exitCode int) string {
	switch {
	case timedOut:
		return "timeout"
	case exitCode != 0:
		return "error"
	default:
		return "ok"
	}
}

func (h *runHandler) observe(mode, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveSandboxRun(mode, outcome)
	}
}

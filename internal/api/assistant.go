package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vipudev/vipudev/internal/assistant"
	"github.com/vipudev/vipudev/internal/metrics"
)

// Assistant is the model-call surface the assistant routes need.
type Assistant interface {
	Chat(ctx context.Context, messages []assistant.Message, codeContext string) (string, error)
	Analyze(ctx context.Context, combined string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// assistantHandler serves the model-backed routes: chat and image
// generation. ZIP analysis lives with the archive routes.
type assistantHandler struct {
	client  Assistant
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type assistantChatRequest struct {
	Messages    []assistant.Message `json:"messages"`
	CodeContext string              `json:"codeContext"`
}

func (h *assistantHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req assistantChatRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if len(req.Messages) == 0 {
		WriteError(w, http.StatusBadRequest, "validation_failed", "messages array is required", h.logger)
		return
	}

	reply, err := h.client.Chat(r.Context(), req.Messages, req.CodeContext)
	if err != nil {
		h.observe("chat", "error")
		h.writeAssistantError(w, err, "chat request failed")
		return
	}
	h.observe("chat", "ok")
	WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type generateImageRequest struct {
	Prompt string `json:"prompt"`
}

func (h *assistantHandler) generateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		WriteError(w, http.StatusBadRequest, "validation_failed", "prompt is required", h.logger)
		return
	}

	url, err := h.client.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		h.observe("image", "error")
		h.writeAssistantError(w, err, "image generation failed")
		return
	}
	h.observe("image", "ok")
	WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// writeAssistantError maps assistant failures onto HTTP statuses. A missing
// API key and an upstream failure both surface as 500: the operator has to
// fix the deployment either way.
func (h *assistantHandler) writeAssistantError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		WriteError(w, http.StatusInternalServerError, "not_configured", "OpenAI API key is not configured", h.logger)
	case errors.Is(err, assistant.ErrEmptyPrompt):
		WriteError(w, http.StatusBadRequest, "validation_failed", "prompt is empty", h.logger)
	default:
		h.logger.Error("assistant call failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "assistant_error", fallback, h.logger)
	}
}

func (h *assistantHandler) observe(kind, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveAssistantCall(kind, outcome)
	}
}

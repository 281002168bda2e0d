package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vipudev/vipudev/internal/deploy"
)

// deployHandler serves deployment walkthroughs.
type deployHandler struct {
	logger *slog.Logger
}

type deployRequest struct {
	Platform string `json:"platform"`
}

func (h *deployHandler) instructions(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	ins, err := deploy.For(strings.ToLower(strings.TrimSpace(req.Platform)))
	if errors.Is(err, deploy.ErrUnknownPlatform) {
		// An unrecognized platform still succeeds with a usage hint.
		WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"logs":    []string{"Unknown platform. Use " + strings.Join(deploy.Platforms(), " | ") + "."},
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"logs":     ins.Steps,
		"platform": ins.Platform,
		"notes":    ins.Notes,
	})
}

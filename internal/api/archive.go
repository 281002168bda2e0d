package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vipudev/vipudev/internal/archive"
	"github.com/vipudev/vipudev/internal/assistant"
	"github.com/vipudev/vipudev/internal/metrics"
)

// maxUploadBytes caps uploaded archives. Applies to the whole multipart
// body, not the sampled text.
const maxUploadBytes = 25 << 20

// archiveHandler serves ZIP bundling and uploaded-archive analysis.
type archiveHandler struct {
	assistant Assistant
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type zipCodeRequest struct {
	ProjectName string         `json:"projectName"`
	Files       []archive.File `json:"files"`
}

// zipCode bundles the submitted files and streams them back as a ZIP
// attachment.
func (h *archiveHandler) zipCode(w http.ResponseWriter, r *http.Request) {
	var req zipCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if len(req.Files) == 0 {
		WriteError(w, http.StatusBadRequest, "validation_failed", "files array is required", h.logger)
		return
	}

	var buf bytes.Buffer
	if err := archive.Bundle(&buf, req.Files); err != nil {
		h.logger.Error("bundling archive", "error", err)
		WriteError(w, http.StatusInternalServerError, "archive_error", "failed to build archive", h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+archive.Filename(req.ProjectName)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Debug("writing archive response", "error", err)
	}
}

// analyzeZip samples readable text out of an uploaded ZIP and asks the
// assistant to review it.
func (h *archiveHandler) analyzeZip(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "multipart form with a file field is required", h.logger)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "file field is required", h.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "upload_error", "failed to read uploaded file", h.logger)
		return
	}

	combined, sampled, err := archive.Sample(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_archive", "uploaded file is not a readable ZIP archive", h.logger)
		return
	}

	analysis, err := h.assistant.Analyze(r.Context(), combined)
	if err != nil {
		h.observe("analyze", "error")
		h.writeAnalyzeError(w, err)
		return
	}
	h.observe("analyze", "ok")

	WriteJSON(w, http.StatusOK, map[string]any{
		"analysis":     analysis,
		"sampledFiles": sampled,
	})
}

func (h *archiveHandler) writeAnalyzeError(w http.ResponseWriter, err error) {
	if errors.Is(err, assistant.ErrNotConfigured) {
		WriteError(w, http.StatusInternalServerError, "not_configured", "OpenAI API key is not configured", h.logger)
		return
	}
	h.logger.Error("archive analysis failed", "error", err)
	WriteError(w, http.StatusInternalServerError, "assistant_error", "analysis request failed", h.logger)
}

func (h *archiveHandler) observe(kind, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveAssistantCall(kind, outcome)
	}
}

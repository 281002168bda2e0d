package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// maxBodyBytes caps request bodies. Project file arrays are the biggest
// payloads and comfortably fit.
const maxBodyBytes = 10 << 20

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
// Encodes to a buffer first so headers are only sent after successful
// encoding; an encoding failure still produces a clean 500.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		slog.Debug("failed to write response body", "error", err)
	}
}

// WriteError writes a structured error response.
func WriteError(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "status", status, "code", code, "message", message)
	}
	WriteJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// decodeJSON decodes a request body into dst with a size cap. Returns a
// client-presentable error on malformed input.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("invalid JSON: %v", err)
		}
	}
	return nil
}

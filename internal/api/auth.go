package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/vipudev/vipudev/internal/auth"
)

// authHandler serves the token lifecycle: login, verify, logout.
type authHandler struct {
	creds  *auth.Credentials
	tokens auth.TokenStore
	logger *slog.Logger
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login verifies the admin credentials and issues a session token.
func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required", h.logger)
		return
	}

	if !h.creds.Verify(req.Username, req.Password) {
		h.logger.Warn("login rejected", "username", req.Username, "ip", r.RemoteAddr)
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password", h.logger)
		return
	}

	token, err := h.tokens.Issue()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "token_error", "failed to issue token", h.logger)
		return
	}

	h.logger.Info("login succeeded", "username", req.Username)
	WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

// verify reports whether the presented bearer token is currently valid.
// The auth middleware has already validated it by the time we get here.
func (h *authHandler) verify(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// logout revokes the presented token. Always succeeds: revoking an already
// dead token is a no-op.
func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := bearerToken(r); ok {
		h.tokens.Revoke(token)
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

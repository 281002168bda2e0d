// Package api is the HTTP layer of the dashboard backend: a JSON API over
// the stores, the assistant, and the sandbox, behind a shared middleware
// stack.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vipudev/vipudev/internal/auth"
	"github.com/vipudev/vipudev/internal/metrics"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Credentials *auth.Credentials // Required
	Tokens      auth.TokenStore   // Required
	Projects    ProjectStore      // Required
	Chat        ChatStore         // Required
	Executions  ExecutionStore    // Required
	Config      ConfigStore       // Required
	Assistant   Assistant         // Required (may be an unconfigured client)
	Runner      Runner            // Required
	Metrics     *metrics.Metrics  // Optional: nil disables instrumentation
	Pool        *pgxpool.Pool     // Optional: nil disables pool stats in /ready
	CORSOrigins []string          // Allowed origins for CORS
	TrustProxy  bool              // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int               // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	switch {
	case cfg.Credentials == nil:
		return nil, errors.New("credentials are required")
	case cfg.Tokens == nil:
		return nil, errors.New("token store is required")
	case cfg.Projects == nil || cfg.Chat == nil || cfg.Executions == nil || cfg.Config == nil:
		return nil, errors.New("all stores are required")
	case cfg.Assistant == nil:
		return nil, errors.New("assistant client is required")
	case cfg.Runner == nil:
		return nil, errors.New("sandbox runner is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ah := &authHandler{creds: cfg.Credentials, tokens: cfg.Tokens, logger: logger}
	ph := &projectHandler{store: cfg.Projects, logger: logger}
	ch := &chatHandler{store: cfg.Chat, logger: logger}
	eh := &executionHandler{store: cfg.Executions, logger: logger}
	cfgh := &configHandler{store: cfg.Config, logger: logger}
	ash := &assistantHandler{client: cfg.Assistant, metrics: cfg.Metrics, logger: logger}
	rh := &runHandler{runner: cfg.Runner, metrics: cfg.Metrics, logger: logger}
	arh := &archiveHandler{assistant: cfg.Assistant, metrics: cfg.Metrics, logger: logger}
	dh := &deployHandler{logger: logger}

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/login", ah.login)
	mux.HandleFunc("GET /api/auth/verify", ah.verify)
	mux.HandleFunc("POST /api/auth/logout", ah.logout)

	// Project CRUD
	mux.HandleFunc("GET /api/projects", ph.list)
	mux.HandleFunc("POST /api/projects", ph.create)
	mux.HandleFunc("GET /api/projects/{id}", ph.get)
	mux.HandleFunc("PATCH /api/projects/{id}", ph.update)
	mux.HandleFunc("DELETE /api/projects/{id}", ph.delete)

	// Conversation log
	mux.HandleFunc("GET /api/chat/history", ch.history)
	mux.HandleFunc("POST /api/chat", ch.create)
	mux.HandleFunc("DELETE /api/chat/history", ch.clear)

	// Execution log
	mux.HandleFunc("GET /api/executions", eh.list)
	mux.HandleFunc("POST /api/executions", eh.create)

	// Operator config
	mux.HandleFunc("GET /api/config", cfgh.get)
	mux.HandleFunc("POST /api/config", cfgh.upsert)

	// Assistant
	mux.HandleFunc("POST /api/assistant/chat", ash.chat)
	mux.HandleFunc("POST /api/generate-image", ash.generateImage)

	// Sandbox
	mux.HandleFunc("POST /api/run", rh.run)
	mux.HandleFunc("POST /api/run-project", rh.runProject)

	// Archives
	mux.HandleFunc("POST /api/zip-code", arh.zipCode)
	mux.HandleFunc("POST /api/analyze-zip", arh.analyzeZip)

	// Deployment walkthroughs
	mux.HandleFunc("POST /api/deploy", dh.instructions)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newThrottle(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Auth → Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes. CORS must be before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	patternOf := func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}

	var handler http.Handler = mux
	handler = authMiddleware(cfg.Tokens, logger)(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger, cfg.Metrics, patternOf)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate probes and metrics from the
	// middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	if cfg.Metrics != nil {
		topMux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

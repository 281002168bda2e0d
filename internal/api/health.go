package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// health is a simple health check endpoint for Docker/Kubernetes probes.
// Returns 200 OK with {"status":"ok"}.
func health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness reports database connectivity. With no pool configured it
// degrades to a plain liveness answer.
func readiness(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		if err := pool.Ping(r.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}

		stats := pool.Stat()
		WriteJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"pool": map[string]any{
				"total":    stats.TotalConns(),
				"idle":     stats.IdleConns(),
				"acquired": stats.AcquiredConns(),
			},
		})
	})
}

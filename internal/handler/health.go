package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger reports store connectivity. *database.DB implements it.
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthCheck reports healthy while the store answers a ping. With a nil
// store it only reports that the process is up.
func HealthCheck(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Health(r.Context()); err != nil {
				slog.WarnContext(r.Context(), "health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":   "unhealthy",
					"database": "unreachable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

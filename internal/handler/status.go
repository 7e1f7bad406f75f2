package handler

import (
	"net/http"

	"jccadmin/internal/config"
)

// Version is the service version reported by the status endpoint.
var Version = "0.1.0"

// statusHandler reports service identity and the configured environment.
func statusHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"service": "jcc-admin",
			"version": Version,
			"status":  "operational",
		}
		if cfg != nil {
			body["environment"] = cfg.Environment
			body["database_driver"] = cfg.Database.Driver
		}
		writeJSON(w, http.StatusOK, body)
	}
}

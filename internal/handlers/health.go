package handlers

import (
	"net/http"

	applog "mixguard/internal/log"
)

// Health handles GET /health. The service is "ok" whenever it can answer;
// the db field reports whether the store is reachable.
func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dbState := "down"
	if database != nil {
		if sqlDB, err := database.DB(); err == nil {
			if err := sqlDB.PingContext(r.Context()); err == nil {
				dbState = "up"
			} else {
				applog.Debug(r.Context(), "database ping failed", "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"db": dbState,
	})
}

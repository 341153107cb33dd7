// Package handlers exposes the JSON HTTP surface consumed by the web UI.
//
// Expected absence-of-data conditions (no database, missing API key, too
// few products) are reported as a stable machine-readable `error` code
// inside a 200 body, never as a 5xx.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"mixguard/internal/ai"
	applog "mixguard/internal/log"
)

// Stable error codes returned inside 200 bodies.
const (
	codeDatabaseUnavailable = "database_unavailable"
	codeAtLeastTwoProducts  = "at_least_two_products_required"
	codeAPIKeyMissing       = "ai_api_key_missing"
	codeTooManyItems        = "too_many_items"
	codeInteractionLookup   = "interaction_lookup_failed"
)

// Evaluating a mix costs O(N^2) external calls, so N is capped.
const maxMixItems = 10

var (
	database  *gorm.DB
	predictor *ai.Predictor
)

// Configure installs the shared database handle used by the HTTP handlers.
func Configure(db *gorm.DB) {
	database = db
}

// ConfigureAI installs the prediction bridge used by the mix, prediction
// and recommendation endpoints. A nil predictor disables those paths.
func ConfigureAI(p *ai.Predictor) {
	predictor = p
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		applog.Debug(r.Context(), "invalid request payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

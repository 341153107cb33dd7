package handlers

import (
	"net/http"

	"mixguard/internal/ai"
)

// Recommendations handles POST /recommendations: supplement suggestions
// for a wellness profile. The high-risk refusal heuristic runs even when
// no model is configured, so an empty predictor is still installed.
func Recommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ai.RecommendationRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	p := predictor
	if p == nil {
		p = &ai.Predictor{}
	}
	writeJSON(w, http.StatusOK, p.Recommend(r.Context(), req))
}

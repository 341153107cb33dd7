package handlers

import (
	"net/http"
	"strings"

	"mixguard/internal/ai"
	"mixguard/internal/catalog"
	applog "mixguard/internal/log"
)

type predictRequest struct {
	Items []string `json:"items"`
}

type predictResponse struct {
	Interactions []catalog.InteractionView `json:"interactions"`
	Error        string                    `json:"error,omitempty"`
}

// PredictInteractions handles POST /predict-interactions: every pair of
// the submitted substances is sent to the model, regardless of what the
// store already covers. Works without a database, on the raw names.
func PredictInteractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req predictRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if predictor == nil {
		writeJSON(w, http.StatusOK, predictResponse{
			Interactions: []catalog.InteractionView{},
			Error:        codeAPIKeyMissing,
		})
		return
	}
	if len(req.Items) > maxMixItems {
		writeJSON(w, http.StatusOK, predictResponse{
			Interactions: []catalog.InteractionView{},
			Error:        codeTooManyItems,
		})
		return
	}

	ctx := r.Context()
	var substances []ai.Substance
	if database != nil {
		resolved, err := catalog.Resolve(ctx, database, req.Items)
		if err != nil {
			applog.Error(ctx, "prediction resolution failed", "error", err)
		} else {
			substances = substancesFromResolutions(resolved)
		}
	}
	if substances == nil {
		for _, item := range req.Items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				substances = append(substances, ai.Substance{Name: trimmed})
			}
		}
	}

	predicted := predictor.PredictAll(ctx, substances, nil)
	interactions := make([]catalog.InteractionView, 0, len(predicted))
	for _, prediction := range predicted {
		interactions = append(interactions, catalog.InteractionView{
			Product1Name: prediction.Substance1,
			Product2Name: prediction.Substance2,
			Severity:     prediction.Severity,
			Description:  prediction.Description,
			Mechanism:    prediction.Mechanism,
			Notes:        prediction.Notes,
			Source:       prediction.Source,
			Predicted:    true,
		})
	}
	writeJSON(w, http.StatusOK, predictResponse{Interactions: interactions})
}

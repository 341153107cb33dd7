package handlers

import (
	"net/http"

	"mixguard/internal/ai"
	"mixguard/internal/catalog"
	applog "mixguard/internal/log"
)

type mixRequest struct {
	Items []string `json:"items"`
}

type mixResponse struct {
	Resolved     []catalog.Resolution      `json:"resolved"`
	Interactions []catalog.InteractionView `json:"interactions"`
	Error        string                    `json:"error,omitempty"`
}

// Mix handles POST /mix: resolve the submitted names, return every stored
// interaction among them, and fall back to the prediction bridge for pairs
// the store does not cover.
func Mix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req mixRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if len(req.Items) > maxMixItems {
		writeJSON(w, http.StatusOK, mixResponse{
			Resolved:     []catalog.Resolution{},
			Interactions: []catalog.InteractionView{},
			Error:        codeTooManyItems,
		})
		return
	}
	if database == nil {
		writeJSON(w, http.StatusOK, mixResponse{
			Resolved:     []catalog.Resolution{},
			Interactions: []catalog.InteractionView{},
			Error:        codeDatabaseUnavailable,
		})
		return
	}

	ctx := r.Context()
	resolved, err := catalog.Resolve(ctx, database, req.Items)
	if err != nil {
		applog.Error(ctx, "mix resolution failed", "error", err)
		writeJSON(w, http.StatusOK, mixResponse{
			Resolved:     []catalog.Resolution{},
			Interactions: []catalog.InteractionView{},
			Error:        codeDatabaseUnavailable,
		})
		return
	}

	productIDs := catalog.ProductIDs(resolved)
	interactions, err := catalog.LookupInteractions(ctx, database, productIDs)
	if err != nil {
		applog.Error(ctx, "mix interaction lookup failed", "error", err)
		writeJSON(w, http.StatusOK, mixResponse{
			Resolved:     resolved,
			Interactions: []catalog.InteractionView{},
			Error:        codeInteractionLookup,
		})
		return
	}
	if interactions == nil {
		interactions = []catalog.InteractionView{}
	}

	if predictor != nil && len(resolved) >= 2 {
		covered, err := catalog.CoveredPairs(ctx, database, productIDs)
		if err != nil {
			applog.Error(ctx, "mix coverage check failed", "error", err)
			covered = map[catalog.PairKey]struct{}{}
		}

		predicted := predictor.PredictAll(ctx, substancesFromResolutions(resolved), func(a, b ai.Substance) bool {
			if a.ProductID == 0 || b.ProductID == 0 {
				return false
			}
			if a.ProductID == b.ProductID {
				return true
			}
			_, ok := covered[catalog.NewPairKey(a.ProductID, b.ProductID)]
			return ok
		})
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
	}

	writeJSON(w, http.StatusOK, mixResponse{Resolved: resolved, Interactions: interactions})
}

func substancesFromResolutions(resolutions []catalog.Resolution) []ai.Substance {
	substances := make([]ai.Substance, 0, len(resolutions))
	for _, resolution := range resolutions {
		substance := ai.Substance{
			Name:        resolution.Name,
			Kind:        resolution.Kind,
			Ingredients: resolution.Ingredients,
		}
		if resolution.IsProduct() {
			substance.Kind = resolution.Product.Kind
			substance.GenericName = resolution.Product.GenericName
			substance.ProductID = resolution.Product.ID
		}
		substances = append(substances, substance)
	}
	return substances
}

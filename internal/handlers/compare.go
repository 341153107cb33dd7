package handlers

import (
	"net/http"
	"strings"

	"mixguard/internal/catalog"
	applog "mixguard/internal/log"
	"mixguard/models"
)

type compareRequest struct {
	Products []string `json:"products"`
}

type comparisonGroup struct {
	Products []models.Product `json:"products"`
}

type compareResponse struct {
	Comparison []comparisonGroup `json:"comparison"`
	NotFound   []string          `json:"not_found,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Compare handles POST /compare: side-by-side detail for two or more
// named products, with their ingredients, brands, and label statements.
func Compare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req compareRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	names := make([]string, 0, len(req.Products))
	for _, name := range req.Products {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	if len(names) < 2 {
		writeJSON(w, http.StatusOK, compareResponse{
			Comparison: []comparisonGroup{},
			Error:      codeAtLeastTwoProducts,
		})
		return
	}
	if database == nil {
		writeJSON(w, http.StatusOK, compareResponse{
			Comparison: []comparisonGroup{},
			Error:      codeDatabaseUnavailable,
		})
		return
	}

	ctx := r.Context()
	resolved, err := catalog.Resolve(ctx, database, names)
	if err != nil {
		applog.Error(ctx, "compare resolution failed", "error", err)
		writeJSON(w, http.StatusOK, compareResponse{
			Comparison: []comparisonGroup{},
			Error:      codeDatabaseUnavailable,
		})
		return
	}

	group := comparisonGroup{Products: make([]models.Product, 0, len(resolved))}
	response := compareResponse{}
	for _, resolution := range resolved {
		if !resolution.IsProduct() {
			response.NotFound = append(response.NotFound, resolution.Input)
			continue
		}
		product := *resolution.Product
		if err := database.WithContext(ctx).
			Preload("LabelStatements").
			First(&product, product.ID).Error; err != nil {
			applog.Error(ctx, "compare detail load failed", "product_id", product.ID, "error", err)
		}
		group.Products = append(group.Products, product)
	}
	response.Comparison = []comparisonGroup{group}

	writeJSON(w, http.StatusOK, response)
}

package handlers

import (
	"net/http"
	"strings"

	applog "mixguard/internal/log"
	"mixguard/internal/textutil"
	"mixguard/models"
)

const maxIngredientSuggestions = 20

// Ingredients handles GET /ingredients: distinct ingredient-name
// suggestions for typeahead.
func Ingredients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if database == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []string{},
			"error": codeDatabaseUnavailable,
		})
		return
	}

	query := database.WithContext(r.Context()).
		Model(&models.ProductIngredient{}).
		Distinct("name").
		Order("name asc").
		Limit(maxIngredientSuggestions)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		pattern := "%" + textutil.EscapeLike(strings.ToLower(q)) + "%"
		query = query.Where("lower(name) LIKE ?", pattern)
	}

	var names []string
	if err := query.Pluck("name", &names).Error; err != nil {
		applog.Error(r.Context(), "ingredient search failed", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []string{},
			"error": codeDatabaseUnavailable,
		})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": names})
}

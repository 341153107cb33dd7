package handlers

import (
	"net/http"
	"strconv"
	"strings"

	applog "mixguard/internal/log"
	"mixguard/internal/textutil"
	"mixguard/models"
)

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
)

// Products handles GET /products: substring search over the catalog.
func Products(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if database == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []models.Product{},
			"error": codeDatabaseUnavailable,
		})
		return
	}

	limit := defaultProductLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}

	query := database.WithContext(r.Context()).
		Preload("Ingredients").
		Preload("BrandNames").
		Order("name asc").
		Limit(limit)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		pattern := "%" + textutil.EscapeLike(strings.ToLower(q)) + "%"
		query = query.Where("lower(name) LIKE ?", pattern)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		applog.Error(r.Context(), "product search failed", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []models.Product{},
			"error": codeDatabaseUnavailable,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": products})
}

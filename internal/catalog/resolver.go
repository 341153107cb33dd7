// Package catalog resolves free-text substance names against the product
// store and retrieves stored pairwise interactions.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	applog "mixguard/internal/log"
	"mixguard/internal/textutil"
	"mixguard/models"
)

// Resolution kinds.
const (
	KindProduct    = "product"
	KindIngredient = "ingredient"
)

// Resolution is the outcome of matching one free-text input: either a
// catalog product (with its declared active ingredients) or, when nothing
// matches, the raw input treated as a bare ingredient name.
type Resolution struct {
	Kind        string          `json:"kind"`
	Input       string          `json:"input"`
	Name        string          `json:"name"`
	Product     *models.Product `json:"product,omitempty"`
	Ingredients []string        `json:"ingredients,omitempty"`
}

// IsProduct reports whether the resolution landed on a catalog product.
func (r Resolution) IsProduct() bool {
	return r.Kind == KindProduct && r.Product != nil
}

// Resolve maps each non-blank input to a product or a bare ingredient.
// Exact case-insensitive name matches win over prefix matches, which win
// over substring matches; within a tier the first product in name order is
// chosen. Only storage failures produce an error.
func Resolve(ctx context.Context, db *gorm.DB, items []string) ([]Resolution, error) {
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}

	resolutions := make([]Resolution, 0, len(items))
	for _, item := range items {
		input := strings.TrimSpace(item)
		if input == "" {
			continue
		}

		product, err := matchProduct(ctx, db, input)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", input, err)
		}
		if product == nil {
			applog.Debug(ctx, "input resolved as bare ingredient", "input", input)
			resolutions = append(resolutions, Resolution{
				Kind:  KindIngredient,
				Input: input,
				Name:  input,
			})
			continue
		}

		resolutions = append(resolutions, Resolution{
			Kind:        KindProduct,
			Input:       input,
			Name:        product.Name,
			Product:     product,
			Ingredients: product.IngredientNames(),
		})
	}

	return resolutions, nil
}

func matchProduct(ctx context.Context, db *gorm.DB, input string) (*models.Product, error) {
	lowered := strings.ToLower(input)
	escaped := textutil.EscapeLike(lowered)

	// Tiers: exact (case-insensitive), then prefix, then substring.
	patterns := []string{
		lowered,
		escaped + "%",
		"%" + escaped + "%",
	}

	for tier, pattern := range patterns {
		var product models.Product
		query := db.WithContext(ctx).
			Preload("Ingredients").
			Preload("BrandNames").
			Order("name asc")
		if tier == 0 {
			query = query.Where("lower(name) = ?", pattern)
		} else {
			query = query.Where("lower(name) LIKE ?", pattern)
		}
		err := query.First(&product).Error
		if err == nil {
			return &product, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, nil
}

// ProductIDs collects the distinct product identifiers among resolutions,
// preserving first-seen order.
func ProductIDs(resolutions []Resolution) []uint {
	seen := make(map[uint]struct{}, len(resolutions))
	ids := make([]uint, 0, len(resolutions))
	for _, resolution := range resolutions {
		if !resolution.IsProduct() {
			continue
		}
		id := resolution.Product.ID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

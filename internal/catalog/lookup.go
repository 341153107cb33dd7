package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	applog "mixguard/internal/log"
	"mixguard/models"
)

// InteractionView is an interaction annotated with the human-readable
// product names for display. Predicted results reuse the same shape with a
// zero ID.
type InteractionView struct {
	ID           uint   `json:"id,omitempty"`
	Product1Name string `json:"product_1_name"`
	Product2Name string `json:"product_2_name"`
	Severity     string `json:"severity"`
	Description  string `json:"description"`
	Mechanism    string `json:"mechanism,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Source       string `json:"source,omitempty"`
	Predicted    bool   `json:"predicted,omitempty"`
}

// PairKey identifies an unordered product pair.
type PairKey struct {
	Low, High uint
}

// NewPairKey canonicalises two product identifiers.
func NewPairKey(a, b uint) PairKey {
	low, high := models.CanonicalPair(a, b)
	return PairKey{Low: low, High: high}
}

// LookupInteractions retrieves stored interaction rows whose pair is a
// subset of productIDs. Fewer than two distinct identifiers is a valid
// "not enough information" outcome and issues no query.
func LookupInteractions(ctx context.Context, db *gorm.DB, productIDs []uint) ([]InteractionView, error) {
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}

	distinct := make(map[uint]struct{}, len(productIDs))
	for _, id := range productIDs {
		distinct[id] = struct{}{}
	}
	if len(distinct) < 2 {
		return nil, nil
	}

	var interactions []models.Interaction
	if err := db.WithContext(ctx).
		Where("product_id1 IN ? AND product_id2 IN ?", productIDs, productIDs).
		Find(&interactions).Error; err != nil {
		return nil, fmt.Errorf("lookup interactions: %w", err)
	}
	if len(interactions) == 0 {
		return nil, nil
	}

	names, err := productNames(ctx, db, productIDs)
	if err != nil {
		return nil, err
	}

	views := make([]InteractionView, 0, len(interactions))
	for _, interaction := range interactions {
		views = append(views, InteractionView{
			ID:           interaction.ID,
			Product1Name: names[interaction.ProductID1],
			Product2Name: names[interaction.ProductID2],
			Severity:     interaction.Severity,
			Description:  interaction.Description,
			Mechanism:    interaction.Mechanism,
			Notes:        interaction.Notes,
			Source:       interaction.Source,
		})
	}

	applog.Debug(ctx, "stored interactions retrieved", "pairs", len(views), "products", len(distinct))
	return views, nil
}

// CoveredPairs returns the set of unordered pairs present among views.
func CoveredPairs(ctx context.Context, db *gorm.DB, productIDs []uint) (map[PairKey]struct{}, error) {
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}
	if len(productIDs) < 2 {
		return map[PairKey]struct{}{}, nil
	}

	var interactions []models.Interaction
	if err := db.WithContext(ctx).
		Select("product_id1", "product_id2").
		Where("product_id1 IN ? AND product_id2 IN ?", productIDs, productIDs).
		Find(&interactions).Error; err != nil {
		return nil, fmt.Errorf("lookup interaction pairs: %w", err)
	}

	covered := make(map[PairKey]struct{}, len(interactions))
	for _, interaction := range interactions {
		covered[NewPairKey(interaction.ProductID1, interaction.ProductID2)] = struct{}{}
	}
	return covered, nil
}

func productNames(ctx context.Context, db *gorm.DB, productIDs []uint) (map[uint]string, error) {
	var products []models.Product
	if err := db.WithContext(ctx).
		Select("id", "name").
		Where("id IN ?", productIDs).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load product names: %w", err)
	}

	names := make(map[uint]string, len(products))
	for _, product := range products {
		names[product.ID] = product.Name
	}
	return names, nil
}

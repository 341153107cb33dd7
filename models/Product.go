package models

import (
	"strings"

	"gorm.io/gorm"
)

// Product kinds recognised by the catalog.
const (
	KindMedicine   = "medicine"
	KindSupplement = "supplement"
)

type Product struct {
	gorm.Model
	Name            string              `gorm:"uniqueIndex;not null" json:"name"`
	Kind            string              `gorm:"type:varchar(16);not null;default:supplement" json:"kind"`
	GenericName     string              `json:"generic_name"`
	BrandNames      []BrandName         `gorm:"foreignKey:ProductID" json:"brand_names"`
	DosageForm      string              `json:"dosage_form"`
	Strength        string              `json:"strength"`
	Description     string              `gorm:"type:text" json:"description"`
	Ingredients     []ProductIngredient `gorm:"foreignKey:ProductID" json:"ingredients"`
	MarketStatus    string              `gorm:"default:Unknown" json:"market_status"`
	DSLDID          string              `gorm:"column:dsld_id;index" json:"dsld_id,omitempty"`
	NDC             string              `gorm:"index" json:"ndc,omitempty"`
	LabelStatements []LabelStatement    `gorm:"foreignKey:ProductID" json:"label_statements,omitempty"`
}

// BrandName holds one marketed name for a Product, in catalog order.
type BrandName struct {
	gorm.Model
	Name      string `gorm:"not null" json:"name"`
	Position  int    `json:"position"`
	ProductID uint
}

// ProductIngredient holds one active ingredient declared on a Product label.
type ProductIngredient struct {
	gorm.Model
	Name      string `gorm:"not null;index" json:"name"`
	Amount    string `json:"amount,omitempty"`
	Unit      string `json:"unit,omitempty"`
	Position  int    `json:"position"`
	ProductID uint
}

// LabelStatement is a free-text statement lifted from a supplement label,
// such as a claimed benefit or a precaution.
type LabelStatement struct {
	gorm.Model
	Type      string `gorm:"type:varchar(64)" json:"type"`
	Statement string `gorm:"type:text" json:"statement"`
	ProductID uint
}

// ValidKind reports whether value is a recognised product kind.
func ValidKind(value string) bool {
	switch value {
	case KindMedicine, KindSupplement:
		return true
	default:
		return false
	}
}

// NormalizeKind maps loose source vocabulary ("drug", "otc", "dietary
// supplement") onto the catalog kinds, defaulting to supplement.
func NormalizeKind(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case KindMedicine, "drug", "medication", "otc", "prescription", "rx":
		return KindMedicine
	default:
		return KindSupplement
	}
}

// IngredientNames returns the declared active ingredient names in label order.
func (p Product) IngredientNames() []string {
	if len(p.Ingredients) == 0 {
		return nil
	}
	names := make([]string, 0, len(p.Ingredients))
	for _, ingredient := range p.Ingredients {
		name := strings.TrimSpace(ingredient.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

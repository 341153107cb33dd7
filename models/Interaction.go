package models

import (
	"strings"

	"gorm.io/gorm"
)

// Canonical severity vocabulary. External sources use several overlapping
// vocabularies; NormalizeSeverity folds them all onto these values.
const (
	SeverityNone            = "none"
	SeverityMild            = "mild"
	SeverityModerate        = "moderate"
	SeveritySevere          = "severe"
	SeverityContraindicated = "contraindicated"
)

// Interaction records a pairwise relationship between two catalog products.
// The pair is stored canonically with ProductID1 < ProductID2 so the
// uniqueness constraint covers both orderings.
type Interaction struct {
	gorm.Model
	ProductID1    uint   `gorm:"column:product_id1;not null;uniqueIndex:idx_interaction_pair" json:"product_id_1"`
	ProductID2    uint   `gorm:"column:product_id2;not null;uniqueIndex:idx_interaction_pair" json:"product_id_2"`
	Severity      string `gorm:"type:varchar(16);not null" json:"severity"`
	Description   string `gorm:"type:text" json:"description"`
	Mechanism     string `gorm:"type:text" json:"mechanism,omitempty"`
	EvidenceLevel string `json:"evidence_level,omitempty"`
	Notes         string `gorm:"type:text" json:"notes,omitempty"`
	Source        string `json:"source,omitempty"`
}

// CanonicalPair orders two product identifiers for storage.
func CanonicalPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// ValidSeverity reports whether value is one of the canonical severities.
func ValidSeverity(value string) bool {
	switch value {
	case SeverityNone, SeverityMild, SeverityModerate, SeveritySevere, SeverityContraindicated:
		return true
	default:
		return false
	}
}

// NormalizeSeverity maps the severity vocabularies found across sources
// (RxNorm "high"/"low", DrugBank "major"/"minor", model output) onto the
// canonical enum. Unrecognised values normalise to moderate rather than
// none so an unknown label is never silently downgraded to harmless.
func NormalizeSeverity(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "no", "no interaction", "n/a":
		return SeverityNone
	case SeverityMild, "minor", "low", "minimal":
		return SeverityMild
	case SeverityModerate, "medium", "significant":
		return SeverityModerate
	case SeveritySevere, "high", "serious", "major":
		return SeveritySevere
	case SeverityContraindicated, "contraindication", "avoid", "do not combine":
		return SeverityContraindicated
	default:
		return SeverityModerate
	}
}

package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"mixguard/internal/jsonextract"
	applog "mixguard/internal/log"
	"mixguard/models"
)

const defaultPairDelay = 1 * time.Second

// Substance describes one side of a pair handed to the prediction bridge.
// ProductID is zero when the substance did not resolve to a catalog product.
type Substance struct {
	Name        string
	Kind        string
	GenericName string
	Ingredients []string
	ProductID   uint
}

// Prediction is the bridge's normalised result for one pair. Severity is
// always one of the canonical values and never "none": pairs the model
// clears are reported as no result instead.
type Prediction struct {
	Substance1  string
	Substance2  string
	Severity    string
	Description string
	Mechanism   string
	Notes       string
	Source      string
}

// Predictor delegates interaction judgment for uncovered pairs to the
// external model, with conservative failure handling: any network, timeout,
// or parse problem yields "no result" for that pair and the batch moves on.
type Predictor struct {
	client *Client
	db     *gorm.DB

	// Delay is the enforced minimum wait between consecutive external
	// calls within one batch.
	Delay time.Duration

	// Persist stores non-"none" predictions for product pairs, guarded by
	// an existence pre-check. The losing side of a concurrent duplicate
	// write is absorbed by the pair uniqueness constraint.
	Persist bool
}

// NewPredictor wires a Predictor. database may be nil, which disables
// persistence.
func NewPredictor(client *Client, database *gorm.DB) *Predictor {
	return &Predictor{
		client:  client,
		db:      database,
		Delay:   defaultPairDelay,
		Persist: database != nil,
	}
}

// PredictAll evaluates all pairs (i, j), i<j, in input order. Pairs for
// which skip returns true are not sent to the model. A batch of N
// substances issues up to N*(N-1)/2 external calls, so callers cap N.
func (p *Predictor) PredictAll(ctx context.Context, substances []Substance, skip func(a, b Substance) bool) []Prediction {
	predictions := make([]Prediction, 0)
	called := false

	for i := 0; i < len(substances); i++ {
		for j := i + 1; j < len(substances); j++ {
			a, b := substances[i], substances[j]
			if skip != nil && skip(a, b) {
				continue
			}
			if called && p.Delay > 0 {
				select {
				case <-ctx.Done():
					applog.Debug(ctx, "prediction batch cancelled", "remaining", true)
					return predictions
				case <-time.After(p.Delay):
				}
			}
			called = true

			prediction, err := p.predictPair(ctx, a, b)
			if err != nil {
				applog.Error(ctx, "pair prediction failed", "substance_1", a.Name, "substance_2", b.Name, "error", err)
				continue
			}
			if prediction == nil {
				continue
			}
			predictions = append(predictions, *prediction)
		}
	}

	return predictions
}

type predictionReply struct {
	HasInteraction bool   `json:"has_interaction"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Mechanism      string `json:"mechanism"`
	Notes          string `json:"notes"`
}

func (p *Predictor) predictPair(ctx context.Context, a, b Substance) (*Prediction, error) {
	if p.client == nil {
		return nil, fmt.Errorf("predict: client is not configured")
	}

	content, err := p.client.Complete(ctx, predictionSystemPrompt, buildPairPrompt(a, b))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("predict: empty model reply")
	}

	var reply predictionReply
	if err := jsonextract.Decode(content, &reply); err != nil {
		return nil, fmt.Errorf("predict: parse model reply: %w", err)
	}

	severity := models.NormalizeSeverity(reply.Severity)
	if !reply.HasInteraction || severity == models.SeverityNone {
		applog.Debug(ctx, "model reported no interaction", "substance_1", a.Name, "substance_2", b.Name)
		return nil, nil
	}

	prediction := &Prediction{
		Substance1:  a.Name,
		Substance2:  b.Name,
		Severity:    severity,
		Description: strings.TrimSpace(reply.Description),
		Mechanism:   strings.TrimSpace(reply.Mechanism),
		Notes:       strings.TrimSpace(reply.Notes),
		Source:      "Predicted by " + p.client.Model(),
	}

	p.persistPrediction(ctx, a, b, prediction)

	return prediction, nil
}

// persistPrediction stores a product-pair prediction unless a row already
// exists. Failures are logged, never surfaced: persistence is an
// optimisation, not part of the pair's result.
func (p *Predictor) persistPrediction(ctx context.Context, a, b Substance, prediction *Prediction) {
	if !p.Persist || p.db == nil {
		return
	}
	if a.ProductID == 0 || b.ProductID == 0 || a.ProductID == b.ProductID {
		return
	}

	id1, id2 := models.CanonicalPair(a.ProductID, b.ProductID)

	var count int64
	if err := p.db.WithContext(ctx).
		Model(&models.Interaction{}).
		Where("product_id1 = ? AND product_id2 = ?", id1, id2).
		Count(&count).Error; err != nil {
		applog.Error(ctx, "prediction existence check failed", "error", err)
		return
	}
	if count > 0 {
		return
	}

	interaction := models.Interaction{
		ProductID1:  id1,
		ProductID2:  id2,
		Severity:    prediction.Severity,
		Description: prediction.Description,
		Mechanism:   prediction.Mechanism,
		Notes:       prediction.Notes,
		Source:      prediction.Source,
	}
	if err := p.db.WithContext(ctx).Create(&interaction).Error; err != nil {
		// Lost duplicate races land here and are rejected by the pair
		// uniqueness constraint.
		applog.Error(ctx, "prediction persistence failed", "error", err,
			"product_id_1", id1, "product_id_2", id2)
	}
}

const predictionSystemPrompt = "You are a cautious clinical pharmacology assistant. " +
	"Assess potential interactions between medicines and supplements. " +
	"Respond with raw JSON only, no Markdown, no commentary."

func buildPairPrompt(a, b Substance) string {
	var sb strings.Builder
	sb.WriteString("Assess the interaction risk between the following two substances.\n\n")
	writeSubstance(&sb, "Substance 1", a)
	writeSubstance(&sb, "Substance 2", b)
	sb.WriteString("\nReturn a JSON object with exactly these fields:\n")
	sb.WriteString(`{
  "has_interaction": boolean,
  "severity": one of "none", "mild", "moderate", "severe", "contraindicated",
  "description": short plain-language summary of the risk,
  "mechanism": pharmacological mechanism or "",
  "notes": practical guidance or ""
}` + "\n")
	sb.WriteString("Strict rules: respond with raw JSON, no Markdown. ")
	sb.WriteString(`If no interaction is known, use has_interaction false and severity "none".`)
	return sb.String()
}

func writeSubstance(sb *strings.Builder, label string, s Substance) {
	fmt.Fprintf(sb, "%s: %s\n", label, s.Name)
	kind := s.Kind
	if strings.TrimSpace(kind) == "" {
		kind = "unknown"
	}
	fmt.Fprintf(sb, "  Kind: %s\n", kind)
	if s.GenericName != "" {
		fmt.Fprintf(sb, "  Generic name: %s\n", s.GenericName)
	}
	if len(s.Ingredients) > 0 {
		fmt.Fprintf(sb, "  Active ingredients: %s\n", strings.Join(s.Ingredients, ", "))
	}
}

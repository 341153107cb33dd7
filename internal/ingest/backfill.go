package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"mixguard/internal/catalog"
	applog "mixguard/internal/log"
	"mixguard/models"
)

// InteractionAPI queries a remote interaction-lookup service (RxNorm-shaped:
// lookup by drug name, a flat list of counterpart findings back).
type InteractionAPI struct {
	BaseURL string
	HTTP    *http.Client
	Delay   time.Duration
}

// RemoteInteraction is one finding returned by the remote service.
type RemoteInteraction struct {
	DrugName    string `json:"drug_name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type interactionLookupResponse struct {
	Interactions []RemoteInteraction `json:"interactions"`
}

// Lookup fetches interaction findings for one drug name.
func (api InteractionAPI) Lookup(ctx context.Context, name string) ([]RemoteInteraction, error) {
	endpoint := fmt.Sprintf("%s/interactions?name=%s",
		strings.TrimRight(api.BaseURL, "/"), url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}

	client := api.HTTP
	if client == nil {
		client = &http.Client{Timeout: apiCallTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup %q returned status %s", name, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read lookup response: %w", err)
	}

	var parsed interactionLookupResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	return parsed.Interactions, nil
}

// BackfillInteractions walks the stored catalog, queries the remote service
// for each product by name, resolves returned counterpart names against the
// catalog, and inserts pairs that are not already stored.
func BackfillInteractions(ctx context.Context, db *gorm.DB, api InteractionAPI) (Report, error) {
	report := Report{}
	if db == nil {
		return report, gorm.ErrInvalidDB
	}
	if strings.TrimSpace(api.BaseURL) == "" {
		return report, errors.New("interaction api base url must not be empty")
	}

	var products []models.Product
	if err := db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		return report, fmt.Errorf("list products: %w", err)
	}

	for idx, product := range products {
		if idx > 0 && api.Delay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(api.Delay):
			}
		}

		findings, err := api.Lookup(ctx, product.Name)
		if err != nil {
			report.Errored++
			applog.Error(ctx, "interaction lookup failed", "product", product.Name, "error", err)
			continue
		}

		for _, finding := range findings {
			backfillFinding(ctx, db, product, finding, &report)
		}
	}

	applog.Info(ctx, "interaction backfill finished", "products", len(products),
		"loaded", report.Loaded, "skipped", report.Skipped, "errored", report.Errored)
	return report, nil
}

func backfillFinding(ctx context.Context, db *gorm.DB, product models.Product, finding RemoteInteraction, report *Report) {
	counterpartName := strings.TrimSpace(finding.DrugName)
	if counterpartName == "" {
		report.Errored++
		return
	}

	resolutions, err := catalog.Resolve(ctx, db, []string{counterpartName})
	if err != nil {
		report.Errored++
		applog.Error(ctx, "counterpart resolution failed", "name", counterpartName, "error", err)
		return
	}
	if len(resolutions) == 0 || !resolutions[0].IsProduct() {
		report.Skipped++
		return
	}
	counterpart := resolutions[0].Product
	if counterpart.ID == product.ID {
		report.Skipped++
		return
	}

	id1, id2 := models.CanonicalPair(product.ID, counterpart.ID)

	var count int64
	if err := db.WithContext(ctx).Model(&models.Interaction{}).
		Where("product_id1 = ? AND product_id2 = ?", id1, id2).
		Count(&count).Error; err != nil {
		report.Errored++
		applog.Error(ctx, "pair existence check failed", "error", err)
		return
	}
	if count > 0 {
		report.Skipped++
		return
	}

	severity := strings.TrimSpace(finding.Severity)
	if severity != "" {
		severity = models.NormalizeSeverity(severity)
	} else {
		severity = classifySeverity(finding.Description)
	}

	interaction := models.Interaction{
		ProductID1:  id1,
		ProductID2:  id2,
		Severity:    severity,
		Description: strings.TrimSpace(finding.Description),
		Source:      "backfill",
	}
	if err := db.WithContext(ctx).Create(&interaction).Error; err != nil {
		report.Errored++
		applog.Error(ctx, "interaction insert failed", "product_id_1", id1, "product_id_2", id2, "error", err)
		return
	}
	report.Loaded++
}

// classifySeverity infers a canonical severity from free-text clues when
// the source provides none. Unclassifiable text defaults to moderate, the
// conservative middle.
func classifySeverity(description string) string {
	lowered := strings.ToLower(description)
	switch {
	case strings.Contains(lowered, "contraindicated") || strings.Contains(lowered, "avoid"):
		return models.SeverityContraindicated
	case strings.Contains(lowered, "severe") || strings.Contains(lowered, "serious"):
		return models.SeveritySevere
	case strings.Contains(lowered, "moderate"):
		return models.SeverityModerate
	case strings.Contains(lowered, "minor") || strings.Contains(lowered, "mild"):
		return models.SeverityMild
	default:
		return models.SeverityModerate
	}
}

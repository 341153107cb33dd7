package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "mixguard/internal/log"
	"mixguard/internal/textutil"
	"mixguard/models"
)

const (
	defaultPageSize = 100
	defaultMaxPages = 100
	apiCallTimeout  = 30 * time.Second
)

// CatalogAPI fetches fixed-size pages from a remote drug-catalog endpoint
// (OpenFDA-shaped: a results array of labelled drug records).
type CatalogAPI struct {
	BaseURL  string
	HTTP     *http.Client
	PageSize int
	// MaxPages is the hard ceiling on pages fetched in one run, a safety
	// valve against unbounded ingestion.
	MaxPages int
	// Delay is applied between consecutive records to respect the remote
	// rate limit. Zero means no pacing.
	Delay time.Duration
}

type apiDrug struct {
	BrandName     string   `json:"brand_name"`
	GenericName   string   `json:"generic_name"`
	DosageForm    string   `json:"dosage_form"`
	Strength      string   `json:"strength"`
	ProductType   string   `json:"product_type"`
	MarketStatus  string   `json:"marketing_status"`
	NDC           string   `json:"product_ndc"`
	SubstanceName []string `json:"substance_name"`
}

type apiPage struct {
	Results []apiDrug `json:"results"`
}

// ImportCatalogAPI pulls the remote catalog page by page until an empty
// page or the page ceiling, inserting products that are not already stored.
func ImportCatalogAPI(ctx context.Context, db *gorm.DB, api CatalogAPI) (Report, error) {
	report := Report{}
	if db == nil {
		return report, gorm.ErrInvalidDB
	}
	if strings.TrimSpace(api.BaseURL) == "" {
		return report, errors.New("catalog api base url must not be empty")
	}

	if api.HTTP == nil {
		api.HTTP = &http.Client{Timeout: apiCallTimeout}
	}
	if api.PageSize <= 0 {
		api.PageSize = defaultPageSize
	}
	if api.MaxPages <= 0 {
		api.MaxPages = defaultMaxPages
	}
	seen := make(map[string]struct{})

	for page := 0; page < api.MaxPages; page++ {
		records, err := api.fetchPage(ctx, page)
		if err != nil {
			report.Errored++
			applog.Error(ctx, "catalog page fetch failed", "page", page, "error", err)
			continue
		}
		if len(records) == 0 {
			applog.Info(ctx, "catalog api exhausted", "pages", page)
			break
		}
		if page+1 == api.MaxPages {
			applog.Info(ctx, "catalog api page ceiling reached", "max_pages", api.MaxPages)
		}

		for _, record := range records {
			if api.Delay > 0 {
				select {
				case <-ctx.Done():
					return report, ctx.Err()
				case <-time.After(api.Delay):
				}
			}
			importAPIRecord(ctx, db, record, seen, &report)
		}
	}

	applog.Info(ctx, "catalog api import finished", "loaded", report.Loaded,
		"skipped", report.Skipped, "errored", report.Errored)
	return report, nil
}

func (api CatalogAPI) fetchPage(ctx context.Context, page int) ([]apiDrug, error) {
	url := fmt.Sprintf("%s?limit=%d&skip=%d",
		strings.TrimRight(api.BaseURL, "/"), api.PageSize, page*api.PageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}

	resp, err := api.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	// OpenFDA answers 404 for a skip beyond the last record.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page fetch returned status %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	var parsed apiPage
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return parsed.Results, nil
}

func importAPIRecord(ctx context.Context, db *gorm.DB, record apiDrug, seen map[string]struct{}, report *Report) {
	name := textutil.CollapseWhitespace(record.BrandName)
	if name == "" {
		name = textutil.CollapseWhitespace(record.GenericName)
	}
	if name == "" {
		report.Errored++
		return
	}

	key := textutil.NormalizeName(name)
	if _, ok := seen[key]; ok {
		report.Skipped++
		return
	}
	seen[key] = struct{}{}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Product{}).
		Where("lower(name) = ?", strings.ToLower(name)).
		Count(&count).Error; err != nil {
		report.Errored++
		applog.Error(ctx, "catalog record existence check failed", "name", name, "error", err)
		return
	}
	if count > 0 {
		report.Skipped++
		return
	}

	product := models.Product{
		Name:         name,
		Kind:         models.NormalizeKind(record.ProductType),
		GenericName:  strings.ToLower(textutil.CollapseWhitespace(record.GenericName)),
		DosageForm:   record.DosageForm,
		Strength:     record.Strength,
		MarketStatus: record.MarketStatus,
		NDC:          record.NDC,
	}
	if product.MarketStatus == "" {
		product.MarketStatus = "Unknown"
	}
	for idx, substance := range record.SubstanceName {
		substance = textutil.CollapseWhitespace(substance)
		if substance == "" {
			continue
		}
		product.Ingredients = append(product.Ingredients, models.ProductIngredient{Name: substance, Position: idx + 1})
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		report.Errored++
		applog.Error(ctx, "catalog record insert failed", "name", name, "error", err)
		return
	}
	report.Loaded++
}

package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "mixguard/internal/log"
	"mixguard/internal/textutil"
	"mixguard/models"
)

const (
	defaultBatchSize = 2000
	defaultLogEvery  = 10
)

// Source column headers are matched by canonical key, so "Product Name",
// "product_name" and "PRODUCT NAME" all land on the same field.
var productColumns = map[string]string{
	"id":                 "id",
	"dsld id":            "id",
	"product id":         "id",
	"name":               "name",
	"product name":       "name",
	"kind":               "kind",
	"type":               "kind",
	"product type":       "kind",
	"generic name":       "generic_name",
	"brand name":         "brand_names",
	"brand names":        "brand_names",
	"dosage form":        "dosage_form",
	"strength":           "strength",
	"description":        "description",
	"statement":          "description",
	"active ingredients": "ingredients",
	"ingredients":        "ingredients",
	"market status":      "market_status",
	"status":             "market_status",
	"ndc":                "ndc",
}

// CSVOptions tune the tabular import.
type CSVOptions struct {
	BatchSize int
	LogEvery  int
}

// ImportProductsCSV streams rows from a delimited file into the product
// table. Rows are grouped into fixed-size batches with one multi-row
// insert per batch; rows whose name already exists are skipped so re-runs
// are idempotent.
func ImportProductsCSV(ctx context.Context, db *gorm.DB, path string, opts CSVOptions) (Report, error) {
	report := Report{}
	if db == nil {
		return report, gorm.ErrInvalidDB
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	logEvery := opts.LogEvery
	if logEvery <= 0 {
		logEvery = defaultLogEvery
	}

	file, err := os.Open(path)
	if err != nil {
		return report, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return report, fmt.Errorf("read csv header: %w", err)
	}

	fields := make([]string, len(header))
	for idx, name := range header {
		fields[idx] = productColumns[textutil.NormalizeName(name)]
	}

	batch := make([]models.Product, 0, batchSize)
	batches := 0

	flush := func() {
		if len(batch) == 0 {
			return
		}
		insertProductBatch(ctx, db, batch, &report)
		batch = batch[:0]
		batches++
		if batches%logEvery == 0 {
			applog.Info(ctx, "csv import progress", "batches", batches, "loaded", report.Loaded,
				"skipped", report.Skipped, "errored", report.Errored)
		}
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.Errored++
			applog.Error(ctx, "csv row unreadable", "error", err)
			continue
		}

		record := make(map[string]string, len(fields))
		for idx, field := range fields {
			if field == "" || idx >= len(row) {
				continue
			}
			record[field] = strings.TrimSpace(row[idx])
		}

		product, err := buildProduct(record)
		if err != nil {
			report.Errored++
			applog.Error(ctx, "csv row rejected", "error", err)
			continue
		}

		batch = append(batch, product)
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()

	applog.Info(ctx, "csv import finished", "path", path, "loaded", report.Loaded,
		"skipped", report.Skipped, "errored", report.Errored)
	return report, nil
}

// insertProductBatch de-duplicates against stored names and issues one
// multi-row insert. If the batch insert fails it degrades to per-row
// inserts so one bad row cannot sink its batch.
func insertProductBatch(ctx context.Context, db *gorm.DB, batch []models.Product, report *Report) {
	names := make([]string, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	for _, product := range batch {
		names = append(names, product.Name)
	}

	var existing []models.Product
	if err := db.WithContext(ctx).Select("name").Where("name IN ?", names).Find(&existing).Error; err != nil {
		applog.Error(ctx, "batch existence check failed", "error", err)
		report.Errored += len(batch)
		return
	}
	for _, product := range existing {
		seen[strings.ToLower(product.Name)] = struct{}{}
	}

	fresh := make([]models.Product, 0, len(batch))
	for _, product := range batch {
		key := strings.ToLower(product.Name)
		if _, ok := seen[key]; ok {
			report.Skipped++
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, product)
	}
	if len(fresh) == 0 {
		return
	}

	if err := db.WithContext(ctx).Create(&fresh).Error; err == nil {
		report.Loaded += len(fresh)
		return
	}

	for idx := range fresh {
		if err := db.WithContext(ctx).Create(&fresh[idx]).Error; err != nil {
			report.Errored++
			applog.Error(ctx, "product insert failed", "name", fresh[idx].Name, "error", err)
			continue
		}
		report.Loaded++
	}
}

func buildProduct(record map[string]string) (models.Product, error) {
	name := textutil.CollapseWhitespace(record["name"])
	if name == "" {
		return models.Product{}, errors.New("row has no product name")
	}

	product := models.Product{
		Name:         name,
		Kind:         models.NormalizeKind(record["kind"]),
		GenericName:  textutil.CollapseWhitespace(record["generic_name"]),
		DosageForm:   record["dosage_form"],
		Strength:     record["strength"],
		Description:  textutil.CollapseWhitespace(record["description"]),
		MarketStatus: record["market_status"],
		NDC:          record["ndc"],
	}
	if product.MarketStatus == "" {
		product.MarketStatus = "Unknown"
	}

	// The source key column must be numeric when present.
	if raw := record["id"]; raw != "" {
		if _, err := strconv.Atoi(raw); err != nil {
			return models.Product{}, fmt.Errorf("non-numeric source id %q for %q", raw, name)
		}
		product.DSLDID = raw
	}

	for idx, brand := range textutil.SplitList(record["brand_names"]) {
		product.BrandNames = append(product.BrandNames, models.BrandName{Name: brand, Position: idx + 1})
	}
	for idx, ingredient := range textutil.SplitList(record["ingredients"]) {
		product.Ingredients = append(product.Ingredients, models.ProductIngredient{Name: ingredient, Position: idx + 1})
	}

	return product, nil
}

package ingest

import (
	"context"
	"encoding/xml"
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

type labelRecord struct {
	DSLDID       string            `xml:"id,attr"`
	Name         string            `xml:"product-name"`
	Brand        string            `xml:"brand-name"`
	DosageForm   string            `xml:"dosage-form"`
	MarketStatus string            `xml:"market-status"`
	Ingredients  []labelIngredient `xml:"ingredients>ingredient"`
	Statements   []labelStatement  `xml:"statements>statement"`
}

type labelIngredient struct {
	Name   string `xml:"name"`
	Amount string `xml:"amount"`
	Unit   string `xml:"unit"`
}

type labelStatement struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

// ImportDSLDLabels streams supplement label records from a DSLD-style XML
// export into the catalog. Labels are decoded one element at a time so the
// file never has to fit in memory.
func ImportDSLDLabels(ctx context.Context, db *gorm.DB, path string) (Report, error) {
	report := Report{}
	if db == nil {
		return report, gorm.ErrInvalidDB
	}

	file, err := os.Open(path)
	if err != nil {
		return report, fmt.Errorf("open label export: %w", err)
	}
	defer file.Close()

	decoder := xml.NewDecoder(file)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.Errored++
			applog.Error(ctx, "label export unreadable", "error", err)
			break
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "label" {
			continue
		}

		var record labelRecord
		if err := decoder.DecodeElement(&record, &start); err != nil {
			report.Errored++
			applog.Error(ctx, "label record undecodable", "error", err)
			continue
		}

		importLabelRecord(ctx, db, record, &report)
	}

	applog.Info(ctx, "label import finished", "path", path, "loaded", report.Loaded,
		"skipped", report.Skipped, "errored", report.Errored)
	return report, nil
}

func importLabelRecord(ctx context.Context, db *gorm.DB, record labelRecord, report *Report) {
	name := textutil.CollapseWhitespace(record.Name)
	if name == "" {
		report.Errored++
		return
	}

	dsldID := strings.TrimSpace(record.DSLDID)
	if dsldID != "" {
		if _, err := strconv.Atoi(dsldID); err != nil {
			report.Errored++
			applog.Error(ctx, "label carries non-numeric dsld id", "name", name, "dsld_id", dsldID)
			return
		}
	}

	var count int64
	query := db.WithContext(ctx).Model(&models.Product{})
	if dsldID != "" {
		query = query.Where("dsld_id = ? OR lower(name) = ?", dsldID, strings.ToLower(name))
	} else {
		query = query.Where("lower(name) = ?", strings.ToLower(name))
	}
	if err := query.Count(&count).Error; err != nil {
		report.Errored++
		applog.Error(ctx, "label existence check failed", "name", name, "error", err)
		return
	}
	if count > 0 {
		report.Skipped++
		return
	}

	product := models.Product{
		Name:         name,
		Kind:         models.KindSupplement,
		DosageForm:   strings.TrimSpace(record.DosageForm),
		MarketStatus: strings.TrimSpace(record.MarketStatus),
		DSLDID:       dsldID,
	}
	if product.MarketStatus == "" {
		product.MarketStatus = "Unknown"
	}
	if brand := textutil.CollapseWhitespace(record.Brand); brand != "" {
		product.BrandNames = append(product.BrandNames, models.BrandName{Name: brand, Position: 1})
	}
	for idx, ingredient := range record.Ingredients {
		ingredientName := textutil.CollapseWhitespace(ingredient.Name)
		if ingredientName == "" {
			continue
		}
		product.Ingredients = append(product.Ingredients, models.ProductIngredient{
			Name:     ingredientName,
			Amount:   strings.TrimSpace(ingredient.Amount),
			Unit:     strings.TrimSpace(ingredient.Unit),
			Position: idx + 1,
		})
	}
	for _, statement := range record.Statements {
		text := textutil.CollapseWhitespace(statement.Text)
		if text == "" {
			continue
		}
		product.LabelStatements = append(product.LabelStatements, models.LabelStatement{
			Type:      strings.TrimSpace(statement.Type),
			Statement: text,
		})
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		report.Errored++
		applog.Error(ctx, "label insert failed", "name", name, "error", err)
		return
	}
	report.Loaded++
}

// Command import_products loads the curated product catalog CSV into the
// database. The file path defaults to products.csv and may be overridden
// by the first argument.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mixguard/internal/config"
	"mixguard/internal/db"
	"mixguard/internal/ingest"
)

func main() {
	csvPath := "products.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(context.Background(), csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Relative paths are resolved against the configured source directory.
	if !filepath.IsAbs(csvPath) {
		csvPath = filepath.Join(cfg.Ingest.SourceDir, csvPath)
	}
	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	report, err := ingest.ImportProductsCSV(ctx, database, csvPath, ingest.CSVOptions{
		BatchSize: cfg.Ingest.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("import products: %w", err)
	}

	fmt.Printf("product import finished: %s\n", report)
	return nil
}

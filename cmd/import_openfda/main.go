// Command import_openfda pulls drug product listings from the openFDA
// NDC directory and merges them into the catalog. The endpoint may be
// overridden with the first argument or OPENFDA_BASE_URL.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"mixguard/internal/config"
	"mixguard/internal/db"
	"mixguard/internal/ingest"
)

const defaultBaseURL = "https://api.fda.gov/drug/ndc.json"

func main() {
	baseURL := os.Getenv("OPENFDA_BASE_URL")
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}

	if err := run(context.Background(), baseURL); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, baseURL string) error {
	if strings.TrimSpace(baseURL) == "" {
		return fmt.Errorf("base url must not be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	report, err := ingest.ImportCatalogAPI(ctx, database, ingest.CatalogAPI{
		BaseURL:  baseURL,
		MaxPages: cfg.Ingest.MaxPages,
		Delay:    50 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("import catalog: %w", err)
	}

	fmt.Printf("catalog import finished: %s\n", report)
	return nil
}

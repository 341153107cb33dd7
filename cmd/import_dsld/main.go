// Command import_dsld loads supplement label records from a DSLD-style
// XML export into the catalog. The file path defaults to labels.xml and
// may be overridden by the first argument.
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
	xmlPath := "labels.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}

	if err := run(context.Background(), xmlPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, xmlPath string) error {
	if strings.TrimSpace(xmlPath) == "" {
		return fmt.Errorf("xml path must not be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Relative paths are resolved against the configured source directory.
	if !filepath.IsAbs(xmlPath) {
		xmlPath = filepath.Join(cfg.Ingest.SourceDir, xmlPath)
	}
	if _, err := os.Stat(xmlPath); err != nil {
		return fmt.Errorf("locate xml: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	report, err := ingest.ImportDSLDLabels(ctx, database, xmlPath)
	if err != nil {
		return fmt.Errorf("import labels: %w", err)
	}

	fmt.Printf("label import finished: %s\n", report)
	return nil
}

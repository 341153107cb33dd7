// Command backfill_interactions walks the stored catalog and queries a
// remote interaction service for each product, storing any findings that
// resolve to known product pairs. The endpoint comes from the first
// argument or INTERACTION_API_BASE_URL.
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

func main() {
	baseURL := os.Getenv("INTERACTION_API_BASE_URL")
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}

	if err := run(context.Background(), baseURL); err != nil {
		fmt.Fprintf(os.Stderr, "backfill failed: %v\n", err)
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

	report, err := ingest.BackfillInteractions(ctx, database, ingest.InteractionAPI{
		BaseURL: baseURL,
		Delay:   100 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("backfill interactions: %w", err)
	}

	fmt.Printf("interaction backfill finished: %s\n", report)
	return nil
}

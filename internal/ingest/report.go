// Package ingest contains the offline batch loaders that populate the
// product catalog and interaction table from third-party datasets. Each
// sub-flow is independent, re-runnable, and isolates per-record failures:
// a bad row is counted and skipped, never fatal.
package ingest

import "fmt"

// Report summarises one ingestion run.
type Report struct {
	Loaded  int
	Skipped int
	Errored int
}

// Total returns the number of records seen.
func (r Report) Total() int {
	return r.Loaded + r.Skipped + r.Errored
}

func (r Report) String() string {
	return fmt.Sprintf("loaded=%d skipped=%d errored=%d", r.Loaded, r.Skipped, r.Errored)
}

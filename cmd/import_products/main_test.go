package main

import (
	"context"
	"testing"
)

func TestRunRejectsEmptyPath(t *testing.T) {
	if err := run(context.Background(), "   "); err == nil {
		t.Fatal("expected an error for an empty csv path")
	}
}

func TestRunRejectsMissingFile(t *testing.T) {
	if err := run(context.Background(), "definitely-missing.csv"); err == nil {
		t.Fatal("expected an error for a missing csv file")
	}
}

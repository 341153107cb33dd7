package handlers

import (
	"net/http"
	"testing"
)

type healthBody struct {
	OK bool   `json:"ok"`
	DB string `json:"db"`
}

func TestHealthWithDatabase(t *testing.T) {
	newHandlerDB(t)

	rec := getJSON(t, Health, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body healthBody
	decodeBody(t, rec, &body)
	if !body.OK {
		t.Error("expected ok to be true")
	}
	if body.DB != "up" {
		t.Errorf("expected db %q, got %q", "up", body.DB)
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	Configure(nil)
	t.Cleanup(func() { Configure(nil) })

	rec := getJSON(t, Health, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body healthBody
	decodeBody(t, rec, &body)
	if !body.OK {
		t.Error("expected ok to be true even when the store is down")
	}
	if body.DB != "down" {
		t.Errorf("expected db %q, got %q", "down", body.DB)
	}
}

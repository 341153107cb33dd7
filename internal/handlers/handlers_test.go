package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"mixguard/internal/ai"
	"mixguard/internal/db/mock"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// newHandlerDB installs a seeded mock database for the duration of the
// test. Handler state is package level, so these tests never run parallel.
func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := mock.New(context.Background())
	if err != nil {
		t.Fatalf("failed to initialise mock database: %v", err)
	}
	Configure(database)
	t.Cleanup(func() {
		Configure(nil)
		ConfigureAI(nil)
	})
	return database
}

func newHandlerPredictor(t *testing.T, database *gorm.DB, rt http.RoundTripper) *ai.Predictor {
	t.Helper()

	client, err := ai.NewClient(ai.Config{
		APIKey:     "test-key",
		Timeout:    2 * time.Second,
		HTTPClient: &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("failed to build ai client: %v", err)
	}
	predictor := ai.NewPredictor(client, database)
	predictor.Delay = 0
	return predictor
}

// chatResponse wraps content in a chat-completions reply body.
func chatResponse(t *testing.T, content string) *http.Response {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	if err != nil {
		t.Fatalf("failed to encode chat response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func getJSON(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

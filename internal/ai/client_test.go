package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func chatResponse(t *testing.T, content string) string {
	t.Helper()
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encode chat response: %v", err)
	}
	return string(body)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    "http://fake.test/v1",
		HTTPClient: &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.Model() != defaultModel {
		t.Fatalf("Model() = %q, want %q", client.Model(), defaultModel)
	}
	if client.baseURL != defaultBaseURL {
		t.Fatalf("baseURL = %q", client.baseURL)
	}
	if client.temperature != defaultTemperature {
		t.Fatalf("temperature = %v", client.temperature)
	}
}

func TestCompleteParsesReply(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotPath string
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(chatResponse(t, "```json\nhello\n```"))),
			Request:    r,
		}, nil
	})

	client := newTestClient(t, rt)
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.Contains(content, "hello") {
		t.Fatalf("Complete() = %q, want the fenced content", content)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotPath != "/v1/chat/completions" {
		t.Fatalf("request path = %q", gotPath)
	}
}

func TestCompleteRejectsErrorStatus(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Status:     "429 Too Many Requests",
			Body:       io.NopCloser(strings.NewReader("slow down")),
			Request:    r,
		}, nil
	})

	client := newTestClient(t, rt)
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"choices":[]}`)),
			Request:    r,
		}, nil
	})

	client := newTestClient(t, rt)
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error when the api returns no choices")
	}
}

func TestCompleteTruncatesOversizedResponse(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 2048)
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(big)),
			Request:    r,
		}, nil
	})

	client, err := NewClient(Config{
		APIKey:           "k",
		BaseURL:          "http://fake.test",
		MaxResponseBytes: 256,
		HTTPClient:       &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	// The truncated body is not valid JSON; the important part is that the
	// limit held rather than the whole body being buffered.
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected decode error from truncated response")
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"mixguard/internal/catalog"
	"mixguard/models"
)

const noInteractionReply = `{"has_interaction": false, "severity": "none", "description": "", "mechanism": "", "notes": ""}`

func TestMixReturnsStoredPairWithoutPrediction(t *testing.T) {
	database := newHandlerDB(t)

	calls := 0
	ConfigureAI(newHandlerPredictor(t, database, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return chatResponse(t, noInteractionReply), nil
	})))

	rec := postJSON(t, Mix, "/mix", `{"items": ["warfarin", "vitamin k2 (mk-7)"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body mixResponse
	decodeBody(t, rec, &body)
	if body.Error != "" {
		t.Fatalf("unexpected error code %q", body.Error)
	}
	if len(body.Resolved) != 2 {
		t.Fatalf("expected 2 resolutions, got %d", len(body.Resolved))
	}
	for _, resolution := range body.Resolved {
		if resolution.Kind != catalog.KindProduct {
			t.Errorf("expected product resolution for %q, got %q", resolution.Input, resolution.Kind)
		}
	}
	if len(body.Interactions) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(body.Interactions))
	}
	if body.Interactions[0].Severity != models.SeveritySevere {
		t.Errorf("expected severity %q, got %q", models.SeveritySevere, body.Interactions[0].Severity)
	}
	if body.Interactions[0].Predicted {
		t.Error("stored interaction must not be flagged as predicted")
	}
	if calls != 0 {
		t.Errorf("expected no model calls for a covered pair, made %d", calls)
	}
}

func TestMixSingleItem(t *testing.T) {
	newHandlerDB(t)

	rec := postJSON(t, Mix, "/mix", `{"items": ["Aspirin"]}`)

	var body mixResponse
	decodeBody(t, rec, &body)
	if body.Error != "" {
		t.Fatalf("unexpected error code %q", body.Error)
	}
	if len(body.Resolved) != 1 {
		t.Fatalf("expected 1 resolution, got %d", len(body.Resolved))
	}
	if len(body.Interactions) != 0 {
		t.Fatalf("expected no interactions, got %d", len(body.Interactions))
	}
}

func TestMixPredictsAndPersistsUncoveredPair(t *testing.T) {
	database := newHandlerDB(t)

	calls := 0
	reply := `{"has_interaction": true, "severity": "moderate", "description": "May reduce absorption.", "mechanism": "", "notes": "Separate doses."}`
	ConfigureAI(newHandlerPredictor(t, database, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return chatResponse(t, reply), nil
	})))

	body := `{"items": ["Sertraline", "Vitamin D3 5000 IU"]}`
	rec := postJSON(t, Mix, "/mix", body)

	var first mixResponse
	decodeBody(t, rec, &first)
	if len(first.Interactions) != 1 {
		t.Fatalf("expected 1 predicted interaction, got %d", len(first.Interactions))
	}
	predicted := first.Interactions[0]
	if !predicted.Predicted {
		t.Error("expected interaction to be flagged as predicted")
	}
	if predicted.Severity != models.SeverityModerate {
		t.Errorf("expected severity %q, got %q", models.SeverityModerate, predicted.Severity)
	}
	if predicted.Source != "Predicted by gpt-4o-mini" {
		t.Errorf("unexpected provenance %q", predicted.Source)
	}
	if calls != 1 {
		t.Fatalf("expected 1 model call, made %d", calls)
	}

	// The stored row now covers the pair: a rerun answers from the store.
	rec = postJSON(t, Mix, "/mix", body)
	var second mixResponse
	decodeBody(t, rec, &second)
	if len(second.Interactions) != 1 {
		t.Fatalf("expected 1 interaction on rerun, got %d", len(second.Interactions))
	}
	if second.Interactions[0].Predicted {
		t.Error("rerun should be served from storage, not prediction")
	}
	if calls != 1 {
		t.Errorf("expected no further model calls, made %d total", calls)
	}
}

func TestMixModelFailureYieldsNoPairResult(t *testing.T) {
	database := newHandlerDB(t)

	ConfigureAI(newHandlerPredictor(t, database, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("network is down")
	})))

	rec := postJSON(t, Mix, "/mix", `{"items": ["Sertraline", "Vitamin D3 5000 IU"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body mixResponse
	decodeBody(t, rec, &body)
	if body.Error != "" {
		t.Fatalf("unexpected error code %q", body.Error)
	}
	if len(body.Interactions) != 0 {
		t.Fatalf("expected no interactions when the model is unreachable, got %d", len(body.Interactions))
	}
}

func TestMixUnknownItemResolvesAsIngredient(t *testing.T) {
	newHandlerDB(t)

	rec := postJSON(t, Mix, "/mix", `{"items": ["Aspirin", "turmeric extract"]}`)

	var body mixResponse
	decodeBody(t, rec, &body)
	if len(body.Resolved) != 2 {
		t.Fatalf("expected 2 resolutions, got %d", len(body.Resolved))
	}
	if body.Resolved[0].Kind != catalog.KindProduct {
		t.Errorf("expected product resolution, got %q", body.Resolved[0].Kind)
	}
	if body.Resolved[1].Kind != catalog.KindIngredient {
		t.Errorf("expected ingredient fallback, got %q", body.Resolved[1].Kind)
	}
	if len(body.Interactions) != 0 {
		t.Fatalf("expected no interactions without a predictor, got %d", len(body.Interactions))
	}
}

func TestMixTooManyItems(t *testing.T) {
	newHandlerDB(t)

	items := `["a","b","c","d","e","f","g","h","i","j","k"]`
	rec := postJSON(t, Mix, "/mix", `{"items": `+items+`}`)

	var body mixResponse
	decodeBody(t, rec, &body)
	if body.Error != codeTooManyItems {
		t.Fatalf("expected error code %q, got %q", codeTooManyItems, body.Error)
	}
}

func TestMixWithoutDatabase(t *testing.T) {
	Configure(nil)
	t.Cleanup(func() { Configure(nil) })

	rec := postJSON(t, Mix, "/mix", `{"items": ["Aspirin", "Warfarin"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body mixResponse
	decodeBody(t, rec, &body)
	if body.Error != codeDatabaseUnavailable {
		t.Fatalf("expected error code %q, got %q", codeDatabaseUnavailable, body.Error)
	}
}

func TestMixInvalidPayload(t *testing.T) {
	newHandlerDB(t)

	rec := postJSON(t, Mix, "/mix", `{"items": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

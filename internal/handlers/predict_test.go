package handlers

import (
	"net/http"
	"testing"

	"mixguard/models"
)

func TestPredictInteractionsRequiresAPIKey(t *testing.T) {
	newHandlerDB(t)
	ConfigureAI(nil)

	rec := postJSON(t, PredictInteractions, "/predict-interactions", `{"items": ["kava", "valerian"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body predictResponse
	decodeBody(t, rec, &body)
	if body.Error != codeAPIKeyMissing {
		t.Fatalf("expected error code %q, got %q", codeAPIKeyMissing, body.Error)
	}
}

func TestPredictInteractionsIgnoresStoredCoverage(t *testing.T) {
	database := newHandlerDB(t)

	calls := 0
	reply := `{"has_interaction": true, "severity": "severe", "description": "Antagonised anticoagulation.", "mechanism": "", "notes": ""}`
	ConfigureAI(newHandlerPredictor(t, database, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return chatResponse(t, reply), nil
	})))

	rec := postJSON(t, PredictInteractions, "/predict-interactions", `{"items": ["warfarin", "vitamin k2 (mk-7)"]}`)

	var body predictResponse
	decodeBody(t, rec, &body)
	if body.Error != "" {
		t.Fatalf("unexpected error code %q", body.Error)
	}
	if calls != 1 {
		t.Fatalf("expected the stored pair to still be evaluated, made %d calls", calls)
	}
	if len(body.Interactions) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(body.Interactions))
	}
	if !body.Interactions[0].Predicted {
		t.Error("expected interaction to be flagged as predicted")
	}
	if body.Interactions[0].Severity != models.SeveritySevere {
		t.Errorf("expected severity %q, got %q", models.SeveritySevere, body.Interactions[0].Severity)
	}
}

func TestPredictInteractionsWorksWithoutDatabase(t *testing.T) {
	Configure(nil)
	t.Cleanup(func() {
		Configure(nil)
		ConfigureAI(nil)
	})

	reply := `{"has_interaction": true, "severity": "moderate", "description": "Additive sedation.", "mechanism": "", "notes": ""}`
	ConfigureAI(newHandlerPredictor(t, nil, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return chatResponse(t, reply), nil
	})))

	rec := postJSON(t, PredictInteractions, "/predict-interactions", `{"items": ["kava", "valerian"]}`)

	var body predictResponse
	decodeBody(t, rec, &body)
	if body.Error != "" {
		t.Fatalf("unexpected error code %q", body.Error)
	}
	if len(body.Interactions) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(body.Interactions))
	}
	if body.Interactions[0].Product1Name != "kava" || body.Interactions[0].Product2Name != "valerian" {
		t.Errorf("expected raw names, got %q and %q",
			body.Interactions[0].Product1Name, body.Interactions[0].Product2Name)
	}
}

func TestPredictInteractionsTooManyItems(t *testing.T) {
	database := newHandlerDB(t)
	ConfigureAI(newHandlerPredictor(t, database, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Error("no model call expected")
		return chatResponse(t, noInteractionReply), nil
	})))

	items := `["a","b","c","d","e","f","g","h","i","j","k"]`
	rec := postJSON(t, PredictInteractions, "/predict-interactions", `{"items": `+items+`}`)

	var body predictResponse
	decodeBody(t, rec, &body)
	if body.Error != codeTooManyItems {
		t.Fatalf("expected error code %q, got %q", codeTooManyItems, body.Error)
	}
}

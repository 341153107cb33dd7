package ai

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

func TestRecommendBlocksHighRiskMedication(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(chatResponse(t, "{}"))),
			Request:    r,
		}, nil
	})

	predictor := NewPredictor(newTestClient(t, rt), nil)
	result := predictor.Recommend(context.Background(), RecommendationRequest{
		Symptoms:    []string{"fatigue"},
		Medications: []string{"Warfarin 5mg daily"},
	})

	if !result.Blocked {
		t.Fatal("expected warfarin profile to be blocked")
	}
	if result.BlockReason == "" {
		t.Fatal("expected a block reason")
	}
	if calls.Load() != 0 {
		t.Fatal("blocked profiles must not reach the external model")
	}
}

func TestRecommendBlocksRedFlagSymptom(t *testing.T) {
	t.Parallel()

	predictor := NewPredictor(newTestClient(t, staticReplyTransport(t, "{}")), nil)
	result := predictor.Recommend(context.Background(), RecommendationRequest{
		Symptoms: []string{"crushing chest pain"},
	})
	if !result.Blocked {
		t.Fatal("expected red-flag symptom to be blocked")
	}
}

func TestRecommendBlocksPregnancy(t *testing.T) {
	t.Parallel()

	predictor := NewPredictor(newTestClient(t, staticReplyTransport(t, "{}")), nil)
	result := predictor.Recommend(context.Background(), RecommendationRequest{
		MedicalConsiderations: []string{"currently pregnant"},
	})
	if !result.Blocked {
		t.Fatal("expected pregnancy to be blocked")
	}
}

func TestRecommendParsesModelReply(t *testing.T) {
	t.Parallel()

	reply := `{
  "disclaimer": "model text",
  "warnings": ["Magnesium can interact with some antibiotics."],
  "recommendations": [{"supplement": "Magnesium Glycinate", "reason": "May support sleep quality.", "caution": "Take away from antibiotics."}],
  "next_steps": ["Track sleep for two weeks."]
}`
	predictor := NewPredictor(newTestClient(t, staticReplyTransport(t, reply)), nil)
	result := predictor.Recommend(context.Background(), RecommendationRequest{
		Symptoms:    []string{"poor sleep"},
		Preferences: []string{"no melatonin"},
	})

	if result.Blocked {
		t.Fatal("benign profile must not be blocked")
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].Supplement != "Magnesium Glycinate" {
		t.Fatalf("unexpected recommendations: %+v", result.Recommendations)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("unexpected warnings: %+v", result.Warnings)
	}
	if result.Disclaimer != standardDisclaimer {
		t.Fatal("the fixed disclaimer must always be used")
	}
	if len(result.NextSteps) != 1 || result.NextSteps[0] != "Track sleep for two weeks." {
		t.Fatalf("unexpected next steps: %+v", result.NextSteps)
	}
}

func TestRecommendFallsBackOnModelFailure(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Status:     "502 Bad Gateway",
			Body:       io.NopCloser(strings.NewReader("upstream down")),
			Request:    r,
		}, nil
	})

	predictor := NewPredictor(newTestClient(t, rt), nil)
	result := predictor.Recommend(context.Background(), RecommendationRequest{Symptoms: []string{"fatigue"}})

	if result.Blocked {
		t.Fatal("fallback must not be reported as blocked")
	}
	if len(result.Warnings) == 0 || len(result.NextSteps) == 0 {
		t.Fatalf("fallback payload incomplete: %+v", result)
	}
	if result.Disclaimer == "" {
		t.Fatal("fallback must carry the disclaimer")
	}
}

func TestRecommendFallsBackOnUnparseableReply(t *testing.T) {
	t.Parallel()

	predictor := NewPredictor(newTestClient(t, staticReplyTransport(t, "plain prose, no json")), nil)
	result := predictor.Recommend(context.Background(), RecommendationRequest{Symptoms: []string{"fatigue"}})

	if result.Blocked {
		t.Fatal("fallback must not be reported as blocked")
	}
	if len(result.Recommendations) != 0 {
		t.Fatalf("fallback must not invent recommendations: %+v", result.Recommendations)
	}
}

func TestRecommendWithoutClientFallsBack(t *testing.T) {
	t.Parallel()

	predictor := &Predictor{}
	result := predictor.Recommend(context.Background(), RecommendationRequest{})
	if result.Blocked || result.Disclaimer == "" {
		t.Fatalf("expected plain fallback payload, got %+v", result)
	}
}

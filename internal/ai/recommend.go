package ai

import (
	"context"
	"fmt"
	"strings"

	"mixguard/internal/jsonextract"
	applog "mixguard/internal/log"
)

// RecommendationRequest carries a wellness profile submitted by a client.
type RecommendationRequest struct {
	Symptoms              []string `json:"symptoms"`
	Medications           []string `json:"medications"`
	Supplements           []string `json:"supplements"`
	MedicalConsiderations []string `json:"medicalConsiderations"`
	Preferences           []string `json:"preferences"`
}

// Recommendation is one suggested supplement with its rationale.
type Recommendation struct {
	Supplement string `json:"supplement"`
	Reason     string `json:"reason"`
	Caution    string `json:"caution,omitempty"`
}

// RecommendationResult is the structured advice payload, or a refusal when
// the profile is too high-risk for automated suggestions.
type RecommendationResult struct {
	Blocked         bool             `json:"blocked,omitempty"`
	BlockReason     string           `json:"blockReason,omitempty"`
	Disclaimer      string           `json:"disclaimer"`
	Warnings        []string         `json:"warnings"`
	Recommendations []Recommendation `json:"recommendations"`
	NextSteps       []string         `json:"nextSteps"`
}

const standardDisclaimer = "This information is educational only and is not medical advice. " +
	"Always consult a qualified healthcare professional before starting or stopping any supplement or medication."

// Profiles matching any of these are refused outright rather than sent to
// the model: the downside of a bad automated suggestion is too large.
var (
	highRiskMedications = []string{
		"warfarin", "heparin", "apixaban", "rivaroxaban", "clopidogrel",
		"methotrexate", "tacrolimus", "cyclosporine", "lithium", "digoxin",
		"phenytoin", "chemotherapy",
	}
	highRiskConsiderations = []string{
		"pregnan", "breastfeed", "chemotherapy", "dialysis", "transplant",
		"liver failure", "kidney failure",
	}
	redFlagSymptoms = []string{
		"chest pain", "shortness of breath", "difficulty breathing",
		"suicidal", "seizure", "fainting", "loss of consciousness",
		"severe bleeding",
	}
)

// Recommend produces wellness recommendations for the submitted profile.
// The high-risk heuristic is checked before any external call; an
// unreachable or unparseable model degrades to a conservative fallback
// payload, never an error.
func (p *Predictor) Recommend(ctx context.Context, req RecommendationRequest) RecommendationResult {
	if reason, blocked := highRiskReason(req); blocked {
		applog.Info(ctx, "recommendation request blocked by risk heuristic", "reason", reason)
		return RecommendationResult{
			Blocked:     true,
			BlockReason: reason,
			Disclaimer:  standardDisclaimer,
			Warnings:    []string{"Automated recommendations are disabled for this profile."},
			NextSteps:   []string{"Discuss supplement choices with your prescribing clinician or pharmacist."},
		}
	}

	if p.client == nil {
		return fallbackRecommendations()
	}

	content, err := p.client.Complete(ctx, recommendationSystemPrompt, buildRecommendationPrompt(req))
	if err != nil {
		applog.Error(ctx, "recommendation model call failed", "error", err)
		return fallbackRecommendations()
	}

	var reply struct {
		Disclaimer      string           `json:"disclaimer"`
		Warnings        []string         `json:"warnings"`
		Recommendations []Recommendation `json:"recommendations"`
		NextSteps       []string         `json:"next_steps"`
	}
	if err := jsonextract.Decode(content, &reply); err != nil {
		applog.Error(ctx, "recommendation reply not parseable", "error", err)
		return fallbackRecommendations()
	}

	result := RecommendationResult{
		Disclaimer:      standardDisclaimer,
		Warnings:        reply.Warnings,
		Recommendations: reply.Recommendations,
		NextSteps:       reply.NextSteps,
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []Recommendation{}
	}
	if len(result.NextSteps) == 0 {
		result.NextSteps = []string{"Review these suggestions with a healthcare professional."}
	}
	return result
}

func highRiskReason(req RecommendationRequest) (string, bool) {
	if match := matchKeyword(req.Medications, highRiskMedications); match != "" {
		return fmt.Sprintf("profile includes a narrow-therapeutic-index or high-risk medication (%s)", match), true
	}
	if match := matchKeyword(req.MedicalConsiderations, highRiskConsiderations); match != "" {
		return fmt.Sprintf("profile includes a high-risk medical consideration (%s)", match), true
	}
	if match := matchKeyword(req.Symptoms, redFlagSymptoms); match != "" {
		return fmt.Sprintf("reported symptom requires medical attention (%s)", match), true
	}
	return "", false
}

func matchKeyword(values, keywords []string) string {
	for _, value := range values {
		lowered := strings.ToLower(value)
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

func fallbackRecommendations() RecommendationResult {
	return RecommendationResult{
		Disclaimer: standardDisclaimer,
		Warnings: []string{
			"Personalised suggestions are temporarily unavailable.",
		},
		Recommendations: []Recommendation{},
		NextSteps: []string{
			"Try again later, or consult a pharmacist about your goals.",
		},
	}
}

const recommendationSystemPrompt = "You are a conservative wellness advisor. " +
	"Suggest only well-established, low-risk supplements, and always flag interactions with listed medications. " +
	"Respond with raw JSON only, no Markdown."

func buildRecommendationPrompt(req RecommendationRequest) string {
	var sb strings.Builder
	sb.WriteString("Suggest supplements for the following profile.\n\n")
	writeProfileSection(&sb, "Symptoms", req.Symptoms)
	writeProfileSection(&sb, "Current medications", req.Medications)
	writeProfileSection(&sb, "Current supplements", req.Supplements)
	writeProfileSection(&sb, "Medical considerations", req.MedicalConsiderations)
	writeProfileSection(&sb, "Preferences", req.Preferences)
	sb.WriteString("\nReturn a JSON object with exactly these fields:\n")
	sb.WriteString(`{
  "disclaimer": string,
  "warnings": string[] (interaction or safety warnings for this profile),
  "recommendations": [{"supplement": string, "reason": string, "caution": string}],
  "next_steps": string[]
}` + "\n")
	sb.WriteString("Strict rules: at most five recommendations, raw JSON only.")
	return sb.String()
}

func writeProfileSection(sb *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		fmt.Fprintf(sb, "%s: none reported\n", label)
		return
	}
	fmt.Fprintf(sb, "%s: %s\n", label, strings.Join(values, "; "))
}

package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bronn-dev/smartdental/internal/llm"
)

// extractorSystemPrompt is the fixed contract for the feature
// extractor. The model reports observations; it never diagnoses,
// never routes, and never escalates on its own initiative.
const extractorSystemPrompt = `You are a clinical feature extractor for a dental appointment orchestration system.

Your ONLY job is to extract structured features from the patient's message and chat history. You are NOT a clinician and you make NO decisions.

HARD RULES:
1. Extract ONLY the features listed in the schema below. Do not invent symptoms the patient did not state.
2. NEVER diagnose, prescribe, or recommend any treatment or medication in any text field.
3. NEVER decide routing or completion. Those decisions belong to a downstream system.
4. NEVER set urgency to EMERGENCY unless the patient explicitly reports airway difficulty or uncontrolled bleeding.
5. Split distinct concerns into separate issues. Use the chat history to resolve references like "it" or "that tooth".
6. When the patient explicitly addresses an intake topic (for example "no trouble breathing"), record it under field_answers with the matching key: location, duration, severity, stimulus, swelling_location, airway_status, hemorrhage_status, chronobiology, systemic_risk.

Return ONLY this JSON structure, no markdown fences:
{
  "issues": [
    {
      "symptom_cluster": "short phrase naming the concern",
      "has_pain": false,
      "thermal_sensitivity": false,
      "biting_pain": false,
      "swelling": false,
      "visible_swelling": false,
      "airway_compromise": false,
      "trauma": false,
      "bleeding": false,
      "impacted_wisdom": false,
      "requires_sedation": false,
      "severity": null,
      "duration_days": null,
      "location": null,
      "reported_symptoms": [],
      "urgency": "LOW | MEDIUM | HIGH | EMERGENCY",
      "reasoning": "one factual sentence restating what the patient reported",
      "field_answers": {}
    }
  ],
  "patient_sentiment": "Anxious | Neutral | Frustrated"
}`

// extractionPayload mirrors the extractor JSON schema.
type extractionPayload struct {
	Issues           []*ClinicalIssue `json:"issues"`
	PatientSentiment Sentiment        `json:"patient_sentiment"`
}

const historyContextTurns = 4

// buildExtractionPrompt renders the user prompt with trailing history
// context, most recent turns only.
func buildExtractionPrompt(text string, history []ChatMessage) string {
	if len(history) == 0 {
		return text
	}
	recent := history
	if len(recent) > historyContextTurns {
		recent = recent[len(recent)-historyContextTurns:]
	}
	var b strings.Builder
	b.WriteString("CHAT HISTORY:\n")
	for _, m := range recent {
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nCURRENT USER MESSAGE:\n")
	b.WriteString(text)
	return b.String()
}

// stripCodeFences removes an optional markdown fence wrapper.
func stripCodeFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	if _, rest, ok := strings.Cut(raw, "\n"); ok {
		raw = rest
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

// extractIssues calls the model and parses its JSON. The caller owns
// timeout handling and fallbacks.
func (a *Analyzer) extractIssues(ctx context.Context, text string, history []ChatMessage) (*extractionPayload, error) {
	raw, err := a.llm.GenerateJSON(ctx, extractorSystemPrompt, buildExtractionPrompt(text, history), llm.DefaultExtractionOptions())
	if err != nil {
		return nil, fmt.Errorf("triage: extraction call failed: %w", err)
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		return nil, fmt.Errorf("triage: extraction returned malformed JSON: %w", err)
	}

	for _, issue := range payload.Issues {
		issue.Normalize()
		sanitizeExtractedIssue(issue)
	}
	if payload.PatientSentiment != SentimentAnxious && payload.PatientSentiment != SentimentFrustrated {
		payload.PatientSentiment = SentimentNeutral
	}
	return &payload, nil
}

// sanitizeExtractedIssue enforces the extractor contract on the model's
// output: urgency values are clamped to the known set, and EMERGENCY is
// stripped back to HIGH unless an explicit airway or bleeding flag
// backs it.
func sanitizeExtractedIssue(issue *ClinicalIssue) {
	if _, ok := urgencyRank[issue.Urgency]; !ok {
		issue.Urgency = UrgencyLow
	}
	if issue.Urgency == UrgencyEmergency && !issue.AirwayCompromise && !issue.Bleeding {
		issue.Urgency = UrgencyHigh
	}
	if issue.Severity != nil && (*issue.Severity < 1 || *issue.Severity > 10) {
		issue.Severity = nil
	}
}

// safetyScan inspects every extractor-authored text field. When any
// forbidden pattern fires, each issue's reasoning is overwritten and
// the result is flagged so the analyzer forces a clarification turn.
func safetyScan(issues []*ClinicalIssue) (violations []string) {
	for _, issue := range issues {
		text := strings.ToLower(issue.Reasoning + " " + issue.SymptomCluster + " " + strings.Join(issue.ReportedSymptoms, " "))
		violations = append(violations, ScanForbiddenOutput(text)...)
	}
	if len(violations) > 0 {
		for _, issue := range issues {
			issue.Reasoning = safeReasoningText
		}
	}
	return violations
}

const safeReasoningText = "Clinical routing criteria met."

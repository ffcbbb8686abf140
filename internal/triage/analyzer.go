package triage

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bronn-dev/smartdental/internal/llm"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

const defaultExtractionTimeout = 10 * time.Second

// Analyzer runs the per-turn intake state machine: deterministic
// pre-filters, structured extraction, state merge, structured-answer
// ingestion, and the clinical gate. The language model only ever
// contributes features; every routing decision here is deterministic.
type Analyzer struct {
	llm     llm.Client
	logger  *logging.Logger
	timeout time.Duration
}

// AnalyzerOption configures the analyzer.
type AnalyzerOption func(*Analyzer)

// WithExtractionTimeout bounds the model call; on expiry the analyzer
// falls back to the deterministic clarification default.
func WithExtractionTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAnalyzer constructs the analyzer.
func NewAnalyzer(client llm.Client, logger *logging.Logger, opts ...AnalyzerOption) *Analyzer {
	if client == nil {
		panic("triage: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	a := &Analyzer{llm: client, logger: logger, timeout: defaultExtractionTimeout}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze processes one conversation turn.
func (a *Analyzer) Analyze(ctx context.Context, text string, history []ChatMessage, answers map[string]any, prior []*ClinicalIssue) *IntentResult {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	// S0: nothing at all — ask for a description.
	if trimmed == "" && len(prior) == 0 && len(answers) == 0 {
		result := &IntentResult{
			ActionType:             ActionUnknown,
			RequiresClarification:  true,
			ClarificationQuestions: []string{"Please describe your dental concern so I can assist you."},
		}
		result.Normalize()
		return result
	}

	// S1: red-flag regex mandates escalation before anything else runs.
	if reason := MatchRedFlag(lower); reason != "" {
		a.logger.Warn("red flag detected", "reason", reason)
		return a.escalationResult(trimmed, reason)
	}

	// S2: short pleasantries bypass the clinical pipeline.
	if trimmed != "" {
		if action := MatchConversational(lower, len(strings.Fields(lower))); action != "" {
			result := &IntentResult{ActionType: action}
			result.Normalize()
			return result
		}
	}

	issues := prior
	sentiment := SentimentNeutral
	safetyFlag := false

	// S3: structured extraction, only when this turn carries new text.
	if trimmed != "" {
		extractCtx, cancel := context.WithTimeout(ctx, a.timeout)
		payload, err := a.extractIssues(extractCtx, trimmed, history)
		cancel()
		if err != nil {
			a.logger.Error("extraction unavailable, falling back to clarification", "error", err)
			return a.clarifyFallback(prior)
		}
		sentiment = payload.PatientSentiment

		// S3a: reject outputs that diagnose, prescribe, or recommend.
		// A phrasing violation is not a clinical emergency; the
		// structured flags survive, the text does not.
		if violations := safetyScan(payload.Issues); len(violations) > 0 {
			a.logger.Warn("extractor output rejected by safety scanner", "violations", violations)
			issues = MergeIssues(prior, payload.Issues)
			return a.safetyRejectResult(issues, sentiment)
		}

		// S4: fuse with prior turns.
		issues = MergeIssues(prior, payload.Issues)
	}

	// S4b: ingest explicit structured answers.
	if len(answers) > 0 {
		issues = applyAnswersToIssues(issues, answers)
	}

	// S5: the gate decides.
	return a.gateDecision(issues, history, sentiment, safetyFlag)
}

// escalationResult builds the deterministic red-flag outcome. No model
// call is made on this path.
func (a *Analyzer) escalationResult(text, reason string) *IntentResult {
	issue := &ClinicalIssue{
		SymptomCluster: "Emergency concern",
		Urgency:        UrgencyEmergency,
		Reasoning:      safeReasoningText,
	}
	switch {
	case strings.HasPrefix(reason, "airway:"):
		issue.AirwayCompromise = true
	case strings.HasPrefix(reason, "hemorrhage:"):
		issue.Bleeding = true
	case strings.HasPrefix(reason, "trauma:"):
		issue.Trauma = true
	}
	if text != "" {
		appendSymptom(issue, text)
	}
	result := &IntentResult{
		Issues:         []*ClinicalIssue{issue},
		OverallUrgency: UrgencyEmergency,
		SafetyFlag:     true,
		ActionType:     ActionEscalate,
	}
	result.Normalize()
	return result
}

// clarifyFallback is the deterministic answer when extraction fails or
// times out: the four standard questions at low urgency.
func (a *Analyzer) clarifyFallback(prior []*ClinicalIssue) *IntentResult {
	result := &IntentResult{
		Issues:                 prior,
		OverallUrgency:         UrgencyLow,
		RequiresClarification:  true,
		ClarificationQuestions: append([]string{}, DefaultClarificationQuestions...),
		ActionType:             ActionClarify,
	}
	result.Normalize()
	return result
}

// safetyRejectResult forces a clarification turn after the scanner
// rejected the extractor's phrasing. The structured flags survive; the
// text does not.
func (a *Analyzer) safetyRejectResult(issues []*ClinicalIssue, sentiment Sentiment) *IntentResult {
	result := &IntentResult{
		Issues:                 issues,
		OverallUrgency:         overallUrgency(issues),
		RequiresClarification:  true,
		ClarificationQuestions: []string{"Could you describe your symptoms in your own words so we can route you to the right specialist?"},
		ActionType:             ActionClarify,
		PatientSentiment:       sentiment,
	}
	result.Normalize()
	return result
}

// gateDecision runs the clinical gate over every issue and selects the
// turn's action. Only this function ever returns ROUTE.
func (a *Analyzer) gateDecision(issues []*ClinicalIssue, history []ChatMessage, sentiment Sentiment, safetyFlag bool) *IntentResult {
	for _, issue := range issues {
		AssessCompleteness(issue)
		PruneAnswered(issue)
	}

	result := &IntentResult{
		Issues:           issues,
		OverallUrgency:   overallUrgency(issues),
		PatientSentiment: sentiment,
		SafetyFlag:       safetyFlag,
	}

	for _, issue := range issues {
		if MustEscalate(issue) {
			result.ActionType = ActionEscalate
			result.OverallUrgency = UrgencyEmergency
			result.SafetyFlag = true
			result.Normalize()
			return result
		}
	}

	if len(issues) == 0 {
		result.ActionType = ActionUnknown
		result.RequiresClarification = true
		result.ClarificationQuestions = []string{"Please describe your dental concern so I can assist you."}
		result.Normalize()
		return result
	}

	questions := nextQuestions(issues, lastAssistantMessage(history))
	if len(questions) > 0 {
		result.ActionType = ActionClarify
		result.RequiresClarification = true
		result.ClarificationQuestions = questions
		result.CompletionStatus = CompletionIncomplete
		result.Normalize()
		return result
	}

	for _, issue := range issues {
		if !CanRoute(issue) {
			result.ActionType = ActionClarify
			result.RequiresClarification = true
			result.ClarificationQuestions = append([]string{}, DefaultClarificationQuestions...)
			result.Normalize()
			return result
		}
	}

	result.ActionType = ActionRoute
	result.CompletionStatus = CompletionComplete
	result.Normalize()
	return result
}

// nextQuestions picks one question per incomplete issue, deduplicated.
// When the previous assistant turn already asked a question verbatim,
// the gate re-derives the next element instead of repeating itself.
func nextQuestions(issues []*ClinicalIssue, lastAssistant string) []string {
	seen := map[string]struct{}{}
	var questions []string
	for _, issue := range issues {
		if len(issue.MissingClinicalElements) == 0 {
			continue
		}
		q := ""
		for _, element := range issue.MissingClinicalElements {
			candidate := elementQuestions[element]
			if lastAssistant == "" || !strings.Contains(lastAssistant, candidate) {
				q = candidate
				break
			}
		}
		if q == "" {
			q = elementQuestions[issue.MissingClinicalElements[0]]
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		questions = append(questions, q)
	}
	return questions
}

func lastAssistantMessage(history []ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}

func overallUrgency(issues []*ClinicalIssue) Urgency {
	overall := UrgencyLow
	for _, issue := range issues {
		overall = MaxUrgency(overall, issue.Urgency)
	}
	return overall
}

// answerKeyElement maps structured-answer keys to the gate element they
// satisfy; keys outside this map attach to the first issue.
var answerKeyElement = map[string]string{
	"location":          ElementLocation,
	"pain_location":     ElementLocation,
	"duration":          ElementDuration,
	"duration_days":     ElementDuration,
	"severity":          ElementSeverity,
	"pain_severity":     ElementSeverity,
	"stimulus":          ElementStimulus,
	"thermal_duration":  ElementStimulus,
	"swelling_location": ElementSwellingLocation,
	"airway_status":     ElementAirwayStatus,
	"hemorrhage_status": ElementHemorrhageStatus,
	"chronobiology":     ElementChronobiology,
	"systemic_risk":     ElementSystemicRisk,
}

// applyAnswersToIssues routes each structured answer to the issue that
// is still missing the matching element, falling back to the first
// issue. With no issues yet, the answers seed a fresh one.
func applyAnswersToIssues(issues []*ClinicalIssue, answers map[string]any) []*ClinicalIssue {
	if len(issues) == 0 {
		issue := &ClinicalIssue{SymptomCluster: "Patient-reported concern"}
		issue.Normalize()
		issues = []*ClinicalIssue{issue}
	}

	for _, issue := range issues {
		AssessCompleteness(issue)
	}

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, rawKey := range keys {
		key := strings.ToLower(strings.TrimSpace(rawKey))
		target := issues[0]
		if element, ok := answerKeyElement[key]; ok {
			for _, issue := range issues {
				if containsString(issue.MissingClinicalElements, element) {
					target = issue
					break
				}
			}
		}
		ApplyAnswers(target, map[string]any{key: answers[rawKey]})
		AssessCompleteness(target)
	}
	return issues
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

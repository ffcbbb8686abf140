package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessCompletenessPainConcern(t *testing.T) {
	issue := &ClinicalIssue{HasPain: true}
	AssessCompleteness(issue)

	// Priority order is stable: location first, then the pain intake.
	assert.Equal(t, []string{ElementLocation, ElementDuration, ElementSeverity, ElementStimulus}, issue.MissingClinicalElements)
	assert.False(t, CanRoute(issue))
}

func TestAssessCompletenessSwellingConcern(t *testing.T) {
	issue := &ClinicalIssue{Swelling: true}
	AssessCompleteness(issue)

	assert.Equal(t, []string{ElementLocation, ElementSwellingLocation, ElementAirwayStatus}, issue.MissingClinicalElements)

	issue.Location = strPtr("lower left jaw")
	issue.VisibleSwelling = true
	issue.FieldAnswers = map[string]string{"airway_status": "breathing fine"}
	AssessCompleteness(issue)

	assert.Empty(t, issue.MissingClinicalElements)
	assert.True(t, CanRoute(issue))
	assert.Equal(t, 3, len(issue.ClinicalProfile))
}

func TestAssessCompletenessHemorrhageOnTrauma(t *testing.T) {
	issue := &ClinicalIssue{Trauma: true}
	AssessCompleteness(issue)
	assert.Contains(t, issue.MissingClinicalElements, ElementHemorrhageStatus)

	issue.FieldAnswers = map[string]string{"hemorrhage_status": "no bleeding"}
	AssessCompleteness(issue)
	assert.NotContains(t, issue.MissingClinicalElements, ElementHemorrhageStatus)
}

func TestNextQuestionWalksPriorityOrder(t *testing.T) {
	issue := &ClinicalIssue{HasPain: true}
	AssessCompleteness(issue)
	assert.Equal(t, QuestionFor(ElementLocation), NextQuestion(issue))

	issue.Location = strPtr("upper right")
	AssessCompleteness(issue)
	assert.Equal(t, QuestionFor(ElementDuration), NextQuestion(issue))

	issue.DurationDays = intPtr(3)
	AssessCompleteness(issue)
	assert.Equal(t, QuestionFor(ElementSeverity), NextQuestion(issue))
}

func TestPruneAnsweredAcceptsAliases(t *testing.T) {
	issue := &ClinicalIssue{HasPain: true}
	AssessCompleteness(issue)
	issue.FieldAnswers = map[string]string{
		"pain_location": "lower left",
		"pain_severity": "8",
	}
	PruneAnswered(issue)

	assert.NotContains(t, issue.MissingClinicalElements, ElementLocation)
	assert.NotContains(t, issue.MissingClinicalElements, ElementSeverity)
	assert.Contains(t, issue.MissingClinicalElements, ElementDuration)
	assert.True(t, issue.ClinicalProfile[ElementLocation])
}

// Gate monotonicity: once answers cover every missing element, the next
// assessment routes instead of clarifying.
func TestGateMonotonicity(t *testing.T) {
	issue := &ClinicalIssue{HasPain: true}
	AssessCompleteness(issue)
	require.NotEmpty(t, issue.MissingClinicalElements)

	answers := map[string]any{
		"location":      "upper right back tooth",
		"duration":      "4-7",
		"pain_severity": 8,
		"stimulus":      "cold",
	}
	ApplyAnswers(issue, answers)
	AssessCompleteness(issue)
	PruneAnswered(issue)

	assert.Empty(t, issue.MissingClinicalElements)
	assert.True(t, CanRoute(issue))
}

func TestCanRouteRequiresProfileFloor(t *testing.T) {
	// A feature-free issue (routine checkup request) has nothing to
	// ask and routes immediately.
	issue := &ClinicalIssue{SymptomCluster: "routine cleaning"}
	AssessCompleteness(issue)
	assert.Empty(t, issue.MissingClinicalElements)
	assert.True(t, CanRoute(issue))
}

func TestMustEscalate(t *testing.T) {
	assert.True(t, MustEscalate(&ClinicalIssue{AirwayCompromise: true}))
	assert.True(t, MustEscalate(&ClinicalIssue{Bleeding: true}))
	assert.False(t, MustEscalate(&ClinicalIssue{Swelling: true, Trauma: false}))
}

func TestSafeRoutingLanguage(t *testing.T) {
	routine := SafeRoutingLanguage(&ClinicalIssue{HasPain: true, Urgency: UrgencyMedium})
	assert.Contains(t, routine, "No diagnosis has been made")

	urgent := SafeRoutingLanguage(&ClinicalIssue{AirwayCompromise: true, Urgency: UrgencyEmergency})
	assert.Contains(t, urgent, "immediate")

	for _, text := range []string{routine, urgent} {
		assert.Empty(t, ScanForbiddenOutput(text))
	}
}

package orchestration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bronn-dev/smartdental/internal/llm"
	"github.com/bronn-dev/smartdental/internal/schedule"
	"github.com/bronn-dev/smartdental/internal/store"
	"github.com/bronn-dev/smartdental/internal/triage"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// Monday; the scheduler searches June 3–16 and the emergency window
// covers June 2–5.
var testNow = time.Date(2025, 6, 2, 10, 5, 0, 0, time.UTC)

func newTestOrchestrator(t *testing.T, client llm.Client) (*Orchestrator, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.LoadSeed(store.DemoSeed())

	logger := logging.New("error")
	analyzer := triage.NewAnalyzer(client, logger)
	resolver := triage.NewProcedureResolver(mem, logger)
	engine := schedule.NewEngine(mem, logger, schedule.WithClock(func() time.Time { return testNow }))
	return NewOrchestrator(analyzer, resolver, engine, mem, logger, nil), mem
}

const multiIssueExtraction = `{
  "issues": [
    {
      "symptom_cluster": "severe upper right molar pain",
      "has_pain": true,
      "thermal_sensitivity": true,
      "biting_pain": true,
      "severity": 8,
      "duration_days": 3,
      "location": "upper right molar",
      "reported_symptoms": ["throbbing", "woken at night"],
      "urgency": "HIGH",
      "reasoning": "Patient reports severe throbbing pain in the upper right molar for three days.",
      "field_answers": {}
    },
    {
      "symptom_cluster": "impacted lower-left wisdom tooth swelling",
      "swelling": true,
      "visible_swelling": true,
      "impacted_wisdom": true,
      "location": "lower left",
      "reported_symptoms": ["swelling"],
      "urgency": "MEDIUM",
      "reasoning": "Patient reports swelling around an impacted lower-left wisdom tooth, no breathing trouble reported.",
      "field_answers": {"airway_status": "no breathing trouble"}
    }
  ],
  "patient_sentiment": "Neutral"
}`

// Multi-issue orchestration: two complete issues route to their
// specialists in one turn.
func TestOrchestrateMultiIssue(t *testing.T) {
	orch, _ := newTestOrchestrator(t, llm.NewFake(multiIssueExtraction))

	plan, err := orch.Orchestrate(context.Background(), Request{
		Text: "upper right molar severe throbbing pain 3 days, woken at night; plus impacted lower-left wisdom with swelling, no breathing trouble",
	})
	require.NoError(t, err)

	assert.Equal(t, ActionOrchestrate, plan.SuggestedAction)
	assert.False(t, plan.IsEmergency)
	assert.Equal(t, triage.UrgencyHigh, plan.OverallUrgency)
	require.Len(t, plan.RoutedIssues, 2)

	endo := plan.RoutedIssues[0]
	assert.Equal(t, "Endodontist", endo.SpecialistType)
	assert.Equal(t, "Endodontic Evaluation (Microscope)", endo.ProcedureName)
	assert.Equal(t, ApptTypeExtendedEvaluation, endo.AppointmentType)
	require.NotNil(t, endo.Slots)
	assert.Equal(t, 1, endo.Slots.Tier)

	surgical := plan.RoutedIssues[1]
	assert.Equal(t, "Oral Surgeon", surgical.SpecialistType)
	assert.True(t, surgical.RequiresAnesthetist)
	require.NotNil(t, surgical.Slots)
	assert.True(t, surgical.Slots.HasSlots())

	// Different clinics serve the two issues, so no combined visit.
	assert.False(t, plan.CombinedVisitPossible)

	// The patient-facing message names evaluations, never treatments.
	lower := strings.ToLower(plan.Message)
	assert.NotContains(t, lower, "root canal")
	assert.NotContains(t, lower, "extraction")
	assert.Contains(t, plan.Message, "2 concerns")
}

// Missing intake elements close the gate.
func TestOrchestrateClarify(t *testing.T) {
	const vague = `{
	  "issues": [
	    {
	      "symptom_cluster": "severe tooth pain",
	      "has_pain": true,
	      "severity": 8,
	      "urgency": "HIGH",
	      "reasoning": "Patient reports severe tooth pain.",
	      "field_answers": {}
	    }
	  ],
	  "patient_sentiment": "Neutral"
	}`
	orch, _ := newTestOrchestrator(t, llm.NewFake(vague))

	plan, err := orch.Orchestrate(context.Background(), Request{Text: "I have severe tooth pain"})
	require.NoError(t, err)

	assert.Equal(t, ActionClarify, plan.SuggestedAction)
	assert.Empty(t, plan.RoutedIssues)
	require.NotNil(t, plan.Clarification)
	require.Len(t, plan.Clarification.Issues, 1)

	missing := plan.Clarification.Issues[0].MissingElements
	assert.Contains(t, missing, triage.ElementLocation)
	assert.Contains(t, missing, triage.ElementDuration)
	assert.Equal(t, "CLINICAL_INTAKE", plan.Clarification.Mode)
	require.NotEmpty(t, plan.ClarificationQuestions)
	assert.Contains(t, plan.Message, plan.ClarificationQuestions[0])
}

// Red-flag input escalates with an emergency slot and no model call.
func TestOrchestrateRedFlagEscalates(t *testing.T) {
	fake := llm.NewFake()
	orch, _ := newTestOrchestrator(t, fake)

	plan, err := orch.Orchestrate(context.Background(), Request{
		Text:     "I can't breathe and my jaw is swollen",
		TenantID: store.SeedDowntownID,
	})
	require.NoError(t, err)

	assert.True(t, plan.IsEmergency)
	assert.Equal(t, ActionEscalate, plan.SuggestedAction)
	assert.Equal(t, triage.UrgencyEmergency, plan.OverallUrgency)
	assert.Zero(t, fake.Calls())
	require.NotNil(t, plan.EmergencySlot)
	assert.Equal(t, "2025-06-02", plan.EmergencySlot.Date)
	assert.Contains(t, plan.Message, "EMERGENCY")
}

// An unknown tenant still escalates; the plan just carries no slot.
func TestOrchestrateEscalationWithoutSlots(t *testing.T) {
	orch, _ := newTestOrchestrator(t, llm.NewFake())

	plan, err := orch.Orchestrate(context.Background(), Request{
		Text:     "uncontrolled bleeding from the socket",
		TenantID: uuid.MustParse("00000000-0000-4000-8000-00000000dead"),
	})
	require.NoError(t, err)

	assert.True(t, plan.IsEmergency)
	assert.Nil(t, plan.EmergencySlot)
	assert.Contains(t, plan.Message, "emergency room")
}

// Structured answers on a later turn complete intake and route.
func TestOrchestrateStructuredUpdate(t *testing.T) {
	prior := &triage.ClinicalIssue{
		SymptomCluster: "upper right back tooth pain",
		HasPain:        true,
		Urgency:        triage.UrgencyMedium,
	}
	loc := "upper right back tooth"
	prior.Location = &loc
	prior.Normalize()

	fake := llm.NewFake()
	orch, _ := newTestOrchestrator(t, fake)

	plan, err := orch.Orchestrate(context.Background(), Request{
		TenantID:          store.SeedDowntownID,
		StructuredAnswers: map[string]any{"duration": "4-7", "pain_severity": 8, "stimulus": "cold"},
		PriorIssues:       []*triage.ClinicalIssue{prior},
	})
	require.NoError(t, err)

	assert.Zero(t, fake.Calls())
	assert.Equal(t, ActionOrchestrate, plan.SuggestedAction)
	require.Len(t, plan.RoutedIssues, 1)
	assert.Equal(t, "Endodontist", plan.RoutedIssues[0].SpecialistType)
	assert.Equal(t, "Endodontic Evaluation (Microscope)", plan.RoutedIssues[0].ProcedureName)
}

// Two Downtown issues with shared clinic slots can combine.
func TestOrchestrateCombinedVisit(t *testing.T) {
	const twoDowntownIssues = `{
	  "issues": [
	    {
	      "symptom_cluster": "severe upper right molar pain",
	      "has_pain": true,
	      "thermal_sensitivity": true,
	      "severity": 8,
	      "duration_days": 3,
	      "location": "upper right molar",
	      "urgency": "HIGH",
	      "reasoning": "Patient reports severe stimulated pain.",
	      "field_answers": {}
	    },
	    {
	      "symptom_cluster": "dull ache in lower molar",
	      "has_pain": true,
	      "severity": 4,
	      "duration_days": 10,
	      "location": "lower left molar",
	      "urgency": "LOW",
	      "reasoning": "Patient reports a dull ache when chewing.",
	      "field_answers": {"stimulus": "none in particular"}
	    }
	  ],
	  "patient_sentiment": "Neutral"
	}`
	orch, _ := newTestOrchestrator(t, llm.NewFake(twoDowntownIssues))

	plan, err := orch.Orchestrate(context.Background(), Request{
		Text:     "severe molar pain and a separate dull ache",
		TenantID: store.SeedDowntownID,
	})
	require.NoError(t, err)

	require.Equal(t, ActionOrchestrate, plan.SuggestedAction)
	require.Len(t, plan.RoutedIssues, 2)
	assert.True(t, plan.CombinedVisitPossible)
	assert.Contains(t, plan.Message, "single visit")
}

func TestOrchestrateGreeting(t *testing.T) {
	orch, _ := newTestOrchestrator(t, llm.NewFake())

	plan, err := orch.Orchestrate(context.Background(), Request{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, ActionGreeting, plan.SuggestedAction)
	assert.Empty(t, plan.RoutedIssues)
	assert.Contains(t, plan.Message, "describe your symptoms")
}

func TestOrchestrateModelOutageFallsBackToClarify(t *testing.T) {
	orch, _ := newTestOrchestrator(t, llm.Disabled{})

	plan, err := orch.Orchestrate(context.Background(), Request{Text: "odd ache in my jaw area"})
	require.NoError(t, err)
	assert.Equal(t, ActionClarify, plan.SuggestedAction)
	assert.Equal(t, triage.DefaultClarificationQuestions, plan.ClarificationQuestions)
}

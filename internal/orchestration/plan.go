// Package orchestration composes the triage-to-schedule pipeline:
// analyzer → gate → classifier → resolver → tiered slot routing →
// combiner, producing the wire-visible plan.
package orchestration

import (
	"github.com/bronn-dev/smartdental/internal/schedule"
	"github.com/bronn-dev/smartdental/internal/triage"
	"github.com/google/uuid"
)

// SuggestedAction is the closed set of plan outcomes.
type SuggestedAction string

const (
	ActionOrchestrate SuggestedAction = "ORCHESTRATE"
	ActionEscalate    SuggestedAction = "ESCALATE"
	ActionClarify     SuggestedAction = "CLARIFY"
	ActionGreeting    SuggestedAction = "GREETING"
	ActionSmallTalk   SuggestedAction = "SMALL_TALK"
)

// Appointment type labels, wire-stable.
const (
	ApptTypeExtendedEvaluation     = "Extended Evaluation Appointment"
	ApptTypeSpecialistConsultation = "Specialist Consultation"
)

// Request is one conversation turn handed to the orchestrator. Prior
// issues echo back from the previous plan so merged state survives
// stateless transports.
type Request struct {
	Text              string                  `json:"symptoms"`
	History           []triage.ChatMessage    `json:"history,omitempty"`
	StructuredAnswers map[string]any          `json:"structured_answers,omitempty"`
	PriorIssues       []*triage.ClinicalIssue `json:"prior_issues,omitempty"`
	TenantID          uuid.UUID               `json:"-"`
	PreferredClinicID string                  `json:"preferred_clinic_id,omitempty"`
	PreferredDoctorID string                  `json:"preferred_doctor_id,omitempty"`
}

// RoutedIssue is one concern after classification, resolution, and
// slot search.
type RoutedIssue struct {
	IssueIndex          int                    `json:"issue_index"`
	SymptomCluster      string                 `json:"symptom_cluster"`
	Urgency             triage.Urgency         `json:"urgency"`
	SpecialistType      string                 `json:"specialist_type"`
	ProcedureID         *int                   `json:"procedure_id"`
	ProcedureName       string                 `json:"procedure_name"`
	AppointmentType     string                 `json:"appointment_type"`
	DurationMinutes     int                    `json:"duration_minutes"`
	ConsultMinutes      int                    `json:"consult_minutes"`
	ReasoningTriggers   []string               `json:"reasoning_triggers"`
	RoomCapability      map[string]any         `json:"room_capability"`
	RequiresSedation    bool                   `json:"requires_sedation"`
	RequiresAnesthetist bool                   `json:"requires_anesthetist"`
	Slots               *schedule.SearchResult `json:"slots"`
	FallbackTier        int                    `json:"fallback_tier"`
	FallbackNote        string                 `json:"fallback_note,omitempty"`
	Error               string                 `json:"error,omitempty"`
}

// ClarificationIssue is one incomplete issue in the structured
// clarification payload.
type ClarificationIssue struct {
	IssueID         string   `json:"issue_id"`
	Summary         string   `json:"summary"`
	MissingFields   []string `json:"missing_fields"`
	Status          string   `json:"status"`
	MissingElements []string `json:"missing_elements"`
}

// Clarification carries the structured intake state for the UI.
type Clarification struct {
	Issues []ClarificationIssue `json:"issues"`
	Mode   string               `json:"mode"`
}

// Plan is the orchestrator output for one turn.
type Plan struct {
	IsEmergency            bool                    `json:"is_emergency"`
	OverallUrgency         triage.Urgency          `json:"overall_urgency"`
	Issues                 []*triage.ClinicalIssue `json:"issues"`
	RoutedIssues           []RoutedIssue           `json:"routed_issues"`
	SuggestedAction        SuggestedAction         `json:"suggested_action"`
	CombinedVisitPossible  bool                    `json:"combined_visit_possible"`
	PatientSentiment       triage.Sentiment        `json:"patient_sentiment"`
	ClarificationQuestions []string                `json:"clarification_questions"`
	Clarification          *Clarification          `json:"clarification,omitempty"`
	EmergencySlot          *schedule.SlotOption    `json:"emergency_slots"`
	RoutingExplanation     string                  `json:"routing_explanation,omitempty"`
	Message                string                  `json:"message"`
}

package orchestration

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bronn-dev/smartdental/internal/observability/metrics"
	"github.com/bronn-dev/smartdental/internal/schedule"
	"github.com/bronn-dev/smartdental/internal/triage"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

var orchestratorTracer = otel.Tracer("smartdental.internal.orchestration")

// Orchestrator wires the pipeline: analyzer → gate → classifier →
// resolver → tiered scheduling → combiner. One call handles one
// conversation turn and shares no mutable state across requests.
type Orchestrator struct {
	analyzer *triage.Analyzer
	resolver *triage.ProcedureResolver
	engine   *schedule.Engine
	store    schedule.Store
	logger   *logging.Logger
	metrics  *metrics.PipelineMetrics
}

// NewOrchestrator constructs the orchestrator. Metrics may be nil.
func NewOrchestrator(analyzer *triage.Analyzer, resolver *triage.ProcedureResolver, engine *schedule.Engine, store schedule.Store, logger *logging.Logger, m *metrics.PipelineMetrics) *Orchestrator {
	if analyzer == nil {
		panic("orchestration: analyzer cannot be nil")
	}
	if resolver == nil {
		panic("orchestration: resolver cannot be nil")
	}
	if engine == nil {
		panic("orchestration: engine cannot be nil")
	}
	if store == nil {
		panic("orchestration: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		analyzer: analyzer,
		resolver: resolver,
		engine:   engine,
		store:    store,
		logger:   logger,
		metrics:  m,
	}
}

// Orchestrate runs one turn of the pipeline and returns the plan.
func (o *Orchestrator) Orchestrate(ctx context.Context, req Request) (*Plan, error) {
	ctx, span := orchestratorTracer.Start(ctx, "orchestration.turn")
	defer span.End()
	span.SetAttributes(attribute.String("smartdental.tenant_id", req.TenantID.String()))
	started := time.Now()
	defer func() {
		o.metrics.ObserveTurnDuration(time.Since(started).Seconds())
	}()

	intent := o.analyzer.Analyze(ctx, req.Text, req.History, req.StructuredAnswers, req.PriorIssues)

	plan, err := o.buildPlan(ctx, req, intent)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	o.metrics.ObservePlanAction(string(plan.SuggestedAction))
	plan.Message = renderMessage(plan)
	return plan, nil
}

func (o *Orchestrator) buildPlan(ctx context.Context, req Request, intent *triage.IntentResult) (*Plan, error) {
	// Phase 0: emergency override — red flags bypass the gate.
	if intent.SafetyFlag || intent.OverallUrgency == triage.UrgencyEmergency || intent.ActionType == triage.ActionEscalate {
		return o.emergencyPlan(ctx, req.TenantID, intent)
	}

	// Phase 1: non-clinical intents pass straight through.
	if intent.ActionType == triage.ActionGreeting || intent.ActionType == triage.ActionSmallTalk {
		plan := newPlan(intent)
		plan.SuggestedAction = SuggestedAction(intent.ActionType)
		return plan, nil
	}

	// Phase 2: the gate stays closed until intake is complete.
	if intent.ActionType != triage.ActionRoute {
		return o.clarificationPlan(intent), nil
	}

	// Phase 3: classify, resolve, and schedule every issue.
	plan := newPlan(intent)
	for idx, issue := range intent.Issues {
		routed, err := o.routeIssue(ctx, req, idx, issue)
		if err != nil {
			return nil, err
		}
		plan.RoutedIssues = append(plan.RoutedIssues, routed)
	}

	// Phase 4: combined-visit check across issues' clinic sets.
	plan.CombinedVisitPossible = combinedVisitPossible(plan.RoutedIssues)

	// Phase 5: aggregate urgency and final action.
	allResolved := len(plan.RoutedIssues) > 0
	urgency := triage.UrgencyLow
	for _, r := range plan.RoutedIssues {
		if r.ProcedureID == nil {
			allResolved = false
		}
		urgency = triage.MaxUrgency(urgency, r.Urgency)
	}
	plan.OverallUrgency = urgency
	if allResolved {
		plan.SuggestedAction = ActionOrchestrate
	} else {
		plan.SuggestedAction = ActionClarify
	}

	if len(intent.Issues) > 0 {
		plan.RoutingExplanation = triage.SafeRoutingLanguage(intent.Issues[0])
	}
	return plan, nil
}

// routeIssue runs classifier → resolver → tiered routing for one issue.
func (o *Orchestrator) routeIssue(ctx context.Context, req Request, idx int, issue *triage.ClinicalIssue) (RoutedIssue, error) {
	conditionKey, triggers := triage.Classify(issue)
	o.logger.Info("issue classified",
		"issue_index", idx,
		"condition", conditionKey,
		"triggers", triggers,
	)

	routed := RoutedIssue{
		IssueIndex:        idx,
		SymptomCluster:    issue.SymptomCluster,
		Urgency:           issue.Urgency,
		SpecialistType:    "General Dentist",
		ReasoningTriggers: triggers,
		DurationMinutes:   30,
		ProcedureName:     triage.DisplayName(conditionKey, ""),
	}

	proc, err := o.resolver.Resolve(ctx, conditionKey, req.TenantID)
	if err != nil {
		return RoutedIssue{}, fmt.Errorf("orchestration: procedure resolution failed: %w", err)
	}
	if proc == nil {
		routed.Error = "Procedure resolution failed"
		routed.FallbackNote = routed.Error
		return routed, nil
	}

	needsSedation := issue.RequiresSedation || proc.RequiresAnesthetist
	routed.ProcedureID = &proc.ProcID
	routed.ProcedureName = triage.DisplayName(conditionKey, proc.Name)
	routed.DurationMinutes = proc.BaseDurationMinutes
	routed.ConsultMinutes = proc.ConsultDurationMinutes
	routed.RoomCapability = proc.RequiredRoomCapability
	routed.RequiresSedation = needsSedation
	routed.RequiresAnesthetist = proc.RequiresAnesthetist
	if proc.ConsultDurationMinutes > 0 {
		routed.AppointmentType = ApptTypeExtendedEvaluation
	} else {
		routed.AppointmentType = ApptTypeSpecialistConsultation
	}

	if spec, err := o.store.SpecializationByID(ctx, proc.RequiredSpecID); err == nil && spec != nil {
		routed.SpecialistType = spec.Name
	}

	slots, err := o.engine.FindWithFallback(ctx, *proc, needsSedation, req.PreferredClinicID, req.PreferredDoctorID, req.TenantID)
	if err != nil {
		return RoutedIssue{}, fmt.Errorf("orchestration: slot search failed: %w", err)
	}
	routed.Slots = slots
	routed.FallbackTier = slots.Tier
	routed.FallbackNote = slots.Note
	o.metrics.ObserveSlotSearchTier(strconv.Itoa(slots.Tier))

	return routed, nil
}

// emergencyPlan resolves the emergency procedure and runs the earliest-
// slot finder. An empty search still escalates; the caller advises
// offline escalation when no slot is attached.
func (o *Orchestrator) emergencyPlan(ctx context.Context, tenantID uuid.UUID, intent *triage.IntentResult) (*Plan, error) {
	plan := newPlan(intent)
	plan.IsEmergency = true
	plan.OverallUrgency = triage.UrgencyEmergency
	plan.SuggestedAction = ActionEscalate

	if _, err := o.resolver.Resolve(ctx, triage.ConditionEmergency, tenantID); err != nil {
		o.logger.Error("emergency procedure resolution failed", "error", err)
	}

	slot, err := o.engine.FindEmergencySlot(ctx, tenantID)
	if err != nil {
		// The escalation itself must not fail on storage trouble.
		o.logger.Error("emergency slot search failed", "error", err)
	}
	plan.EmergencySlot = slot
	o.metrics.ObserveEmergencySearch(slot != nil)

	primary := emergencyIssue(intent)
	plan.RoutingExplanation = triage.SafeRoutingLanguage(primary)
	return plan, nil
}

// clarificationPlan packages the gate's open questions with the
// structured per-issue intake state.
func (o *Orchestrator) clarificationPlan(intent *triage.IntentResult) *Plan {
	plan := newPlan(intent)
	plan.SuggestedAction = ActionClarify
	plan.ClarificationQuestions = intent.ClarificationQuestions

	var incomplete []ClarificationIssue
	for idx, issue := range intent.Issues {
		if len(issue.MissingClinicalElements) == 0 {
			continue
		}
		fields := make([]string, 0, len(issue.MissingClinicalElements))
		for _, element := range issue.MissingClinicalElements {
			fields = append(fields, triage.QuestionFor(element))
		}
		incomplete = append(incomplete, ClarificationIssue{
			IssueID:         fmt.Sprintf("issue_%d", idx+1),
			Summary:         issue.SymptomCluster,
			MissingFields:   fields,
			Status:          "Incomplete",
			MissingElements: issue.MissingClinicalElements,
		})
	}
	if len(incomplete) > 0 {
		plan.Clarification = &Clarification{Issues: incomplete, Mode: "CLINICAL_INTAKE"}
	}
	return plan
}

// combinedVisitPossible requires at least two routed issues, each with
// at least one candidate slot, sharing at least one clinic.
func combinedVisitPossible(routed []RoutedIssue) bool {
	if len(routed) < 2 {
		return false
	}
	var shared map[string]struct{}
	for _, r := range routed {
		if !r.Slots.HasSlots() {
			return false
		}
		clinics := r.Slots.ClinicIDs()
		if shared == nil {
			shared = clinics
			continue
		}
		for id := range shared {
			if _, ok := clinics[id]; !ok {
				delete(shared, id)
			}
		}
	}
	return len(shared) > 0
}

func newPlan(intent *triage.IntentResult) *Plan {
	return &Plan{
		OverallUrgency:         intent.OverallUrgency,
		Issues:                 intent.Issues,
		RoutedIssues:           []RoutedIssue{},
		PatientSentiment:       intent.PatientSentiment,
		ClarificationQuestions: []string{},
	}
}

func emergencyIssue(intent *triage.IntentResult) *triage.ClinicalIssue {
	if len(intent.Issues) > 0 {
		return intent.Issues[0]
	}
	issue := &triage.ClinicalIssue{
		SymptomCluster: "Emergency concern",
		Urgency:        triage.UrgencyEmergency,
	}
	issue.Normalize()
	return issue
}

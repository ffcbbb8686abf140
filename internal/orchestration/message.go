package orchestration

import (
	"fmt"
	"strings"

	"github.com/bronn-dev/smartdental/internal/triage"
)

// renderMessage assembles the human-facing reply for a plan. Tone
// adapts to sentiment; the wording never names a diagnosis or a
// treatment — routed issues surface only their safe display names.
func renderMessage(plan *Plan) string {
	switch plan.SuggestedAction {
	case ActionEscalate:
		return renderEscalateMessage(plan)
	case ActionGreeting:
		return "Hi! I'm your SmartDental assistant. I can help you book appointments for multiple concerns at once.\n\n" +
			"Please describe your symptoms, for example:\n" +
			`• "I have a toothache and also need a cleaning"`
	case ActionSmallTalk:
		return "I help triage dental concerns and schedule specialist evaluations. " +
			"I don't diagnose or prescribe — I connect you with the right specialist.\n\n" +
			"How can I help you today?"
	case ActionClarify:
		return renderClarifyMessage(plan)
	case ActionOrchestrate:
		return renderOrchestrateMessage(plan)
	}
	return ""
}

func renderEscalateMessage(plan *Plan) string {
	var b strings.Builder
	b.WriteString("EMERGENCY DETECTED\n\n")
	b.WriteString("Your symptoms indicate a condition requiring immediate attention.\n")
	if plan.EmergencySlot != nil {
		fmt.Fprintf(&b, "The earliest emergency slot available is: %s at %s with %s.",
			plan.EmergencySlot.Date, plan.EmergencySlot.Time, plan.EmergencySlot.DoctorName)
	} else {
		b.WriteString("Please proceed to the nearest emergency room or call the clinic immediately.")
	}
	return b.String()
}

func renderClarifyMessage(plan *Plan) string {
	questions := plan.ClarificationQuestions
	if len(questions) == 0 {
		questions = []string{"Could you provide more details?"}
	}

	var intro string
	switch plan.PatientSentiment {
	case triage.SentimentAnxious:
		intro = "I understand this can be concerning. To make sure we connect you with the right specialist, I need a bit more information:\n\n"
	case triage.SentimentFrustrated:
		intro = "I want to help you as quickly as possible. I just need a few more details:\n\n"
	default:
		intro = "I need a bit more information to help you effectively:\n\n"
	}

	lines := make([]string, len(questions))
	for i, q := range questions {
		lines[i] = "• " + q
	}
	return intro + strings.Join(lines, "\n")
}

func renderOrchestrateMessage(plan *Plan) string {
	var summaries []string
	for i, issue := range plan.RoutedIssues {
		sedation := ""
		if issue.RequiresSedation {
			sedation = " (sedation available)"
		}
		summaries = append(summaries, fmt.Sprintf("%d. %s → %s with a %s%s",
			i+1, issue.SymptomCluster, issue.ProcedureName, issue.SpecialistType, sedation))
	}

	word := "concern"
	if len(plan.RoutedIssues) != 1 {
		word = "concerns"
	}
	msg := fmt.Sprintf("Based on the information provided, I've identified %d %s that warrant specialist evaluation:\n\n%s",
		len(plan.RoutedIssues), word, strings.Join(summaries, "\n"))

	if plan.CombinedVisitPossible && len(plan.RoutedIssues) > 1 {
		msg += "\n\nGood news — we may be able to schedule these evaluations during a single visit."
	}
	return msg
}

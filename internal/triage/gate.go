package triage

// The clinical gate is the sole routing authority. It computes which
// canonical intake elements an issue still needs, selects the next
// question from a fixed dictionary, and phrases routing outcomes
// without diagnostic language.

// Canonical clinical elements, in asking priority order.
const (
	ElementLocation         = "location"
	ElementDuration         = "duration"
	ElementSeverity         = "severity"
	ElementStimulus         = "stimulus"
	ElementSwellingLocation = "swelling_location"
	ElementAirwayStatus     = "airway_status"
	ElementHemorrhageStatus = "hemorrhage_status"
	ElementChronobiology    = "chronobiology"
	ElementSystemicRisk     = "systemic_risk"
)

// minProfileElements is the floor of confirmed elements before the
// orchestrator may route an issue.
const minProfileElements = 3

type clinicalElement struct {
	key      string
	question string
	applies  func(*ClinicalIssue) bool
	present  func(*ClinicalIssue) bool
}

// clinicalElements is the fixed intake dictionary. Order is the asking
// priority; NextQuestion walks it top to bottom. Chronobiology and
// systemic risk are opportunistic: they enter the profile when
// volunteered but never hold the gate closed on their own.
var clinicalElements = []clinicalElement{
	{
		key:      ElementLocation,
		question: "Where exactly is the pain or swelling located? For example, upper right back tooth.",
		applies:  func(c *ClinicalIssue) bool { return c.HasPain || c.Swelling },
		present: func(c *ClinicalIssue) bool {
			return (c.Location != nil && *c.Location != "") || c.Answer("location", "pain_location") != ""
		},
	},
	{
		key:      ElementDuration,
		question: "How long have you had this pain? (less than 24 hours, 1-3 days, 4-7 days, 1-2 weeks, more than 2 weeks)",
		applies:  func(c *ClinicalIssue) bool { return c.HasPain },
		present:  func(c *ClinicalIssue) bool { return c.DurationDays != nil },
	},
	{
		key:      ElementSeverity,
		question: "On a scale of 1-10, how severe is the pain right now?",
		applies:  func(c *ClinicalIssue) bool { return c.HasPain },
		present:  func(c *ClinicalIssue) bool { return c.Severity != nil },
	},
	{
		key:      ElementStimulus,
		question: "Does anything trigger the pain — hot or cold drinks, or chewing and biting pressure?",
		applies:  func(c *ClinicalIssue) bool { return c.HasPain },
		present: func(c *ClinicalIssue) bool {
			return c.ThermalSensitivity || c.BitingPain || c.Answer("stimulus", "thermal_duration") != ""
		},
	},
	{
		key:      ElementSwellingLocation,
		question: "Where is the swelling — face, cheek, jaw, neck, or inside the mouth?",
		applies:  func(c *ClinicalIssue) bool { return c.Swelling },
		present: func(c *ClinicalIssue) bool {
			return c.VisibleSwelling || c.Answer("swelling_location") != ""
		},
	},
	{
		key:      ElementAirwayStatus,
		question: "Is the swelling causing any difficulty breathing or swallowing?",
		applies:  func(c *ClinicalIssue) bool { return c.Swelling },
		present: func(c *ClinicalIssue) bool {
			return c.AirwayCompromise || c.Answer("airway_status") != ""
		},
	},
	{
		key:      ElementHemorrhageStatus,
		question: "Is there any bleeding? If so, is it controlled or heavy?",
		applies:  func(c *ClinicalIssue) bool { return c.Bleeding || c.Trauma },
		present: func(c *ClinicalIssue) bool {
			return c.Bleeding || c.Answer("hemorrhage_status") != ""
		},
	},
	{
		key:      ElementChronobiology,
		question: "Is the pain worse at night, or does it wake you from sleep?",
		applies:  func(c *ClinicalIssue) bool { return c.Answer("chronobiology") != "" },
		present:  func(c *ClinicalIssue) bool { return c.Answer("chronobiology") != "" },
	},
	{
		key:      ElementSystemicRisk,
		question: "Do you have any medical conditions or take any medications we should know about?",
		applies:  func(c *ClinicalIssue) bool { return c.Answer("systemic_risk") != "" },
		present:  func(c *ClinicalIssue) bool { return c.Answer("systemic_risk") != "" },
	},
}

// elementQuestions maps element keys to canonical question text.
var elementQuestions = func() map[string]string {
	m := make(map[string]string, len(clinicalElements))
	for _, e := range clinicalElements {
		m[e.key] = e.question
	}
	return m
}()

// DefaultClarificationQuestions is the deterministic fallback used when
// extraction is unavailable.
var DefaultClarificationQuestions = []string{
	"Where exactly is the pain?",
	"Is it sharp, throbbing, or dull?",
	"How severe is it on a scale of 1-10?",
	"Is there any swelling or bleeding?",
}

// AssessCompleteness recomputes the issue's clinical profile and its
// ordered missing-element list in place.
func AssessCompleteness(issue *ClinicalIssue) {
	issue.Normalize()
	profile := make(map[string]bool)
	missing := []string{}
	for _, e := range clinicalElements {
		if !e.applies(issue) {
			continue
		}
		ok := e.present(issue)
		profile[e.key] = ok
		if !ok {
			missing = append(missing, e.key)
		}
	}
	issue.ClinicalProfile = profile
	issue.MissingClinicalElements = missing
}

// elementAnswerKeys lists the field-answer keys that satisfy each
// element, element key first.
var elementAnswerKeys = map[string][]string{
	ElementLocation:         {ElementLocation, "pain_location"},
	ElementDuration:         {ElementDuration, "duration_days"},
	ElementSeverity:         {ElementSeverity, "pain_severity"},
	ElementStimulus:         {ElementStimulus, "thermal_duration"},
	ElementSwellingLocation: {ElementSwellingLocation},
	ElementAirwayStatus:     {ElementAirwayStatus},
	ElementHemorrhageStatus: {ElementHemorrhageStatus},
	ElementChronobiology:    {ElementChronobiology},
	ElementSystemicRisk:     {ElementSystemicRisk},
}

// PruneAnswered drops any missing element whose field answer arrived
// under one of the element's accepted keys.
func PruneAnswered(issue *ClinicalIssue) {
	issue.Normalize()
	kept := issue.MissingClinicalElements[:0]
	for _, key := range issue.MissingClinicalElements {
		keys := elementAnswerKeys[key]
		if len(keys) == 0 {
			keys = []string{key}
		}
		if issue.Answer(keys...) != "" {
			issue.ClinicalProfile[key] = true
			continue
		}
		kept = append(kept, key)
	}
	issue.MissingClinicalElements = kept
}

// NextQuestion returns the canonical question for the first missing
// element, or "" when the issue is complete.
func NextQuestion(issue *ClinicalIssue) string {
	if len(issue.MissingClinicalElements) == 0 {
		return ""
	}
	return elementQuestions[issue.MissingClinicalElements[0]]
}

// QuestionFor returns the dictionary text for an element key.
func QuestionFor(element string) string {
	return elementQuestions[element]
}

// CanRoute reports whether the gate permits routing: nothing missing
// and at least minProfileElements confirmed. Issues with fewer
// applicable elements than the floor (a routine checkup request has
// none) route once every applicable element is confirmed.
func CanRoute(issue *ClinicalIssue) bool {
	if len(issue.MissingClinicalElements) > 0 {
		return false
	}
	confirmed := 0
	for _, ok := range issue.ClinicalProfile {
		if ok {
			confirmed++
		}
	}
	floor := min(minProfileElements, len(issue.ClinicalProfile))
	return confirmed >= floor
}

// MustEscalate reports whether the issue carries a hard escalation flag.
func MustEscalate(issue *ClinicalIssue) bool {
	return issue.AirwayCompromise || issue.Bleeding
}

// SafeRoutingLanguage phrases a routing outcome without diagnostic
// terms. The text states what was reported and what happens next; it
// never names a condition or a treatment.
func SafeRoutingLanguage(issue *ClinicalIssue) string {
	if issue == nil {
		return "Your reported symptoms will be reviewed by the appropriate clinical team."
	}
	if issue.Urgency == UrgencyEmergency || MustEscalate(issue) {
		return "Your reported symptoms require immediate professional attention. Emergency triage has been prioritized."
	}
	return "Clinical routing criteria met. Your reported symptoms will be reviewed by the appropriate specialist team. No diagnosis has been made."
}

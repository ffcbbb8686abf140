package triage

import "regexp"

// PatternTableVersion identifies the deterministic pattern set below.
// Any change to these tables is a public API change: red-flag coverage,
// greeting detection, and the forbidden-output scanner are part of the
// system's safety contract.
const PatternTableVersion = "2025-07"

// guardPattern pairs a trigger expression with an optional negative
// context. RE2 has no lookbehind, so explicit negations ("no difficulty
// swallowing") are expressed as a second expression that suppresses the
// match.
type guardPattern struct {
	re     *regexp.Regexp
	negate *regexp.Regexp
	reason string
}

func (p guardPattern) matches(lower string) bool {
	if !p.re.MatchString(lower) {
		return false
	}
	if p.negate != nil && p.negate.MatchString(lower) {
		return false
	}
	return true
}

// negated builds the standard negative-context expression for a phrase:
// "no X", "without X", "denies X", "not having X", "no signs of X".
func negated(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(no|without|denies|not\s+having|no\s+signs?\s+of)\b[^.,;!?]{0,25}` + phrase)
}

// redFlagPatterns mandate immediate escalation regardless of any model
// output. Matching is position-insensitive on lowercased text.
var redFlagPatterns = []guardPattern{
	{re: regexp.MustCompile(`(trouble|difficulty|problems?)\s+breathing`), negate: negated(`(trouble|difficulty|problems?)\s+breathing`), reason: "airway:breathing_difficulty"},
	{re: regexp.MustCompile(`breathing\s+(trouble|difficulty|problems?)`), negate: negated(`breathing\s+(trouble|difficulty|problems?)`), reason: "airway:breathing_difficulty"},
	{re: regexp.MustCompile(`can'?t\s+breathe|cannot\s+breathe|unable\s+to\s+breathe`), reason: "airway:cannot_breathe"},
	{re: regexp.MustCompile(`uncontroll?(able|ed)\s+bleed|bleed(ing)?\s+(is\s+)?uncontroll?(able|ed)`), reason: "hemorrhage:uncontrolled"},
	{re: regexp.MustCompile(`heavy\s+bleeding.{0,20}(tooth|gum|mouth)`), reason: "hemorrhage:heavy_oral"},
	{re: regexp.MustCompile(`swelling.{0,20}(eye|throat|neck|airway)`), reason: "swelling:critical_region"},
	{re: regexp.MustCompile(`severe\s+trauma`), reason: "trauma:severe"},
	{re: regexp.MustCompile(`jaw\s+(fracture|broken|fractured)|broken\s+jaw`), reason: "trauma:jaw_fracture"},
	{re: regexp.MustCompile(`anaphyla|allergic\s+reaction`), reason: "systemic:anaphylaxis"},
	{re: regexp.MustCompile(`chest\s+pain`), reason: "systemic:chest_pain"},
	{re: regexp.MustCompile(`loss\s+of\s+consciousness|passed\s+out|unconscious`), reason: "systemic:consciousness"},
	{re: regexp.MustCompile(`(difficulty|trouble|unable|can'?t|cannot)\s+(to\s+)?swallow`), negate: negated(`(difficulty|trouble)\s+swallowing`), reason: "airway:swallowing"},
	{re: regexp.MustCompile(`(knocked?\s*(out|off)|avulsed)\s*(tooth|teeth)`), reason: "trauma:avulsed_tooth"},
	{re: regexp.MustCompile(`(tooth|teeth)\s*(knocked?\s*(out|off)|avulsed)`), reason: "trauma:avulsed_tooth"},
}

// MatchRedFlag reports the first red-flag reason present in the text,
// honoring explicit negative contexts. Empty string means no hit.
func MatchRedFlag(lowerText string) string {
	for _, p := range redFlagPatterns {
		if p.matches(lowerText) {
			return p.reason
		}
	}
	return ""
}

// Greeting and small-talk detection runs only on short messages; a
// symptom description that happens to open with "hi" must not be
// swallowed.
const greetingMaxWords = 10

var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hii+|hey|hello|hola|yo|sup|hiya|howdy|greetings|good\s*(morning|afternoon|evening|day|night))[\s!?.]*$`),
	regexp.MustCompile(`^(what'?s?\s*up|how\s*are\s*you|how'?s?\s*it\s*going)[\s!?.]*$`),
	regexp.MustCompile(`^(thanks|thank\s*you|ty|thx|cheers)[\s!?.]*$`),
	regexp.MustCompile(`^(bye|goodbye|see\s*you|later|cya|take\s*care)[\s!?.]*$`),
	regexp.MustCompile(`^(ok|okay|sure|alright|fine|cool|great|nice|awesome|got\s*it|understood)[\s!?.]*$`),
	regexp.MustCompile(`^(yes|no|yep|nope|yeah|nah|yup)[\s!?.]*$`),
}

var smallTalkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(who\s*are\s*you|what\s*can\s*you\s*do|what\s*is\s*this|help)[\s!?.]*$`),
	regexp.MustCompile(`^(tell\s*me\s*(about|more)|what\s*services)[\s!?.]*$`),
	regexp.MustCompile(`^(can\s*you\s*help|i\s*need\s*help)[\s!?.]*$`),
}

// MatchConversational classifies short pleasantries. Returns
// ActionGreeting, ActionSmallTalk, or "" when the text is clinical.
func MatchConversational(lowerText string, wordCount int) ActionType {
	if wordCount >= greetingMaxWords {
		return ""
	}
	for _, re := range greetingPatterns {
		if re.MatchString(lowerText) {
			return ActionGreeting
		}
	}
	for _, re := range smallTalkPatterns {
		if re.MatchString(lowerText) {
			return ActionSmallTalk
		}
	}
	return ""
}

// forbiddenOutputPatterns reject extractor text that diagnoses,
// prescribes, or recommends treatment. The extractor reports features;
// treatment language never reaches the patient.
var forbiddenOutputPatterns = []guardPattern{
	{re: regexp.MustCompile(`you\s+(have|likely\s+have|probably\s+have|are\s+suffering)`), reason: "forbidden:diagnosis_phrasing"},
	{re: regexp.MustCompile(`(diagnos(is|ed|e)|pulpitis|periodontitis|pericoronitis|abscess\s+confirmed)`), reason: "forbidden:diagnosis_term"},
	{re: regexp.MustCompile(`(you|patient)\s+(need|needs|require|requires|should\s+(get|have|undergo))\s+(a\s+|an\s+)?(root\s*canal|extraction|filling|crown|implant|bridge)`), reason: "forbidden:treatment_recommendation"},
	{re: regexp.MustCompile(`(i\s+recommend|we\s+recommend|my\s+recommendation)`), reason: "forbidden:recommendation"},
	{re: regexp.MustCompile(`(amoxicillin|penicillin|ibuprofen|paracetamol|acetaminophen|codeine|antibiotic|painkiller\s+prescription)`), reason: "forbidden:drug_name"},
	{re: regexp.MustCompile(`(take|prescribe[ds]?)\s+\d+\s*mg`), reason: "forbidden:dosage"},
}

// ScanForbiddenOutput returns the reasons any forbidden pattern fired
// on the (lowercased) extractor output text.
func ScanForbiddenOutput(lowerText string) []string {
	var reasons []string
	for _, p := range forbiddenOutputPatterns {
		if p.matches(lowerText) {
			reasons = append(reasons, p.reason)
		}
	}
	return reasons
}

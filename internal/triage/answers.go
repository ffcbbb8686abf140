package triage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Structured answers arrive keyed by stable field keys (the UI posts
// them back from clarification chips). Applying them is deterministic
// and idempotent: the same answer map applied twice leaves the issue
// unchanged after the first application.

var (
	stimulusThermalRe = regexp.MustCompile(`hot|cold|thermal`)
	stimulusBitingRe  = regexp.MustCompile(`chew|biting|pressure`)
	swellingVisibleRe = regexp.MustCompile(`face|cheek|jaw|neck|floor`)
	airwayDistressRe  = regexp.MustCompile(`difficulty\s+breathing|unable|can'?t\s+breathe`)
	hemorrhageRe      = regexp.MustCompile(`uncontrolled|heavy|fills\s+mouth`)
	firstIntRe        = regexp.MustCompile(`\d+`)
)

// ParseDurationDays maps a duration answer onto days via the fixed
// grammar; unrecognized text falls back to its first integer. The
// second return is false when nothing parseable was found.
func ParseDurationDays(answer string) (int, bool) {
	lower := strings.ToLower(strings.TrimSpace(answer))
	switch {
	case lower == "":
		return 0, false
	case strings.Contains(lower, "less than 24"), strings.Contains(lower, "today"):
		return 1, true
	case strings.Contains(lower, "1-3"):
		return 2, true
	case strings.Contains(lower, "4-7"):
		return 5, true
	case strings.Contains(lower, "more than 2 week"):
		return 21, true
	case strings.Contains(lower, "1-2 week"):
		return 10, true
	}
	if m := firstIntRe.FindString(lower); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ApplyAnswers folds a structured-answer map into the issue. Keys are
// lowercased and trimmed; recognized keys update feature flags and
// scalars, everything else lands in reported symptoms. All raw values
// are retained in field_answers with new values winning.
func ApplyAnswers(issue *ClinicalIssue, answers map[string]any) {
	issue.Normalize()
	for rawKey, rawValue := range answers {
		key := strings.ToLower(strings.TrimSpace(rawKey))
		if key == "" {
			continue
		}
		value := strings.TrimSpace(fmt.Sprint(rawValue))
		if value == "" {
			continue
		}
		issue.FieldAnswers[key] = value
		lower := strings.ToLower(value)

		switch key {
		case "location", "pain_location":
			loc := value
			issue.Location = &loc
		case "pain_severity", "severity":
			if m := firstIntRe.FindString(lower); m != "" {
				if n, err := strconv.Atoi(m); err == nil {
					issue.Severity = &n
					issue.HasPain = true
				}
			}
		case "duration", "duration_days":
			if days, ok := ParseDurationDays(value); ok {
				issue.DurationDays = &days
			}
		case "thermal_duration":
			issue.ThermalSensitivity = true
		case "stimulus":
			issue.HasPain = true
			if stimulusThermalRe.MatchString(lower) {
				issue.ThermalSensitivity = true
			}
			if stimulusBitingRe.MatchString(lower) {
				issue.BitingPain = true
			}
		case "swelling_location":
			issue.Swelling = true
			if swellingVisibleRe.MatchString(lower) {
				issue.VisibleSwelling = true
			}
		case "airway_status":
			if airwayDistressRe.MatchString(lower) {
				issue.AirwayCompromise = true
			}
		case "hemorrhage_status":
			if hemorrhageRe.MatchString(lower) {
				issue.Bleeding = true
			}
		default:
			appendSymptom(issue, key+": "+value)
		}
	}
}

// appendSymptom adds an entry to reported symptoms, deduplicated and
// order-preserving.
func appendSymptom(issue *ClinicalIssue, symptom string) {
	for _, s := range issue.ReportedSymptoms {
		if s == symptom {
			return
		}
	}
	issue.ReportedSymptoms = append(issue.ReportedSymptoms, symptom)
}

package triage

// MergeIssues fuses the issues extracted this turn with the prior
// turn's state. Issues pair up positionally: the extractor re-emits
// known concerns in order, so index i refines index i. Extra new
// issues append; extra prior issues carry forward untouched.
func MergeIssues(prior, extracted []*ClinicalIssue) []*ClinicalIssue {
	if len(prior) == 0 {
		return extracted
	}
	if len(extracted) == 0 {
		return prior
	}

	merged := make([]*ClinicalIssue, 0, max(len(prior), len(extracted)))
	for i := range max(len(prior), len(extracted)) {
		switch {
		case i >= len(prior):
			merged = append(merged, extracted[i])
		case i >= len(extracted):
			merged = append(merged, prior[i])
		default:
			merged = append(merged, mergeIssue(prior[i], extracted[i]))
		}
	}
	return merged
}

// mergeIssue applies the fusion rules: booleans OR, scalars prefer the
// new value when set, field answers merge with new winning, reported
// symptoms union preserving insertion order.
func mergeIssue(old, next *ClinicalIssue) *ClinicalIssue {
	old.Normalize()
	next.Normalize()

	out := &ClinicalIssue{
		SymptomCluster:     pickString(next.SymptomCluster, old.SymptomCluster),
		HasPain:            old.HasPain || next.HasPain,
		ThermalSensitivity: old.ThermalSensitivity || next.ThermalSensitivity,
		BitingPain:         old.BitingPain || next.BitingPain,
		Swelling:           old.Swelling || next.Swelling,
		VisibleSwelling:    old.VisibleSwelling || next.VisibleSwelling,
		AirwayCompromise:   old.AirwayCompromise || next.AirwayCompromise,
		Trauma:             old.Trauma || next.Trauma,
		Bleeding:           old.Bleeding || next.Bleeding,
		ImpactedWisdom:     old.ImpactedWisdom || next.ImpactedWisdom,
		RequiresSedation:   old.RequiresSedation || next.RequiresSedation,
		Severity:           pickInt(next.Severity, old.Severity),
		DurationDays:       pickInt(next.DurationDays, old.DurationDays),
		Location:           pickStringPtr(next.Location, old.Location),
		Urgency:            MaxUrgency(old.Urgency, next.Urgency),
		Reasoning:          pickString(next.Reasoning, old.Reasoning),
	}
	out.Normalize()

	for _, s := range old.ReportedSymptoms {
		appendSymptom(out, s)
	}
	for _, s := range next.ReportedSymptoms {
		appendSymptom(out, s)
	}

	for k, v := range old.FieldAnswers {
		out.FieldAnswers[k] = v
	}
	for k, v := range next.FieldAnswers {
		out.FieldAnswers[k] = v
	}

	return out
}

func pickString(next, old string) string {
	if next != "" {
		return next
	}
	return old
}

func pickStringPtr(next, old *string) *string {
	if next != nil && *next != "" {
		return next
	}
	return old
}

func pickInt(next, old *int) *int {
	if next != nil {
		return next
	}
	return old
}

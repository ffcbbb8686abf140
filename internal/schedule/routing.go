package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/bronn-dev/smartdental/internal/models"
)

const maxTierSlots = 5

// Fallback tier labels, wire-stable.
const (
	TierLabelPrimary       = "Primary Results"
	TierLabelAlternative   = "Alternative Providers Available"
	TierLabelPalliative    = "Palliative Care (Specialist Unavailable)"
	TierLabelNone          = "No Availability"
	notePalliative         = "No specialist available. Offering General Dentist for pain management."
	noteNoAvailability     = "No slots found. Please contact the clinic directly."
	generalDentistSpecName = "General Dentist"
)

// FindWithFallback runs the tiered search around the solver:
//
//	Tier 1 — primary search ranked with the clinic/doctor preference
//	Tier 2 — re-ranked without the clinic preference, same tenant
//	Tier 3 — palliative General Dentist search for pain management
//	Tier 0 — nothing anywhere; the caller advises direct contact
func (e *Engine) FindWithFallback(ctx context.Context, proc models.Procedure, needsSedation bool, preferredClinicID, preferredDoctorID string, tenantID uuid.UUID) (*SearchResult, error) {
	today := e.now()

	primary, err := e.FindSlots(ctx, proc, needsSedation, tenantID)
	if err != nil {
		return nil, err
	}
	ranked := OptimizeSlots(primary, preferredClinicID, preferredDoctorID, today)
	if len(ranked) > 0 {
		return tierResult(1, TierLabelPrimary, ranked, ""), nil
	}

	fallback, err := e.FindSlots(ctx, proc, needsSedation, tenantID)
	if err != nil {
		return nil, err
	}
	rankedFallback := OptimizeSlots(fallback, "", "", today)
	if len(rankedFallback) > 0 {
		return tierResult(2, TierLabelAlternative, rankedFallback, ""), nil
	}

	palliative, err := e.findPalliative(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(palliative) > 0 {
		rankedPalliative := OptimizeSlots(palliative, "", "", today)
		if len(rankedPalliative) > maxTierSlots {
			rankedPalliative = rankedPalliative[:maxTierSlots]
		}
		return &SearchResult{
			Tier:        3,
			TierLabel:   TierLabelPalliative,
			ComboSlots:  []SlotOption{},
			SingleSlots: rankedPalliative,
			TotalFound:  len(rankedPalliative),
			Note:        notePalliative,
		}, nil
	}

	return &SearchResult{
		Tier:        0,
		TierLabel:   TierLabelNone,
		ComboSlots:  []SlotOption{},
		SingleSlots: []SlotOption{},
		Note:        noteNoAvailability,
	}, nil
}

// findPalliative locates the tenant's General Dentist specialization
// and any procedure requiring it, then searches without sedation.
func (e *Engine) findPalliative(ctx context.Context, tenantID uuid.UUID) ([]SlotOption, error) {
	spec, err := e.store.SpecializationByName(ctx, tenantID, generalDentistSpecName)
	if err != nil {
		return nil, fmt.Errorf("schedule: palliative spec lookup failed: %w", err)
	}
	if spec == nil {
		return nil, nil
	}
	proc, err := e.store.ProcedureBySpecialization(ctx, tenantID, spec.SpecID)
	if err != nil {
		return nil, fmt.Errorf("schedule: palliative procedure lookup failed: %w", err)
	}
	if proc == nil {
		return nil, nil
	}
	return e.FindSlots(ctx, *proc, false, tenantID)
}

func tierResult(tier int, label string, ranked []SlotOption, note string) *SearchResult {
	combos := lo.Filter(ranked, func(s SlotOption, _ int) bool { return s.Type == SlotCombo })
	singles := lo.Filter(ranked, func(s SlotOption, _ int) bool { return s.Type != SlotCombo })
	if len(combos) > maxTierSlots {
		combos = combos[:maxTierSlots]
	}
	if len(singles) > maxTierSlots {
		singles = singles[:maxTierSlots]
	}
	if combos == nil {
		combos = []SlotOption{}
	}
	if singles == nil {
		singles = []SlotOption{}
	}
	return &SearchResult{
		Tier:        tier,
		TierLabel:   label,
		ComboSlots:  combos,
		SingleSlots: singles,
		TotalFound:  len(ranked),
		Note:        note,
	}
}

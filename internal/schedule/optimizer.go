package schedule

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/bronn-dev/smartdental/internal/models"
)

const maxRankedSlots = 10

// OptimizeSlots scores, sorts, and deduplicates slot options.
// Priority order: same-day combo, preferred clinic, preferred doctor,
// earliest date, earliest hour, single-visit bonus. Ties break on date
// then time ascending, and duplicates collapse on
// (date, time, doctor, type), keeping the first ten.
func OptimizeSlots(slots []SlotOption, preferredClinicID, preferredDoctorID string, today time.Time) []SlotOption {
	today = models.DateOnly(today)

	for i := range slots {
		score := 0.0
		slot := &slots[i]

		if slot.Type == SlotCombo {
			score += 100
		}
		if preferredClinicID != "" && slot.ClinicID == preferredClinicID {
			score += 30
		}
		if preferredDoctorID != "" && slot.DoctorID == preferredDoctorID {
			score += 20
		}
		if d, err := time.Parse("2006-01-02", slot.Date); err == nil {
			daysAway := int(d.Sub(today).Hours() / 24)
			score += max(0, float64(20-daysAway))
		}
		if hour, ok := slotHour(slot.Time); ok {
			score += max(0, float64(17-hour)*0.5)
		}
		if slot.Type == SlotSingle {
			score += 10
		}

		slot.Score = score
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Time < slots[j].Time
	})

	unique := lo.UniqBy(slots, func(s SlotOption) string {
		return s.Date + "|" + s.Time + "|" + s.DoctorID + "|" + s.Type
	})
	if len(unique) > maxRankedSlots {
		unique = unique[:maxRankedSlots]
	}
	return unique
}

func slotHour(hhmm string) (int, bool) {
	h, _, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	return hour, true
}

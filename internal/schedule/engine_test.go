package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/internal/schedule"
	"github.com/bronn-dev/smartdental/internal/store"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// mondayJune2 is a fixed Monday; the engine searches June 3–16.
var mondayJune2 = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

func seededEngine(t *testing.T) (*schedule.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.LoadSeed(store.DemoSeed())
	engine := schedule.NewEngine(mem, logging.New("error"), schedule.WithClock(func() time.Time { return mondayJune2 }))
	return engine, mem
}

func rootCanalProcedure(t *testing.T, mem *store.Memory) models.Procedure {
	t.Helper()
	proc, err := mem.ProcedureByName(context.Background(), store.SeedDowntownID, "Root Canal Treatment")
	require.NoError(t, err)
	require.NotNil(t, proc)
	return *proc
}

func wisdomProcedure(t *testing.T, mem *store.Memory) models.Procedure {
	t.Helper()
	proc, err := mem.ProcedureByName(context.Background(), store.SeedWestsideID, "Wisdom Tooth Extraction (Sedation)")
	require.NoError(t, err)
	require.NotNil(t, proc)
	return *proc
}

func TestFindSlotsComboGeometry(t *testing.T) {
	engine, mem := seededEngine(t)
	proc := rootCanalProcedure(t, mem)

	slots, err := engine.FindSlots(context.Background(), proc, false, store.SeedDowntownID)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	var combos, consults int
	for _, s := range slots {
		// Only the endodontist qualifies, only the microscope suite fits.
		assert.Equal(t, "Dr. Amir Khan", s.DoctorName)
		assert.Equal(t, "Room 2 — Endo Suite (Microscope)", s.RoomName)
		assert.Equal(t, store.SeedDowntownID.String(), s.ClinicID)

		day, err := time.Parse("2006-01-02", s.Date)
		require.NoError(t, err)
		assert.Less(t, models.Weekday(day), 5, "weekend day %s in scheduler output", s.Date)

		switch s.Type {
		case schedule.SlotCombo:
			combos++
			// ceil(20/15)+1+ceil(90/15) = 2+1+6 = 9 blocks
			assert.Equal(t, 9*schedule.SlotMinutes, s.DurationMinutes)
			require.NotNil(t, s.ConsultEndTime)
			require.NotNil(t, s.TreatmentStartTime)
		case schedule.SlotConsultOnly:
			consults++
			assert.Equal(t, 2*schedule.SlotMinutes, s.DurationMinutes)
		default:
			t.Fatalf("unexpected slot type %s", s.Type)
		}
	}
	assert.NotZero(t, combos)
	assert.NotZero(t, consults)

	// First combo of the earliest day starts at opening and spaces the
	// consult and treatment around the buffer block.
	first := slots[0]
	assert.Equal(t, schedule.SlotCombo, first.Type)
	assert.Equal(t, "2025-06-04", first.Date) // Khan works Mon/Wed/Fri; search starts Tuesday
	assert.Equal(t, "09:00", first.Time)
	assert.Equal(t, "09:30", *first.ConsultEndTime)
	assert.Equal(t, "09:45", *first.TreatmentStartTime)
}

func TestFindSlotsSkipsBookedBlocks(t *testing.T) {
	engine, mem := seededEngine(t)
	proc := rootCanalProcedure(t, mem)
	june4 := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)

	for block := 0; block < 9; block++ {
		mem.Slots = append(mem.Slots, models.CalendarSlot{
			EntityType: models.EntityDoctor,
			EntityID:   store.SeedDrKhanID,
			Date:       june4,
			TimeBlock:  block,
			Booked:     true,
		})
	}

	slots, err := engine.FindSlots(context.Background(), proc, false, store.SeedDowntownID)
	require.NoError(t, err)

	for _, s := range slots {
		if s.Date != "2025-06-04" {
			continue
		}
		assert.GreaterOrEqual(t, s.TimeBlock, 9, "slot %s %s overlaps booked morning", s.Type, s.Time)
	}
}

func TestFindSlotsSedationRequiresAnesthetistPresence(t *testing.T) {
	engine, mem := seededEngine(t)
	wisdom := wisdomProcedure(t, mem)

	// Westside has the anesthetist, but only on her template days.
	slots, err := engine.FindSlots(context.Background(), wisdom, true, store.SeedWestsideID)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		day, err := time.Parse("2006-01-02", s.Date)
		require.NoError(t, err)
		dow := models.Weekday(day)
		assert.Contains(t, []int{1, 3}, dow, "slot on %s outside anesthetist coverage", s.Date)
		require.NotNil(t, s.StaffID)
		assert.Equal(t, store.SeedAnesthetistID.String(), *s.StaffID)
	}

	// Downtown has no anesthetist at all: deterministic empty result.
	downtown := wisdom
	empty, err := engine.FindSlots(context.Background(), downtown, true, store.SeedDowntownID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFindSlotsEmptyWithoutQualifiedDoctors(t *testing.T) {
	engine, mem := seededEngine(t)
	wisdom := wisdomProcedure(t, mem)

	// No oral surgeon practices for the Downtown tenant.
	slots, err := engine.FindSlots(context.Background(), wisdom, false, store.SeedDowntownID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

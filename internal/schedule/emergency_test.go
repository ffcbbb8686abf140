package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/internal/schedule"
	"github.com/bronn-dev/smartdental/internal/store"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

func emergencyEngine(t *testing.T, now time.Time) (*schedule.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.LoadSeed(store.DemoSeed())
	engine := schedule.NewEngine(mem, logging.New("error"), schedule.WithClock(func() time.Time { return now }))
	return engine, mem
}

func TestEmergencySlotSkipsCurrentBlock(t *testing.T) {
	// Monday 10:05 — the current block is 4, so the search starts at 5.
	engine, _ := emergencyEngine(t, time.Date(2025, 6, 2, 10, 5, 0, 0, time.UTC))

	slot, err := engine.FindEmergencySlot(context.Background(), store.SeedDowntownID)
	require.NoError(t, err)
	require.NotNil(t, slot)

	assert.Equal(t, schedule.SlotEmergency, slot.Type)
	assert.Equal(t, "2025-06-02", slot.Date)
	assert.Equal(t, 5, slot.TimeBlock)
	assert.Equal(t, "10:15", slot.Time)
	assert.Equal(t, "10:30", slot.EndTime)
	assert.Equal(t, schedule.SlotMinutes, slot.DurationMinutes)
	assert.Equal(t, "Emergency Triage", slot.Procedure)
}

func TestEmergencySlotAdvancesPastBookedBlocks(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 5, 0, 0, time.UTC)
	engine, mem := emergencyEngine(t, now)

	// Block 5 is taken for the first doctor the search visits.
	mem.Slots = append(mem.Slots, models.CalendarSlot{
		EntityType: models.EntityDoctor,
		EntityID:   store.SeedDrPatelID,
		Date:       models.DateOnly(now),
		TimeBlock:  5,
		Booked:     true,
	})

	slot, err := engine.FindEmergencySlot(context.Background(), store.SeedDowntownID)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, 6, slot.TimeBlock)
}

func TestEmergencySlotCrossesWeekend(t *testing.T) {
	// Friday 16:50 — nothing left today, nobody works the weekend, so
	// the three-day window lands on Monday morning.
	engine, _ := emergencyEngine(t, time.Date(2025, 6, 6, 16, 50, 0, 0, time.UTC))

	slot, err := engine.FindEmergencySlot(context.Background(), store.SeedDowntownID)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, "2025-06-09", slot.Date)
	assert.Equal(t, 0, slot.TimeBlock)
	assert.Equal(t, "09:00", slot.Time)
}

func TestEmergencySlotNilForUnknownTenant(t *testing.T) {
	engine, _ := emergencyEngine(t, time.Date(2025, 6, 2, 10, 5, 0, 0, time.UTC))

	slot, err := engine.FindEmergencySlot(context.Background(), uuid.MustParse("00000000-0000-4000-8000-00000000dead"))
	require.NoError(t, err)
	assert.Nil(t, slot)
}

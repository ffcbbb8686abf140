package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/internal/schedule"
)

func bookingRecordAt(startBlock int) schedule.BookingRecord {
	date := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	start := date.Add(time.Duration(9*60+startBlock*15) * time.Minute)
	return schedule.BookingRecord{
		TenantID:   SeedDowntownID,
		PatientID:  testPatientID,
		DoctorID:   SeedDrKhanID,
		RoomID:     testRoomID,
		ClinicID:   SeedDowntownID,
		Procedure:  "Root Canal Treatment",
		Date:       date,
		StartBlock: startBlock,
		NumBlocks:  6,
		StartTime:  start,
		EndTime:    start.Add(90 * time.Minute),
	}
}

var (
	testPatientID = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	testRoomID    = uuid.MustParse("9b2d1c6f-3a5b-4da4-8c1f-0d5a20e3d002")
)

func TestMemoryBookConflict(t *testing.T) {
	mem := NewMemory()
	mem.LoadSeed(DemoSeed())
	ctx := context.Background()

	first, err := mem.Book(ctx, bookingRecordAt(4))
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, models.ApptScheduled, first.Status)

	// Identical range: exactly one booking wins.
	_, err = mem.Book(ctx, bookingRecordAt(4))
	assert.ErrorIs(t, err, schedule.ErrSlotUnavailable)

	// Any overlap in the range also conflicts.
	_, err = mem.Book(ctx, bookingRecordAt(9))
	assert.ErrorIs(t, err, schedule.ErrSlotUnavailable)

	// Shifted past the booked range, the same parameters succeed.
	second, err := mem.Book(ctx, bookingRecordAt(10))
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ApptID, second.ApptID)
}

func TestMemoryBookLocksEveryEntity(t *testing.T) {
	mem := NewMemory()
	mem.LoadSeed(DemoSeed())
	ctx := context.Background()

	staffID := SeedAnesthetistID
	rec := bookingRecordAt(0)
	rec.StaffID = &staffID
	_, err := mem.Book(ctx, rec)
	require.NoError(t, err)

	date := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	for _, entity := range []struct {
		entityType string
		id         uuid.UUID
	}{
		{models.EntityDoctor, SeedDrKhanID},
		{models.EntityRoom, testRoomID},
		{models.EntityStaff, SeedAnesthetistID},
	} {
		blocks, err := mem.BookedBlocks(ctx, entity.entityType, entity.id, date)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, blocks, "entity %s", entity.entityType)
	}
}

func TestMemoryCancelReleasesBlocks(t *testing.T) {
	mem := NewMemory()
	mem.LoadSeed(DemoSeed())
	ctx := context.Background()

	appt, err := mem.Book(ctx, bookingRecordAt(4))
	require.NoError(t, err)

	require.NoError(t, mem.CancelAppointment(ctx, appt.ApptID))

	blocks, err := mem.BookedBlocks(ctx, models.EntityDoctor, SeedDrKhanID, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, blocks)

	// Cancelled appointments are terminal.
	assert.ErrorIs(t, mem.CancelAppointment(ctx, appt.ApptID), ErrNotFound)

	// The freed range books again.
	_, err = mem.Book(ctx, bookingRecordAt(4))
	assert.NoError(t, err)
}

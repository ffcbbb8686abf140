package schedule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bronn-dev/smartdental/internal/models"
)

func TestMaskSetRangeAndClear(t *testing.T) {
	var m Mask
	m = m.SetRange(0, SlotsPerDay)
	assert.Equal(t, SlotsPerDay, m.Count())
	assert.Equal(t, FullDay, m)

	m = m.Clear(0).Clear(31)
	assert.Equal(t, SlotsPerDay-2, m.Count())
	assert.False(t, m.Free(0))
	assert.False(t, m.Free(31))
	assert.True(t, m.Free(15))

	// Out-of-grid indices are ignored.
	assert.Equal(t, m, m.Clear(-1).Clear(SlotsPerDay))
}

func TestMaskSetRangeClamps(t *testing.T) {
	var m Mask
	m = m.SetRange(-4, 2)
	assert.Equal(t, 2, m.Count())
	assert.True(t, m.Free(0))
	assert.True(t, m.Free(1))

	m = Mask(0).SetRange(30, 40)
	assert.Equal(t, 2, m.Count())
	assert.True(t, m.Free(31))
}

func TestFindContiguous(t *testing.T) {
	tests := []struct {
		name  string
		build func() Mask
		k     int
		want  []int
	}{
		{"full day single blocks", func() Mask { return FullDay }, 1, seq(0, 31)},
		{"full day whole-day run", func() Mask { return FullDay }, 32, []int{0}},
		{"no run longer than day", func() Mask { return FullDay }, 33, nil},
		{"gap splits runs", func() Mask { return FullDay.Clear(4) }, 3, append(seq(0, 1), seq(5, 29)...)},
		{"empty mask", func() Mask { return 0 }, 1, nil},
		{"run at end only", func() Mask { return Mask(0).SetRange(29, 32) }, 3, []int{29}},
		{"zero length", func() Mask { return FullDay }, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.build().FindContiguous(tt.k)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindContiguousAscending(t *testing.T) {
	m := FullDay.Clear(7).Clear(20)
	starts := m.FindContiguous(4)
	for i := 1; i < len(starts); i++ {
		assert.Greater(t, starts[i], starts[i-1])
	}
}

func TestBlocksNeeded(t *testing.T) {
	assert.Equal(t, 1, BlocksNeeded(15))
	assert.Equal(t, 2, BlocksNeeded(16))
	assert.Equal(t, 2, BlocksNeeded(20))
	assert.Equal(t, 6, BlocksNeeded(90))
	assert.Equal(t, 0, BlocksNeeded(0))
}

func TestBlocksNeededStableUnderReRounding(t *testing.T) {
	for minutes := 1; minutes <= 120; minutes++ {
		blocks := BlocksNeeded(minutes)
		assert.Equal(t, blocks, BlocksNeeded(blocks*SlotMinutes), "minutes=%d", minutes)
	}
}

func TestBlockTimeRoundTrip(t *testing.T) {
	assert.Equal(t, "09:00", BlockToTime(0))
	assert.Equal(t, "09:15", BlockToTime(1))
	assert.Equal(t, "17:00", BlockToTime(32))

	// time_to_block floors onto the grid, block_to_time re-renders the
	// floored value.
	for block := 0; block < SlotsPerDay; block++ {
		tod := models.TimeOfDay{
			Hour:   DayStartHour + (block*SlotMinutes)/60,
			Minute: (block * SlotMinutes) % 60,
		}
		assert.Equal(t, block, TimeToBlock(tod))
		assert.Equal(t, tod.String(), BlockToTime(TimeToBlock(tod)))
	}

	// Off-grid minutes floor down.
	assert.Equal(t, 0, TimeToBlock(models.TimeOfDay{Hour: 9, Minute: 14}))
	assert.Equal(t, 1, TimeToBlock(models.TimeOfDay{Hour: 9, Minute: 29}))
}

func TestTemplateMaskFullDay(t *testing.T) {
	clinicID := testUUID(1)
	templates := []models.AvailabilityTemplate{{
		ClinicID:  clinicID,
		DayOfWeek: 2,
		StartTime: models.TimeOfDay{Hour: 9},
		EndTime:   models.TimeOfDay{Hour: 17},
	}}

	mask := TemplateMask(templates, 2)
	require.Equal(t, SlotsPerDay, mask.Count())

	// Other weekdays get nothing from this template.
	assert.Equal(t, 0, TemplateMask(templates, 3).Count())
}

func TestTemplateMaskPartialDayAndBookings(t *testing.T) {
	templates := []models.AvailabilityTemplate{{
		DayOfWeek: 0,
		StartTime: models.TimeOfDay{Hour: 13},
		EndTime:   models.TimeOfDay{Hour: 17},
	}}
	mask := TemplateMask(templates, 0)
	assert.Equal(t, 16, mask.Count())
	assert.False(t, mask.Free(15))
	assert.True(t, mask.Free(16))

	mask = ApplyBooked(mask, []int{16, 17})
	assert.Equal(t, 14, mask.Count())
	assert.False(t, mask.Free(16))
}

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func testUUID(n byte) uuid.UUID {
	var b [16]byte
	b[15] = n
	b[6] = 0x40 // version 4
	b[8] = 0x80
	return uuid.UUID(b)
}

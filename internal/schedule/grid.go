// Package schedule implements the constraint solver over the clinic
// day grid: availability masks, contiguous-run search, slot scoring,
// tiered fallback routing, emergency search, and booking.
package schedule

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/bronn-dev/smartdental/internal/models"
)

// Clinic day grid. These are compile-time operating parameters; every
// block index below refers to this grid.
const (
	DayStartHour          = 9
	DayEndHour            = 17
	SlotMinutes           = 15
	SlotsPerDay           = (DayEndHour - DayStartHour) * (60 / SlotMinutes) // 32
	BufferSlots           = 1
	ScheduleLookaheadDays = 14
	blocksPerHour         = 60 / SlotMinutes
)

// Mask is one day's availability as a bitset: bit i set means block i
// is free. SlotsPerDay is 32, so a uint32 covers the whole day and
// resource intersection is a single AND.
type Mask uint32

// FullDay has every block free.
const FullDay Mask = (1 << SlotsPerDay) - 1

// SetRange marks [start, end) free. Out-of-grid indices are clamped.
func (m Mask) SetRange(start, end int) Mask {
	if start < 0 {
		start = 0
	}
	if end > SlotsPerDay {
		end = SlotsPerDay
	}
	if start >= end {
		return m
	}
	width := end - start
	return m | Mask((uint32(1)<<width-1)<<start)
}

// Clear marks a single block busy. Out-of-grid indices are ignored.
func (m Mask) Clear(block int) Mask {
	if block < 0 || block >= SlotsPerDay {
		return m
	}
	return m &^ Mask(1<<block)
}

// Free reports whether a block is free.
func (m Mask) Free(block int) bool {
	return block >= 0 && block < SlotsPerDay && m&(1<<block) != 0
}

// And intersects two resource masks.
func (m Mask) And(other Mask) Mask { return m & other }

// Count returns the number of free blocks.
func (m Mask) Count() int { return bits.OnesCount32(uint32(m)) }

// FindContiguous returns every start block admitting a run of k free
// blocks, in ascending order. The run computation is branch-free: after
// k−1 shifted ANDs, bit b survives iff blocks b…b+k−1 are all free.
func (m Mask) FindContiguous(k int) []int {
	if k <= 0 || k > SlotsPerDay {
		return nil
	}
	runs := uint32(m)
	for i := 1; i < k; i++ {
		runs &= uint32(m) >> i
	}
	starts := make([]int, 0, bits.OnesCount32(runs))
	for runs != 0 {
		b := bits.TrailingZeros32(runs)
		starts = append(starts, b)
		runs &= runs - 1
	}
	return starts
}

// BlocksNeeded rounds a duration up to whole grid blocks.
func BlocksNeeded(minutes int) int {
	return int(math.Ceil(float64(minutes) / float64(SlotMinutes)))
}

// BlockToTime converts a block index to its HH:MM wall-clock start.
func BlockToTime(block int) string {
	total := DayStartHour*60 + block*SlotMinutes
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// TimeToBlock floors a wall-clock time onto the grid.
func TimeToBlock(t models.TimeOfDay) int {
	return (t.Hour-DayStartHour)*blocksPerHour + t.Minute/SlotMinutes
}

// TemplateMask projects the availability templates that match the given
// weekday onto a day mask. End minutes are dropped: a template ending
// 16:50 admits blocks only up to 16:00, matching the grid contract.
func TemplateMask(templates []models.AvailabilityTemplate, dayOfWeek int) Mask {
	var m Mask
	for _, tmpl := range templates {
		if tmpl.DayOfWeek != dayOfWeek {
			continue
		}
		start := (tmpl.StartTime.Hour-DayStartHour)*blocksPerHour + tmpl.StartTime.Minute/SlotMinutes
		end := (tmpl.EndTime.Hour - DayStartHour) * blocksPerHour
		m = m.SetRange(start, end)
	}
	return m
}

// ApplyBooked clears every booked block from a mask.
func ApplyBooked(m Mask, bookedBlocks []int) Mask {
	for _, b := range bookedBlocks {
		m = m.Clear(b)
	}
	return m
}

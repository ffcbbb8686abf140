// Package models holds the domain records shared by the triage,
// scheduling, and orchestration layers. All records are tenant-scoped:
// the clinic UUID doubles as the tenant identifier.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment status values.
const (
	ApptScheduled = "SCHEDULED"
	ApptCancelled = "CANCELLED"
	ApptCompleted = "COMPLETED"
)

// CalendarSlot entity types.
const (
	EntityDoctor = "doctor"
	EntityRoom   = "room"
	EntityStaff  = "staff"
)

// AvailabilityTemplate resource types.
const (
	ResourceDoctor = "DOCTOR"
	ResourceStaff  = "STAFF"
)

// StaffRoleAnesthetist is the only staff role the scheduling core consumes.
const StaffRoleAnesthetist = "Anesthetist"

// Clinic is the tenant root. ClinicID is both the tenant identifier and
// the primary clinic identifier.
type Clinic struct {
	ClinicID           uuid.UUID
	Name               string
	Address            string
	Location           string
	Timezone           string
	OnboardingComplete bool
}

// Room belongs to a clinic. Capabilities are matched by required subset
// inclusion with scalar equality.
type Room struct {
	RoomID       uuid.UUID
	ClinicID     uuid.UUID
	Name         string
	Type         string
	Capabilities map[string]any
	Equipment    []string
	Status       string
}

// HasCapabilities reports whether the room satisfies every required
// capability key with an equal scalar value.
func (r Room) HasCapabilities(required map[string]any) bool {
	for k, v := range required {
		if r.Capabilities[k] != v {
			return false
		}
	}
	return true
}

type Doctor struct {
	DoctorID uuid.UUID
	TenantID uuid.UUID
	Name     string
	NPI      string
	Email    string
	Active   bool
}

type Specialization struct {
	SpecID   int
	TenantID uuid.UUID
	Name     string
}

type Staff struct {
	StaffID  uuid.UUID
	TenantID uuid.UUID
	Name     string
	Role     string
}

type Patient struct {
	PatientID uuid.UUID
	TenantID  *uuid.UUID
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}

// Procedure describes a bookable treatment and its resource constraints.
type Procedure struct {
	ProcID                 int
	TenantID               uuid.UUID
	Name                   string
	BaseDurationMinutes    int
	ConsultDurationMinutes int
	RequiredSpecID         int
	RequiredRoomCapability map[string]any
	RequiresAnesthetist    bool
	AllowSameDayCombo      bool
}

// TimeOfDay is a wall-clock time within a day, minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// AvailabilityTemplate is a weekly recurring availability window for a
// doctor or staff member at a specific clinic. Templates define the
// maximum availability; bookings subtract from it.
type AvailabilityTemplate struct {
	TemplateID   int
	ResourceID   uuid.UUID
	ResourceType string
	ClinicID     uuid.UUID
	DayOfWeek    int // 0=Monday … 6=Sunday
	StartTime    TimeOfDay
	EndTime      TimeOfDay
}

// CalendarSlot marks one 15-minute block of one entity's day. A row
// exists only when booked (or explicitly blocked); absence means "free
// within the template".
type CalendarSlot struct {
	ID         int64
	TenantID   *uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	Date       time.Time // date component only, UTC
	TimeBlock  int
	Booked     bool
	ApptID     *uuid.UUID
}

type Appointment struct {
	ApptID        uuid.UUID
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	RoomID        uuid.UUID
	StaffID       *uuid.UUID
	ClinicID      uuid.UUID
	ProcID        *int
	ProcedureType string
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	CreatedAt     time.Time
}

// Weekday returns the template day-of-week index (Monday=0) for a date.
// time.Weekday counts Sunday=0, the availability tables count Monday=0.
func Weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// DateOnly truncates a timestamp to its UTC date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

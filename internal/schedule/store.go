package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/models"
)

// ErrSlotUnavailable is returned by Book when any required calendar
// block is already locked by another appointment.
var ErrSlotUnavailable = errors.New("schedule: slot unavailable")

// Store is the read contract the solver needs. A zero tenant UUID means
// a global (pre-routing) patient; implementations then skip the tenant
// filter.
type Store interface {
	// DoctorsBySpecialization returns active doctors linked to the
	// specialization, tenant-scoped.
	DoctorsBySpecialization(ctx context.Context, tenantID uuid.UUID, specID int) ([]models.Doctor, error)
	// ActiveRooms returns rooms with status "active", tenant-scoped.
	ActiveRooms(ctx context.Context, tenantID uuid.UUID) ([]models.Room, error)
	// AnesthetistForTenant returns any staff member with the
	// Anesthetist role, or nil when the tenant has none.
	AnesthetistForTenant(ctx context.Context, tenantID uuid.UUID) (*models.Staff, error)
	// ResourceTemplates returns every weekly template for a resource.
	ResourceTemplates(ctx context.Context, resourceID uuid.UUID, resourceType string) ([]models.AvailabilityTemplate, error)
	// BookedBlocks returns the block indices locked for an entity on a date.
	BookedBlocks(ctx context.Context, entityType string, entityID uuid.UUID, date time.Time) ([]int, error)
	// SpecializationByName returns the tenant's specialization record.
	SpecializationByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Specialization, error)
	// SpecializationByID resolves a specialization regardless of tenant.
	SpecializationByID(ctx context.Context, specID int) (*models.Specialization, error)
	// ProcedureBySpecialization returns any procedure requiring the
	// specialization, tenant-scoped.
	ProcedureBySpecialization(ctx context.Context, tenantID uuid.UUID, specID int) (*models.Procedure, error)
}

// BookingRecord carries everything the store needs to lock a slot:
// the appointment row plus the entity × block ranges to flip.
type BookingRecord struct {
	TenantID   uuid.UUID
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	RoomID     uuid.UUID
	StaffID    *uuid.UUID
	ClinicID   uuid.UUID
	ProcID     *int
	Procedure  string
	Date       time.Time
	StartBlock int
	NumBlocks  int
	StartTime  time.Time
	EndTime    time.Time
}

// SlotEntity identifies one calendar entity a booking must lock.
type SlotEntity struct {
	Type string
	ID   uuid.UUID
}

// Entities lists the calendar entities the booking must lock.
func (b BookingRecord) Entities() []SlotEntity {
	entities := []SlotEntity{
		{Type: models.EntityDoctor, ID: b.DoctorID},
		{Type: models.EntityRoom, ID: b.RoomID},
	}
	if b.StaffID != nil {
		entities = append(entities, SlotEntity{Type: models.EntityStaff, ID: *b.StaffID})
	}
	return entities
}

// BookingStore executes the two-phase slot lock. Implementations must
// run conflict validation, appointment insert, and slot upserts inside
// one transaction and return ErrSlotUnavailable on any conflict.
type BookingStore interface {
	Book(ctx context.Context, rec BookingRecord) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, apptID uuid.UUID) error
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/internal/schedule"
)

// Memory is a mutex-guarded in-memory store. It backs tests and the
// demo mode of cmd/api; semantics match the Postgres store, including
// booking conflict detection.
type Memory struct {
	mu sync.Mutex

	Clinics         []models.Clinic
	Rooms           []models.Room
	Doctors         []models.Doctor
	Specializations []models.Specialization
	DoctorSpecs     map[uuid.UUID][]int
	StaffMembers    []models.Staff
	Patients        []models.Patient
	Procedures      []models.Procedure
	Templates       []models.AvailabilityTemplate
	Slots           []models.CalendarSlot
	Appointments    []models.Appointment

	nextSlotID int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{DoctorSpecs: map[uuid.UUID][]int{}}
}

func (m *Memory) DoctorsBySpecialization(_ context.Context, tenantID uuid.UUID, specID int) ([]models.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Doctor
	for _, d := range m.Doctors {
		if !d.Active {
			continue
		}
		if tenantID != uuid.Nil && d.TenantID != tenantID {
			continue
		}
		for _, s := range m.DoctorSpecs[d.DoctorID] {
			if s == specID {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ActiveRooms(_ context.Context, tenantID uuid.UUID) ([]models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Room
	for _, r := range m.Rooms {
		if r.Status != "active" {
			continue
		}
		if tenantID != uuid.Nil && r.ClinicID != tenantID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) AnesthetistForTenant(_ context.Context, tenantID uuid.UUID) (*models.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.StaffMembers {
		if s.Role != models.StaffRoleAnesthetist {
			continue
		}
		if tenantID != uuid.Nil && s.TenantID != tenantID {
			continue
		}
		staff := s
		return &staff, nil
	}
	return nil, nil
}

func (m *Memory) ResourceTemplates(_ context.Context, resourceID uuid.UUID, resourceType string) ([]models.AvailabilityTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AvailabilityTemplate
	for _, t := range m.Templates {
		if t.ResourceID == resourceID && t.ResourceType == resourceType {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) BookedBlocks(_ context.Context, entityType string, entityID uuid.UUID, date time.Time) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookedBlocksLocked(entityType, entityID, date), nil
}

func (m *Memory) bookedBlocksLocked(entityType string, entityID uuid.UUID, date time.Time) []int {
	day := models.DateOnly(date)
	var out []int
	for _, s := range m.Slots {
		if s.Booked && s.EntityType == entityType && s.EntityID == entityID && s.Date.Equal(day) {
			out = append(out, s.TimeBlock)
		}
	}
	sort.Ints(out)
	return out
}

func (m *Memory) SpecializationByName(_ context.Context, tenantID uuid.UUID, name string) (*models.Specialization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Specializations {
		if s.Name != name {
			continue
		}
		if tenantID != uuid.Nil && s.TenantID != tenantID {
			continue
		}
		spec := s
		return &spec, nil
	}
	return nil, nil
}

func (m *Memory) SpecializationByID(_ context.Context, specID int) (*models.Specialization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Specializations {
		if s.SpecID == specID {
			spec := s
			return &spec, nil
		}
	}
	return nil, nil
}

func (m *Memory) ProcedureBySpecialization(_ context.Context, tenantID uuid.UUID, specID int) (*models.Procedure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Procedures {
		if p.RequiredSpecID != specID {
			continue
		}
		if tenantID != uuid.Nil && p.TenantID != tenantID {
			continue
		}
		proc := p
		return &proc, nil
	}
	return nil, nil
}

func (m *Memory) ProcedureByName(_ context.Context, tenantID uuid.UUID, name string) (*models.Procedure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Procedures {
		if p.Name != name {
			continue
		}
		if tenantID != uuid.Nil && p.TenantID != tenantID {
			continue
		}
		proc := p
		return &proc, nil
	}
	return nil, nil
}

func (m *Memory) ProcedureByNameAnyTenant(_ context.Context, name string) (*models.Procedure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Procedures {
		if p.Name == name {
			proc := p
			return &proc, nil
		}
	}
	return nil, nil
}

func (m *Memory) ProcedureByID(_ context.Context, tenantID uuid.UUID, procID int) (*models.Procedure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Procedures {
		if p.ProcID != procID {
			continue
		}
		if tenantID != uuid.Nil && p.TenantID != tenantID {
			continue
		}
		proc := p
		return &proc, nil
	}
	return nil, nil
}

func (m *Memory) ProceduresForTenant(_ context.Context, tenantID uuid.UUID) ([]models.Procedure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Procedure
	for _, p := range m.Procedures {
		if tenantID != uuid.Nil && p.TenantID != tenantID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) PatientByID(_ context.Context, tenantID uuid.UUID, patientID uuid.UUID) (*models.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Patients {
		if p.PatientID != patientID {
			continue
		}
		if tenantID != uuid.Nil && (p.TenantID == nil || *p.TenantID != tenantID) {
			continue
		}
		patient := p
		return &patient, nil
	}
	return nil, ErrNotFound
}

// Book mirrors the transactional two-phase lock: conflicts across the
// whole range fail the attempt atomically under the store mutex.
func (m *Memory) Book(_ context.Context, rec schedule.BookingRecord) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	date := models.DateOnly(rec.Date)
	endBlock := rec.StartBlock + rec.NumBlocks

	for _, entity := range rec.Entities() {
		for _, b := range m.bookedBlocksLocked(entity.Type, entity.ID, date) {
			if b >= rec.StartBlock && b < endBlock {
				return nil, schedule.ErrSlotUnavailable
			}
		}
	}

	appt := models.Appointment{
		ApptID:        uuid.New(),
		PatientID:     rec.PatientID,
		DoctorID:      rec.DoctorID,
		RoomID:        rec.RoomID,
		StaffID:       rec.StaffID,
		ClinicID:      rec.ClinicID,
		ProcID:        rec.ProcID,
		ProcedureType: rec.Procedure,
		StartTime:     rec.StartTime,
		EndTime:       rec.EndTime,
		Status:        models.ApptScheduled,
		CreatedAt:     time.Now().UTC(),
	}
	m.Appointments = append(m.Appointments, appt)

	var tenantID *uuid.UUID
	if rec.TenantID != uuid.Nil {
		id := rec.TenantID
		tenantID = &id
	}
	apptID := appt.ApptID
	for _, entity := range rec.Entities() {
		for block := rec.StartBlock; block < endBlock; block++ {
			m.upsertSlotLocked(tenantID, entity.Type, entity.ID, date, block, &apptID)
		}
	}
	return &appt, nil
}

func (m *Memory) upsertSlotLocked(tenantID *uuid.UUID, entityType string, entityID uuid.UUID, date time.Time, block int, apptID *uuid.UUID) {
	for i := range m.Slots {
		s := &m.Slots[i]
		if s.EntityType == entityType && s.EntityID == entityID && s.Date.Equal(date) && s.TimeBlock == block {
			s.Booked = true
			s.ApptID = apptID
			s.TenantID = tenantID
			return
		}
	}
	m.nextSlotID++
	m.Slots = append(m.Slots, models.CalendarSlot{
		ID:         m.nextSlotID,
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Date:       date,
		TimeBlock:  block,
		Booked:     true,
		ApptID:     apptID,
	})
}

func (m *Memory) CancelAppointment(_ context.Context, apptID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for i := range m.Appointments {
		if m.Appointments[i].ApptID == apptID && m.Appointments[i].Status == models.ApptScheduled {
			m.Appointments[i].Status = models.ApptCancelled
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	for i := range m.Slots {
		if m.Slots[i].ApptID != nil && *m.Slots[i].ApptID == apptID {
			m.Slots[i].Booked = false
			m.Slots[i].ApptID = nil
		}
	}
	return nil
}

func (m *Memory) AppointmentsForPatient(_ context.Context, tenantID uuid.UUID, patientID uuid.UUID) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.Appointments {
		if a.PatientID != patientID {
			continue
		}
		if tenantID != uuid.Nil && a.ClinicID != tenantID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

var (
	_ schedule.Store        = (*Memory)(nil)
	_ schedule.BookingStore = (*Memory)(nil)
)

package store

import (
	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/models"
)

// SeedData is the reference dataset: two clinics, four rooms, four
// doctors across three specializations, one anesthetist, and the full
// procedure catalog with weekly availability templates.
type SeedData struct {
	Clinics         []models.Clinic
	Rooms           []models.Room
	Doctors         []models.Doctor
	Specializations []models.Specialization
	DoctorSpecs     map[uuid.UUID][]int
	StaffMembers    []models.Staff
	Procedures      []models.Procedure
	Templates       []models.AvailabilityTemplate
}

// Fixed identifiers so demos and tests address the same records.
var (
	SeedDowntownID    = uuid.MustParse("6d5e1f9a-0b3c-4a71-9f2e-3a8c51d0a001")
	SeedWestsideID    = uuid.MustParse("6d5e1f9a-0b3c-4a71-9f2e-3a8c51d0a002")
	SeedDrPatelID     = uuid.MustParse("7c4b2e8d-1a2f-4b82-8e1d-2b7c40e1b001")
	SeedDrKhanID      = uuid.MustParse("7c4b2e8d-1a2f-4b82-8e1d-2b7c40e1b002")
	SeedDrRaoID       = uuid.MustParse("7c4b2e8d-1a2f-4b82-8e1d-2b7c40e1b003")
	SeedDrShahID      = uuid.MustParse("7c4b2e8d-1a2f-4b82-8e1d-2b7c40e1b004")
	SeedAnesthetistID = uuid.MustParse("8a3c1d7e-2b4a-4c93-9d2e-1c6b30f2c001")
)

// Seed specialization IDs.
const (
	SeedSpecGeneralDentist = 1
	SeedSpecEndodontist    = 2
	SeedSpecOralSurgeon    = 3
)

// DemoSeed builds the reference dataset.
func DemoSeed() SeedData {
	fullDay := func(resourceID uuid.UUID, resourceType string, clinicID uuid.UUID, days ...int) []models.AvailabilityTemplate {
		var templates []models.AvailabilityTemplate
		for _, dow := range days {
			templates = append(templates, models.AvailabilityTemplate{
				ResourceID:   resourceID,
				ResourceType: resourceType,
				ClinicID:     clinicID,
				DayOfWeek:    dow,
				StartTime:    models.TimeOfDay{Hour: 9},
				EndTime:      models.TimeOfDay{Hour: 17},
			})
		}
		return templates
	}

	data := SeedData{
		Clinics: []models.Clinic{
			{ClinicID: SeedDowntownID, Name: "Downtown Dental", Address: "123 Main Street, Mumbai", Location: "Downtown", Timezone: "Asia/Kolkata", OnboardingComplete: true},
			{ClinicID: SeedWestsideID, Name: "Westside Oral Surgery", Address: "456 West Avenue, Mumbai", Location: "Westside", Timezone: "Asia/Kolkata", OnboardingComplete: true},
		},
		Rooms: []models.Room{
			{RoomID: uuid.MustParse("9b2d1c6f-3a5b-4da4-8c1f-0d5a20e3d001"), ClinicID: SeedDowntownID, Name: "Room 1 — General Operatory", Type: "operatory",
				Capabilities: map[string]any{"type": "operatory", "xray": true, "microscope": false, "sedation_support": false},
				Equipment:    []string{"dental_chair", "xray_unit"}, Status: "active"},
			{RoomID: uuid.MustParse("9b2d1c6f-3a5b-4da4-8c1f-0d5a20e3d002"), ClinicID: SeedDowntownID, Name: "Room 2 — Endo Suite (Microscope)", Type: "endo",
				Capabilities: map[string]any{"type": "operatory", "xray": true, "microscope": true, "sedation_support": false},
				Equipment:    []string{"dental_chair", "microscope", "xray_unit", "apex_locator"}, Status: "active"},
			{RoomID: uuid.MustParse("9b2d1c6f-3a5b-4da4-8c1f-0d5a20e3d003"), ClinicID: SeedWestsideID, Name: "Room 3 — General Operatory", Type: "operatory",
				Capabilities: map[string]any{"type": "operatory", "xray": true, "microscope": false, "sedation_support": false},
				Equipment:    []string{"dental_chair", "xray_unit"}, Status: "active"},
			{RoomID: uuid.MustParse("9b2d1c6f-3a5b-4da4-8c1f-0d5a20e3d004"), ClinicID: SeedWestsideID, Name: "Room 4 — Surgical Suite", Type: "surgical",
				Capabilities: map[string]any{"type": "surgical", "xray": true, "microscope": false, "sedation_support": true, "surgical": true},
				Equipment:    []string{"surgical_chair", "xray_unit", "sedation_unit", "surgical_instruments"}, Status: "active"},
		},
		Doctors: []models.Doctor{
			{DoctorID: SeedDrPatelID, TenantID: SeedDowntownID, Name: "Dr. Priya Patel", NPI: "1111111111", Email: "patel@smartdental.com", Active: true},
			{DoctorID: SeedDrKhanID, TenantID: SeedDowntownID, Name: "Dr. Amir Khan", NPI: "2222222222", Email: "khan@smartdental.com", Active: true},
			{DoctorID: SeedDrRaoID, TenantID: SeedWestsideID, Name: "Dr. Sunita Rao", NPI: "3333333333", Email: "rao@smartdental.com", Active: true},
			{DoctorID: SeedDrShahID, TenantID: SeedWestsideID, Name: "Dr. Vikram Shah", NPI: "4444444444", Email: "shah@smartdental.com", Active: true},
		},
		Specializations: []models.Specialization{
			{SpecID: SeedSpecGeneralDentist, TenantID: SeedDowntownID, Name: "General Dentist"},
			{SpecID: SeedSpecEndodontist, TenantID: SeedDowntownID, Name: "Endodontist"},
			{SpecID: SeedSpecOralSurgeon, TenantID: SeedWestsideID, Name: "Oral Surgeon"},
		},
		DoctorSpecs: map[uuid.UUID][]int{
			SeedDrPatelID: {SeedSpecGeneralDentist},
			SeedDrKhanID:  {SeedSpecEndodontist, SeedSpecGeneralDentist},
			SeedDrRaoID:   {SeedSpecOralSurgeon},
			SeedDrShahID:  {SeedSpecGeneralDentist, SeedSpecOralSurgeon},
		},
		StaffMembers: []models.Staff{
			{StaffID: SeedAnesthetistID, TenantID: SeedWestsideID, Name: "Dr. Meera Gupta", Role: models.StaffRoleAnesthetist},
		},
		Procedures: []models.Procedure{
			{ProcID: 1, TenantID: SeedDowntownID, Name: "Emergency Triage", BaseDurationMinutes: 15, RequiredSpecID: SeedSpecGeneralDentist},
			{ProcID: 2, TenantID: SeedDowntownID, Name: "Root Canal Consult", BaseDurationMinutes: 20, RequiredSpecID: SeedSpecEndodontist,
				RequiredRoomCapability: map[string]any{"microscope": true}, AllowSameDayCombo: true},
			{ProcID: 3, TenantID: SeedDowntownID, Name: "Root Canal Treatment", BaseDurationMinutes: 90, ConsultDurationMinutes: 20, RequiredSpecID: SeedSpecEndodontist,
				RequiredRoomCapability: map[string]any{"microscope": true}, AllowSameDayCombo: true},
			{ProcID: 4, TenantID: SeedWestsideID, Name: "Oral Surgery Consult", BaseDurationMinutes: 15, RequiredSpecID: SeedSpecOralSurgeon,
				RequiredRoomCapability: map[string]any{"surgical": true}, AllowSameDayCombo: true},
			{ProcID: 5, TenantID: SeedWestsideID, Name: "Wisdom Tooth Extraction (Sedation)", BaseDurationMinutes: 75, ConsultDurationMinutes: 15, RequiredSpecID: SeedSpecOralSurgeon,
				RequiredRoomCapability: map[string]any{"surgical": true}, RequiresAnesthetist: true, AllowSameDayCombo: true},
			{ProcID: 6, TenantID: SeedDowntownID, Name: "General Checkup", BaseDurationMinutes: 30, RequiredSpecID: SeedSpecGeneralDentist},
			{ProcID: 7, TenantID: SeedDowntownID, Name: "Dental Filling", BaseDurationMinutes: 45, ConsultDurationMinutes: 15, RequiredSpecID: SeedSpecGeneralDentist, AllowSameDayCombo: true},
			{ProcID: 8, TenantID: SeedDowntownID, Name: "Dental Crown", BaseDurationMinutes: 60, ConsultDurationMinutes: 20, RequiredSpecID: SeedSpecGeneralDentist, AllowSameDayCombo: true},
		},
	}

	// Dr. Patel (GD) Mon–Fri Downtown; Dr. Khan (Endo) Mon/Wed/Fri
	// Downtown; Dr. Rao (OS) Tue/Thu Westside; Dr. Shah splits weeks
	// between the two sites; the anesthetist covers Westside Tue/Thu.
	data.Templates = append(data.Templates, fullDay(SeedDrPatelID, models.ResourceDoctor, SeedDowntownID, 0, 1, 2, 3, 4)...)
	data.Templates = append(data.Templates, fullDay(SeedDrKhanID, models.ResourceDoctor, SeedDowntownID, 0, 2, 4)...)
	data.Templates = append(data.Templates, fullDay(SeedDrRaoID, models.ResourceDoctor, SeedWestsideID, 1, 3)...)
	data.Templates = append(data.Templates, fullDay(SeedDrShahID, models.ResourceDoctor, SeedWestsideID, 0, 2)...)
	data.Templates = append(data.Templates, fullDay(SeedDrShahID, models.ResourceDoctor, SeedDowntownID, 1, 3)...)
	data.Templates = append(data.Templates, fullDay(SeedAnesthetistID, models.ResourceStaff, SeedWestsideID, 1, 3)...)

	for i := range data.Templates {
		data.Templates[i].TemplateID = i + 1
	}
	return data
}

// LoadSeed replaces the store contents with the dataset.
func (m *Memory) LoadSeed(data SeedData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clinics = data.Clinics
	m.Rooms = data.Rooms
	m.Doctors = data.Doctors
	m.Specializations = data.Specializations
	m.DoctorSpecs = data.DoctorSpecs
	m.StaffMembers = data.StaffMembers
	m.Procedures = data.Procedures
	m.Templates = data.Templates
	m.Slots = nil
	m.Appointments = nil
}

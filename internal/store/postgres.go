// Package store provides the persistence implementations behind the
// scheduling and triage read contracts: a pgx-backed Postgres store
// and a deterministic in-memory store for tests and demos.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/internal/schedule"
)

// ErrNotFound marks a lookup that matched no row.
var ErrNotFound = errors.New("store: not found")

// DB is the pgx surface the store needs; *pgxpool.Pool and pgxmock
// pools both satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres implements the scheduling, triage, booking, and dashboard
// read/write contracts over a relational database.
type Postgres struct {
	db DB
}

// NewPostgres creates a store backed by a pgx pool or transaction-like.
func NewPostgres(db DB) *Postgres {
	if db == nil {
		panic("store: db cannot be nil")
	}
	return &Postgres{db: db}
}

// DoctorsBySpecialization returns active doctors linked to a
// specialization, tenant-scoped unless tenantID is zero.
func (s *Postgres) DoctorsBySpecialization(ctx context.Context, tenantID uuid.UUID, specID int) ([]models.Doctor, error) {
	query := `
		SELECT d.doctor_id, d.tenant_id, d.name, COALESCE(d.npi, ''), COALESCE(d.email, ''), d.active
		FROM doctors d
		JOIN doctor_specializations ds ON ds.doctor_id = d.doctor_id
		WHERE ds.spec_id = $1 AND d.active = true
	`
	args := []any{specID}
	if tenantID != uuid.Nil {
		query += " AND d.tenant_id = $2"
		args = append(args, tenantID)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: doctor query failed: %w", err)
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		var d models.Doctor
		if err := rows.Scan(&d.DoctorID, &d.TenantID, &d.Name, &d.NPI, &d.Email, &d.Active); err != nil {
			return nil, fmt.Errorf("store: doctor scan failed: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

// ActiveRooms returns active rooms, tenant-scoped unless tenantID is zero.
func (s *Postgres) ActiveRooms(ctx context.Context, tenantID uuid.UUID) ([]models.Room, error) {
	query := `
		SELECT room_id, clinic_id, name, type, COALESCE(capabilities, '{}'::jsonb), status
		FROM rooms
		WHERE status = 'active'
	`
	args := []any{}
	if tenantID != uuid.Nil {
		query += " AND clinic_id = $1"
		args = append(args, tenantID)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: room query failed: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var r models.Room
		var caps []byte
		if err := rows.Scan(&r.RoomID, &r.ClinicID, &r.Name, &r.Type, &caps, &r.Status); err != nil {
			return nil, fmt.Errorf("store: room scan failed: %w", err)
		}
		if len(caps) > 0 {
			if err := json.Unmarshal(caps, &r.Capabilities); err != nil {
				return nil, fmt.Errorf("store: room capabilities decode failed: %w", err)
			}
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// AnesthetistForTenant returns any anesthetist of the tenant, or nil.
func (s *Postgres) AnesthetistForTenant(ctx context.Context, tenantID uuid.UUID) (*models.Staff, error) {
	query := `SELECT staff_id, tenant_id, COALESCE(name, ''), role FROM staff WHERE role = $1`
	args := []any{models.StaffRoleAnesthetist}
	if tenantID != uuid.Nil {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	query += " LIMIT 1"

	var st models.Staff
	err := s.db.QueryRow(ctx, query, args...).Scan(&st.StaffID, &st.TenantID, &st.Name, &st.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: anesthetist query failed: %w", err)
	}
	return &st, nil
}

// ResourceTemplates returns the weekly templates for a resource.
func (s *Postgres) ResourceTemplates(ctx context.Context, resourceID uuid.UUID, resourceType string) ([]models.AvailabilityTemplate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT template_id, resource_id, resource_type, clinic_id, day_of_week, start_time, end_time
		FROM availability_templates
		WHERE resource_id = $1 AND resource_type = $2
		ORDER BY day_of_week, start_time
	`, resourceID, resourceType)
	if err != nil {
		return nil, fmt.Errorf("store: template query failed: %w", err)
	}
	defer rows.Close()

	var templates []models.AvailabilityTemplate
	for rows.Next() {
		var t models.AvailabilityTemplate
		var start, end pgtype.Time
		if err := rows.Scan(&t.TemplateID, &t.ResourceID, &t.ResourceType, &t.ClinicID, &t.DayOfWeek, &start, &end); err != nil {
			return nil, fmt.Errorf("store: template scan failed: %w", err)
		}
		t.StartTime = timeOfDay(start)
		t.EndTime = timeOfDay(end)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// BookedBlocks returns the booked block indices for an entity on a date.
func (s *Postgres) BookedBlocks(ctx context.Context, entityType string, entityID uuid.UUID, date time.Time) ([]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT time_block FROM calendar_slots
		WHERE entity_type = $1 AND entity_id = $2 AND date = $3 AND booked = true
	`, entityType, entityID, models.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("store: booked blocks query failed: %w", err)
	}
	defer rows.Close()

	var blocks []int
	for rows.Next() {
		var b int
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("store: booked block scan failed: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// SpecializationByName returns the tenant's specialization, or nil.
func (s *Postgres) SpecializationByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Specialization, error) {
	query := `SELECT spec_id, tenant_id, name FROM specializations WHERE name = $1`
	args := []any{name}
	if tenantID != uuid.Nil {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	query += " LIMIT 1"

	var spec models.Specialization
	err := s.db.QueryRow(ctx, query, args...).Scan(&spec.SpecID, &spec.TenantID, &spec.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: specialization query failed: %w", err)
	}
	return &spec, nil
}

// SpecializationByID resolves a specialization by primary key, or nil.
func (s *Postgres) SpecializationByID(ctx context.Context, specID int) (*models.Specialization, error) {
	var spec models.Specialization
	err := s.db.QueryRow(ctx,
		`SELECT spec_id, tenant_id, name FROM specializations WHERE spec_id = $1`, specID,
	).Scan(&spec.SpecID, &spec.TenantID, &spec.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: specialization query failed: %w", err)
	}
	return &spec, nil
}

// ProcedureBySpecialization returns any procedure requiring the
// specialization, tenant-scoped unless tenantID is zero.
func (s *Postgres) ProcedureBySpecialization(ctx context.Context, tenantID uuid.UUID, specID int) (*models.Procedure, error) {
	query := procedureSelect + ` WHERE required_spec_id = $1`
	args := []any{specID}
	if tenantID != uuid.Nil {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	query += " LIMIT 1"
	return s.scanProcedure(s.db.QueryRow(ctx, query, args...))
}

// ProcedureByName returns the named procedure, tenant-scoped unless
// tenantID is zero.
func (s *Postgres) ProcedureByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Procedure, error) {
	query := procedureSelect + ` WHERE name = $1`
	args := []any{name}
	if tenantID != uuid.Nil {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	query += " LIMIT 1"
	return s.scanProcedure(s.db.QueryRow(ctx, query, args...))
}

// ProcedureByNameAnyTenant returns the first procedure with that name
// across all tenants.
func (s *Postgres) ProcedureByNameAnyTenant(ctx context.Context, name string) (*models.Procedure, error) {
	return s.scanProcedure(s.db.QueryRow(ctx, procedureSelect+` WHERE name = $1 ORDER BY proc_id LIMIT 1`, name))
}

// ProcedureByID returns the procedure by primary key, tenant-scoped
// unless tenantID is zero.
func (s *Postgres) ProcedureByID(ctx context.Context, tenantID uuid.UUID, procID int) (*models.Procedure, error) {
	query := procedureSelect + ` WHERE proc_id = $1`
	args := []any{procID}
	if tenantID != uuid.Nil {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	return s.scanProcedure(s.db.QueryRow(ctx, query, args...))
}

// ProceduresForTenant lists the tenant's procedure catalog.
func (s *Postgres) ProceduresForTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Procedure, error) {
	query := procedureSelect
	args := []any{}
	if tenantID != uuid.Nil {
		query += " WHERE tenant_id = $1"
		args = append(args, tenantID)
	}
	query += " ORDER BY proc_id"
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: procedure list failed: %w", err)
	}
	defer rows.Close()

	var procs []models.Procedure
	for rows.Next() {
		proc, err := scanProcedureRow(rows)
		if err != nil {
			return nil, err
		}
		procs = append(procs, *proc)
	}
	return procs, rows.Err()
}

const procedureSelect = `
	SELECT proc_id, tenant_id, name, base_duration_minutes, consult_duration_minutes,
	       required_spec_id, required_room_capability, requires_anesthetist, allow_same_day_combo
	FROM procedures`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) scanProcedure(row rowScanner) (*models.Procedure, error) {
	proc, err := scanProcedureRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return proc, err
}

func scanProcedureRow(row rowScanner) (*models.Procedure, error) {
	var proc models.Procedure
	var caps []byte
	if err := row.Scan(
		&proc.ProcID,
		&proc.TenantID,
		&proc.Name,
		&proc.BaseDurationMinutes,
		&proc.ConsultDurationMinutes,
		&proc.RequiredSpecID,
		&caps,
		&proc.RequiresAnesthetist,
		&proc.AllowSameDayCombo,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: procedure scan failed: %w", err)
	}
	if len(caps) > 0 {
		if err := json.Unmarshal(caps, &proc.RequiredRoomCapability); err != nil {
			return nil, fmt.Errorf("store: procedure capability decode failed: %w", err)
		}
	}
	return &proc, nil
}

// PatientByID returns the patient, tenant-scoped unless tenantID is zero.
func (s *Postgres) PatientByID(ctx context.Context, tenantID uuid.UUID, patientID uuid.UUID) (*models.Patient, error) {
	query := `SELECT patient_id, tenant_id, name, COALESCE(phone, ''), COALESCE(email, ''), created_at FROM patients WHERE patient_id = $1`
	args := []any{patientID}
	if tenantID != uuid.Nil {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	var p models.Patient
	err := s.db.QueryRow(ctx, query, args...).Scan(&p.PatientID, &p.TenantID, &p.Name, &p.Phone, &p.Email, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: patient query failed: %w", err)
	}
	return &p, nil
}

func timeOfDay(t pgtype.Time) models.TimeOfDay {
	totalMinutes := int(t.Microseconds / 60_000_000)
	return models.TimeOfDay{Hour: totalMinutes / 60, Minute: totalMinutes % 60}
}

var _ schedule.Store = (*Postgres)(nil)

// Command seed populates the database with the reference dataset:
// clinics, rooms, doctors, specializations, staff, procedures, and
// weekly availability templates. Idempotent — an already-seeded
// database is left untouched.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/internal/store"
)

func pgTime(t models.TimeOfDay) pgtype.Time {
	return pgtype.Time{
		Microseconds: (int64(t.Hour)*3600 + int64(t.Minute)*60) * 1_000_000,
		Valid:        true,
	}
}

func main() {
	_ = godotenv.Load()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM clinics`).Scan(&existing); err != nil {
		log.Fatalf("check clinics: %v", err)
	}
	if existing > 0 {
		log.Println("data already seeded — skipping")
		return
	}

	data := store.DemoSeed()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range data.Clinics {
		if _, err := tx.Exec(ctx,
			`INSERT INTO clinics (clinic_id, name, address, location, timezone, onboarding_complete) VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ClinicID, c.Name, c.Address, c.Location, c.Timezone, c.OnboardingComplete); err != nil {
			log.Fatalf("insert clinic: %v", err)
		}
	}
	for _, r := range data.Rooms {
		if _, err := tx.Exec(ctx,
			`INSERT INTO rooms (room_id, clinic_id, name, type, capabilities, equipment, status) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.RoomID, r.ClinicID, r.Name, r.Type, r.Capabilities, r.Equipment, r.Status); err != nil {
			log.Fatalf("insert room: %v", err)
		}
	}
	for _, s := range data.Specializations {
		if _, err := tx.Exec(ctx,
			`INSERT INTO specializations (spec_id, tenant_id, name) VALUES ($1, $2, $3)`,
			s.SpecID, s.TenantID, s.Name); err != nil {
			log.Fatalf("insert specialization: %v", err)
		}
	}
	for _, d := range data.Doctors {
		if _, err := tx.Exec(ctx,
			`INSERT INTO doctors (doctor_id, tenant_id, name, npi, email, active) VALUES ($1, $2, $3, $4, $5, $6)`,
			d.DoctorID, d.TenantID, d.Name, d.NPI, d.Email, d.Active); err != nil {
			log.Fatalf("insert doctor: %v", err)
		}
	}
	for doctorID, specs := range data.DoctorSpecs {
		for _, specID := range specs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO doctor_specializations (doctor_id, spec_id) VALUES ($1, $2)`,
				doctorID, specID); err != nil {
				log.Fatalf("insert doctor specialization: %v", err)
			}
		}
	}
	for _, st := range data.StaffMembers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO staff (staff_id, tenant_id, name, role) VALUES ($1, $2, $3, $4)`,
			st.StaffID, st.TenantID, st.Name, st.Role); err != nil {
			log.Fatalf("insert staff: %v", err)
		}
	}
	for _, p := range data.Procedures {
		if _, err := tx.Exec(ctx,
			`INSERT INTO procedures (proc_id, tenant_id, name, base_duration_minutes, consult_duration_minutes, required_spec_id, required_room_capability, requires_anesthetist, allow_same_day_combo)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ProcID, p.TenantID, p.Name, p.BaseDurationMinutes, p.ConsultDurationMinutes,
			p.RequiredSpecID, p.RequiredRoomCapability, p.RequiresAnesthetist, p.AllowSameDayCombo); err != nil {
			log.Fatalf("insert procedure: %v", err)
		}
	}
	for _, t := range data.Templates {
		if _, err := tx.Exec(ctx,
			`INSERT INTO availability_templates (resource_id, resource_type, clinic_id, day_of_week, start_time, end_time)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			t.ResourceID, t.ResourceType, t.ClinicID, t.DayOfWeek,
			pgTime(t.StartTime), pgTime(t.EndTime)); err != nil {
			log.Fatalf("insert template: %v", err)
		}
	}

	// Serial columns were filled explicitly; advance their sequences.
	if _, err := tx.Exec(ctx, `SELECT setval(pg_get_serial_sequence('specializations', 'spec_id'), (SELECT max(spec_id) FROM specializations))`); err != nil {
		log.Fatalf("advance spec sequence: %v", err)
	}
	if _, err := tx.Exec(ctx, `SELECT setval(pg_get_serial_sequence('procedures', 'proc_id'), (SELECT max(proc_id) FROM procedures))`); err != nil {
		log.Fatalf("advance proc sequence: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit: %v", err)
	}
	log.Println("seed data inserted")
}

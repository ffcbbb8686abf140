package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/internal/schedule"
)

// Book executes the two-phase slot lock in one transaction:
//
//  1. SELECT ... FOR UPDATE over the candidate calendar rows; any row
//     already booked in the range fails the whole attempt.
//  2. Insert the appointment.
//  3. Upsert one calendar row per entity per block. The upsert only
//     lands on unbooked rows, so a row inserted by a concurrent
//     transaction after our range scan still rejects the booking via
//     the (entity_type, entity_id, date, time_block) unique constraint.
//
// Any conflict surfaces as schedule.ErrSlotUnavailable and rolls the
// transaction back.
func (s *Postgres) Book(ctx context.Context, rec schedule.BookingRecord) (*models.Appointment, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: begin booking tx failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	date := models.DateOnly(rec.Date)
	endBlock := rec.StartBlock + rec.NumBlocks

	for _, entity := range rec.Entities() {
		rows, err := tx.Query(ctx, `
			SELECT time_block, booked FROM calendar_slots
			WHERE entity_type = $1 AND entity_id = $2 AND date = $3
			  AND time_block >= $4 AND time_block < $5
			FOR UPDATE
		`, entity.Type, entity.ID, date, rec.StartBlock, endBlock)
		if err != nil {
			return nil, fmt.Errorf("store: slot lock query failed: %w", err)
		}
		conflict := false
		for rows.Next() {
			var block int
			var booked bool
			if err := rows.Scan(&block, &booked); err != nil {
				rows.Close()
				return nil, fmt.Errorf("store: slot lock scan failed: %w", err)
			}
			if booked {
				conflict = true
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("store: slot lock rows failed: %w", err)
		}
		if conflict {
			return nil, schedule.ErrSlotUnavailable
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
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(appt_id, patient_id, doctor_id, room_id, staff_id, clinic_id, proc_id, procedure_type, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`, appt.ApptID, appt.PatientID, appt.DoctorID, appt.RoomID, appt.StaffID, appt.ClinicID,
		appt.ProcID, appt.ProcedureType, appt.StartTime, appt.EndTime, appt.Status,
	).Scan(&appt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: appointment insert failed: %w", err)
	}

	var tenantID *uuid.UUID
	if rec.TenantID != uuid.Nil {
		tenantID = &rec.TenantID
	}

	for _, entity := range rec.Entities() {
		for block := rec.StartBlock; block < endBlock; block++ {
			tag, err := tx.Exec(ctx, `
				INSERT INTO calendar_slots (tenant_id, entity_type, entity_id, date, time_block, booked, appt_id)
				VALUES ($1, $2, $3, $4, $5, true, $6)
				ON CONFLICT (entity_type, entity_id, date, time_block)
				DO UPDATE SET booked = true, appt_id = EXCLUDED.appt_id, tenant_id = EXCLUDED.tenant_id
				WHERE calendar_slots.booked = false
			`, tenantID, entity.Type, entity.ID, date, block, appt.ApptID)
			if err != nil {
				if isUniqueViolation(err) {
					return nil, schedule.ErrSlotUnavailable
				}
				return nil, fmt.Errorf("store: slot upsert failed: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return nil, schedule.ErrSlotUnavailable
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("store: booking commit failed: %w", err)
	}
	return &appt, nil
}

// CancelAppointment marks the appointment cancelled and releases its
// calendar blocks in one transaction.
func (s *Postgres) CancelAppointment(ctx context.Context, apptID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin cancel tx failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE appointments SET status = $1 WHERE appt_id = $2 AND status = $3`,
		models.ApptCancelled, apptID, models.ApptScheduled)
	if err != nil {
		return fmt.Errorf("store: cancel update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`UPDATE calendar_slots SET booked = false, appt_id = NULL WHERE appt_id = $1`, apptID); err != nil {
		return fmt.Errorf("store: slot release failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: cancel commit failed: %w", err)
	}
	return nil
}

// AppointmentsForPatient lists appointments, newest first.
func (s *Postgres) AppointmentsForPatient(ctx context.Context, tenantID uuid.UUID, patientID uuid.UUID) ([]models.Appointment, error) {
	query := `
		SELECT appt_id, patient_id, doctor_id, room_id, staff_id, clinic_id, proc_id,
		       COALESCE(procedure_type, ''), start_time, end_time, status, created_at
		FROM appointments
		WHERE patient_id = $1
	`
	args := []any{patientID}
	if tenantID != uuid.Nil {
		query += " AND clinic_id = $2"
		args = append(args, tenantID)
	}
	query += " ORDER BY start_time DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: appointment list failed: %w", err)
	}
	defer rows.Close()

	var appts []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ApptID, &a.PatientID, &a.DoctorID, &a.RoomID, &a.StaffID, &a.ClinicID,
			&a.ProcID, &a.ProcedureType, &a.StartTime, &a.EndTime, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: appointment scan failed: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

var _ schedule.BookingStore = (*Postgres)(nil)

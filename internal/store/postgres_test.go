package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bronn-dev/smartdental/internal/schedule"
)

func TestPostgresDoctorsBySpecializationScoped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgres(mock)

	mock.ExpectQuery(`SELECT d\.doctor_id, d\.tenant_id`).
		WithArgs(SeedSpecEndodontist, SeedDowntownID).
		WillReturnRows(pgxmock.NewRows([]string{"doctor_id", "tenant_id", "name", "npi", "email", "active"}).
			AddRow(SeedDrKhanID, SeedDowntownID, "Dr. Amir Khan", "2222222222", "khan@smartdental.com", true))

	doctors, err := s.DoctorsBySpecialization(context.Background(), SeedDowntownID, SeedSpecEndodontist)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. Amir Khan", doctors[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProcedureByNameMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgres(mock)

	mock.ExpectQuery(`SELECT proc_id, tenant_id, name`).
		WithArgs("Root Canal Treatment", SeedWestsideID).
		WillReturnRows(pgxmock.NewRows([]string{"proc_id", "tenant_id", "name", "base_duration_minutes",
			"consult_duration_minutes", "required_spec_id", "required_room_capability", "requires_anesthetist", "allow_same_day_combo"}))

	proc, err := s.ProcedureByName(context.Background(), SeedWestsideID, "Root Canal Treatment")
	require.NoError(t, err)
	assert.Nil(t, proc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookConflictRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgres(mock)
	rec := bookingRecordAt(4)

	mock.ExpectBegin()
	// The doctor's range scan surfaces a booked block: the whole
	// attempt fails before any write happens.
	mock.ExpectQuery(`SELECT time_block, booked FROM calendar_slots`).
		WithArgs("doctor", rec.DoctorID, rec.Date, 4, 10).
		WillReturnRows(pgxmock.NewRows([]string{"time_block", "booked"}).AddRow(6, true))
	mock.ExpectRollback()

	_, err = s.Book(context.Background(), rec)
	assert.ErrorIs(t, err, schedule.ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookHappyPath(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgres(mock)
	rec := bookingRecordAt(4)
	rec.NumBlocks = 2

	mock.ExpectBegin()
	for _, entityID := range []any{rec.DoctorID, rec.RoomID} {
		mock.ExpectQuery(`SELECT time_block, booked FROM calendar_slots`).
			WithArgs(pgxmock.AnyArg(), entityID, rec.Date, 4, 6).
			WillReturnRows(pgxmock.NewRows([]string{"time_block", "booked"}))
	}
	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), rec.PatientID, rec.DoctorID, rec.RoomID, rec.StaffID, rec.ClinicID,
			rec.ProcID, rec.Procedure, rec.StartTime, rec.EndTime, "SCHEDULED").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	for range 4 { // 2 entities × 2 blocks
		mock.ExpectExec(`INSERT INTO calendar_slots`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	appt, err := s.Book(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "SCHEDULED", appt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCancelMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgres(mock)
	apptID := testPatientID // any uuid works

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE appointments SET status`).
		WithArgs("CANCELLED", apptID, "SCHEDULED").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, s.CancelAppointment(context.Background(), apptID), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

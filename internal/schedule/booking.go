package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

var bookingTracer = otel.Tracer("smartdental.internal.schedule.booking")

// BookingService turns a confirmed slot option into an appointment via
// the two-phase slot lock. Conflict detection lives in the store
// transaction; this layer owns grid math and record construction.
type BookingService struct {
	store  BookingStore
	logger *logging.Logger
}

// NewBookingService constructs the booking service.
func NewBookingService(store BookingStore, logger *logging.Logger) *BookingService {
	if store == nil {
		panic("schedule: booking store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingService{store: store, logger: logger}
}

// Book locks every calendar block the slot covers for the doctor, the
// room, and the staff member if one participates, then creates the
// appointment. Returns ErrSlotUnavailable when any block is already
// taken; the store rolls the whole attempt back in that case.
func (s *BookingService) Book(ctx context.Context, tenantID uuid.UUID, slot SlotOption, patientID uuid.UUID, procID *int) (*models.Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "schedule.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("smartdental.tenant_id", tenantID.String()),
		attribute.String("smartdental.patient_id", patientID.String()),
		attribute.String("smartdental.slot_date", slot.Date),
		attribute.String("smartdental.slot_time", slot.Time),
	)

	rec, err := buildBookingRecord(tenantID, slot, patientID, procID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	appt, err := s.store.Book(ctx, rec)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appt_id", appt.ApptID,
		"tenant_id", tenantID,
		"doctor_id", slot.DoctorID,
		"date", slot.Date,
		"time", slot.Time,
		"blocks", rec.NumBlocks,
	)
	return appt, nil
}

// Cancel marks the appointment cancelled and releases its calendar blocks.
func (s *BookingService) Cancel(ctx context.Context, apptID uuid.UUID) error {
	ctx, span := bookingTracer.Start(ctx, "schedule.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("smartdental.appt_id", apptID.String()))

	if err := s.store.CancelAppointment(ctx, apptID); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("appointment cancelled", "appt_id", apptID)
	return nil
}

func buildBookingRecord(tenantID uuid.UUID, slot SlotOption, patientID uuid.UUID, procID *int) (BookingRecord, error) {
	date, err := time.ParseInLocation("2006-01-02", slot.Date, time.UTC)
	if err != nil {
		return BookingRecord{}, fmt.Errorf("schedule: invalid slot date %q: %w", slot.Date, err)
	}
	start, err := parseClock(date, slot.Time)
	if err != nil {
		return BookingRecord{}, fmt.Errorf("schedule: invalid slot time %q: %w", slot.Time, err)
	}
	var end time.Time
	if slot.EndTime != "" {
		end, err = parseClock(date, slot.EndTime)
		if err != nil {
			return BookingRecord{}, fmt.Errorf("schedule: invalid slot end time %q: %w", slot.EndTime, err)
		}
	} else {
		end = start.Add(time.Duration(slot.DurationMinutes) * time.Minute)
	}

	doctorID, err := uuid.Parse(slot.DoctorID)
	if err != nil {
		return BookingRecord{}, fmt.Errorf("schedule: invalid doctor id: %w", err)
	}
	roomID, err := uuid.Parse(slot.RoomID)
	if err != nil {
		return BookingRecord{}, fmt.Errorf("schedule: invalid room id: %w", err)
	}

	var staffID *uuid.UUID
	if slot.StaffID != nil && *slot.StaffID != "" {
		id, err := uuid.Parse(*slot.StaffID)
		if err != nil {
			return BookingRecord{}, fmt.Errorf("schedule: invalid staff id: %w", err)
		}
		staffID = &id
	}

	clinicID := tenantID
	if clinicID == uuid.Nil {
		clinicID, err = uuid.Parse(slot.ClinicID)
		if err != nil {
			return BookingRecord{}, fmt.Errorf("schedule: invalid clinic id: %w", err)
		}
	}

	return BookingRecord{
		TenantID:   tenantID,
		PatientID:  patientID,
		DoctorID:   doctorID,
		RoomID:     roomID,
		StaffID:    staffID,
		ClinicID:   clinicID,
		ProcID:     procID,
		Procedure:  slot.Procedure,
		Date:       date,
		StartBlock: slot.TimeBlock,
		NumBlocks:  BlocksNeeded(slot.DurationMinutes),
		StartTime:  start,
		EndTime:    end,
	}, nil
}

func parseClock(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

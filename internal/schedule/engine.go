package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// Engine is the grid constraint solver. It intersects doctor, room,
// and anesthetist availability over the lookahead horizon and emits
// unranked slot options; ranking belongs to the optimizer.
type Engine struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
}

// EngineOption configures the solver.
type EngineOption func(*Engine)

// WithClock overrides the time source; tests pin the search horizon.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs the solver.
func NewEngine(store Store, logger *logging.Logger, opts ...EngineOption) *Engine {
	if store == nil {
		panic("schedule: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindSlots searches the lookahead horizon for openings that satisfy
// every constraint of the procedure: a qualified active doctor, a room
// with the required capabilities at the doctor's clinic that day, and a
// same-tenant anesthetist when sedation is in play. It returns an empty
// slice — never an error — when no candidate resources exist.
func (e *Engine) FindSlots(ctx context.Context, proc models.Procedure, needsSedation bool, tenantID uuid.UUID) ([]SlotOption, error) {
	treatmentBlocks := BlocksNeeded(proc.BaseDurationMinutes)
	consultBlocks := 0
	if proc.ConsultDurationMinutes > 0 {
		consultBlocks = BlocksNeeded(proc.ConsultDurationMinutes)
	}
	comboBlocks := treatmentBlocks
	if consultBlocks > 0 {
		comboBlocks = consultBlocks + BufferSlots + treatmentBlocks
	}
	singleBlocks := treatmentBlocks
	if consultBlocks > 0 {
		singleBlocks = consultBlocks
	}

	doctors, err := e.store.DoctorsBySpecialization(ctx, tenantID, proc.RequiredSpecID)
	if err != nil {
		return nil, fmt.Errorf("schedule: doctor lookup failed: %w", err)
	}

	rooms, err := e.store.ActiveRooms(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("schedule: room lookup failed: %w", err)
	}
	candidateRooms := rooms[:0:0]
	for _, r := range rooms {
		if r.HasCapabilities(proc.RequiredRoomCapability) {
			candidateRooms = append(candidateRooms, r)
		}
	}

	var anesthetist *models.Staff
	if needsSedation || proc.RequiresAnesthetist {
		anesthetist, err = e.store.AnesthetistForTenant(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("schedule: anesthetist lookup failed: %w", err)
		}
		if anesthetist == nil {
			// Sedation without an anesthetist is a deterministic empty result.
			return nil, nil
		}
	}

	docTemplates := make(map[uuid.UUID][]models.AvailabilityTemplate, len(doctors))
	for _, doc := range doctors {
		tmpls, err := e.store.ResourceTemplates(ctx, doc.DoctorID, models.ResourceDoctor)
		if err != nil {
			return nil, fmt.Errorf("schedule: doctor templates failed: %w", err)
		}
		docTemplates[doc.DoctorID] = tmpls
	}

	var anesthTemplates []models.AvailabilityTemplate
	if anesthetist != nil {
		anesthTemplates, err = e.store.ResourceTemplates(ctx, anesthetist.StaffID, models.ResourceStaff)
		if err != nil {
			return nil, fmt.Errorf("schedule: anesthetist templates failed: %w", err)
		}
	}

	var results []SlotOption
	today := models.DateOnly(e.now())

	for dayOffset := 1; dayOffset <= ScheduleLookaheadDays; dayOffset++ {
		target := today.AddDate(0, 0, dayOffset)
		dow := models.Weekday(target)
		if dow >= 5 {
			continue
		}

		for _, doc := range doctors {
			templates := docTemplates[doc.DoctorID]
			if len(templates) == 0 {
				continue
			}

			clinics := clinicsForDay(templates, dow)
			for _, clinicID := range clinics {
				localRooms := roomsAtClinic(candidateRooms, clinicID)
				if len(localRooms) == 0 {
					continue
				}

				clinicTemplates := templatesAtClinic(templates, clinicID)
				docMask, err := e.entityMask(ctx, models.EntityDoctor, doc.DoctorID, target, clinicTemplates)
				if err != nil {
					return nil, err
				}

				for _, room := range localRooms {
					roomBooked, err := e.store.BookedBlocks(ctx, models.EntityRoom, room.RoomID, target)
					if err != nil {
						return nil, fmt.Errorf("schedule: room bookings failed: %w", err)
					}
					combined := docMask.And(ApplyBooked(FullDay, roomBooked))

					if anesthetist != nil {
						anesthLocal := templatesAtClinic(anesthTemplates, clinicID)
						if len(anesthLocal) == 0 {
							continue
						}
						anesthMask, err := e.entityMask(ctx, models.EntityStaff, anesthetist.StaffID, target, anesthLocal)
						if err != nil {
							return nil, err
						}
						combined = combined.And(anesthMask)
					}

					dateStr := target.Format("2006-01-02")

					if proc.AllowSameDayCombo && consultBlocks > 0 {
						for _, start := range combined.FindContiguous(comboBlocks) {
							consultEnd := start + consultBlocks
							treatStart := consultEnd + BufferSlots
							opt := e.newSlotOption(SlotCombo, dateStr, start, comboBlocks, doc, room, clinicID, anesthetist, proc.Name, 100)
							ce := BlockToTime(consultEnd)
							ts := BlockToTime(treatStart)
							opt.ConsultEndTime = &ce
							opt.TreatmentStartTime = &ts
							results = append(results, opt)
						}
					}

					slotType := SlotSingle
					if consultBlocks > 0 {
						slotType = SlotConsultOnly
					}
					for _, start := range combined.FindContiguous(singleBlocks) {
						results = append(results, e.newSlotOption(slotType, dateStr, start, singleBlocks, doc, room, clinicID, anesthetist, proc.Name, 50))
					}
				}
			}
		}
	}

	e.logger.Debug("slot search complete",
		"procedure", proc.Name,
		"tenant_id", tenantID,
		"doctors", len(doctors),
		"rooms", len(candidateRooms),
		"found", len(results),
	)
	return results, nil
}

func (e *Engine) entityMask(ctx context.Context, entityType string, entityID uuid.UUID, date time.Time, templates []models.AvailabilityTemplate) (Mask, error) {
	mask := TemplateMask(templates, models.Weekday(date))
	booked, err := e.store.BookedBlocks(ctx, entityType, entityID, date)
	if err != nil {
		return 0, fmt.Errorf("schedule: %s bookings failed: %w", entityType, err)
	}
	return ApplyBooked(mask, booked), nil
}

func (e *Engine) newSlotOption(slotType, date string, start, blocks int, doc models.Doctor, room models.Room, clinicID uuid.UUID, anesthetist *models.Staff, procName string, score float64) SlotOption {
	opt := SlotOption{
		Type:            slotType,
		Date:            date,
		Time:            BlockToTime(start),
		EndTime:         BlockToTime(start + blocks),
		TimeBlock:       start,
		DurationMinutes: blocks * SlotMinutes,
		DoctorID:        doc.DoctorID.String(),
		DoctorName:      doc.Name,
		RoomID:          room.RoomID.String(),
		RoomName:        room.Name,
		ClinicID:        clinicID.String(),
		Procedure:       procName,
		Score:           score,
	}
	if anesthetist != nil {
		id := anesthetist.StaffID.String()
		name := anesthetist.Name
		opt.StaffID = &id
		opt.StaffName = &name
	}
	return opt
}

// clinicsForDay collects the distinct clinics a resource works at on
// the given weekday, in template order.
func clinicsForDay(templates []models.AvailabilityTemplate, dayOfWeek int) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var clinics []uuid.UUID
	for _, t := range templates {
		if t.DayOfWeek != dayOfWeek {
			continue
		}
		if _, ok := seen[t.ClinicID]; ok {
			continue
		}
		seen[t.ClinicID] = struct{}{}
		clinics = append(clinics, t.ClinicID)
	}
	return clinics
}

func roomsAtClinic(rooms []models.Room, clinicID uuid.UUID) []models.Room {
	var local []models.Room
	for _, r := range rooms {
		if r.ClinicID == clinicID {
			local = append(local, r)
		}
	}
	return local
}

func templatesAtClinic(templates []models.AvailabilityTemplate, clinicID uuid.UUID) []models.AvailabilityTemplate {
	var local []models.AvailabilityTemplate
	for _, t := range templates {
		if t.ClinicID == clinicID {
			local = append(local, t)
		}
	}
	return local
}

package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/models"
)

const emergencySearchDays = 4 // today + next 3 days

// FindEmergencySlot returns the absolute earliest free 15-minute block
// with any active General Dentist and any active room of the tenant,
// bypassing combo logic and preferences. Weekends are searched — red
// flags do not wait for Monday. When searching today, blocks up to and
// including the current one are skipped. Returns nil when nothing is
// free within the window.
func (e *Engine) FindEmergencySlot(ctx context.Context, tenantID uuid.UUID) (*SlotOption, error) {
	spec, err := e.store.SpecializationByName(ctx, tenantID, generalDentistSpecName)
	if err != nil {
		return nil, fmt.Errorf("schedule: emergency spec lookup failed: %w", err)
	}
	if spec == nil {
		return nil, nil
	}

	doctors, err := e.store.DoctorsBySpecialization(ctx, tenantID, spec.SpecID)
	if err != nil {
		return nil, fmt.Errorf("schedule: emergency doctor lookup failed: %w", err)
	}
	if len(doctors) == 0 {
		return nil, nil
	}

	rooms, err := e.store.ActiveRooms(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("schedule: emergency room lookup failed: %w", err)
	}

	now := e.now().UTC()
	today := models.DateOnly(now)

	for dayOffset := 0; dayOffset < emergencySearchDays; dayOffset++ {
		target := today.AddDate(0, 0, dayOffset)
		dow := models.Weekday(target)

		for _, doc := range doctors {
			templates, err := e.store.ResourceTemplates(ctx, doc.DoctorID, models.ResourceDoctor)
			if err != nil {
				return nil, fmt.Errorf("schedule: emergency templates failed: %w", err)
			}

			for _, tmpl := range templates {
				if tmpl.DayOfWeek != dow {
					continue
				}

				room := firstRoomAtClinic(rooms, tmpl.ClinicID)
				if room == nil {
					continue
				}

				startBlock := max(0, (tmpl.StartTime.Hour-DayStartHour)*blocksPerHour)
				endBlock := min(SlotsPerDay, (tmpl.EndTime.Hour-DayStartHour)*blocksPerHour)
				if dayOffset == 0 {
					currentBlock := max(0, (now.Hour()-DayStartHour)*blocksPerHour+now.Minute()/SlotMinutes)
					startBlock = max(startBlock, currentBlock+1)
				}

				docBooked, err := e.store.BookedBlocks(ctx, models.EntityDoctor, doc.DoctorID, target)
				if err != nil {
					return nil, fmt.Errorf("schedule: emergency doctor bookings failed: %w", err)
				}
				roomBooked, err := e.store.BookedBlocks(ctx, models.EntityRoom, room.RoomID, target)
				if err != nil {
					return nil, fmt.Errorf("schedule: emergency room bookings failed: %w", err)
				}
				busy := make(map[int]struct{}, len(docBooked)+len(roomBooked))
				for _, b := range docBooked {
					busy[b] = struct{}{}
				}
				for _, b := range roomBooked {
					busy[b] = struct{}{}
				}

				for block := startBlock; block < endBlock; block++ {
					if _, taken := busy[block]; taken {
						continue
					}
					opt := SlotOption{
						Type:            SlotEmergency,
						Date:            target.Format("2006-01-02"),
						Time:            BlockToTime(block),
						EndTime:         BlockToTime(block + 1),
						TimeBlock:       block,
						DurationMinutes: SlotMinutes,
						DoctorID:        doc.DoctorID.String(),
						DoctorName:      doc.Name,
						RoomID:          room.RoomID.String(),
						RoomName:        room.Name,
						ClinicID:        tmpl.ClinicID.String(),
						Procedure:       "Emergency Triage",
						Score:           1000,
					}
					e.logger.Info("emergency slot located",
						"tenant_id", tenantID,
						"date", opt.Date,
						"time", opt.Time,
						"doctor", doc.Name,
					)
					return &opt, nil
				}
			}
		}
	}

	return nil, nil
}

func firstRoomAtClinic(rooms []models.Room, clinicID uuid.UUID) *models.Room {
	for i := range rooms {
		if rooms[i].ClinicID == clinicID {
			return &rooms[i]
		}
	}
	return nil
}

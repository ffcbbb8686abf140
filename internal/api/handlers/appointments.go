package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/observability/metrics"
	"github.com/bronn-dev/smartdental/internal/schedule"
	"github.com/bronn-dev/smartdental/internal/store"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// AppointmentsHandler exposes booking, cancellation, and listing.
type AppointmentsHandler struct {
	booking *schedule.BookingService
	store   CatalogStore
	logger  *logging.Logger
	metrics *metrics.PipelineMetrics
}

// NewAppointmentsHandler constructs the handler. Metrics may be nil.
func NewAppointmentsHandler(booking *schedule.BookingService, catalog CatalogStore, logger *logging.Logger, m *metrics.PipelineMetrics) *AppointmentsHandler {
	if booking == nil {
		panic("handlers: booking service cannot be nil")
	}
	if catalog == nil {
		panic("handlers: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{booking: booking, store: catalog, logger: logger, metrics: m}
}

type bookingRequest struct {
	PatientID   string              `json:"patient_id"`
	ProcedureID *int                `json:"procedure_id,omitempty"`
	Slot        schedule.SlotOption `json:"slot"`
}

// Book confirms a slot for a patient.
func (h *AppointmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	patient, err := h.store.PatientByID(r.Context(), tenantID, patientID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "patient not found")
		return
	}
	if err != nil {
		h.logger.Error("patient lookup failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "patient lookup unavailable")
		return
	}

	appt, err := h.booking.Book(r.Context(), tenantID, req.Slot, patientID, req.ProcedureID)
	if errors.Is(err, schedule.ErrSlotUnavailable) {
		h.metrics.ObserveBooking("conflict")
		writeError(w, http.StatusConflict, "time slot already booked")
		return
	}
	if err != nil {
		h.metrics.ObserveBooking("error")
		h.logger.Error("booking failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "booking unavailable")
		return
	}
	h.metrics.ObserveBooking("confirmed")

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"appointment": map[string]any{
			"appt_id":    appt.ApptID.String(),
			"start_time": appt.StartTime,
			"end_time":   appt.EndTime,
			"doctor":     req.Slot.DoctorName,
			"room":       req.Slot.RoomName,
			"status":     appt.Status,
		},
		"message": fmt.Sprintf("Appointment confirmed for %s!", patient.Name),
	})
}

// Cancel marks an appointment cancelled and frees its blocks.
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	apptID, err := uuid.Parse(chi.URLParam(r, "apptID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	if err := h.booking.Cancel(r.Context(), apptID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("cancellation failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "cancellation unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ListForPatient returns a patient's appointments, newest first.
func (h *AppointmentsHandler) ListForPatient(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	appts, err := h.store.AppointmentsForPatient(r.Context(), tenantID, patientID)
	if err != nil {
		h.logger.Error("appointment list failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "appointment list unavailable")
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

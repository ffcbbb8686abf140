package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/schedule"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// SlotsHandler exposes constraint-solved slot search and the tenant's
// procedure catalog.
type SlotsHandler struct {
	engine *schedule.Engine
	store  CatalogStore
	logger *logging.Logger
}

// NewSlotsHandler constructs the handler.
func NewSlotsHandler(engine *schedule.Engine, store CatalogStore, logger *logging.Logger) *SlotsHandler {
	if engine == nil {
		panic("handlers: engine cannot be nil")
	}
	if store == nil {
		panic("handlers: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SlotsHandler{engine: engine, store: store, logger: logger}
}

type slotSearchRequest struct {
	ProcedureID       int    `json:"procedure_id"`
	NeedsSedation     bool   `json:"needs_sedation"`
	PreferredClinicID string `json:"preferred_clinic_id,omitempty"`
	PreferredDoctorID string `json:"preferred_doctor_id,omitempty"`
}

// Search runs the tiered fallback search for a procedure.
func (h *SlotsHandler) Search(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	var req slotSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proc, err := h.store.ProcedureByID(r.Context(), tenantID, req.ProcedureID)
	if err != nil {
		h.logger.Error("procedure lookup failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "procedure lookup unavailable")
		return
	}
	if proc == nil {
		writeError(w, http.StatusNotFound, "procedure not found")
		return
	}

	preferredClinic := req.PreferredClinicID
	if preferredClinic == "" && tenantID != uuid.Nil {
		preferredClinic = tenantID.String()
	}

	result, err := h.engine.FindWithFallback(r.Context(), *proc, req.NeedsSedation, preferredClinic, req.PreferredDoctorID, tenantID)
	if err != nil {
		h.logger.Error("slot search failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "slot search unavailable")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListProcedures returns the tenant's catalog.
func (h *SlotsHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	procs, err := h.store.ProceduresForTenant(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("procedure list failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "procedure list unavailable")
		return
	}

	type procedureView struct {
		ProcID              int    `json:"proc_id"`
		Name                string `json:"name"`
		DurationMinutes     int    `json:"duration_minutes"`
		ConsultMinutes      int    `json:"consult_minutes"`
		RequiresAnesthetist bool   `json:"requires_anesthetist"`
		AllowCombo          bool   `json:"allow_combo"`
	}
	views := make([]procedureView, 0, len(procs))
	for _, p := range procs {
		views = append(views, procedureView{
			ProcID:              p.ProcID,
			Name:                p.Name,
			DurationMinutes:     p.BaseDurationMinutes,
			ConsultMinutes:      p.ConsultDurationMinutes,
			RequiresAnesthetist: p.RequiresAnesthetist,
			AllowCombo:          p.AllowSameDayCombo,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bronn-dev/smartdental/internal/orchestration"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// TriageHandler exposes the orchestration entry point.
type TriageHandler struct {
	orchestrator *orchestration.Orchestrator
	logger       *logging.Logger
}

// NewTriageHandler constructs the handler.
func NewTriageHandler(orchestrator *orchestration.Orchestrator, logger *logging.Logger) *TriageHandler {
	if orchestrator == nil {
		panic("handlers: orchestrator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TriageHandler{orchestrator: orchestrator, logger: logger}
}

// Analyze runs one conversation turn through the pipeline.
func (h *TriageHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	var req orchestration.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.TenantID = tenantID

	plan, err := h.orchestrator.Orchestrate(r.Context(), req)
	if err != nil {
		h.logger.Error("orchestration failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "orchestration unavailable")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

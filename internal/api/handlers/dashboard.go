package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/clinic"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// DashboardHandler serves tenant utilization statistics.
type DashboardHandler struct {
	dashboard *clinic.Dashboard
	logger    *logging.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard *clinic.Dashboard, logger *logging.Logger) *DashboardHandler {
	if dashboard == nil {
		panic("handlers: dashboard cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// Stats returns the tenant dashboard; the tenant header is mandatory here.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(r)
	if !ok || tenantID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "tenant id required")
		return
	}

	stats, err := h.dashboard.Stats(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("dashboard aggregation failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "dashboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

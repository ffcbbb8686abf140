// Package handlers contains the thin HTTP adapters over the pipeline
// entry points. No authentication lives here; the tenant identity
// arrives from the deployment's auth layer via the X-Tenant-ID header.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/models"
)

// CatalogStore is the read surface the handlers need beyond the
// pipeline itself.
type CatalogStore interface {
	ProcedureByID(ctx context.Context, tenantID uuid.UUID, procID int) (*models.Procedure, error)
	ProceduresForTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Procedure, error)
	PatientByID(ctx context.Context, tenantID uuid.UUID, patientID uuid.UUID) (*models.Patient, error)
	AppointmentsForPatient(ctx context.Context, tenantID uuid.UUID, patientID uuid.UUID) ([]models.Appointment, error)
}

// tenantFromRequest parses the X-Tenant-ID header; a missing header
// means a global (pre-routing) patient.
func tenantFromRequest(r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-Tenant-ID")
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

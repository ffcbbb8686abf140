package triage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bronn-dev/smartdental/internal/models"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// ConditionProcedureMap fixes the condition key → procedure name
// binding. Lookups run against the tenant's procedure catalog.
var ConditionProcedureMap = map[string]string{
	ConditionRootCanal:        "Root Canal Treatment",
	ConditionWisdomExtraction: "Wisdom Tooth Extraction (Sedation)",
	ConditionEmergency:        "Emergency Triage",
	ConditionGeneralCheckup:   "General Checkup",
	ConditionFilling:          "Dental Filling",
	ConditionCrown:            "Dental Crown",
}

// displayNameMap remaps condition keys to the user-facing label. The
// display name is deliberately an evaluation label, not a treatment
// name: the patient sees what will be assessed, not what will be done.
var displayNameMap = map[string]string{
	ConditionRootCanal:        "Endodontic Evaluation (Microscope)",
	ConditionWisdomExtraction: "Oral Surgery Consultation (Wisdom)",
	ConditionFilling:          "Restorative Assessment",
	ConditionCrown:            "Restorative Assessment (Major)",
	ConditionEmergency:        "Emergency Triage Assessment",
}

// DisplayName returns the safe user-facing label for a condition,
// falling back to the resolved procedure name.
func DisplayName(conditionKey, procedureName string) string {
	if name, ok := displayNameMap[conditionKey]; ok {
		return name
	}
	if procedureName != "" {
		return procedureName
	}
	return "Specialist Evaluation"
}

// ProcedureStore is the lookup contract the resolver needs.
type ProcedureStore interface {
	// ProcedureByName returns the tenant's procedure with that name,
	// or nil. A zero tenant UUID searches globally.
	ProcedureByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Procedure, error)
	// ProcedureByNameAnyTenant returns the first procedure with that
	// name across all tenants, or nil.
	ProcedureByNameAnyTenant(ctx context.Context, name string) (*models.Procedure, error)
}

// ProcedureResolver maps condition keys to tenant-owned procedure
// records. Cross-tenant fallback is an explicit, logged path so tenant
// isolation violations stay auditable.
type ProcedureResolver struct {
	store  ProcedureStore
	logger *logging.Logger
}

// NewProcedureResolver constructs the resolver.
func NewProcedureResolver(store ProcedureStore, logger *logging.Logger) *ProcedureResolver {
	if store == nil {
		panic("triage: procedure store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ProcedureResolver{store: store, logger: logger}
}

// Resolve looks up the procedure for a condition key, tenant-scoped
// first. Returns nil when no procedure exists anywhere.
func (r *ProcedureResolver) Resolve(ctx context.Context, conditionKey string, tenantID uuid.UUID) (*models.Procedure, error) {
	name, ok := ConditionProcedureMap[conditionKey]
	if !ok {
		name = ConditionProcedureMap[ConditionGeneralCheckup]
	}

	proc, err := r.store.ProcedureByName(ctx, tenantID, name)
	if err != nil {
		return nil, fmt.Errorf("triage: procedure lookup failed: %w", err)
	}
	if proc != nil {
		return proc, nil
	}

	if tenantID != uuid.Nil {
		return r.resolveCrossTenant(ctx, name, tenantID)
	}
	return nil, nil
}

// resolveCrossTenant is the named escape hatch: when the tenant's
// catalog has no match, the first global match is returned. Every use
// is logged with both tenants visible.
func (r *ProcedureResolver) resolveCrossTenant(ctx context.Context, name string, requestingTenant uuid.UUID) (*models.Procedure, error) {
	proc, err := r.store.ProcedureByNameAnyTenant(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("triage: cross-tenant procedure lookup failed: %w", err)
	}
	if proc != nil {
		r.logger.Warn("cross-tenant procedure fallback used",
			"procedure", name,
			"requesting_tenant", requestingTenant,
			"owning_tenant", proc.TenantID,
		)
	}
	return proc, nil
}

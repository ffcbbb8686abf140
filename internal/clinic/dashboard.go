// Package clinic aggregates tenant-facing dashboard statistics behind
// a short-lived per-tenant cache.
package clinic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/bronn-dev/smartdental/pkg/logging"
)

// Cache entries live for one minute; a dashboard refresh storm costs
// one aggregation per tenant per minute, last writer wins.
const (
	cacheTTL     = 60 * time.Second
	cacheSweep   = 5 * time.Minute
	emergencyKey = "Emergency Triage"
)

// StatusCounts summarizes appointments by lifecycle state.
type StatusCounts struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Cancelled int `json:"cancelled"`
	Completed int `json:"completed"`
	Emergency int `json:"emergency"`
}

// DoctorUtilization is one doctor's scheduled load.
type DoctorUtilization struct {
	DoctorID   string `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`
	Scheduled  int    `json:"scheduled"`
}

// Stats is the dashboard payload.
type Stats struct {
	Overview       StatusCounts        `json:"overview"`
	ActivePatients int                 `json:"active_patients"`
	Utilization    []DoctorUtilization `json:"utilization"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// Store is the aggregation contract the dashboard needs.
type Store interface {
	AppointmentStatusCounts(ctx context.Context, tenantID uuid.UUID) (StatusCounts, error)
	DistinctPatientCount(ctx context.Context, tenantID uuid.UUID) (int, error)
	DoctorUtilization(ctx context.Context, tenantID uuid.UUID) ([]DoctorUtilization, error)
}

// Dashboard serves tenant-scoped statistics with a TTL cache.
type Dashboard struct {
	store  Store
	cache  *gocache.Cache
	logger *logging.Logger
}

// NewDashboard constructs the dashboard service.
func NewDashboard(store Store, logger *logging.Logger) *Dashboard {
	if store == nil {
		panic("clinic: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dashboard{
		store:  store,
		cache:  gocache.New(cacheTTL, cacheSweep),
		logger: logger,
	}
}

// Stats returns the tenant's dashboard, cached for up to a minute.
func (d *Dashboard) Stats(ctx context.Context, tenantID uuid.UUID) (*Stats, error) {
	key := tenantID.String()
	if cached, ok := d.cache.Get(key); ok {
		return cached.(*Stats), nil
	}

	overview, err := d.store.AppointmentStatusCounts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("clinic: status counts failed: %w", err)
	}
	patients, err := d.store.DistinctPatientCount(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("clinic: patient count failed: %w", err)
	}
	utilization, err := d.store.DoctorUtilization(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("clinic: utilization failed: %w", err)
	}

	stats := &Stats{
		Overview:       overview,
		ActivePatients: patients,
		Utilization:    utilization,
		GeneratedAt:    time.Now().UTC(),
	}
	d.cache.Set(key, stats, cacheTTL)
	d.logger.Debug("dashboard aggregated", "tenant_id", tenantID)
	return stats, nil
}

// Invalidate drops a tenant's cached dashboard.
func (d *Dashboard) Invalidate(tenantID uuid.UUID) {
	d.cache.Delete(tenantID.String())
}

package triage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bronn-dev/smartdental/internal/store"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

func seededResolver(t *testing.T) *ProcedureResolver {
	t.Helper()
	mem := store.NewMemory()
	mem.LoadSeed(store.DemoSeed())
	return NewProcedureResolver(mem, logging.New("error"))
}

func TestResolveTenantScoped(t *testing.T) {
	resolver := seededResolver(t)

	proc, err := resolver.Resolve(context.Background(), ConditionRootCanal, store.SeedDowntownID)
	require.NoError(t, err)
	require.NotNil(t, proc)
	assert.Equal(t, "Root Canal Treatment", proc.Name)
	assert.Equal(t, store.SeedDowntownID, proc.TenantID)
}

func TestResolveCrossTenantFallback(t *testing.T) {
	resolver := seededResolver(t)

	// Westside owns no root canal procedure; the explicit fallback
	// returns the first global match.
	proc, err := resolver.Resolve(context.Background(), ConditionRootCanal, store.SeedWestsideID)
	require.NoError(t, err)
	require.NotNil(t, proc)
	assert.Equal(t, "Root Canal Treatment", proc.Name)
	assert.Equal(t, store.SeedDowntownID, proc.TenantID)
}

func TestResolveUnknownConditionFallsBackToCheckup(t *testing.T) {
	resolver := seededResolver(t)

	proc, err := resolver.Resolve(context.Background(), "not-a-condition", store.SeedDowntownID)
	require.NoError(t, err)
	require.NotNil(t, proc)
	assert.Equal(t, "General Checkup", proc.Name)
}

func TestResolveGlobalTenantSkipsFallback(t *testing.T) {
	mem := store.NewMemory() // empty catalog
	resolver := NewProcedureResolver(mem, logging.New("error"))

	proc, err := resolver.Resolve(context.Background(), ConditionRootCanal, uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, proc)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Endodontic Evaluation (Microscope)", DisplayName(ConditionRootCanal, "Root Canal Treatment"))
	assert.Equal(t, "Oral Surgery Consultation (Wisdom)", DisplayName(ConditionWisdomExtraction, ""))
	assert.Equal(t, "General Checkup", DisplayName(ConditionGeneralCheckup, "General Checkup"))
	assert.Equal(t, "Specialist Evaluation", DisplayName("unknown", ""))
}

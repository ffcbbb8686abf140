package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModelID)
	assert.Equal(t, 10*time.Second, cfg.ExtractionTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("EXTRACTION_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_PER_SECOND", "5.5")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.UseMemoryStore)
	assert.Equal(t, 3*time.Second, cfg.ExtractionTimeout)
	assert.Equal(t, 5.5, cfg.RateLimitPerSecond)
}

func TestIssues(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("USE_MEMORY_STORE", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg := Load()
	issues := cfg.Issues()
	assert.Len(t, issues, 2)

	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("GEMINI_API_KEY", "test-key")
	cfg = Load()
	assert.Empty(t, cfg.Issues())
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.InDelta(t, 0.85, cfg.DedupHighSimilarity, 1e-12)
	assert.InDelta(t, 0.75, cfg.DedupLowSimilarity, 1e-12)
	assert.InDelta(t, 50.0, cfg.DedupGeoRadiusKm, 1e-12)
	assert.Equal(t, 24, cfg.DedupTimeWindowH)
	assert.Equal(t, 24, cfg.DedupFetchWindowH)
	assert.NotEmpty(t, cfg.Sources)
	assert.Equal(t, DefaultAPIPort, cfg.APIPort)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CONFLICTMAP_DATABASE_DSN", "postgres://other@db:5432/osint")
	t.Setenv("CONFLICTMAP_DEDUP_HIGH_SIMILARITY", "0.9")
	t.Setenv("CONFLICTMAP_DEDUP_GEO_RADIUS_KM", "75")
	t.Setenv("CONFLICTMAP_SOURCES", "@GeoConfirmed, @WarMonitor3")
	t.Setenv("CONFLICTMAP_API_PORT", "9000")

	cfg := Default()
	applyEnvOverrides(cfg)

	assert.Equal(t, "postgres://other@db:5432/osint", cfg.DatabaseDSN)
	assert.InDelta(t, 0.9, cfg.DedupHighSimilarity, 1e-12)
	assert.InDelta(t, 75.0, cfg.DedupGeoRadiusKm, 1e-12)
	assert.Equal(t, []string{"@GeoConfirmed", "@WarMonitor3"}, cfg.Sources)
	assert.Equal(t, 9000, cfg.APIPort)
}

func TestEnvOverridesRejectInvalidValues(t *testing.T) {
	t.Setenv("CONFLICTMAP_DEDUP_HIGH_SIMILARITY", "1.5")
	t.Setenv("CONFLICTMAP_API_PORT", "not-a-port")
	t.Setenv("CONFLICTMAP_DEDUP_TIME_WINDOW_HOURS", "-3")

	cfg := Default()
	applyEnvOverrides(cfg)

	assert.InDelta(t, 0.85, cfg.DedupHighSimilarity, 1e-12)
	assert.Equal(t, DefaultAPIPort, cfg.APIPort)
	assert.Equal(t, 24, cfg.DedupTimeWindowH)
}

func TestSplitTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitTrim(" a , b ,"))
	assert.Empty(t, splitTrim(" , "))
}

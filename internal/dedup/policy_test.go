package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osintlab/conflictmap/internal/config"
	"github.com/osintlab/conflictmap/pkg/models"
)

var t0 = time.Date(2026, time.February, 6, 12, 0, 0, 0, time.UTC)

func report(id string, typ models.Typology, at time.Time, coord *models.Coordinate) *models.Report {
	return &models.Report{
		ID:          id,
		Text:        "Strike reported on fuel depot",
		Typology:    typ,
		PublishedAt: at,
		Coordinate:  coord,
	}
}

func TestMatches(t *testing.T) {
	cfg := DefaultConfig()

	kharkiv := &models.Coordinate{Lat: 49.9935, Lon: 36.2304}
	nearby := &models.Coordinate{Lat: 50.05, Lon: 36.30}    // ~8 km from Kharkiv
	lviv := &models.Coordinate{Lat: 49.8397, Lon: 24.0297}  // ~870 km away

	tests := []struct {
		a, b *models.Report
		name string
		sim  float64
		want bool
	}{
		{
			name: "high similarity matches without coordinates",
			a:    report("a", models.TypologyMilitary, t0, nil),
			b:    report("b", models.TypologyMilitary, t0.Add(2*time.Hour), nil),
			sim:  0.90,
			want: true,
		},
		{
			name: "moderate similarity corroborated by close location",
			a:    report("a", models.TypologyMilitary, t0, kharkiv),
			b:    report("b", models.TypologyMilitary, t0.Add(time.Hour), nearby),
			sim:  0.78,
			want: true,
		},
		{
			name: "moderate similarity far apart does not match",
			a:    report("a", models.TypologyMilitary, t0, kharkiv),
			b:    report("b", models.TypologyMilitary, t0.Add(time.Hour), lviv),
			sim:  0.78,
			want: false,
		},
		{
			name: "different typology vetoes even identical reports",
			a:    report("a", models.TypologyMilitary, t0, kharkiv),
			b:    report("b", models.TypologyOther, t0, kharkiv),
			sim:  0.99,
			want: false,
		},
		{
			name: "outside time window does not match",
			a:    report("a", models.TypologyMilitary, t0, nil),
			b:    report("b", models.TypologyMilitary, t0.Add(48*time.Hour), nil),
			sim:  0.95,
			want: false,
		},
		{
			name: "gap exactly at the window still matches",
			a:    report("a", models.TypologyMilitary, t0, nil),
			b:    report("b", models.TypologyMilitary, t0.Add(24*time.Hour), nil),
			sim:  0.90,
			want: true,
		},
		{
			name: "moderate similarity with one missing coordinate cannot match",
			a:    report("a", models.TypologyMilitary, t0, kharkiv),
			b:    report("b", models.TypologyMilitary, t0.Add(time.Hour), nil),
			sim:  0.80,
			want: false,
		},
		{
			name: "below both thresholds never matches",
			a:    report("a", models.TypologyMilitary, t0, kharkiv),
			b:    report("b", models.TypologyMilitary, t0, kharkiv),
			sim:  0.50,
			want: false,
		},
		{
			name: "high similarity exactly at threshold matches",
			a:    report("a", models.TypologyMilitary, t0, nil),
			b:    report("b", models.TypologyMilitary, t0, nil),
			sim:  0.85,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.a, tt.b, tt.sim, cfg))
			assert.Equal(t, tt.want, Matches(tt.b, tt.a, tt.sim, cfg), "policy must be symmetric")
		})
	}
}

func TestMatchesCategoryVetoIsUnconditional(t *testing.T) {
	cfg := DefaultConfig()
	here := &models.Coordinate{Lat: 49.99, Lon: 36.23}

	// Identical time, identical location, perfect similarity: typology still wins.
	a := report("a", models.TypologyMilitary, t0, here)
	b := report("b", models.TypologyOther, t0, here)

	for _, sim := range []float64{0.75, 0.85, 0.99, 1.0} {
		assert.False(t, Matches(a, b, sim, cfg), "sim=%v", sim)
	}
}

func TestFromSettings(t *testing.T) {
	appCfg := config.Default()
	appCfg.DedupHighSimilarity = 0.92
	appCfg.DedupGeoRadiusKm = 30
	appCfg.DedupTimeWindowH = 12

	cfg := FromSettings(appCfg)

	assert.InDelta(t, 0.92, cfg.HighSimilarity, 1e-12)
	assert.InDelta(t, 30.0, cfg.GeoRadiusKm, 1e-12)
	assert.Equal(t, 12*time.Hour, cfg.TimeWindow)
	assert.InDelta(t, 0.75, cfg.LowSimilarity, 1e-12, "untouched settings keep defaults")

	assert.Equal(t, DefaultConfig(), FromSettings(nil))
}

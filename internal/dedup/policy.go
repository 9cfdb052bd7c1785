// Package dedup collapses reports that describe the same real-world event.
//
// The engine runs on bounded, periodically-collected batches: it fetches
// recent reports, embeds their texts in one provider call, groups plausible
// duplicates with a pairwise matching policy, and plans the deletion of every
// non-canonical group member. Planning is pure and fully in-memory; the store
// mutation is a single atomic batch delete applied afterwards.
package dedup

import (
	"time"

	"github.com/osintlab/conflictmap/internal/config"
	"github.com/osintlab/conflictmap/internal/geo"
	"github.com/osintlab/conflictmap/pkg/models"
)

// Config contains the matching policy thresholds and batch windows. All
// values are operator-tunable through the settings layer; none are baked in.
type Config struct {
	// HighSimilarity is the cosine similarity at which two reports match on
	// text alone (default 0.85).
	HighSimilarity float64
	// LowSimilarity is the cosine similarity at which two reports match when
	// corroborated by spatial proximity (default 0.75).
	LowSimilarity float64
	// GeoRadiusKm is the corroboration radius for the low-similarity branch
	// (default 50).
	GeoRadiusKm float64
	// TimeWindow is the maximum publication-time gap between duplicates
	// (default 24h).
	TimeWindow time.Duration
	// FetchWindow bounds the candidate batch fetched from the store
	// (default 24h).
	FetchWindow time.Duration
	// EmbedTimeout bounds the single batch embedding call. On timeout the
	// whole run aborts before any deletion is planned.
	EmbedTimeout time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		HighSimilarity: 0.85,
		LowSimilarity:  0.75,
		GeoRadiusKm:    50,
		TimeWindow:     24 * time.Hour,
		FetchWindow:    24 * time.Hour,
		EmbedTimeout:   60 * time.Second,
	}
}

// FromSettings builds an engine Config from the application settings.
func FromSettings(cfg *config.Config) Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	if cfg.DedupHighSimilarity > 0 {
		out.HighSimilarity = cfg.DedupHighSimilarity
	}
	if cfg.DedupLowSimilarity > 0 {
		out.LowSimilarity = cfg.DedupLowSimilarity
	}
	if cfg.DedupGeoRadiusKm > 0 {
		out.GeoRadiusKm = cfg.DedupGeoRadiusKm
	}
	if cfg.DedupTimeWindowH > 0 {
		out.TimeWindow = time.Duration(cfg.DedupTimeWindowH) * time.Hour
	}
	if cfg.DedupFetchWindowH > 0 {
		out.FetchWindow = time.Duration(cfg.DedupFetchWindowH) * time.Hour
	}
	return out
}

// Matches reports whether two reports plausibly describe the same event,
// given the precomputed cosine similarity of their texts.
//
// The decision is layered: typology inequality is a hard veto regardless of
// any other signal, then the publication-time gap must fall inside
// TimeWindow, and only then does similarity decide — either strong textual
// similarity alone, or moderate similarity corroborated by spatial proximity.
// Reports without coordinates can only match through the high-similarity
// branch, since their distance is +Inf.
//
// The predicate is symmetric: Matches(a, b) == Matches(b, a).
func Matches(a, b *models.Report, sim float64, cfg Config) bool {
	if a.Typology != b.Typology {
		return false
	}

	gap := a.PublishedAt.Sub(b.PublishedAt)
	if gap < 0 {
		gap = -gap
	}
	if gap > cfg.TimeWindow {
		return false
	}

	if sim >= cfg.HighSimilarity {
		return true
	}
	if sim >= cfg.LowSimilarity && geo.Distance(a.Coordinate, b.Coordinate) < cfg.GeoRadiusKm {
		return true
	}
	return false
}

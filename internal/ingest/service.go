// Package ingest runs the scrape pipeline: fetch source feeds, filter out
// noise and already-stored reports, extract events with the LLM, and persist
// the results.
package ingest

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osintlab/conflictmap/internal/feed"
	"github.com/osintlab/conflictmap/internal/geocode"
	"github.com/osintlab/conflictmap/pkg/models"
)

// minPlainBodyLen is the shortest body worth storing when no event could be
// extracted. Shorter texts are almost always replies or link-only posts.
const minPlainBodyLen = 50

// accuracyTable maps the extractor's confidence labels onto the accuracy
// values the store and the map legend use.
var accuracyTable = map[string]string{
	"high":   models.AccuracyHigh,
	"medium": models.AccuracyMedium,
	"low":    models.AccuracyLow,
}

// Store is the persistence surface the pipeline writes through.
type Store interface {
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	Insert(ctx context.Context, report *models.Report, images []string) error
}

// Fetcher retrieves parsed feeds for a set of sources.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []string) map[string]*feed.Feed
}

// Extractor turns raw report text into structured events.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]geocode.Event, error)
}

// Stats summarizes one pipeline run.
type Stats struct {
	Fetched        int `json:"fetched"`
	SkippedSeen    int `json:"skipped_seen"`
	Filtered       int `json:"filtered"`
	ExtractErrors  int `json:"extract_errors"`
	InsertedEvents int `json:"inserted_events"`
	InsertedPlain  int `json:"inserted_plain"`
}

// Service wires the scrape pipeline together.
type Service struct {
	fetcher   Fetcher
	extractor Extractor
	store     Store
	seen      *feed.SeenCache
	logger    zerolog.Logger
	sources   []string
}

// NewService creates an ingest pipeline. seen may be nil when no Redis cache
// is configured; the store id set alone is then the dedup-on-ingest guard.
func NewService(fetcher Fetcher, extractor Extractor, store Store, seen *feed.SeenCache, sources []string, logger zerolog.Logger) *Service {
	return &Service{
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		seen:      seen,
		sources:   sources,
		logger:    logger.With().Str("component", "ingest").Logger(),
	}
}

// Run executes one full scrape cycle over every configured source.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	runLogger := s.logger.With().Str("run_id", uuid.NewString()).Logger()
	var stats Stats

	existing, err := s.store.ExistingIDs(ctx)
	if err != nil {
		return stats, err
	}

	feeds := s.fetcher.FetchAll(ctx, s.sources)
	for _, source := range s.sources {
		f, ok := feeds[source]
		if !ok {
			continue
		}
		for _, item := range f.Items {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Fetched++
			s.processItem(ctx, runLogger, source, item, existing, &stats)
		}
	}

	runLogger.Info().
		Int("fetched", stats.Fetched).
		Int("skipped_seen", stats.SkippedSeen).
		Int("filtered", stats.Filtered).
		Int("extract_errors", stats.ExtractErrors).
		Int("inserted_events", stats.InsertedEvents).
		Int("inserted_plain", stats.InsertedPlain).
		Msg("Ingest run complete")
	return stats, nil
}

func (s *Service) processItem(ctx context.Context, logger zerolog.Logger, source string, item feed.Item, existing map[string]struct{}, stats *Stats) {
	if s.alreadyIngested(item.ID, existing) {
		stats.SkippedSeen++
		return
	}
	if !keepItem(source, item) {
		stats.Filtered++
		return
	}

	text := item.Title

	events, err := s.extractor.Extract(ctx, text)
	if err != nil {
		// One bad extraction must not stop the run; the item is retried
		// on the next cycle since it was never marked seen.
		logger.Warn().Err(err).Str("report_id", item.ID).Msg("Event extraction failed, skipping item")
		stats.ExtractErrors++
		return
	}

	if len(events) == 0 {
		if len(text) <= minPlainBodyLen {
			stats.Filtered++
			s.markSeen(logger, item.ID, existing)
			return
		}
		report := &models.Report{
			ID:          item.ID,
			Text:        text,
			Author:      item.Author,
			URL:         item.Link,
			PublishedAt: item.Published,
		}
		if err := s.store.Insert(ctx, report, item.Images); err != nil {
			logger.Error().Err(err).Str("report_id", item.ID).Msg("Plain insert failed")
			return
		}
		stats.InsertedPlain++
		s.markSeen(logger, item.ID, existing)
		return
	}

	// Multi-event reports are rare and usually restate one incident;
	// only the first event is stored.
	event := events[0]

	report := &models.Report{
		ID:          item.ID,
		Text:        text,
		Author:      item.Author,
		URL:         item.Link,
		PublishedAt: item.Published,
		Typology:    models.Typology(event.Typology),
		Accuracy:    accuracyTable[event.Confidence],
		Importance:  event.Importance,
	}
	if event.Geolocated() {
		report.Coordinate = &models.Coordinate{Lat: *event.Latitude, Lon: *event.Longitude}
	}

	if err := s.store.Insert(ctx, report, item.Images); err != nil {
		logger.Error().Err(err).Str("report_id", item.ID).Msg("Report insert failed")
		return
	}
	stats.InsertedEvents++
	s.markSeen(logger, item.ID, existing)
}

// alreadyIngested checks the Redis seen set first, then the store id set.
func (s *Service) alreadyIngested(id string, existing map[string]struct{}) bool {
	if _, ok := existing[id]; ok {
		return true
	}
	seen, err := s.seen.Contains(id)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Seen cache lookup failed, falling back to store ids")
		return false
	}
	return seen
}

func (s *Service) markSeen(logger zerolog.Logger, id string, existing map[string]struct{}) {
	existing[id] = struct{}{}
	if err := s.seen.Add(id); err != nil {
		logger.Warn().Err(err).Msg("Seen cache update failed")
	}
}

// keepItem applies the per-source noise filters.
func keepItem(source string, item feed.Item) bool {
	// GeoConfirmed posts a confirmation thread per event; only the
	// confirmed root post carries the canonical description.
	if source == "@GeoConfirmed" && !strings.HasPrefix(item.Description, "GeoConfirmed ") {
		return false
	}
	// Retweets, bare links and thread updates restate events already
	// covered by their original posts.
	for _, prefix := range []string{"RT", "x.com", "Update"} {
		if strings.HasPrefix(item.Title, prefix) {
			return false
		}
	}
	return true
}

package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/osintlab/conflictmap/internal/embedding"
	"github.com/osintlab/conflictmap/pkg/models"
)

// ReportSource is the subset of store methods the runner needs.
type ReportSource interface {
	// FetchRecent returns reports published within the window, ordered oldest
	// first. Ordering is a policy decision: the earliest report in each
	// duplicate group is the one that survives.
	FetchRecent(ctx context.Context, window time.Duration) ([]*models.Report, error)
	// DeleteByIDs removes the given reports in one atomic operation and
	// returns the number of rows deleted.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// CycleStats summarizes one dedup cycle.
type CycleStats struct {
	BatchSize         int
	GroupsFound       int
	DuplicateGroups   int
	DuplicatesDeleted int64
}

// Runner orchestrates one dedup cycle: fetch, embed, group, delete. It is
// stateless across runs and safe to re-invoke; already-deleted reports simply
// no longer appear in the next fetched batch.
type Runner struct {
	source   ReportSource
	provider embedding.Provider
	logger   zerolog.Logger
	config   Config

	cyclesRun     metric.Int64Counter
	cycleFailures metric.Int64Counter
	deletedTotal  metric.Int64Counter
}

// NewRunner creates a dedup runner. The embedding provider is injected as a
// capability; its lifecycle belongs to the caller.
func NewRunner(source ReportSource, provider embedding.Provider, cfg Config, logger zerolog.Logger) *Runner {
	meter := otel.Meter("github.com/osintlab/conflictmap/internal/dedup")
	cyclesRun, _ := meter.Int64Counter("dedup.cycles",
		metric.WithDescription("Completed dedup cycles"))
	cycleFailures, _ := meter.Int64Counter("dedup.cycle_failures",
		metric.WithDescription("Dedup cycles aborted by an error"))
	deletedTotal, _ := meter.Int64Counter("dedup.reports_deleted",
		metric.WithDescription("Duplicate reports deleted"))

	return &Runner{
		source:        source,
		provider:      provider,
		logger:        logger.With().Str("component", "dedup").Logger(),
		config:        cfg,
		cyclesRun:     cyclesRun,
		cycleFailures: cycleFailures,
		deletedTotal:  deletedTotal,
	}
}

// RunCycle executes one full dedup cycle. Any failure — fetch, validation,
// embedding, grouping — aborts the run before the store is touched, so a
// failed cycle never leaves partial deletions behind.
func (r *Runner) RunCycle(ctx context.Context) (CycleStats, error) {
	start := time.Now()
	log := r.logger.With().Str("run_id", uuid.NewString()).Logger()

	stats, err := r.runCycle(ctx, log)
	if err != nil {
		r.cycleFailures.Add(ctx, 1)
		return stats, err
	}

	r.cyclesRun.Add(ctx, 1)
	r.deletedTotal.Add(ctx, stats.DuplicatesDeleted)

	log.Info().
		Int("batch_size", stats.BatchSize).
		Int("groups", stats.GroupsFound).
		Int("duplicate_groups", stats.DuplicateGroups).
		Int64("deleted", stats.DuplicatesDeleted).
		Dur("elapsed", time.Since(start)).
		Msg("Dedup cycle complete")

	return stats, nil
}

func (r *Runner) runCycle(ctx context.Context, log zerolog.Logger) (CycleStats, error) {
	var stats CycleStats

	batch, err := r.source.FetchRecent(ctx, r.config.FetchWindow)
	if err != nil {
		return stats, fmt.Errorf("fetch candidate batch: %w", err)
	}
	stats.BatchSize = len(batch)
	if len(batch) == 0 {
		log.Debug().Msg("No candidates in window, nothing to do")
		return stats, nil
	}

	if err := models.ValidateBatch(batch); err != nil {
		return stats, err
	}

	texts := make([]string, len(batch))
	for i, report := range batch {
		texts[i] = report.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.config.EmbedTimeout)
	defer cancel()

	vectors, err := r.provider.EmbedBatch(embedCtx, texts)
	if err != nil {
		return stats, fmt.Errorf("embed batch of %d texts: %w", len(texts), err)
	}

	plan, err := GroupBatch(batch, vectors, r.config)
	if err != nil {
		return stats, err
	}
	stats.GroupsFound = len(plan.Groups)

	// A group is a duplicate group when it planned at least one deletion.
	dupGroups := 0
	for _, g := range plan.Groups {
		if len(g) > 1 {
			dupGroups++
		}
	}
	stats.DuplicateGroups = dupGroups

	if len(plan.DeleteIDs) == 0 {
		return stats, nil
	}

	deleted, err := r.source.DeleteByIDs(ctx, plan.DeleteIDs)
	if err != nil {
		return stats, fmt.Errorf("delete %d duplicates: %w", len(plan.DeleteIDs), err)
	}
	stats.DuplicatesDeleted = deleted

	return stats, nil
}

package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler runs dedup cycles on a fixed interval.
type Scheduler struct {
	runner   *Runner
	logger   zerolog.Logger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu           sync.Mutex
	running      bool
	lastRun      time.Time
	lastDuration time.Duration
	lastStats    CycleStats
	totalDeleted int64
	totalCycles  int64
}

// NewScheduler creates a dedup scheduler. Intervals below one hour are
// clamped: the engine is built for periodic batches, not a hot loop.
func NewScheduler(runner *Runner, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval < time.Hour {
		interval = time.Hour
	}
	return &Scheduler{
		runner:   runner,
		logger:   logger.With().Str("component", "dedup-scheduler").Logger(),
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the scheduling loop. Call from a goroutine; returns when the
// context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(s.doneCh)
	}()

	s.logger.Info().Dur("interval", s.interval).Msg("Dedup scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Dedup scheduler stopping (context done)")
			return
		case <-s.stopCh:
			s.logger.Info().Msg("Dedup scheduler stopping (stop signal)")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop signals the scheduler to shut down gracefully.
func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
		// Already stopped
	default:
		close(s.stopCh)
	}
}

// Wait blocks until the scheduling loop has exited.
func (s *Scheduler) Wait() {
	<-s.doneCh
}

// RunNow triggers an immediate cycle outside the regular schedule.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()

	stats, err := s.runner.RunCycle(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Dedup cycle failed")
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastDuration = time.Since(start)
	s.lastStats = stats
	s.totalCycles++
	s.totalDeleted += stats.DuplicatesDeleted
	s.mu.Unlock()
}

// Stats returns scheduler statistics for diagnostics endpoints.
func (s *Scheduler) Stats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"interval_hours":   s.interval.Hours(),
		"running":          s.running,
		"last_run":         s.lastRun,
		"last_duration_ms": s.lastDuration.Milliseconds(),
		"last_batch_size":  s.lastStats.BatchSize,
		"last_groups":      s.lastStats.GroupsFound,
		"total_cycles":     s.totalCycles,
		"total_deleted":    s.totalDeleted,
	}
}

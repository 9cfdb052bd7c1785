// Package main runs the report deduplication engine, either as a single
// cycle or as a periodic scheduler.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"

	"github.com/osintlab/conflictmap/internal/config"
	"github.com/osintlab/conflictmap/internal/db/gorm"
	"github.com/osintlab/conflictmap/internal/dedup"
	"github.com/osintlab/conflictmap/internal/embedding"
)

var Version = "dev"

func main() {
	loop := flag.Bool("loop", false, "keep running, deduplicating on the configured interval")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Str("version", Version).Msg("Starting conflictmap dedup")

	cfg := config.Get()

	store, err := gorm.NewStore(gorm.Config{
		DSN:      cfg.DatabaseDSN,
		MaxConns: cfg.MaxConns,
		LogLevel: gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer store.Close()

	provider, err := embedding.NewClient(embedding.ClientOptions{
		BaseURL:    cfg.EmbeddingBaseURL,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create embedding client")
	}

	runner := dedup.NewRunner(gorm.NewReportStore(store), provider, dedup.FromSettings(cfg), log.Logger)

	if !*loop {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := runner.RunCycle(ctx); err != nil {
			log.Fatal().Err(err).Msg("Dedup cycle failed")
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := dedup.NewScheduler(runner, time.Duration(cfg.DedupIntervalH)*time.Hour, log.Logger)
	go scheduler.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Received shutdown signal")
	scheduler.Stop()
	scheduler.Wait()
	log.Info().Msg("Dedup shutdown complete")
}

// Package main runs one ingestion cycle: scrape the configured sources,
// extract events, and store the resulting reports.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"

	"github.com/osintlab/conflictmap/internal/config"
	"github.com/osintlab/conflictmap/internal/db/gorm"
	"github.com/osintlab/conflictmap/internal/feed"
	"github.com/osintlab/conflictmap/internal/geocode"
	"github.com/osintlab/conflictmap/internal/ingest"
)

var Version = "dev"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Str("version", Version).Msg("Starting conflictmap ingest")

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

	var seen *feed.SeenCache
	if cfg.RedisAddr != "" {
		seen = feed.NewSeenCache(cfg.RedisAddr)
		defer seen.Close()
	}

	service := ingest.NewService(
		feed.NewFetcher(cfg.NitterBaseURL, log.Logger),
		geocode.NewClient(cfg.OllamaBaseURL, cfg.GeocodeModel, log.Logger),
		gorm.NewReportStore(store),
		seen,
		cfg.Sources,
		log.Logger,
	)

	// One LLM call per new item; a large backlog takes a while.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	if _, err := service.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Ingest run failed")
	}
}

// Package main runs the HTTP API serving stored reports to map clients.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/osintlab/conflictmap/internal/api"
	"github.com/osintlab/conflictmap/internal/config"
)

var Version = "dev"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Str("version", Version).Msg("Starting conflictmap API")

	cfg := config.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	queries, err := api.NewQueries(ctx, cfg.DatabaseDSN, int32(cfg.MaxConns))
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer queries.Close()

	server := api.NewServer(queries, cfg.APIPort, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("API server failed")
		}
	case <-quit:
		log.Info().Msg("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}

	log.Info().Msg("API shutdown complete")
}

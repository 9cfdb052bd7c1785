// Package api serves the stored reports to map clients as GeoJSON and JSON.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// DefaultHTTPTimeout is the per-request timeout for API handlers.
const DefaultHTTPTimeout = 30 * time.Second

// Server is the HTTP API server.
type Server struct {
	reader ReportReader
	router *chi.Mux
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates the API server on the given port.
func NewServer(reader ReportReader, port int, logger zerolog.Logger) *Server {
	s := &Server{
		reader: reader,
		router: chi.NewRouter(),
		logger: logger.With().Str("component", "api").Logger(),
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(DefaultHTTPTimeout))
	s.router.Use(SecurityHeaders)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/reports.geojson", s.handleReportsGeoJSON)
	s.router.Get("/api/disputed_areas.geojson", s.handleDisputedAreas)
	s.router.Get("/api/authors", s.handleAuthors)
	s.router.Get("/api/important", s.handleImportant)
	s.router.Get("/api/random", s.handleRandom)
	s.router.Get("/api/last_report", s.handleLastReport)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until it is shut down. It returns nil on a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("API server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown stops the server, letting in-flight requests finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

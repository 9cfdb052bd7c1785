package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// maxWindowHours caps the hours query parameter at one year.
const maxWindowHours = 8760

// writeJSON writes a JSON response with proper error handling.
func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeRawJSON writes JSON already built by the database.
func (s *Server) writeRawJSON(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(raw); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// hoursParam parses the hours query parameter, clamped to [1, maxWindowHours].
func hoursParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("hours")
	if raw == "" {
		return fallback
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 1 {
		return fallback
	}
	if hours > maxWindowHours {
		return maxWindowHours
	}
	return hours
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.reader.Ping(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Health check failed")
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleReportsGeoJSON(w http.ResponseWriter, r *http.Request) {
	filter := GeoFilter{
		Hours: hoursParam(r, 24),
		Query: r.URL.Query().Get("q"),
	}
	if raw := r.URL.Query().Get("authors"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				filter.Authors = append(filter.Authors, a)
			}
		}
	}

	geojson, err := s.reader.ReportsGeoJSON(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Reports query failed")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	s.writeRawJSON(w, geojson)
}

func (s *Server) handleDisputedAreas(w http.ResponseWriter, r *http.Request) {
	geojson, err := s.reader.DisputedAreasGeoJSON(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Disputed areas query failed")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	s.writeRawJSON(w, geojson)
}

func (s *Server) handleAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := s.reader.Authors(r.Context(), hoursParam(r, 720))
	if err != nil {
		s.logger.Error().Err(err).Msg("Authors query failed")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if authors == nil {
		authors = []string{}
	}
	s.writeJSON(w, map[string][]string{"authors": authors})
}

func (s *Server) handleImportant(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reader.Important(r.Context(), hoursParam(r, 24))
	if err != nil {
		s.logger.Error().Err(err).Msg("Important reports query failed")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []ImportantReport{}
	}
	s.writeJSON(w, map[string][]ImportantReport{"reports": reports})
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reader.Random(r.Context(), hoursParam(r, 24))
	if err != nil {
		s.logger.Error().Err(err).Msg("Random reports query failed")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []PlainReport{}
	}
	s.writeJSON(w, map[string][]PlainReport{"reports": reports})
}

func (s *Server) handleLastReport(w http.ResponseWriter, r *http.Request) {
	last, err := s.reader.LastReportTime(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Last report query failed")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if last == nil {
		s.writeJSON(w, map[string]any{"last_date": nil, "last_hour": nil})
		return
	}
	s.writeJSON(w, map[string]string{
		"last_date": last.Format("2006-01-02"),
		"last_hour": last.Format("15:04:05"),
	})
}

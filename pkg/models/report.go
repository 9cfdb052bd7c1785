// Package models contains the shared domain types for conflictmap.
package models

import (
	"fmt"
	"time"
)

// Typology classifies the kind of event a report describes.
type Typology string

const (
	// TypologyMilitary marks confirmed kinetic events (strikes, shelling, combat).
	TypologyMilitary Typology = "MIL"
	// TypologyOther covers every non-kinetic event.
	TypologyOther Typology = "OTHER"
)

// Accuracy levels assigned by the extraction stage to a geolocation.
const (
	AccuracyHigh   = "Haute"
	AccuracyMedium = "Moyenne"
	AccuracyLow    = "Basse"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Report is one ingested event report. Reports are immutable once stored;
// the dedup engine only ever reads them.
type Report struct {
	PublishedAt time.Time   `json:"published_at"`
	Coordinate  *Coordinate `json:"coordinate,omitempty"`
	ID          string      `json:"id"`
	Author      string      `json:"author"`
	URL         string      `json:"url"`
	Text        string      `json:"text"`
	Typology    Typology    `json:"typology"`
	Accuracy    string      `json:"accuracy,omitempty"`
	Importance  int         `json:"importance"`
}

// Geolocated reports true when the report carries a coordinate.
func (r *Report) Geolocated() bool {
	return r.Coordinate != nil
}

// InvalidReportError describes a report that fails batch validation.
type InvalidReportError struct {
	ID     string
	Reason string
	Index  int
}

func (e *InvalidReportError) Error() string {
	return fmt.Sprintf("invalid report at index %d (id=%q): %s", e.Index, e.ID, e.Reason)
}

// ValidateBatch checks that every report in a batch is well-formed. A single
// malformed report rejects the whole batch: silently dropping it would change
// group membership for the records around it.
func ValidateBatch(reports []*Report) error {
	seen := make(map[string]int, len(reports))
	for i, r := range reports {
		if r == nil {
			return &InvalidReportError{Index: i, Reason: "nil report"}
		}
		if r.ID == "" {
			return &InvalidReportError{Index: i, Reason: "empty id"}
		}
		if r.PublishedAt.IsZero() {
			return &InvalidReportError{ID: r.ID, Index: i, Reason: "missing publication timestamp"}
		}
		if r.Typology == "" {
			return &InvalidReportError{ID: r.ID, Index: i, Reason: "missing typology"}
		}
		if prev, dup := seen[r.ID]; dup {
			return &InvalidReportError{ID: r.ID, Index: i, Reason: fmt.Sprintf("duplicate id, first seen at index %d", prev)}
		}
		seen[r.ID] = i
	}
	return nil
}

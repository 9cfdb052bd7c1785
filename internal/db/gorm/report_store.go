package gorm

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/osintlab/conflictmap/pkg/models"
)

// ReportStore provides report persistence: the ingest write path and the
// candidate-batch/delete operations consumed by the dedup engine.
type ReportStore struct {
	db *gorm.DB
}

// NewReportStore creates a new report store.
func NewReportStore(store *Store) *ReportStore {
	return &ReportStore{db: store.DB}
}

// recentRow is the scan target for FetchRecent.
type recentRow struct {
	DatePublished time.Time
	ReportID      string
	Body          string
	Author        string
	URL           string
	Typology      sql.NullString
	Accuracy      sql.NullString
	Importance    sql.NullInt64
	Lat           sql.NullFloat64
	Lon           sql.NullFloat64
}

// FetchRecent returns every classified report published within the window,
// ordered oldest first. Reports inserted without an extracted event carry no
// typology and are not dedup candidates, so they are filtered out here. The
// ordering is deliberate and part of the dedup contract: the first report of
// each duplicate group survives, so oldest-first keeps the earliest sighting
// of an event.
func (s *ReportStore) FetchRecent(ctx context.Context, window time.Duration) ([]*models.Report, error) {
	cutoff := time.Now().Add(-window)

	var rows []recentRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT report_id, body, author, url, date_published, typology, accuracy, importance,
		       ST_Y(geom) AS lat, ST_X(geom) AS lon
		FROM reports
		WHERE date_published >= ? AND typology IS NOT NULL
		ORDER BY date_published ASC, id ASC`, cutoff).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch recent reports: %w", err)
	}

	reports := make([]*models.Report, len(rows))
	for i, row := range rows {
		r := &models.Report{
			ID:          row.ReportID,
			Text:        row.Body,
			Author:      row.Author,
			URL:         row.URL,
			PublishedAt: row.DatePublished,
			Typology:    models.Typology(row.Typology.String),
			Accuracy:    row.Accuracy.String,
			Importance:  int(row.Importance.Int64),
		}
		if row.Lat.Valid && row.Lon.Valid {
			r.Coordinate = &models.Coordinate{Lat: row.Lat.Float64, Lon: row.Lon.Float64}
		}
		reports[i] = r
	}
	return reports, nil
}

// DeleteByIDs removes the given reports and their images in one transaction.
// Either every id is deleted or none are; the dedup engine relies on this to
// keep a failed run side-effect free.
func (s *ReportStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM report_images WHERE report_id IN ?`, ids).Error; err != nil {
			return err
		}
		res := tx.Exec(`DELETE FROM reports WHERE report_id IN ?`, ids)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete %d reports: %w", len(ids), err)
	}
	return deleted, nil
}

// Insert stores a report and its image URLs. The geometry is built from the
// report coordinate as a WKT point; non-geolocated reports get a NULL geom.
func (s *ReportStore) Insert(ctx context.Context, report *models.Report, images []string) error {
	var geomWKT sql.NullString
	if report.Coordinate != nil {
		geomWKT = sql.NullString{
			String: fmt.Sprintf("POINT (%f %f)", report.Coordinate.Lon, report.Coordinate.Lat),
			Valid:  true,
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`
			INSERT INTO reports (report_id, date_published, url, author, body, accuracy, importance, typology, geom)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?,
			        CASE WHEN ?::text IS NOT NULL THEN ST_GeomFromText(?, 4326) ELSE NULL END)`,
			report.ID, report.PublishedAt, report.URL, report.Author, report.Text,
			nullIfEmpty(report.Accuracy), nullIfZero(report.Importance), nullIfEmpty(string(report.Typology)),
			geomWKT, geomWKT,
		).Error
		if err != nil {
			return fmt.Errorf("insert report %s: %w", report.ID, err)
		}

		for _, img := range images {
			if err := tx.Create(&ReportImage{ReportID: report.ID, ImageURL: img}).Error; err != nil {
				return fmt.Errorf("insert image for report %s: %w", report.ID, err)
			}
		}
		return nil
	})
}

// ExistingIDs returns the set of report ids already stored, used by the
// ingest pipeline to skip reports it has seen before.
func (s *ReportStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Raw(`SELECT report_id FROM reports`).Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("list report ids: %w", err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullIfZero(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

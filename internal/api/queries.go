package api

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// emptyFeatureCollection is returned when a GeoJSON query matches no rows;
// json_agg yields SQL NULL in that case, not an empty array.
var emptyFeatureCollection = []byte(`{"type":"FeatureCollection","features":[]}`)

// GeoFilter narrows the geolocated report query.
type GeoFilter struct {
	Hours   int
	Query   string
	Authors []string
}

// ImportantReport is one high-importance report with its map coordinates.
type ImportantReport struct {
	PublishedAt time.Time `json:"date_published"`
	Lon         *float64  `json:"long"`
	Lat         *float64  `json:"lat"`
	ID          int64     `json:"id"`
	Body        string    `json:"body"`
	Author      string    `json:"author"`
	URL         string    `json:"url"`
}

// PlainReport is one non-geolocated report served as context content.
type PlainReport struct {
	PublishedAt time.Time `json:"date_published"`
	ID          int64     `json:"id"`
	Body        string    `json:"body"`
	Author      string    `json:"author"`
	URL         string    `json:"url"`
}

// ReportReader is the read surface the HTTP handlers consume.
type ReportReader interface {
	ReportsGeoJSON(ctx context.Context, filter GeoFilter) ([]byte, error)
	DisputedAreasGeoJSON(ctx context.Context) ([]byte, error)
	Authors(ctx context.Context, hours int) ([]string, error)
	Important(ctx context.Context, hours int) ([]ImportantReport, error)
	Random(ctx context.Context, hours int) ([]PlainReport, error)
	LastReportTime(ctx context.Context) (*time.Time, error)
	Ping(ctx context.Context) error
}

// Queries implements ReportReader over a pgx connection pool. The API read
// path bypasses the ORM: every query here is either a PostGIS GeoJSON
// construction or a simple aggregate, and the pool serves many concurrent
// map clients.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries connects a read-only query layer to the database.
func NewQueries(ctx context.Context, dsn string, maxConns int32) (*Queries, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Queries{pool: pool}, nil
}

// Close releases the connection pool.
func (q *Queries) Close() {
	q.pool.Close()
}

// Ping checks database connectivity.
func (q *Queries) Ping(ctx context.Context) error {
	return q.pool.Ping(ctx)
}

// ReportsGeoJSON returns geolocated reports as a GeoJSON FeatureCollection,
// built directly in SQL with ST_AsGeoJSON.
func (q *Queries) ReportsGeoJSON(ctx context.Context, filter GeoFilter) ([]byte, error) {
	where := `date_published >= NOW() - make_interval(hours => $1) AND geom IS NOT NULL`
	args := []any{filter.Hours}

	if filter.Query != "" {
		where += fmt.Sprintf(` AND (body ILIKE $%d OR author ILIKE $%d)`, len(args)+1, len(args)+2)
		pattern := "%" + filter.Query + "%"
		args = append(args, pattern, pattern)
	}
	if len(filter.Authors) > 0 {
		where += fmt.Sprintf(` AND author = ANY($%d)`, len(args)+1)
		args = append(args, filter.Authors)
	}

	query := `
		SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', json_agg(
				json_build_object(
					'type', 'Feature',
					'geometry', ST_AsGeoJSON(geom)::json,
					'properties', json_build_object(
						'id', id,
						'url', url,
						'author', author,
						'date_published', date_published,
						'body', body,
						'accuracy', accuracy,
						'importance', importance,
						'typology', typology
					)
				)
			)
		)
		FROM reports
		WHERE ` + where

	var raw []byte
	if err := q.pool.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return nil, fmt.Errorf("query reports geojson: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return emptyFeatureCollection, nil
	}
	return raw, nil
}

// DisputedAreasGeoJSON returns the disputed-area polygons as GeoJSON.
func (q *Queries) DisputedAreasGeoJSON(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := q.pool.QueryRow(ctx, `
		SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', json_agg(
				json_build_object(
					'type', 'Feature',
					'geometry', ST_AsGeoJSON(geom)::json,
					'properties', json_build_object('id', id, 'name', name)
				)
			)
		)
		FROM disputed_areas`).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("query disputed areas: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return emptyFeatureCollection, nil
	}
	return raw, nil
}

// Authors lists the distinct authors active within the window.
func (q *Queries) Authors(ctx context.Context, hours int) ([]string, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT DISTINCT author
		FROM reports
		WHERE date_published >= NOW() - make_interval(hours => $1)
		ORDER BY author`, hours)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	authors, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect authors: %w", err)
	}
	return authors, nil
}

// Important returns high-importance reports, newest first, with coordinates
// so the map can center on each event.
func (q *Queries) Important(ctx context.Context, hours int) ([]ImportantReport, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, body, author, date_published, url, ST_X(geom) AS long, ST_Y(geom) AS lat
		FROM reports
		WHERE importance >= 4
		  AND date_published >= NOW() - make_interval(hours => $1)
		ORDER BY date_published DESC`, hours)
	if err != nil {
		return nil, fmt.Errorf("query important reports: %w", err)
	}
	defer rows.Close()

	var reports []ImportantReport
	for rows.Next() {
		var r ImportantReport
		if err := rows.Scan(&r.ID, &r.Body, &r.Author, &r.PublishedAt, &r.URL, &r.Lon, &r.Lat); err != nil {
			return nil, fmt.Errorf("scan important report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Random samples a few informative non-geolocated reports. The length bounds
// skip link-only posts and long threads.
func (q *Queries) Random(ctx context.Context, hours int) ([]PlainReport, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, body, author, date_published, url
		FROM reports
		WHERE date_published >= NOW() - make_interval(hours => $1)
		  AND LENGTH(body) BETWEEN 50 AND 200
		  AND geom IS NULL
		ORDER BY RANDOM()
		LIMIT 5`, hours)
	if err != nil {
		return nil, fmt.Errorf("query random reports: %w", err)
	}
	defer rows.Close()

	var reports []PlainReport
	for rows.Next() {
		var r PlainReport
		if err := rows.Scan(&r.ID, &r.Body, &r.Author, &r.PublishedAt, &r.URL); err != nil {
			return nil, fmt.Errorf("scan random report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// LastReportTime returns the publication time of the newest stored report,
// or nil when the store is empty.
func (q *Queries) LastReportTime(ctx context.Context) (*time.Time, error) {
	var last *time.Time
	if err := q.pool.QueryRow(ctx, `SELECT MAX(date_published) FROM reports`).Scan(&last); err != nil {
		return nil, fmt.Errorf("query last report time: %w", err)
	}
	return last, nil
}

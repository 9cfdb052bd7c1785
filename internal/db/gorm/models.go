package gorm

import (
	"database/sql"
	"time"
)

// ReportRow is the stored form of an event report. The PostGIS geometry
// column (geom, SRID 4326) is added by a raw-SQL migration and accessed with
// ST_* expressions; GORM never touches it directly.
type ReportRow struct {
	DatePublished time.Time      `gorm:"index:idx_reports_published,sort:desc;not null"`
	ReportID      string         `gorm:"uniqueIndex;not null"`
	Author        string         `gorm:"index;not null"`
	URL           string         `gorm:"not null"`
	Body          string         `gorm:"type:text;not null"`
	Typology      sql.NullString `gorm:"index"`
	Accuracy      sql.NullString
	Importance    sql.NullInt64
	ID            int64 `gorm:"primaryKey;autoIncrement"`
}

func (ReportRow) TableName() string { return "reports" }

// ReportImage links a report to one of its attached media URLs.
type ReportImage struct {
	ReportID string `gorm:"index;not null"`
	ImageURL string `gorm:"not null"`
	ID       int64  `gorm:"primaryKey;autoIncrement"`
}

func (ReportImage) TableName() string { return "report_images" }

// DisputedArea is a named conflict-zone polygon served by the API. The
// polygon geometry lives in a raw geom column, same as reports.
type DisputedArea struct {
	Name string `gorm:"not null"`
	ID   int64  `gorm:"primaryKey;autoIncrement"`
}

func (DisputedArea) TableName() string { return "disputed_areas" }

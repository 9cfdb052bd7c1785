package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: reports table + PostGIS point geometry
		{
			ID: "001_reports",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
					return err
				}
				if err := tx.AutoMigrate(&ReportRow{}); err != nil {
					return err
				}
				sqls := []string{
					`ALTER TABLE reports ADD COLUMN IF NOT EXISTS geom geometry(Point, 4326)`,
					`CREATE INDEX IF NOT EXISTS idx_reports_geom ON reports USING GIST (geom)`,
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("reports")
			},
		},

		// Migration 002: report images
		{
			ID: "002_report_images",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&ReportImage{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("report_images")
			},
		},

		// Migration 003: disputed areas (polygon geometry)
		{
			ID: "003_disputed_areas",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&DisputedArea{}); err != nil {
					return err
				}
				return tx.Exec(`ALTER TABLE disputed_areas ADD COLUMN IF NOT EXISTS geom geometry(Polygon, 4326)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("disputed_areas")
			},
		},
	})

	return m.Migrate()
}

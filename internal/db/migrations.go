package db

import (
	"fmt"

	"gorm.io/gorm"

	"dashboard-service/internal/config"
)

// The detection pipeline owns tracking_data; postgres only gets read-path
// indexes when the table is already there.
var postgresStatements = []string{
	`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'tracking_data') THEN
			CREATE INDEX IF NOT EXISTS idx_tracking_data_created_at ON tracking_data (created_at DESC);
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'tracking_data') THEN
			CREATE INDEX IF NOT EXISTS idx_tracking_data_class_created_at ON tracking_data (class, created_at DESC);
		END IF;
	END
	$$;`,
}

// sqlite is the local development source, so the table is created when
// missing.
var sqliteStatements = []string{
	`CREATE TABLE IF NOT EXISTS tracking_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		track_id INTEGER,
		created_at DATETIME NOT NULL,
		class TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_tracking_data_created_at ON tracking_data (created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_tracking_data_class_created_at ON tracking_data (class, created_at DESC);`,
}

func migrationStatements(kind string) []string {
	switch kind {
	case config.SourcePostgres:
		return postgresStatements
	case config.SourceSQLite:
		return sqliteStatements
	default:
		return nil
	}
}

// Migrate applies the statements for the given source kind to an opened
// connection. Every statement is idempotent.
func Migrate(db *gorm.DB, kind string) error {
	for i, stmt := range migrationStatements(kind) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}


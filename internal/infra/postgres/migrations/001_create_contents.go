package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createContentsTable creates the contents table with all indexes.
func createContentsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_contents",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS contents (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					author_id UUID NOT NULL,

					title VARCHAR(500) NOT NULL,
					language VARCHAR(16) NOT NULL,
					category VARCHAR(50),
					tags TEXT[],
					duration_seconds INTEGER DEFAULT 0,

					-- Recomputed by the popularity refresher
					popularity DECIMAL(12,4) DEFAULT 0,

					-- Timestamps
					published_at TIMESTAMP NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_contents_author_id ON contents(author_id);",
				"CREATE INDEX IF NOT EXISTS idx_contents_language ON contents(language);",
				"CREATE INDEX IF NOT EXISTS idx_contents_category ON contents(category);",
				"CREATE INDEX IF NOT EXISTS idx_contents_popularity ON contents(popularity DESC);",
				"CREATE INDEX IF NOT EXISTS idx_contents_published_at ON contents(published_at DESC);",
			}
			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS contents;").Error
		},
	}
}

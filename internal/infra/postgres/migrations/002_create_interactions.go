package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createInteractionsTable creates the append-only interactions table.
// The two composite indexes back the feed engine's hot queries:
// per-user history (seed set, view history) and per-content neighbor
// lookups.
func createInteractionsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_interactions",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS interactions (
					id BIGSERIAL PRIMARY KEY,
					user_id UUID NOT NULL,
					content_id UUID NOT NULL,
					kind VARCHAR(10) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_interactions_user_kind_time ON interactions(user_id, kind, created_at DESC);",
				"CREATE INDEX IF NOT EXISTS idx_interactions_content_kind ON interactions(content_id, kind);",
			}
			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS interactions;").Error
		},
	}
}

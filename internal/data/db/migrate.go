package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/parla-backend/internal/domain"
)

// AutoMigrateAll creates or updates every table, including the unique indexes
// that back target and error upserts.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureIndexes(db)
}

func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_targets_user_status_planned",
			sql:  `CREATE INDEX IF NOT EXISTS idx_targets_user_status_planned ON targets (user_id, status, planned_at DESC);`,
		},
		{
			name: "idx_errors_user_rank",
			sql:  `CREATE INDEX IF NOT EXISTS idx_errors_user_rank ON errors (user_id, occurrence_count DESC, last_seen_at DESC);`,
		},
		{
			name: "idx_recommended_actions_user_created",
			sql:  `CREATE INDEX IF NOT EXISTS idx_recommended_actions_user_created ON recommended_actions (user_id, created_at DESC);`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

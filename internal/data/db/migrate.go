package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&evaluation.Evaluation{},
		&billing.Subscription{},
		&billing.BillingEvent{},
	); err != nil {
		return err
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds the composite indexes gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	// usage reconciliation counts a user's rows since the period start
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_evaluations_user_created ON evaluations(user_id, created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_evaluations_user_created: %w", err)
	}
	return nil
}

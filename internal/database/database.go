package database

import (
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/config"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Item{},
		&model.ClaimRequest{},
		&model.Notification{},
	)
	if err != nil {
		return err
	}

	// Composite index for the search scan (approved, non-reunited items).
	db.Exec("CREATE INDEX IF NOT EXISTS idx_items_approved_reunited ON items(is_approved, reunited)")
	// Newest open claim per item is looked up on every confirmation.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_claim_requests_item_created ON claim_requests(item_id, created_at DESC)")

	return nil
}

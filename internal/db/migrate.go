package db

import (
	"sigmine/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Agent{},
		&models.AgentStat{},
		&models.Signal{},
		&models.Message{},
		&models.Claim{},
		&models.ClaimEvent{},
		&models.RateWindow{},
		&models.Market{},
		&models.SyncState{},
	)
}

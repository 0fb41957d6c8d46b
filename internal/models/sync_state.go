package models

import "time"

// SyncState records the last refresh of a cached external dataset.
type SyncState struct {
	Scope       string    `gorm:"primaryKey;type:text"`
	LastFetchAt time.Time `gorm:"type:timestamptz;not null"`
	ItemCount   int       `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SyncState) TableName() string {
	return "sync_states"
}

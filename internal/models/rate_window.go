package models

import "time"

// RateWindow is one fixed rate-limit window keyed "agentID:action". It is
// a non-sliding window: a burst at the boundary of two windows can briefly
// allow up to twice the nominal rate, which is accepted behavior.
type RateWindow struct {
	Key         string    `gorm:"primaryKey;type:text"`
	Count       int       `gorm:"not null;default:0"`
	WindowStart time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (RateWindow) TableName() string {
	return "rate_windows"
}

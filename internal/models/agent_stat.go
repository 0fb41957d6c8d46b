package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgentStat is the legacy per-agent stats view kept alongside the registry
// for backward compatibility. Reward writes always touch both; see the
// dual-write in the signal service.
type AgentStat struct {
	AgentID    string          `gorm:"primaryKey;type:text" json:"agent_id"`
	Points     decimal.Decimal `gorm:"type:numeric(12,1);not null;default:0" json:"points"`
	Signals    int             `gorm:"not null;default:0" json:"signals"`
	FirstSeen  time.Time       `gorm:"type:timestamptz;not null" json:"first_seen"`
	LastSignal *time.Time      `gorm:"type:timestamptz" json:"last_signal,omitempty"`
}

func (AgentStat) TableName() string {
	return "agent_stats"
}

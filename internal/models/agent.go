package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusOnline  = "online"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

// Agent is the registry record for one registered participant. The genesis
// fields are denormalized at registration time and never recomputed, even
// if tier boundaries change later.
type Agent struct {
	ID           string                     `gorm:"primaryKey;type:text" json:"id"`
	APIKey       string                     `gorm:"type:text;uniqueIndex;not null" json:"-"`
	Name         string                     `gorm:"type:text;not null;index" json:"name"`
	Wallet       *string                    `gorm:"type:text" json:"wallet,omitempty"`
	Capabilities datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"capabilities"`
	Description  string                     `gorm:"type:text" json:"description"`
	Metadata     datatypes.JSONMap          `gorm:"type:jsonb" json:"metadata"`

	Status      string  `gorm:"type:varchar(10);not null;default:online" json:"status"`
	CurrentTask *string `gorm:"type:text" json:"current_task,omitempty"`
	LastSeen    time.Time `gorm:"type:timestamptz;not null;index" json:"last_seen"`

	GenesisNumber     int    `gorm:"not null" json:"genesis_number"`
	GenesisTier       string `gorm:"type:varchar(10);not null" json:"genesis_tier"`
	GenesisMultiplier int    `gorm:"not null" json:"genesis_multiplier"`

	Streak         int     `gorm:"not null;default:0" json:"streak"`
	LastSignalDate *string `gorm:"type:varchar(10)" json:"last_signal_date,omitempty"`

	Points           decimal.Decimal `gorm:"type:numeric(12,1);not null;default:0" json:"points"`
	Signals          int             `gorm:"not null;default:0" json:"signals"`
	MessagesSent     int             `gorm:"not null;default:0" json:"messages_sent"`
	MessagesReceived int             `gorm:"not null;default:0" json:"messages_received"`

	ShareBonusClaimed   bool       `gorm:"not null;default:false" json:"share_bonus_claimed"`
	ShareBonusClaimedAt *time.Time `gorm:"type:timestamptz" json:"share_bonus_claimed_at,omitempty"`
	ShareTweet          *string    `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Agent) TableName() string {
	return "agents"
}

// HasCapability reports exact membership of cap in the agent's set.
func (a *Agent) HasCapability(cap string) bool {
	for _, c := range a.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// HasAllCapabilities reports whether the agent covers the full required
// set (AND semantics).
func (a *Agent) HasAllCapabilities(caps []string) bool {
	for _, c := range caps {
		if !a.HasCapability(c) {
			return false
		}
	}
	return true
}

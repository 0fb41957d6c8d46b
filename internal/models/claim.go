package models

import "time"

const (
	ClaimStatusActive   = "active"
	ClaimStatusReleased = "released"

	ClaimActionClaimed  = "claimed"
	ClaimActionReleased = "released"
)

// Claim is the exclusive lease binding one market to one agent. At most
// one row per market; expiry is evaluated lazily on read.
type Claim struct {
	MarketID  string    `gorm:"primaryKey;type:text" json:"market_id"`
	AgentID   string    `gorm:"type:text;not null;index" json:"agent_id"`
	ClaimedAt time.Time `gorm:"type:timestamptz;not null" json:"claimed_at"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null" json:"expires_at"`
	Status    string    `gorm:"type:varchar(10);not null" json:"status"`
}

func (Claim) TableName() string {
	return "claims"
}

// Expired reports lease liveness at the given instant.
func (c *Claim) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt) || c.Status != ClaimStatusActive
}

// ClaimEvent is the append-only history of claim transitions.
type ClaimEvent struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	MarketID   string     `gorm:"type:text;not null;index" json:"market_id"`
	AgentID    string     `gorm:"type:text;not null" json:"agent_id"`
	Action     string     `gorm:"type:varchar(10);not null" json:"action"`
	ClaimedAt  time.Time  `gorm:"type:timestamptz;not null" json:"claimed_at"`
	ExpiresAt  time.Time  `gorm:"type:timestamptz;not null" json:"expires_at"`
	ReleasedAt *time.Time `gorm:"type:timestamptz" json:"released_at,omitempty"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (ClaimEvent) TableName() string {
	return "claim_events"
}

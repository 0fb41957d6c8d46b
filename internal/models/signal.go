package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	SignalTypeMarket = "market_signal"
	SignalTypeNews   = "news_signal"

	DirectionSupportsYes = "supports_yes"
	DirectionSupportsNo  = "supports_no"
	DirectionNeutral     = "neutral"

	ResolutionPending = "pending"
)

// Signal is one submitted research claim. The log is append-only; rows are
// never updated or deleted. Market signals keep the direction/confidence
// fields, news signals keep their structured claim in Payload.
type Signal struct {
	ID      string `gorm:"primaryKey;type:text" json:"signal_id"`
	EpochID string `gorm:"type:varchar(8);not null;index" json:"epoch_id"`
	Type    string `gorm:"type:varchar(20);not null;index" json:"type"`

	AgentID   string `gorm:"type:text;not null;index:idx_signals_agent_market" json:"agent_id"`
	AgentName string `gorm:"type:text" json:"agent_name"`

	MarketID  *string  `gorm:"type:text;index:idx_signals_agent_market;index" json:"market_id,omitempty"`
	MarketURL *string  `gorm:"type:text" json:"market_url,omitempty"`
	Direction *string  `gorm:"type:varchar(12)" json:"direction,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`

	Finding   string                     `gorm:"type:text" json:"signal"`
	Sources   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"sources"`
	Reasoning string                     `gorm:"type:text" json:"reasoning"`

	// Extra fields of the legacy news path (source_url, title, main_claim,
	// entities, sentiment, category, summary).
	Payload datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`

	Points          decimal.Decimal `gorm:"type:numeric(12,1);not null" json:"points"`
	PointsBreakdown datatypes.JSON  `gorm:"type:jsonb" json:"points_breakdown,omitempty"`
	IsFirstSignal   bool            `gorm:"not null;default:false" json:"is_first_signal"`

	ResolutionStatus string    `gorm:"type:varchar(12);not null;default:pending" json:"resolution_status"`
	SubmittedAt      time.Time `gorm:"type:timestamptz;not null;index" json:"submitted_at"`
}

func (Signal) TableName() string {
	return "signals"
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// Market is a read-only snapshot row from the external provider. The cache
// is replaced wholesale on refresh; agent actions never write it.
type Market struct {
	MarketID    string                      `gorm:"primaryKey;type:text" json:"market_id"`
	Question    string                      `gorm:"type:text;not null" json:"question"`
	Slug        string                      `gorm:"type:text" json:"slug"`
	Description string                      `gorm:"type:text" json:"description"`
	Outcomes    datatypes.JSONSlice[string]  `gorm:"type:jsonb" json:"outcomes"`
	Prices      datatypes.JSONSlice[float64] `gorm:"type:jsonb" json:"current_prices"`
	Volume      float64                     `gorm:"not null;default:0" json:"volume"`
	Liquidity   float64                     `gorm:"not null;default:0" json:"liquidity"`
	EndDate     *time.Time                  `gorm:"type:timestamptz" json:"end_date,omitempty"`
	URL         string                      `gorm:"type:text" json:"url"`
	Platform    string                      `gorm:"type:varchar(20);not null" json:"platform"`
	FetchedAt   time.Time                   `gorm:"type:timestamptz;not null" json:"-"`
}

func (Market) TableName() string {
	return "market_cache"
}

// Odds maps outcome labels to their probabilities where both lists align.
func (m *Market) Odds() map[string]float64 {
	odds := make(map[string]float64, len(m.Outcomes))
	for i, outcome := range m.Outcomes {
		if i < len(m.Prices) {
			odds[outcome] = m.Prices[i]
		}
	}
	return odds
}

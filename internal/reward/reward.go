// Package reward implements the point formula applied to market signal
// submissions: per-signal bonuses multiplied by the agent's frozen genesis
// tier and its live daily streak.
package reward

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BasePoints       = 2
	FirstSignalBonus = 2
	ShareBonus       = 1

	// Genesis tiers are fixed at registration and never recomputed.
	FoundingMax = 10
	EarlyMax    = 50
	GenesisMax  = 100
)

// GenesisMultiplier maps a registration order number to its permanent
// point multiplier.
func GenesisMultiplier(genesisNumber int) int {
	switch {
	case genesisNumber <= FoundingMax:
		return 4
	case genesisNumber <= EarlyMax:
		return 3
	case genesisNumber <= GenesisMax:
		return 2
	default:
		return 1
	}
}

func GenesisTier(genesisNumber int) string {
	switch {
	case genesisNumber <= FoundingMax:
		return "founding"
	case genesisNumber <= EarlyMax:
		return "early"
	case genesisNumber <= GenesisMax:
		return "genesis"
	default:
		return "normal"
	}
}

// StreakMultiplier maps consecutive signal days to a multiplier. The
// thresholds are strictly greater-than: a 7 day streak still pays 1x, the
// 8th day moves to 1.2x.
func StreakMultiplier(streakDays int) decimal.Decimal {
	switch {
	case streakDays > 30:
		return decimal.NewFromInt(2)
	case streakDays > 14:
		return decimal.NewFromFloat(1.5)
	case streakDays > 7:
		return decimal.NewFromFloat(1.2)
	default:
		return decimal.NewFromInt(1)
	}
}

// NextStreak applies one streak transition for a signal submitted at now
// (UTC calendar days). lastSignalDate is the stored YYYY-MM-DD date of the
// agent's previous signal, or empty if it never signaled.
func NextStreak(current int, lastSignalDate string, now time.Time) int {
	today := now.UTC().Format(time.DateOnly)
	yesterday := now.UTC().AddDate(0, 0, -1).Format(time.DateOnly)

	switch lastSignalDate {
	case "":
		return 1
	case today:
		// Multiple signals on the same day keep the streak.
		if current < 1 {
			return 1
		}
		return current
	case yesterday:
		return current + 1
	default:
		return 1
	}
}

// Input captures everything the formula needs about one submission.
type Input struct {
	SourceCount       int
	Confidence        float64
	ReasoningLength   int
	IsFirstSignal     bool
	GenesisMultiplier int
	StreakDays        int
}

// Breakdown is the persisted audit of every term applied to a signal.
type Breakdown struct {
	Base             decimal.Decimal `json:"base"`
	SourceBonus      decimal.Decimal `json:"source_bonus"`
	ConfidenceBonus  decimal.Decimal `json:"confidence_bonus"`
	FirstSignalBonus decimal.Decimal `json:"first_signal_bonus"`
	ReasoningBonus   decimal.Decimal `json:"reasoning_bonus"`
	RawPoints        decimal.Decimal `json:"raw_points"`
	GenesisMult      decimal.Decimal `json:"genesis_multiplier"`
	StreakMult       decimal.Decimal `json:"streak_multiplier"`
	StreakDays       int             `json:"streak_days"`
}

// Compute evaluates the formula:
//
//	raw   = 2 + min(0.5*sources, 2) + (confidence>0.7 ? 1 : 0)
//	        + (first ? 2 : 0) + (len(reasoning)>100 ? 0.5 : 0)
//	final = round(raw * genesis * streak, 1)
func Compute(in Input) (Breakdown, decimal.Decimal) {
	b := Breakdown{
		Base:       decimal.NewFromInt(BasePoints),
		StreakDays: in.StreakDays,
	}

	b.SourceBonus = decimal.NewFromFloat(0.5).Mul(decimal.NewFromInt(int64(in.SourceCount)))
	if cap := decimal.NewFromInt(2); b.SourceBonus.GreaterThan(cap) {
		b.SourceBonus = cap
	}

	b.ConfidenceBonus = decimal.Zero
	if in.Confidence > 0.7 {
		b.ConfidenceBonus = decimal.NewFromInt(1)
	}

	b.FirstSignalBonus = decimal.Zero
	if in.IsFirstSignal {
		b.FirstSignalBonus = decimal.NewFromInt(FirstSignalBonus)
	}

	b.ReasoningBonus = decimal.Zero
	if in.ReasoningLength > 100 {
		b.ReasoningBonus = decimal.NewFromFloat(0.5)
	}

	b.RawPoints = b.Base.
		Add(b.SourceBonus).
		Add(b.ConfidenceBonus).
		Add(b.FirstSignalBonus).
		Add(b.ReasoningBonus)

	genesis := in.GenesisMultiplier
	if genesis < 1 {
		genesis = 1
	}
	b.GenesisMult = decimal.NewFromInt(int64(genesis))
	b.StreakMult = StreakMultiplier(in.StreakDays)

	final := b.RawPoints.Mul(b.GenesisMult).Mul(b.StreakMult).Round(1)
	return b, final
}

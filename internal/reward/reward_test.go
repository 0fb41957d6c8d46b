package reward

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGenesisMultiplierBoundaries(t *testing.T) {
	cases := []struct {
		number int
		mult   int
		tier   string
	}{
		{1, 4, "founding"},
		{10, 4, "founding"},
		{11, 3, "early"},
		{50, 3, "early"},
		{51, 2, "genesis"},
		{100, 2, "genesis"},
		{101, 1, "normal"},
		{5000, 1, "normal"},
	}
	for _, tc := range cases {
		if got := GenesisMultiplier(tc.number); got != tc.mult {
			t.Errorf("GenesisMultiplier(%d)=%d want=%d", tc.number, got, tc.mult)
		}
		if got := GenesisTier(tc.number); got != tc.tier {
			t.Errorf("GenesisTier(%d)=%s want=%s", tc.number, got, tc.tier)
		}
	}
}

func TestStreakMultiplierBoundaries(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{0, "1"},
		{7, "1"},
		{8, "1.2"},
		{14, "1.2"},
		{15, "1.5"},
		{30, "1.5"},
		{31, "2"},
		{365, "2"},
	}
	for _, tc := range cases {
		if got := StreakMultiplier(tc.days); got.String() != tc.want {
			t.Errorf("StreakMultiplier(%d)=%s want=%s", tc.days, got, tc.want)
		}
	}
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)

	if got := NextStreak(0, "", now); got != 1 {
		t.Fatalf("first ever signal: streak=%d want=1", got)
	}
	if got := NextStreak(5, "2026-08-31", now); got != 5 {
		t.Fatalf("same-day signal: streak=%d want=5", got)
	}
	if got := NextStreak(5, "2026-08-30", now); got != 6 {
		t.Fatalf("consecutive day: streak=%d want=6", got)
	}
	if got := NextStreak(12, "2026-08-28", now); got != 1 {
		t.Fatalf("two-day gap: streak=%d want=1", got)
	}
}

func TestNextStreakAcrossMonthBoundary(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 30, 0, 0, time.UTC)
	if got := NextStreak(3, "2026-08-31", now); got != 4 {
		t.Fatalf("month boundary: streak=%d want=4", got)
	}
}

func TestComputeMaxRawFirstSignal(t *testing.T) {
	// 5 sources, confidence 0.9, reasoning > 100 chars, first signal:
	// raw = 2 + min(2.5,2) + 1 + 2 + 0.5 = 7.5
	b, final := Compute(Input{
		SourceCount:       5,
		Confidence:        0.9,
		ReasoningLength:   150,
		IsFirstSignal:     true,
		GenesisMultiplier: 1,
		StreakDays:        1,
	})

	if b.SourceBonus.String() != "2" {
		t.Fatalf("source_bonus=%s want=2", b.SourceBonus)
	}
	if b.ConfidenceBonus.String() != "1" {
		t.Fatalf("confidence_bonus=%s want=1", b.ConfidenceBonus)
	}
	if b.FirstSignalBonus.String() != "2" {
		t.Fatalf("first_signal_bonus=%s want=2", b.FirstSignalBonus)
	}
	if b.ReasoningBonus.String() != "0.5" {
		t.Fatalf("reasoning_bonus=%s want=0.5", b.ReasoningBonus)
	}
	if b.RawPoints.String() != "7.5" {
		t.Fatalf("raw_points=%s want=7.5", b.RawPoints)
	}
	if final.String() != "7.5" {
		t.Fatalf("final=%s want=7.5", final)
	}
}

func TestComputeMultipliersAndRounding(t *testing.T) {
	// raw = 2 + 0.5 + 0 + 0 + 0 = 2.5; 2.5 * 3 * 1.2 = 9
	_, final := Compute(Input{
		SourceCount:       1,
		Confidence:        0.5,
		GenesisMultiplier: 3,
		StreakDays:        8,
	})
	if final.String() != "9" {
		t.Fatalf("final=%s want=9", final)
	}

	// raw = 2; 2 * 1 * 1.2 = 2.4 (one decimal kept)
	_, final = Compute(Input{
		Confidence:        0.1,
		GenesisMultiplier: 1,
		StreakDays:        10,
	})
	if final.String() != "2.4" {
		t.Fatalf("final=%s want=2.4", final)
	}
}

func TestComputeCeiling(t *testing.T) {
	// Absolute maximum: raw 7.5 * 4x genesis * 2x streak = 60.
	_, final := Compute(Input{
		SourceCount:       10,
		Confidence:        1,
		ReasoningLength:   500,
		IsFirstSignal:     true,
		GenesisMultiplier: 4,
		StreakDays:        31,
	})
	if !final.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("final=%s want=60", final)
	}
}

func TestConfidenceBonusBoundary(t *testing.T) {
	b, _ := Compute(Input{Confidence: 0.7, GenesisMultiplier: 1, StreakDays: 1})
	if !b.ConfidenceBonus.IsZero() {
		t.Fatalf("confidence 0.7 should not earn the bonus, got %s", b.ConfidenceBonus)
	}
	b, _ = Compute(Input{Confidence: 0.71, GenesisMultiplier: 1, StreakDays: 1})
	if b.ConfidenceBonus.String() != "1" {
		t.Fatalf("confidence 0.71 bonus=%s want=1", b.ConfidenceBonus)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sigmine/internal/models"
)

func TestLeaderboardMergesRegistryAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice")
	alice.Points = decimal.NewFromInt(40)
	alice.Signals = 4
	if err := env.repo.UpdateAgent(ctx, alice); err != nil {
		t.Fatalf("update agent: %v", err)
	}

	// Legacy scorer with no registry row ranks under its raw id.
	now := env.clock.Now()
	env.repo.stats["anon-agent-1"] = &models.AgentStat{
		AgentID:   "anon-agent-1",
		Points:    decimal.NewFromInt(60),
		Signals:   9,
		FirstSeen: now,
	}

	entries, err := env.stats.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].AgentID != "anon-agent-1" || entries[0].Name != "anon-agent-1" || entries[0].Status != "unknown" {
		t.Fatalf("top entry = %+v", entries[0])
	}
	if entries[1].Name != "Alice" || entries[1].Points.String() != "40" {
		t.Fatalf("second entry = %+v", entries[1])
	}
}

func TestLeaderboardPrefersRegistryIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice")
	now := env.clock.Now()
	env.repo.stats[alice.ID] = &models.AgentStat{
		AgentID:   alice.ID,
		Points:    decimal.NewFromInt(25),
		Signals:   2,
		FirstSeen: now,
	}

	entries, err := env.stats.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 merged row", len(entries))
	}
	if entries[0].Name != "Alice" || entries[0].Status != models.StatusOnline {
		t.Fatalf("merged entry = %+v", entries[0])
	}
	// Points come from the stats mirror, name and status from the registry.
	if entries[0].Points.String() != "25" || entries[0].Signals != 2 {
		t.Fatalf("merged entry kept wrong counters: %+v", entries[0])
	}
}

func TestLeaderboardCapsAtTwenty(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	for i := 0; i < 25; i++ {
		id := "agent-" + string(rune('a'+i))
		env.repo.stats[id] = &models.AgentStat{
			AgentID:   id,
			Points:    decimal.NewFromInt(int64(i)),
			FirstSeen: now,
		}
	}

	entries, err := env.stats.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 20 {
		t.Fatalf("entries = %d, want 20", len(entries))
	}
	if entries[0].Points.String() != "24" {
		t.Fatalf("top points = %s, want 24", entries[0].Points)
	}
}

func TestRecentSignalsResolvesNames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "Alice")

	if _, err := env.signals.SubmitMarket(ctx, marketSubmission(alice.ID, "mkt-recent")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// Anonymous submitter with a long id truncates to a short handle.
	anonID := "0123456789abcdef0123"
	if _, err := env.signals.SubmitMarket(ctx, marketSubmission(anonID, "mkt-anon")); err != nil {
		t.Fatalf("submit anon: %v", err)
	}

	signals, err := env.stats.RecentSignals(ctx, 10)
	if err != nil {
		t.Fatalf("recent signals: %v", err)
	}
	names := map[string]string{}
	for _, sig := range signals {
		names[*sig.MarketID] = sig.AgentName
	}
	if names["mkt-recent"] != "Alice" {
		t.Fatalf("registered name = %q, want Alice", names["mkt-recent"])
	}
	if names["mkt-anon"] != anonID[:12] {
		t.Fatalf("anon name = %q, want %q", names["mkt-anon"], anonID[:12])
	}
}

func TestOverviewCountsTodayOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "Alice")
	env.register(t, "Bob")

	if _, err := env.signals.SubmitMarket(ctx, marketSubmission(alice.ID, "mkt-day1")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	env.clock.Advance(24 * time.Hour)
	if _, err := env.signals.SubmitMarket(ctx, marketSubmission(alice.ID, "mkt-day2")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	overview, err := env.stats.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.TotalSignals != 2 {
		t.Fatalf("total signals = %d, want 2", overview.TotalSignals)
	}
	if overview.SignalsToday != 1 {
		t.Fatalf("signals today = %d, want 1", overview.SignalsToday)
	}
	if overview.TotalAgents != 2 {
		t.Fatalf("total agents = %d, want 2", overview.TotalAgents)
	}
	// Both registered a day ago and never heartbeated since, so presence decayed.
	if overview.OnlineAgents != 0 {
		t.Fatalf("online agents = %d, want 0", overview.OnlineAgents)
	}
}

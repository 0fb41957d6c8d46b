package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sigmine/internal/apperr"
)

func marketSubmission(agentID, marketID string) SubmitMarketInput {
	return SubmitMarketInput{
		AgentID:    agentID,
		MarketID:   marketID,
		Direction:  "supports_yes",
		Confidence: floatPtr(0.9),
		Finding:    "Polls moved sharply after the debate",
		Sources:    []string{"https://a.example", "https://b.example"},
		Reasoning:  strings.Repeat("evidence ", 15),
	}
}

func TestSubmitMarketScoresAndDualWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout") // #1, founding, 4x

	result, err := env.signals.SubmitMarket(ctx, marketSubmission(agent.ID, "mkt-1"))
	if err != nil {
		t.Fatal(err)
	}

	// raw = 2 + 1.0 + 1 + 2 + 0.5 = 6.5; *4 genesis *1 streak = 26.0
	if !result.Signal.Points.Equal(decimal.NewFromInt(26)) {
		t.Fatalf("expected 26 points, got %s", result.Signal.Points)
	}
	if !result.Signal.IsFirstSignal {
		t.Fatal("first signal for the market should carry the bonus")
	}
	if result.Breakdown.StreakDays != 1 {
		t.Fatalf("expected streak day 1, got %d", result.Breakdown.StreakDays)
	}

	stored, _ := env.repo.GetAgentByID(ctx, agent.ID)
	if !stored.Points.Equal(result.Signal.Points) || stored.Signals != 1 || stored.Streak != 1 {
		t.Fatalf("registry row not updated: %+v", stored)
	}
	stat, _ := env.repo.GetAgentStat(ctx, agent.ID)
	if stat == nil || !stat.Points.Equal(result.Signal.Points) || stat.Signals != 1 {
		t.Fatalf("stats mirror not updated: %+v", stat)
	}
}

func TestSubmitMarketFirstSignalBonusOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.register(t, "first")
	second := env.register(t, "second")

	r1, err := env.signals.SubmitMarket(ctx, marketSubmission(first.ID, "mkt-1"))
	if err != nil {
		t.Fatal(err)
	}
	r2, err := env.signals.SubmitMarket(ctx, marketSubmission(second.ID, "mkt-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !r1.Signal.IsFirstSignal || r2.Signal.IsFirstSignal {
		t.Fatal("first-signal bonus should apply exactly once per market")
	}
}

func TestSubmitMarketDuplicateRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout")

	first, err := env.signals.SubmitMarket(ctx, marketSubmission(agent.ID, "mkt-1"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.signals.SubmitMarket(ctx, marketSubmission(agent.ID, "mkt-1"))
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := apperr.MetaOf(err)["existing_signal_id"]; got != first.Signal.ID {
		t.Fatalf("existing_signal_id = %v, want %s", got, first.Signal.ID)
	}
}

func TestSubmitMarketValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout")

	cases := []struct {
		name   string
		mutate func(*SubmitMarketInput)
	}{
		{"missing market", func(in *SubmitMarketInput) { in.MarketID = "" }},
		{"bad direction", func(in *SubmitMarketInput) { in.Direction = "yes" }},
		{"missing confidence", func(in *SubmitMarketInput) { in.Confidence = nil }},
		{"confidence over 1", func(in *SubmitMarketInput) { in.Confidence = floatPtr(1.5) }},
		{"short finding", func(in *SubmitMarketInput) { in.Finding = "too short" }},
		{"missing agent", func(in *SubmitMarketInput) { in.AgentID = "" }},
	}
	for _, tc := range cases {
		in := marketSubmission(agent.ID, "mkt-"+tc.name)
		tc.mutate(&in)
		if _, err := env.signals.SubmitMarket(ctx, in); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestSubmitMarketRateLimitPrecedesValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout")

	// Ten malformed submissions still burn the hourly budget.
	for i := 0; i < 10; i++ {
		in := marketSubmission(agent.ID, "mkt-x")
		in.Direction = "bogus"
		if _, err := env.signals.SubmitMarket(ctx, in); apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("attempt %d: expected validation error, got %v", i+1, err)
		}
	}
	_, err := env.signals.SubmitMarket(ctx, marketSubmission(agent.ID, "mkt-x"))
	if apperr.KindOf(err) != apperr.KindRateLimit {
		t.Fatalf("expected rate limit, got %v", err)
	}
}

func TestSubmitMarketUnregisteredAgent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.signals.SubmitMarket(ctx, marketSubmission("ghost-agent", "mkt-1"))
	if err != nil {
		t.Fatal(err)
	}
	// No genesis or streak multiplier: raw 6.5 stays 6.5.
	if !result.Signal.Points.Equal(decimal.NewFromFloat(6.5)) {
		t.Fatalf("expected 6.5 points, got %s", result.Signal.Points)
	}
	if result.Signal.AgentName != "unknown" {
		t.Fatalf("expected unknown agent name, got %q", result.Signal.AgentName)
	}
	// The stats mirror still tracks the ghost.
	stat, _ := env.repo.GetAgentStat(ctx, "ghost-agent")
	if stat == nil || stat.Signals != 1 {
		t.Fatalf("expected mirror row for unregistered agent, got %+v", stat)
	}
}

func TestSubmitMarketStreakProgression(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout")

	for day := 0; day < 3; day++ {
		in := marketSubmission(agent.ID, "mkt-"+string(rune('a'+day)))
		result, err := env.signals.SubmitMarket(ctx, in)
		if err != nil {
			t.Fatalf("day %d: %v", day+1, err)
		}
		if result.Breakdown.StreakDays != day+1 {
			t.Fatalf("day %d: expected streak %d, got %d", day+1, day+1, result.Breakdown.StreakDays)
		}
		env.clock.Advance(24 * time.Hour)
	}

	// Skipping a day resets the streak.
	env.clock.Advance(24 * time.Hour)
	result, err := env.signals.SubmitMarket(ctx, marketSubmission(agent.ID, "mkt-z"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Breakdown.StreakDays != 1 {
		t.Fatalf("expected streak reset to 1, got %d", result.Breakdown.StreakDays)
	}
}

func TestSubmitMarketAttachesMarketURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout")
	seedMarket(env, "mkt-1", "Will it happen?", "https://polymarket.com/event/will-it")

	result, err := env.signals.SubmitMarket(ctx, marketSubmission(agent.ID, "mkt-1"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Signal.MarketURL == nil || *result.Signal.MarketURL != "https://polymarket.com/event/will-it" {
		t.Fatalf("expected cached market url, got %v", result.Signal.MarketURL)
	}
}

func TestSubmitNewsFlatRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout")

	in := SubmitNewsInput{
		AgentID:   agent.ID,
		SourceURL: "https://news.example/story",
		Title:     "Big story",
		MainClaim: "Something happened",
		Entities:  []string{"Someone"},
		Sentiment: "neutral",
		Category:  "news",
		Summary:   "A thing occurred.",
	}
	signal, err := env.signals.SubmitNews(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if !signal.Points.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected flat 1 point, got %s", signal.Points)
	}
	stored, _ := env.repo.GetAgentByID(ctx, agent.ID)
	if !stored.Points.Equal(decimal.NewFromInt(1)) || stored.Signals != 1 {
		t.Fatalf("registry not updated: %+v", stored)
	}

	in.Sentiment = "angry"
	if _, err := env.signals.SubmitNews(ctx, in); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected sentiment validation, got %v", err)
	}
	in.Sentiment = "neutral"
	in.Title = ""
	if _, err := env.signals.SubmitNews(ctx, in); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

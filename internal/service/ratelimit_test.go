package service

import (
	"context"
	"testing"
	"time"

	"sigmine/internal/apperr"
)

func TestRateLimiterRejectsOverBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := env.limiter.Allow(ctx, "agent-1", ActionSignal, 10); err != nil {
			t.Fatalf("call %d should pass: %v", i+1, err)
		}
	}

	status, err := env.limiter.Allow(ctx, "agent-1", ActionSignal, 10)
	if apperr.KindOf(err) != apperr.KindRateLimit {
		t.Fatalf("11th call: expected rate limit, got %v", err)
	}
	if status.Current != 10 || status.Limit != 10 {
		t.Fatalf("unexpected status: %+v", status)
	}
	meta := apperr.MetaOf(err)
	if meta == nil || meta["reset_in_seconds"] == nil {
		t.Fatalf("expected reset metadata, got %v", meta)
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := env.limiter.Allow(ctx, "agent-1", ActionClaim, 5); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.limiter.Allow(ctx, "agent-1", ActionClaim, 5); err == nil {
		t.Fatal("expected rejection before window reset")
	}

	env.clock.Advance(61 * time.Minute)
	status, err := env.limiter.Allow(ctx, "agent-1", ActionClaim, 5)
	if err != nil {
		t.Fatalf("expected fresh window, got %v", err)
	}
	if status.Current != 1 {
		t.Fatalf("expected counter restart, got %d", status.Current)
	}
}

func TestRateLimiterIsolatesKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := env.limiter.Allow(ctx, "agent-1", ActionClaim, 5); err != nil {
			t.Fatal(err)
		}
	}
	// Same agent, different action; different agent, same action.
	if _, err := env.limiter.Allow(ctx, "agent-1", ActionSignal, 10); err != nil {
		t.Fatalf("action isolation broken: %v", err)
	}
	if _, err := env.limiter.Allow(ctx, "agent-2", ActionClaim, 5); err != nil {
		t.Fatalf("agent isolation broken: %v", err)
	}
}

func TestRateLimiterGC(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.limiter.Allow(ctx, "agent-1", ActionSignal, 10); err != nil {
		t.Fatal(err)
	}
	env.clock.Advance(2 * time.Hour)
	deleted, err := env.limiter.GC(ctx)
	if err != nil || deleted != 1 {
		t.Fatalf("expected one expired window deleted, got %d / %v", deleted, err)
	}
}

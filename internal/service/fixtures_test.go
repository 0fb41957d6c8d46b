package service

import (
	"context"
	"testing"
	"time"

	"sigmine/internal/epoch"
	"sigmine/internal/keylock"
	"sigmine/internal/models"
)

// testClock is a hand-advanced clock shared by every service in a fixture.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	repo     *stubRepo
	clock    *testClock
	registry *RegistryService
	limiter  *RateLimiter
	claims   *ClaimService
	signals  *SignalService
	messages *MessageService
	share    *ShareService
	stats    *StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newStubRepo()
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	locks := keylock.New()

	registry := &RegistryService{
		Repo:             repo,
		Locks:            locks,
		HeartbeatTimeout: 2 * time.Minute,
		Now:              clock.Now,
	}
	limiter := &RateLimiter{Repo: repo, Locks: locks, Window: time.Hour, Now: clock.Now}
	claims := &ClaimService{
		Repo:          repo,
		Limiter:       limiter,
		Locks:         locks,
		TTL:           30 * time.Minute,
		ClaimsPerHour: 5,
		Now:           clock.Now,
	}
	signals := &SignalService{
		Repo:           repo,
		Limiter:        limiter,
		Locks:          locks,
		Epochs:         epoch.NewClock(time.Hour),
		SignalsPerHour: 10,
		Now:            clock.Now,
	}
	messages := &MessageService{Repo: repo, Registry: registry, Now: clock.Now}
	share := &ShareService{Repo: repo, JoinURL: "https://example.com/join.html", Now: clock.Now}
	stats := &StatsService{Repo: repo, Registry: registry, Epochs: signals.Epochs, Now: clock.Now}

	return &testEnv{
		repo:     repo,
		clock:    clock,
		registry: registry,
		limiter:  limiter,
		claims:   claims,
		signals:  signals,
		messages: messages,
		share:    share,
		stats:    stats,
	}
}

func (e *testEnv) register(t *testing.T, name string, caps ...string) *models.Agent {
	t.Helper()
	agent, _, err := e.registry.Register(context.Background(), RegisterInput{
		Name:         name,
		Capabilities: caps,
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return agent
}

func seedMarket(env *testEnv, id, question, url string) {
	env.repo.markets[id] = &models.Market{
		MarketID: id,
		Question: question,
		Outcomes: []string{"Yes", "No"},
		Prices:   []float64{0.6, 0.4},
		URL:      url,
		Platform: "polymarket",
	}
	env.repo.marketOrder = append(env.repo.marketOrder, id)
}

func floatPtr(f float64) *float64 { return &f }

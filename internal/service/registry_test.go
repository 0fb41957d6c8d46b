package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"sigmine/internal/apperr"
	"sigmine/internal/models"
)

func TestRegisterAssignsGenesisTiers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		number     int
		tier       string
		multiplier int
	}{
		{1, "founding", 4},
		{10, "founding", 4},
		{11, "early", 3},
		{50, "early", 3},
		{51, "genesis", 2},
	}

	var agents []*models.Agent
	for i := 1; i <= 51; i++ {
		agent, key, err := env.registry.Register(ctx, RegisterInput{Name: fmt.Sprintf("agent-%d", i)})
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		if !strings.HasPrefix(key, "sig_") || len(key) != 4+64 {
			t.Fatalf("bad api key format: %q", key)
		}
		agents = append(agents, agent)
	}

	for _, tc := range cases {
		agent := agents[tc.number-1]
		if agent.GenesisNumber != tc.number {
			t.Errorf("agent %d: genesis number %d", tc.number, agent.GenesisNumber)
		}
		if agent.GenesisTier != tc.tier || agent.GenesisMultiplier != tc.multiplier {
			t.Errorf("agent %d: got %s/%dx, want %s/%dx",
				tc.number, agent.GenesisTier, agent.GenesisMultiplier, tc.tier, tc.multiplier)
		}
	}
}

func TestRegisterRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Scout")

	_, _, err := env.registry.Register(context.Background(), RegisterInput{Name: "scout"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterConcurrentSameName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, _, err := env.registry.Register(ctx, RegisterInput{Name: "Scout"})
			errs <- err
		}()
	}

	var conflicts, successes int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			successes++
		case apperr.KindOf(err) == apperr.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("successes = %d, conflicts = %d, want 1 each", successes, conflicts)
	}
}

func TestRegisterValidatesName(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"", "a", strings.Repeat("x", 51)} {
		_, _, err := env.registry.Register(context.Background(), RegisterInput{Name: name})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("name %q: expected validation error, got %v", name, err)
		}
	}
}

func TestRegisterFiltersCapabilities(t *testing.T) {
	env := newTestEnv(t)
	agent := env.register(t, "scout", "research", "time-travel", "coding")
	if len(agent.Capabilities) != 2 {
		t.Fatalf("expected invalid capability dropped, got %v", agent.Capabilities)
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, key, err := env.registry.Register(ctx, RegisterInput{Name: "scout"})
	if err != nil {
		t.Fatal(err)
	}

	agent, err := env.registry.Authenticate(ctx, key)
	if err != nil || agent.Name != "scout" {
		t.Fatalf("expected auth success, got %v / %v", agent, err)
	}
	if _, err := env.registry.Authenticate(ctx, ""); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("missing key: expected auth error, got %v", err)
	}
	if _, err := env.registry.Authenticate(ctx, "sig_bogus"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("bad key: expected forbidden, got %v", err)
	}
}

func TestPresenceDecay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout")

	got, err := env.registry.Get(ctx, agent.ID)
	if err != nil || got.Status != models.StatusOnline {
		t.Fatalf("fresh agent should be online, got %v / %v", got, err)
	}

	env.clock.Advance(3 * time.Minute)
	got, err = env.registry.Get(ctx, agent.ID)
	if err != nil || got.Status != models.StatusOffline {
		t.Fatalf("stale agent should read offline, got %v / %v", got, err)
	}

	// Heartbeat restores presence without an explicit status.
	stored, _ := env.repo.GetAgentByID(ctx, agent.ID)
	if _, err := env.registry.Heartbeat(ctx, stored, "", nil); err != nil {
		t.Fatal(err)
	}
	got, _ = env.registry.Get(ctx, agent.ID)
	if got.Status != models.StatusOnline {
		t.Fatalf("heartbeat should restore online, got %s", got.Status)
	}
}

func TestHeartbeatStampsLastSeenFromClock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout")

	env.clock.Advance(5 * time.Minute)
	if _, err := env.registry.Heartbeat(ctx, agent, "", nil); err != nil {
		t.Fatal(err)
	}
	if !agent.LastSeen.Equal(env.clock.Now()) {
		t.Fatalf("last_seen = %v, want %v", agent.LastSeen, env.clock.Now())
	}
}

func TestHeartbeatRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	agent := env.register(t, "scout")
	_, err := env.registry.Heartbeat(context.Background(), agent, "sleeping", nil)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alpha", "research")
	env.register(t, "beta", "coding")

	result, err := env.registry.Search(ctx, SearchInput{Capability: "research"})
	if err != nil || result.Total != 1 || result.Agents[0].Name != "alpha" {
		t.Fatalf("capability filter failed: %+v / %v", result, err)
	}

	result, err = env.registry.Search(ctx, SearchInput{Search: "BET"})
	if err != nil || result.Total != 1 || result.Agents[0].Name != "beta" {
		t.Fatalf("text search failed: %+v / %v", result, err)
	}
}

func TestMatchRequiresAllCapabilities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "full", "research", "coding")
	env.register(t, "partial", "research")

	matches, err := env.registry.Match(ctx, MatchInput{
		Capabilities: []string{"research", "coding"},
		OnlineOnly:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Agent.Name != "full" {
		t.Fatalf("expected only the full match, got %+v", matches)
	}
	if matches[0].Score != 1.0 {
		t.Fatalf("expected score 1.0, got %f", matches[0].Score)
	}
}

func TestMatchWithoutCapabilitiesFails(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.registry.Match(context.Background(), MatchInput{})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateProfileMergesMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "scout")
	agent.Metadata = map[string]any{"region": "eu", "model": "v1"}
	if err := env.repo.UpdateAgent(ctx, agent); err != nil {
		t.Fatal(err)
	}

	err := env.registry.UpdateProfile(ctx, agent, UpdateProfileInput{
		Metadata: map[string]any{"model": "v2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := env.repo.GetAgentByID(ctx, agent.ID)
	if stored.Metadata["region"] != "eu" || stored.Metadata["model"] != "v2" {
		t.Fatalf("metadata merge failed: %v", stored.Metadata)
	}
}

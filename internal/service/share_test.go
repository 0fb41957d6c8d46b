package service

import (
	"context"
	"strings"
	"testing"

	"sigmine/internal/apperr"
	"sigmine/internal/models"
)

func TestShareTemplateEncodesJoinURL(t *testing.T) {
	env := newTestEnv(t)

	tpl := env.share.Template()
	if !strings.Contains(tpl.TweetText, "https://example.com/join.html") {
		t.Fatalf("tweet text missing join url: %q", tpl.TweetText)
	}
	if !strings.HasPrefix(tpl.TweetURL, "https://twitter.com/intent/tweet?text=") {
		t.Fatalf("unexpected intent url %q", tpl.TweetURL)
	}
	if strings.Contains(tpl.TweetURL, " ") {
		t.Fatalf("intent url not escaped: %q", tpl.TweetURL)
	}
}

func TestClaimShareBonusOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "Sharer")

	total, err := env.share.ClaimBonus(ctx, agent, "https://x.com/sharer/status/1")
	if err != nil {
		t.Fatalf("claim bonus: %v", err)
	}
	if total.String() != "1" {
		t.Fatalf("total = %s, want 1", total)
	}

	stored, _ := env.repo.GetAgentByID(ctx, agent.ID)
	if !stored.ShareBonusClaimed {
		t.Fatal("share_bonus_claimed not persisted")
	}
	if stored.ShareTweet == nil || *stored.ShareTweet != "https://x.com/sharer/status/1" {
		t.Fatalf("tweet ref not stored: %v", stored.ShareTweet)
	}

	_, err = env.share.ClaimBonus(ctx, stored, "https://x.com/sharer/status/2")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("second claim kind = %v, want conflict", apperr.KindOf(err))
	}
	if meta := apperr.MetaOf(err); meta["claimed_at"] == nil {
		t.Fatalf("conflict missing claimed_at meta: %v", err)
	}
}

func TestClaimShareBonusRequiresProof(t *testing.T) {
	env := newTestEnv(t)
	agent := env.register(t, "NoProof")

	_, err := env.share.ClaimBonus(context.Background(), agent, "")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestClaimShareBonusMirrorsLegacyStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.register(t, "Mirror")

	// Pre-existing stats row from earlier signal activity.
	now := env.clock.Now()
	env.repo.stats[agent.ID] = &models.AgentStat{
		AgentID:   agent.ID,
		Signals:   3,
		FirstSeen: now,
	}

	if _, err := env.share.ClaimBonus(ctx, agent, "tweet-123"); err != nil {
		t.Fatalf("claim bonus: %v", err)
	}
	stat, _ := env.repo.GetAgentStat(ctx, agent.ID)
	if stat.Points.String() != "1" {
		t.Fatalf("mirror points = %s, want 1", stat.Points)
	}
}

package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sigmine/internal/apperr"
	"sigmine/internal/models"
	"sigmine/internal/repository"
	"sigmine/internal/reward"
)

// ShareService pays the one-time social share bonus. Proof is taken on
// faith: any non-empty tweet reference claims the point.
type ShareService struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	JoinURL string
	Now     func() time.Time
}

func (s *ShareService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type ShareTemplate struct {
	TweetText    string `json:"tweet_text"`
	TweetURL     string `json:"tweet_url"`
	Bonus        string `json:"bonus"`
	Instructions string `json:"instructions"`
}

// Template builds the pre-canned share tweet and its intent URL.
func (s *ShareService) Template() ShareTemplate {
	text := fmt.Sprintf(`Just joined SigMine, a signal mining pool where AI agents research prediction markets and earn points!

Mine signals from @Polymarket
Earn up to 60 pts per signal
Genesis miners get up to 4x multiplier

Join the agent economy:
%s

#AIAgents #Polymarket #SigMine`, s.JoinURL)

	return ShareTemplate{
		TweetText:    text,
		TweetURL:     "https://twitter.com/intent/tweet?text=" + url.QueryEscape(text),
		Bonus:        "+1 point (one-time)",
		Instructions: "Post this tweet, then call POST /share/claim with your tweet_url to earn +1 point!",
	}
}

// ClaimBonus awards the share point once per agent. Both the registry row
// and the legacy stats mirror get the point when the mirror exists.
func (s *ShareService) ClaimBonus(ctx context.Context, agent *models.Agent, tweetRef string) (decimal.Decimal, error) {
	if tweetRef == "" {
		return decimal.Zero, apperr.Validation("provide tweet_url or tweet_id as proof of sharing")
	}
	if agent.ShareBonusClaimed {
		meta := map[string]any{}
		if agent.ShareBonusClaimedAt != nil {
			meta["claimed_at"] = agent.ShareBonusClaimedAt.Format(time.RFC3339)
		}
		return decimal.Zero, apperr.Conflict("share bonus already claimed").WithMeta(meta)
	}

	bonus := decimal.NewFromInt(reward.ShareBonus)
	now := s.now()
	agent.ShareBonusClaimed = true
	agent.ShareBonusClaimedAt = &now
	agent.ShareTweet = &tweetRef
	agent.Points = agent.Points.Add(bonus)

	stat, err := s.Repo.GetAgentStat(ctx, agent.ID)
	if err != nil {
		return decimal.Zero, err
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.UpdateAgentTx(ctx, tx, agent); err != nil {
			return err
		}
		if stat != nil {
			stat.Points = stat.Points.Add(bonus)
			return s.Repo.UpsertAgentStatTx(ctx, tx, stat)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	if s.Logger != nil {
		s.Logger.Info("share bonus claimed", zap.String("agent", agent.Name))
	}
	return agent.Points, nil
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sigmine/internal/apperr"
	"sigmine/internal/keylock"
	"sigmine/internal/models"
	"sigmine/internal/repository"
)

// ClaimService manages exclusive market leases. A claim blocks other
// agents for its TTL; the holder re-claiming refreshes the lease.
type ClaimService struct {
	Repo          repository.Repository
	Limiter       *RateLimiter
	Locks         *keylock.KeyLock
	Logger        *zap.Logger
	TTL           time.Duration
	ClaimsPerHour int
	Now           func() time.Time
}

func (s *ClaimService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ClaimService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 30 * time.Minute
}

// Claim takes or refreshes the lease on a market. The rate limit budget
// is consumed before the conflict check, matching the rule that every
// claim attempt counts.
func (s *ClaimService) Claim(ctx context.Context, marketID, agentID string) (*models.Claim, error) {
	if marketID == "" {
		return nil, apperr.Validation("market_id required")
	}
	if agentID == "" {
		return nil, apperr.Validation("agent_id required (or use API key)")
	}
	if _, err := s.Limiter.Allow(ctx, agentID, ActionClaim, s.ClaimsPerHour); err != nil {
		return nil, err
	}

	unlock := s.Locks.Lock("claim:" + marketID)
	defer unlock()

	now := s.now()
	existing, err := s.Repo.GetClaim(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.Expired(now) && existing.AgentID != agentID {
		remaining := int(existing.ExpiresAt.Sub(now).Seconds())
		return nil, apperr.Conflict("task already claimed").WithMeta(map[string]any{
			"claimed_by":         existing.AgentID,
			"expires_in_seconds": remaining,
		})
	}

	claim := &models.Claim{
		MarketID:  marketID,
		AgentID:   agentID,
		ClaimedAt: now,
		ExpiresAt: now.Add(s.ttl()),
		Status:    models.ClaimStatusActive,
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.UpsertClaimTx(ctx, tx, claim); err != nil {
			return err
		}
		return s.Repo.InsertClaimEventTx(ctx, tx, &models.ClaimEvent{
			MarketID:  claim.MarketID,
			AgentID:   claim.AgentID,
			Action:    models.ClaimActionClaimed,
			ClaimedAt: claim.ClaimedAt,
			ExpiresAt: claim.ExpiresAt,
		})
	})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("task claimed",
			zap.String("market_id", marketID),
			zap.String("agent_id", agentID))
	}
	return claim, nil
}

// Release drops the caller's lease. Only the holder may release; the
// claim row is removed and the transition logged.
func (s *ClaimService) Release(ctx context.Context, marketID, agentID string) error {
	if marketID == "" {
		return apperr.Validation("market_id required")
	}

	unlock := s.Locks.Lock("claim:" + marketID)
	defer unlock()

	claim, err := s.Repo.GetClaim(ctx, marketID)
	if err != nil {
		return err
	}
	if claim == nil {
		return apperr.NotFound("no active claim found")
	}
	if claim.AgentID != agentID {
		return apperr.Forbidden("not your claim to release")
	}

	now := s.now()
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.DeleteClaimTx(ctx, tx, marketID); err != nil {
			return err
		}
		return s.Repo.InsertClaimEventTx(ctx, tx, &models.ClaimEvent{
			MarketID:   claim.MarketID,
			AgentID:    claim.AgentID,
			Action:     models.ClaimActionReleased,
			ClaimedAt:  claim.ClaimedAt,
			ExpiresAt:  claim.ExpiresAt,
			ReleasedAt: &now,
		})
	})
}

type ClaimStatus struct {
	Claimed          bool
	Available        bool
	Claim            *models.Claim
	ExpiredClaim     *models.Claim
	RemainingSeconds int
}

// Status reports lease state for one market. Expiry is evaluated lazily;
// an expired row reads as available with the stale claim attached.
func (s *ClaimService) Status(ctx context.Context, marketID string) (ClaimStatus, error) {
	claim, err := s.Repo.GetClaim(ctx, marketID)
	if err != nil {
		return ClaimStatus{}, err
	}
	if claim == nil {
		return ClaimStatus{Claimed: false, Available: true}, nil
	}
	now := s.now()
	if claim.Expired(now) {
		return ClaimStatus{Claimed: false, Available: true, ExpiredClaim: claim}, nil
	}
	return ClaimStatus{
		Claimed:          true,
		Available:        false,
		Claim:            claim,
		RemainingSeconds: int(claim.ExpiresAt.Sub(now).Seconds()),
	}, nil
}

// Mine lists the agent's live leases, expired rows filtered out.
func (s *ClaimService) Mine(ctx context.Context, agentID string) ([]models.Claim, error) {
	claims, err := s.Repo.ListClaimsByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.Claim, 0, len(claims))
	for _, claim := range claims {
		if !claim.Expired(now) {
			out = append(out, claim)
		}
	}
	return out, nil
}

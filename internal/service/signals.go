package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sigmine/internal/apperr"
	"sigmine/internal/epoch"
	"sigmine/internal/keylock"
	"sigmine/internal/models"
	"sigmine/internal/repository"
	"sigmine/internal/reward"
)

// SignalService scores and records submissions. The signal log is
// append-only; points flow to both the registry row and the legacy
// agent_stats mirror inside one transaction.
type SignalService struct {
	Repo           repository.Repository
	Limiter        *RateLimiter
	Locks          *keylock.KeyLock
	Epochs         *epoch.Clock
	Logger         *zap.Logger
	SignalsPerHour int
	Now            func() time.Time
}

func (s *SignalService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type SubmitMarketInput struct {
	AgentID    string
	MarketID   string
	Direction  string
	Confidence *float64
	Finding    string
	Sources    []string
	Reasoning  string
}

type SubmitMarketResult struct {
	Signal    *models.Signal
	Breakdown reward.Breakdown
}

// SubmitMarket validates, scores, and persists one market signal. One
// signal per agent per market, ever. Unregistered submitters are scored
// with no genesis or streak multiplier and leave no registry trace.
func (s *SignalService) SubmitMarket(ctx context.Context, in SubmitMarketInput) (*SubmitMarketResult, error) {
	// Budget is consumed before validation, so malformed submissions
	// still count against the hourly window.
	if in.AgentID != "" {
		if _, err := s.Limiter.Allow(ctx, in.AgentID, ActionSignal, s.SignalsPerHour); err != nil {
			return nil, err
		}
	}

	if in.MarketID == "" {
		return nil, apperr.Validation("market_id required")
	}
	switch in.Direction {
	case models.DirectionSupportsYes, models.DirectionSupportsNo, models.DirectionNeutral:
	default:
		return nil, apperr.Validation("direction must be: supports_yes, supports_no, or neutral")
	}
	if in.Confidence == nil || *in.Confidence < 0 || *in.Confidence > 1 {
		return nil, apperr.Validation("confidence must be 0-1")
	}
	if len(in.Finding) < 10 {
		return nil, apperr.Validation("signal must be at least 10 chars")
	}
	if in.AgentID == "" {
		return nil, apperr.Validation("agent_id required (or use API key)")
	}

	unlockMarket := s.Locks.Lock("signal:market:" + in.MarketID)
	defer unlockMarket()
	unlockAgent := s.Locks.Lock("signal:agent:" + in.AgentID)
	defer unlockAgent()

	existing, err := s.Repo.GetAgentMarketSignal(ctx, in.AgentID, in.MarketID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("already signaled this market").WithMeta(map[string]any{
			"message":            "You can only submit one signal per market",
			"existing_signal_id": existing.ID,
		})
	}

	firstForMarket, err := s.Repo.MarketHasSignal(ctx, in.MarketID)
	if err != nil {
		return nil, err
	}
	isFirstSignal := !firstForMarket

	agent, err := s.Repo.GetAgentByID(ctx, in.AgentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	genesisMultiplier := 1
	streakDays := 1
	agentName := "unknown"
	if agent != nil {
		genesisMultiplier = agent.GenesisMultiplier
		agentName = agent.Name
		lastDate := ""
		if agent.LastSignalDate != nil {
			lastDate = *agent.LastSignalDate
		}
		streakDays = reward.NextStreak(agent.Streak, lastDate, now)
	}

	breakdown, points := reward.Compute(reward.Input{
		SourceCount:       len(in.Sources),
		Confidence:        *in.Confidence,
		ReasoningLength:   len(in.Reasoning),
		IsFirstSignal:     isFirstSignal,
		GenesisMultiplier: genesisMultiplier,
		StreakDays:        streakDays,
	})

	var marketURL *string
	if market, err := s.Repo.GetMarket(ctx, in.MarketID); err != nil {
		return nil, err
	} else if market != nil && market.URL != "" {
		marketURL = &market.URL
	}

	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return nil, err
	}
	ep := s.Epochs.Current()
	sources := in.Sources
	if sources == nil {
		sources = []string{}
	}
	marketID := in.MarketID
	direction := in.Direction
	signal := &models.Signal{
		ID:               uuid.NewString(),
		EpochID:          ep.ID,
		Type:             models.SignalTypeMarket,
		AgentID:          in.AgentID,
		AgentName:        agentName,
		MarketID:         &marketID,
		MarketURL:        marketURL,
		Direction:        &direction,
		Confidence:       in.Confidence,
		Finding:          in.Finding,
		Sources:          sources,
		Reasoning:        in.Reasoning,
		Points:           points,
		PointsBreakdown:  datatypes.JSON(breakdownJSON),
		IsFirstSignal:    isFirstSignal,
		ResolutionStatus: models.ResolutionPending,
		SubmittedAt:      now,
	}

	stat, err := s.Repo.GetAgentStat(ctx, in.AgentID)
	if err != nil {
		return nil, err
	}

	today := now.Format(time.DateOnly)
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.InsertSignalTx(ctx, tx, signal); err != nil {
			return err
		}
		if stat == nil {
			stat = &models.AgentStat{AgentID: in.AgentID, Points: decimal.Zero, FirstSeen: now}
		}
		stat.Points = stat.Points.Add(points)
		stat.Signals++
		stat.LastSignal = &now
		if err := s.Repo.UpsertAgentStatTx(ctx, tx, stat); err != nil {
			return err
		}
		if agent != nil {
			agent.Points = agent.Points.Add(points)
			agent.Signals++
			agent.Streak = streakDays
			agent.LastSignalDate = &today
			return s.Repo.UpdateAgentTx(ctx, tx, agent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("market signal",
			zap.String("agent", agentName),
			zap.String("direction", in.Direction),
			zap.String("points", points.String()),
			zap.Bool("first_signal", isFirstSignal))
	}
	return &SubmitMarketResult{Signal: signal, Breakdown: breakdown}, nil
}

type SubmitNewsInput struct {
	AgentID   string
	SourceURL string
	Title     string
	MainClaim string
	Entities  []string
	Sentiment string
	Category  string
	Summary   string
}

// SubmitNews records a legacy flat-rate news signal worth one point. The
// structured claim fields live in the signal payload.
func (s *SignalService) SubmitNews(ctx context.Context, in SubmitNewsInput) (*models.Signal, error) {
	required := []struct{ name, value string }{
		{"source_url", in.SourceURL},
		{"title", in.Title},
		{"main_claim", in.MainClaim},
		{"sentiment", in.Sentiment},
		{"category", in.Category},
		{"summary", in.Summary},
	}
	for _, field := range required {
		if field.value == "" {
			return nil, apperr.Validation("missing field: %s", field.name)
		}
	}
	if len(in.Entities) == 0 {
		return nil, apperr.Validation("missing field: entities")
	}
	if in.AgentID == "" {
		return nil, apperr.Validation("missing field: agent_id")
	}
	switch in.Sentiment {
	case "positive", "neutral", "negative":
	default:
		return nil, apperr.Validation("invalid sentiment")
	}

	unlock := s.Locks.Lock("signal:agent:" + in.AgentID)
	defer unlock()

	now := s.now()
	ep := s.Epochs.Current()
	payload, err := json.Marshal(map[string]any{
		"source_url": in.SourceURL,
		"title":      in.Title,
		"main_claim": in.MainClaim,
		"entities":   in.Entities,
		"sentiment":  in.Sentiment,
		"category":   in.Category,
		"summary":    in.Summary,
	})
	if err != nil {
		return nil, err
	}

	agent, err := s.Repo.GetAgentByID(ctx, in.AgentID)
	if err != nil {
		return nil, err
	}
	agentName := in.AgentID
	if agent != nil {
		agentName = agent.Name
	}

	one := decimal.NewFromInt(1)
	signal := &models.Signal{
		ID:               uuid.NewString(),
		EpochID:          ep.ID,
		Type:             models.SignalTypeNews,
		AgentID:          in.AgentID,
		AgentName:        agentName,
		Finding:          in.MainClaim,
		Sources:          []string{in.SourceURL},
		Payload:          datatypes.JSON(payload),
		Points:           one,
		ResolutionStatus: models.ResolutionPending,
		SubmittedAt:      now,
	}

	stat, err := s.Repo.GetAgentStat(ctx, in.AgentID)
	if err != nil {
		return nil, err
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.InsertSignalTx(ctx, tx, signal); err != nil {
			return err
		}
		if stat == nil {
			stat = &models.AgentStat{AgentID: in.AgentID, Points: decimal.Zero, FirstSeen: now}
		}
		stat.Points = stat.Points.Add(one)
		stat.Signals++
		stat.LastSignal = &now
		if err := s.Repo.UpsertAgentStatTx(ctx, tx, stat); err != nil {
			return err
		}
		if agent != nil {
			agent.Points = agent.Points.Add(one)
			agent.Signals++
			return s.Repo.UpdateAgentTx(ctx, tx, agent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return signal, nil
}

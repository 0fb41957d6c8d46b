package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"sigmine/internal/epoch"
	"sigmine/internal/models"
	"sigmine/internal/repository"
)

// StatsService serves the leaderboard and pool-wide aggregates. It merges
// the registry with the legacy agent_stats mirror so pre-registration
// scorers still rank.
type StatsService struct {
	Repo     repository.Repository
	Registry *RegistryService
	Epochs   *epoch.Clock
	Now      func() time.Time
}

func (s *StatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type LeaderboardEntry struct {
	AgentID string          `json:"agent_id"`
	Name    string          `json:"name"`
	Points  decimal.Decimal `json:"points"`
	Signals int             `json:"signals"`
	Status  string          `json:"status"`
}

// Leaderboard returns the top 20 scorers across both tables. Unregistered
// ids rank under their raw id with unknown status.
func (s *StatsService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	stats, err := s.Repo.ListAgentStats(ctx, 500)
	if err != nil {
		return nil, err
	}
	agents, err := s.Registry.listDecayed(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*LeaderboardEntry, len(stats)+len(agents))
	for _, stat := range stats {
		byID[stat.AgentID] = &LeaderboardEntry{
			AgentID: stat.AgentID,
			Name:    stat.AgentID,
			Points:  stat.Points,
			Signals: stat.Signals,
			Status:  "unknown",
		}
	}
	for _, agent := range agents {
		entry, ok := byID[agent.ID]
		if !ok {
			entry = &LeaderboardEntry{
				AgentID: agent.ID,
				Points:  agent.Points,
				Signals: agent.Signals,
			}
			byID[agent.ID] = entry
		}
		entry.Name = agent.Name
		entry.Status = agent.Status
	}

	entries := make([]LeaderboardEntry, 0, len(byID))
	for _, entry := range byID {
		entries = append(entries, *entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points.GreaterThan(entries[j].Points)
	})
	if len(entries) > 20 {
		entries = entries[:20]
	}
	return entries, nil
}

// RecentSignals lists the newest signals, agent names resolved where the
// submitter registered.
func (s *StatsService) RecentSignals(ctx context.Context, limit int) ([]models.Signal, error) {
	if limit <= 0 {
		limit = 50
	}
	signals, err := s.Repo.ListSignals(ctx, repository.ListSignalsParams{Limit: limit})
	if err != nil {
		return nil, err
	}
	for i := range signals {
		if signals[i].AgentName != "" && signals[i].AgentName != "unknown" {
			continue
		}
		agent, err := s.Repo.GetAgentByID(ctx, signals[i].AgentID)
		if err != nil {
			return nil, err
		}
		if agent != nil {
			signals[i].AgentName = agent.Name
		} else if len(signals[i].AgentID) > 12 {
			signals[i].AgentName = signals[i].AgentID[:12]
		} else {
			signals[i].AgentName = signals[i].AgentID
		}
	}
	return signals, nil
}

type Overview struct {
	TotalSignals  int64
	SignalsToday  int64
	TotalAgents   int64
	OnlineAgents  int
	TotalMessages int64
}

// Overview aggregates pool-wide counters. "Today" is the current UTC day.
func (s *StatsService) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	var err error
	if out.TotalSignals, err = s.Repo.CountSignals(ctx); err != nil {
		return out, err
	}
	midnight := s.now().Truncate(24 * time.Hour)
	if out.SignalsToday, err = s.Repo.CountSignalsSince(ctx, midnight); err != nil {
		return out, err
	}
	if out.TotalAgents, err = s.Repo.CountAgents(ctx); err != nil {
		return out, err
	}
	online, err := s.Registry.Online(ctx)
	if err != nil {
		return out, err
	}
	for _, agent := range online {
		if agent.Status == models.StatusOnline {
			out.OnlineAgents++
		}
	}
	if out.TotalMessages, err = s.Repo.CountMessages(ctx); err != nil {
		return out, err
	}
	return out, nil
}

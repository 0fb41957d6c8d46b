package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"sigmine/internal/models"
	"sigmine/internal/repository"
)

// stubRepo is a test-only in-memory implementation of
// repository.Repository. Reads hand out copies so callers mutating a
// returned struct do not leak state back, matching gorm scan semantics.
type stubRepo struct {
	agents      map[string]*models.Agent
	agentOrder  []string
	stats       map[string]*models.AgentStat
	signals     []models.Signal
	messages    map[string]*models.Message
	claims      map[string]*models.Claim
	claimEvents []models.ClaimEvent
	rateWindows map[string]*models.RateWindow
	markets     map[string]*models.Market
	marketOrder []string
	syncStates  map[string]*models.SyncState
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		agents:      map[string]*models.Agent{},
		stats:       map[string]*models.AgentStat{},
		messages:    map[string]*models.Message{},
		claims:      map[string]*models.Claim{},
		rateWindows: map[string]*models.RateWindow{},
		markets:     map[string]*models.Market{},
		syncStates:  map[string]*models.SyncState{},
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

// --- Agents -----------------------------------------------------------------

func (s *stubRepo) CreateAgentTx(ctx context.Context, tx *gorm.DB, item *models.Agent) error {
	cp := *item
	s.agents[item.ID] = &cp
	s.agentOrder = append(s.agentOrder, item.ID)
	return nil
}

func (s *stubRepo) CountAgentsTx(ctx context.Context, tx *gorm.DB) (int64, error) {
	return int64(len(s.agents)), nil
}

func (s *stubRepo) GetAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	if a, ok := s.agents[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) GetAgentByAPIKey(ctx context.Context, key string) (*models.Agent, error) {
	for _, a := range s.agents {
		if a.APIKey == key {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) GetAgentByName(ctx context.Context, name string) (*models.Agent, error) {
	for _, a := range s.agents {
		if strings.EqualFold(a.Name, strings.TrimSpace(name)) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListAgents(ctx context.Context, params repository.ListAgentsParams) ([]models.Agent, error) {
	return s.ListAllAgents(ctx)
}

func (s *stubRepo) ListAllAgents(ctx context.Context) ([]models.Agent, error) {
	out := make([]models.Agent, 0, len(s.agentOrder))
	for _, id := range s.agentOrder {
		out = append(out, *s.agents[id])
	}
	return out, nil
}

func (s *stubRepo) CountAgents(ctx context.Context) (int64, error) {
	return int64(len(s.agents)), nil
}

func (s *stubRepo) UpdateAgent(ctx context.Context, item *models.Agent) error {
	cp := *item
	s.agents[item.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateAgentTx(ctx context.Context, tx *gorm.DB, item *models.Agent) error {
	return s.UpdateAgent(ctx, item)
}

// --- Agent stats ------------------------------------------------------------

func (s *stubRepo) GetAgentStat(ctx context.Context, agentID string) (*models.AgentStat, error) {
	if st, ok := s.stats[agentID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) UpsertAgentStatTx(ctx context.Context, tx *gorm.DB, item *models.AgentStat) error {
	cp := *item
	s.stats[item.AgentID] = &cp
	return nil
}

func (s *stubRepo) ListAgentStats(ctx context.Context, limit int) ([]models.AgentStat, error) {
	out := make([]models.AgentStat, 0, len(s.stats))
	for _, st := range s.stats {
		out = append(out, *st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points.GreaterThan(out[j].Points) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Signals ----------------------------------------------------------------

func (s *stubRepo) InsertSignalTx(ctx context.Context, tx *gorm.DB, item *models.Signal) error {
	s.signals = append(s.signals, *item)
	return nil
}

func (s *stubRepo) MarketHasSignal(ctx context.Context, marketID string) (bool, error) {
	for _, sig := range s.signals {
		if sig.MarketID != nil && *sig.MarketID == marketID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) GetAgentMarketSignal(ctx context.Context, agentID, marketID string) (*models.Signal, error) {
	for _, sig := range s.signals {
		if sig.AgentID == agentID && sig.MarketID != nil && *sig.MarketID == marketID {
			copied := sig
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListSignals(ctx context.Context, params repository.ListSignalsParams) ([]models.Signal, error) {
	out := make([]models.Signal, 0, len(s.signals))
	for _, sig := range s.signals {
		if params.AgentID != nil && sig.AgentID != *params.AgentID {
			continue
		}
		if params.Type != nil && sig.Type != *params.Type {
			continue
		}
		out = append(out, sig)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *stubRepo) CountSignals(ctx context.Context) (int64, error) {
	return int64(len(s.signals)), nil
}

func (s *stubRepo) CountSignalsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	for _, sig := range s.signals {
		if !sig.SubmittedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// --- Messages ---------------------------------------------------------------

func (s *stubRepo) InsertMessage(ctx context.Context, item *models.Message) error {
	cp := *item
	s.messages[item.ID] = &cp
	return nil
}

func (s *stubRepo) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	if m, ok := s.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) ListMessages(ctx context.Context, params repository.ListMessagesParams) ([]models.Message, error) {
	out := make([]models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ToID != params.ToID {
			continue
		}
		if params.UnreadOnly && m.Read {
			continue
		}
		if params.Type != nil && m.Type != *params.Type {
			continue
		}
		out = append(out, *m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *stubRepo) MarkMessageRead(ctx context.Context, id string, readAt time.Time) error {
	if m, ok := s.messages[id]; ok {
		m.Read = true
		m.ReadAt = &readAt
	}
	return nil
}

func (s *stubRepo) DeleteMessage(ctx context.Context, id string) error {
	delete(s.messages, id)
	return nil
}

func (s *stubRepo) CountUnread(ctx context.Context, toID string) (int64, error) {
	var count int64
	for _, m := range s.messages {
		if m.ToID == toID && !m.Read {
			count++
		}
	}
	return count, nil
}

func (s *stubRepo) CountMessages(ctx context.Context) (int64, error) {
	return int64(len(s.messages)), nil
}

// --- Claims -----------------------------------------------------------------

func (s *stubRepo) GetClaim(ctx context.Context, marketID string) (*models.Claim, error) {
	if c, ok := s.claims[marketID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) UpsertClaimTx(ctx context.Context, tx *gorm.DB, item *models.Claim) error {
	cp := *item
	s.claims[item.MarketID] = &cp
	return nil
}

func (s *stubRepo) DeleteClaimTx(ctx context.Context, tx *gorm.DB, marketID string) error {
	delete(s.claims, marketID)
	return nil
}

func (s *stubRepo) ListClaimsByAgent(ctx context.Context, agentID string) ([]models.Claim, error) {
	var out []models.Claim
	for _, c := range s.claims {
		if c.AgentID == agentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubRepo) InsertClaimEventTx(ctx context.Context, tx *gorm.DB, item *models.ClaimEvent) error {
	s.claimEvents = append(s.claimEvents, *item)
	return nil
}

// --- Rate windows -----------------------------------------------------------

func (s *stubRepo) GetRateWindow(ctx context.Context, key string) (*models.RateWindow, error) {
	if w, ok := s.rateWindows[key]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) SaveRateWindow(ctx context.Context, item *models.RateWindow) error {
	cp := *item
	s.rateWindows[item.Key] = &cp
	return nil
}

func (s *stubRepo) DeleteExpiredRateWindows(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	for key, w := range s.rateWindows {
		if w.WindowStart.Before(before) {
			delete(s.rateWindows, key)
			deleted++
		}
	}
	return deleted, nil
}

// --- Market cache -----------------------------------------------------------

func (s *stubRepo) ReplaceMarketsTx(ctx context.Context, tx *gorm.DB, items []models.Market) error {
	s.markets = map[string]*models.Market{}
	s.marketOrder = nil
	for i := range items {
		cp := items[i]
		s.markets[cp.MarketID] = &cp
		s.marketOrder = append(s.marketOrder, cp.MarketID)
	}
	return nil
}

func (s *stubRepo) ListMarkets(ctx context.Context, limit int) ([]models.Market, error) {
	out := make([]models.Market, 0, len(s.marketOrder))
	for _, id := range s.marketOrder {
		out = append(out, *s.markets[id])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) GetMarket(ctx context.Context, marketID string) (*models.Market, error) {
	if m, ok := s.markets[marketID]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) CountMarkets(ctx context.Context) (int64, error) {
	return int64(len(s.markets)), nil
}

// --- Sync state -------------------------------------------------------------

func (s *stubRepo) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if st, ok := s.syncStates[scope]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error {
	cp := *state
	s.syncStates[state.Scope] = &cp
	return nil
}

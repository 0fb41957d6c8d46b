package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sigmine/internal/apperr"
	"sigmine/internal/keylock"
	"sigmine/internal/models"
	"sigmine/internal/repository"
	"sigmine/internal/reward"
)

const registerLockKey = "agent:register"

// RegistryService owns agent identity, presence, and the directory.
type RegistryService struct {
	Repo             repository.Repository
	Locks            *keylock.KeyLock
	Logger           *zap.Logger
	HeartbeatTimeout time.Duration
	Now              func() time.Time
}

func (s *RegistryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type RegisterInput struct {
	Name         string
	Wallet       *string
	Capabilities []string
	Description  string
	Metadata     map[string]any
}

// Register creates the agent, assigns its genesis number from the current
// registration count, and mints the API key. The count and insert run
// under one lock plus one transaction so two concurrent registrations
// cannot share a genesis number.
func (s *RegistryService) Register(ctx context.Context, in RegisterInput) (*models.Agent, string, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 || len(name) > 50 {
		return nil, "", apperr.Validation("name required (2-50 chars)")
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, "", err
	}
	now := s.now()
	agent := &models.Agent{
		ID:           uuid.NewString(),
		APIKey:       apiKey,
		Name:         name,
		Wallet:       in.Wallet,
		Capabilities: models.FilterCapabilities(in.Capabilities),
		Description:  in.Description,
		Metadata:     in.Metadata,
		Status:       models.StatusOnline,
		LastSeen:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if agent.Metadata == nil {
		agent.Metadata = map[string]any{}
	}

	// The name check shares the registration lock so two concurrent
	// same-name registrations cannot both pass it.
	unlock := s.Locks.Lock(registerLockKey)
	defer unlock()

	existing, err := s.Repo.GetAgentByName(ctx, name)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", apperr.Conflict("agent name already registered")
	}

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		count, err := s.Repo.CountAgentsTx(ctx, tx)
		if err != nil {
			return err
		}
		agent.GenesisNumber = int(count) + 1
		agent.GenesisTier = reward.GenesisTier(agent.GenesisNumber)
		agent.GenesisMultiplier = reward.GenesisMultiplier(agent.GenesisNumber)
		return s.Repo.CreateAgentTx(ctx, tx, agent)
	})
	if err != nil {
		return nil, "", err
	}

	if s.Logger != nil {
		s.Logger.Info("agent registered",
			zap.String("name", agent.Name),
			zap.Int("genesis_number", agent.GenesisNumber),
			zap.String("tier", agent.GenesisTier))
	}
	return agent, apiKey, nil
}

// Authenticate resolves an API key to its agent. A missing key and an
// unknown key are distinct failures (401 vs 403 at the HTTP layer).
func (s *RegistryService) Authenticate(ctx context.Context, apiKey string) (*models.Agent, error) {
	if apiKey == "" {
		return nil, apperr.Auth("missing API key. Include X-API-Key header")
	}
	agent, err := s.Repo.GetAgentByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, apperr.Forbidden("invalid API key")
	}
	return agent, nil
}

// Heartbeat refreshes presence and returns the unread message count so
// agents learn about pending work in the same round trip.
func (s *RegistryService) Heartbeat(ctx context.Context, agent *models.Agent, status string, currentTask *string) (int64, error) {
	if status == "" {
		status = models.StatusOnline
	}
	switch status {
	case models.StatusOnline, models.StatusBusy, models.StatusOffline:
	default:
		return 0, apperr.Validation("status must be online, busy, or offline")
	}
	agent.LastSeen = s.now()
	agent.Status = status
	if currentTask != nil {
		agent.CurrentTask = currentTask
	}
	if err := s.Repo.UpdateAgent(ctx, agent); err != nil {
		return 0, err
	}
	return s.Repo.CountUnread(ctx, agent.ID)
}

type UpdateProfileInput struct {
	Capabilities []string
	Description  *string
	Metadata     map[string]any
	Wallet       *string
}

// UpdateProfile applies partial profile changes. Metadata merges key by
// key; invalid capabilities are silently dropped.
func (s *RegistryService) UpdateProfile(ctx context.Context, agent *models.Agent, in UpdateProfileInput) error {
	if in.Capabilities != nil {
		agent.Capabilities = models.FilterCapabilities(in.Capabilities)
	}
	if in.Description != nil {
		desc := *in.Description
		if len(desc) > 500 {
			desc = desc[:500]
		}
		agent.Description = desc
	}
	if in.Metadata != nil {
		if agent.Metadata == nil {
			agent.Metadata = map[string]any{}
		}
		for k, v := range in.Metadata {
			agent.Metadata[k] = v
		}
	}
	if in.Wallet != nil && *in.Wallet != "" {
		agent.Wallet = in.Wallet
	}
	agent.UpdatedAt = s.now()
	return s.Repo.UpdateAgent(ctx, agent)
}

// Get returns one agent by id with presence decay applied.
func (s *RegistryService) Get(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := s.Repo.GetAgentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, apperr.NotFound("agent not found")
	}
	agent.Status = s.EffectiveStatus(agent)
	return agent, nil
}

// EffectiveStatus derives presence: an agent whose heartbeat is older than
// the timeout reads as offline regardless of its stored status. The stored
// row is not rewritten.
func (s *RegistryService) EffectiveStatus(agent *models.Agent) string {
	if s.now().Sub(agent.LastSeen) > s.HeartbeatTimeout {
		return models.StatusOffline
	}
	return agent.Status
}

type SearchInput struct {
	Status     string
	Capability string
	Search     string
	Limit      int
	Offset     int
}

type SearchResult struct {
	Total  int
	Agents []models.Agent
}

// Search filters and pages the directory: status (post presence decay),
// single capability, and case-insensitive name/description substring
// search, sorted by points descending.
func (s *RegistryService) Search(ctx context.Context, in SearchInput) (SearchResult, error) {
	agents, err := s.listDecayed(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	if in.Status != "" {
		agents = filterAgents(agents, func(a models.Agent) bool { return a.Status == in.Status })
	}
	if in.Capability != "" {
		cap := in.Capability
		agents = filterAgents(agents, func(a models.Agent) bool { return a.HasCapability(cap) })
	}
	if in.Search != "" {
		needle := strings.ToLower(in.Search)
		agents = filterAgents(agents, func(a models.Agent) bool {
			return strings.Contains(strings.ToLower(a.Name), needle) ||
				strings.Contains(strings.ToLower(a.Description), needle)
		})
	}
	sortByPoints(agents)

	total := len(agents)
	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(agents) {
		offset = len(agents)
	}
	end := offset + limit
	if end > len(agents) {
		end = len(agents)
	}
	return SearchResult{Total: total, Agents: agents[offset:end]}, nil
}

// Online lists agents currently reachable (online or busy).
func (s *RegistryService) Online(ctx context.Context) ([]models.Agent, error) {
	agents, err := s.listDecayed(ctx)
	if err != nil {
		return nil, err
	}
	return filterAgents(agents, func(a models.Agent) bool {
		return a.Status == models.StatusOnline || a.Status == models.StatusBusy
	}), nil
}

type MatchInput struct {
	Capabilities []string
	OnlineOnly   bool
}

type Match struct {
	Agent models.Agent
	Score float64
}

// Match finds agents covering ALL required capabilities, best points
// first. Score is the covered fraction and is 1.0 for every returned row
// given the AND filter; it stays in the payload for API compatibility.
func (s *RegistryService) Match(ctx context.Context, in MatchInput) ([]Match, error) {
	if len(in.Capabilities) == 0 {
		return nil, apperr.Validation("provide capability or capabilities param")
	}
	agents, err := s.listDecayed(ctx)
	if err != nil {
		return nil, err
	}
	if in.OnlineOnly {
		agents = filterAgents(agents, func(a models.Agent) bool {
			return a.Status == models.StatusOnline || a.Status == models.StatusBusy
		})
	}
	agents = filterAgents(agents, func(a models.Agent) bool {
		return a.HasAllCapabilities(in.Capabilities)
	})
	sortByPoints(agents)

	matches := make([]Match, 0, len(agents))
	for _, a := range agents {
		covered := 0
		for _, c := range in.Capabilities {
			if a.HasCapability(c) {
				covered++
			}
		}
		matches = append(matches, Match{
			Agent: a,
			Score: float64(covered) / float64(len(in.Capabilities)),
		})
	}
	return matches, nil
}

func (s *RegistryService) listDecayed(ctx context.Context) ([]models.Agent, error) {
	agents, err := s.Repo.ListAllAgents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range agents {
		agents[i].Status = s.EffectiveStatus(&agents[i])
	}
	return agents, nil
}

func filterAgents(agents []models.Agent, keep func(models.Agent) bool) []models.Agent {
	out := agents[:0:0]
	for _, a := range agents {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func sortByPoints(agents []models.Agent) {
	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].Points.GreaterThan(agents[j].Points)
	})
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sig_" + hex.EncodeToString(buf), nil
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"sigmine/internal/models"
)

// ListSignalsParams filters the append-only signal log.
type ListSignalsParams struct {
	AgentID  *string
	MarketID *string
	Type     *string
	Since    *time.Time
	Limit    int
	Offset   int
}

// ListMessagesParams filters one recipient's inbox.
type ListMessagesParams struct {
	ToID       string
	UnreadOnly bool
	Type       *string
	Limit      int
}

// ListAgentsParams filters the registry directory.
type ListAgentsParams struct {
	Capability *string
	Status     *string
	Limit      int
	Offset     int
}

// Repository is the persistence boundary for all coordination state.
// Methods with a Tx suffix run inside a caller-owned transaction opened
// via InTx; passing a nil tx falls back to the base handle so stubs can
// call fn(nil) in tests.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Agents.
	CreateAgentTx(ctx context.Context, tx *gorm.DB, item *models.Agent) error
	CountAgentsTx(ctx context.Context, tx *gorm.DB) (int64, error)
	GetAgentByID(ctx context.Context, id string) (*models.Agent, error)
	GetAgentByAPIKey(ctx context.Context, key string) (*models.Agent, error)
	GetAgentByName(ctx context.Context, name string) (*models.Agent, error)
	ListAgents(ctx context.Context, params ListAgentsParams) ([]models.Agent, error)
	ListAllAgents(ctx context.Context) ([]models.Agent, error)
	CountAgents(ctx context.Context) (int64, error)
	UpdateAgent(ctx context.Context, item *models.Agent) error
	UpdateAgentTx(ctx context.Context, tx *gorm.DB, item *models.Agent) error

	// Legacy per-agent stats mirror.
	GetAgentStat(ctx context.Context, agentID string) (*models.AgentStat, error)
	UpsertAgentStatTx(ctx context.Context, tx *gorm.DB, item *models.AgentStat) error
	ListAgentStats(ctx context.Context, limit int) ([]models.AgentStat, error)

	// Signals.
	InsertSignalTx(ctx context.Context, tx *gorm.DB, item *models.Signal) error
	MarketHasSignal(ctx context.Context, marketID string) (bool, error)
	GetAgentMarketSignal(ctx context.Context, agentID, marketID string) (*models.Signal, error)
	ListSignals(ctx context.Context, params ListSignalsParams) ([]models.Signal, error)
	CountSignals(ctx context.Context) (int64, error)
	CountSignalsSince(ctx context.Context, since time.Time) (int64, error)

	// Messages.
	InsertMessage(ctx context.Context, item *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	ListMessages(ctx context.Context, params ListMessagesParams) ([]models.Message, error)
	MarkMessageRead(ctx context.Context, id string, readAt time.Time) error
	DeleteMessage(ctx context.Context, id string) error
	CountUnread(ctx context.Context, toID string) (int64, error)
	CountMessages(ctx context.Context) (int64, error)

	// Claims.
	GetClaim(ctx context.Context, marketID string) (*models.Claim, error)
	UpsertClaimTx(ctx context.Context, tx *gorm.DB, item *models.Claim) error
	DeleteClaimTx(ctx context.Context, tx *gorm.DB, marketID string) error
	ListClaimsByAgent(ctx context.Context, agentID string) ([]models.Claim, error)
	InsertClaimEventTx(ctx context.Context, tx *gorm.DB, item *models.ClaimEvent) error

	// Rate windows.
	GetRateWindow(ctx context.Context, key string) (*models.RateWindow, error)
	SaveRateWindow(ctx context.Context, item *models.RateWindow) error
	DeleteExpiredRateWindows(ctx context.Context, before time.Time) (int64, error)

	// Market cache.
	ReplaceMarketsTx(ctx context.Context, tx *gorm.DB, items []models.Market) error
	ListMarkets(ctx context.Context, limit int) ([]models.Market, error)
	GetMarket(ctx context.Context, marketID string) (*models.Market, error)
	CountMarkets(ctx context.Context) (int64, error)

	// Sync state.
	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error
}

package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sigmine/internal/models"
	"sigmine/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// handle resolves the db handle for Tx-suffixed methods: the caller's
// transaction when present, the base connection otherwise.
func (s *Store) handle(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

// --- Agents -----------------------------------------------------------------

func (s *Store) CreateAgentTx(ctx context.Context, tx *gorm.DB, item *models.Agent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

func (s *Store) CountAgentsTx(ctx context.Context, tx *gorm.DB) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.handle(ctx, tx).Model(&models.Agent{}).Count(&count).Error
	return count, err
}

func (s *Store) GetAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Agent
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetAgentByAPIKey(ctx context.Context, key string) (*models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Agent
	err := s.db.WithContext(ctx).Where("api_key = ?", key).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetAgentByName(ctx context.Context, name string) (*models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Agent
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListAgents(ctx context.Context, params repository.ListAgentsParams) ([]models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Agent{})
	if params.Capability != nil && strings.TrimSpace(*params.Capability) != "" {
		query = query.Where("capabilities @> ?", `["`+strings.TrimSpace(*params.Capability)+`"]`)
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Agent
	if err := query.Order("genesis_number asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListAllAgents loads the whole registry. Directory filtering (presence
// decay, capability AND-matching, text search) happens in the service
// layer, so the registry is assumed to stay small.
func (s *Store) ListAllAgents(ctx context.Context) ([]models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Agent
	if err := s.db.WithContext(ctx).Order("genesis_number asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAgents(ctx context.Context) (int64, error) {
	return s.CountAgentsTx(ctx, nil)
}

func (s *Store) UpdateAgent(ctx context.Context, item *models.Agent) error {
	return s.UpdateAgentTx(ctx, nil, item)
}

func (s *Store) UpdateAgentTx(ctx context.Context, tx *gorm.DB, item *models.Agent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Save(item).Error
}

// --- Agent stats ------------------------------------------------------------

func (s *Store) GetAgentStat(ctx context.Context, agentID string) (*models.AgentStat, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.AgentStat
	err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertAgentStatTx(ctx context.Context, tx *gorm.DB, item *models.AgentStat) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"points",
			"signals",
			"last_signal",
		}),
	}).Create(item).Error
}

func (s *Store) ListAgentStats(ctx context.Context, limit int) ([]models.AgentStat, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.AgentStat
	err := s.db.WithContext(ctx).
		Model(&models.AgentStat{}).
		Order("points desc").
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Signals ----------------------------------------------------------------

func (s *Store) InsertSignalTx(ctx context.Context, tx *gorm.DB, item *models.Signal) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

func (s *Store) MarketHasSignal(ctx context.Context, marketID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Signal{}).
		Where("market_id = ?", marketID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) GetAgentMarketSignal(ctx context.Context, agentID, marketID string) (*models.Signal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Signal
	err := s.db.WithContext(ctx).
		Where("agent_id = ? AND market_id = ?", agentID, marketID).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSignals(ctx context.Context, params repository.ListSignalsParams) ([]models.Signal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Signal{})
	if params.AgentID != nil && strings.TrimSpace(*params.AgentID) != "" {
		query = query.Where("agent_id = ?", strings.TrimSpace(*params.AgentID))
	}
	if params.MarketID != nil && strings.TrimSpace(*params.MarketID) != "" {
		query = query.Where("market_id = ?", strings.TrimSpace(*params.MarketID))
	}
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		query = query.Where("type = ?", strings.TrimSpace(*params.Type))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("submitted_at >= ?", *params.Since)
	}
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Signal
	if err := query.Order("submitted_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSignals(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Signal{}).Count(&count).Error
	return count, err
}

func (s *Store) CountSignalsSince(ctx context.Context, since time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Signal{}).
		Where("submitted_at >= ?", since).
		Count(&count).Error
	return count, err
}

// --- Messages ---------------------------------------------------------------

func (s *Store) InsertMessage(ctx context.Context, item *models.Message) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Message
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListMessages(ctx context.Context, params repository.ListMessagesParams) ([]models.Message, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("to_id = ?", params.ToID)
	if params.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		query = query.Where("type = ?", strings.TrimSpace(*params.Type))
	}
	var items []models.Message
	err := query.Order("created_at desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkMessageRead(ctx context.Context, id string, readAt time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{"read": true, "read_at": readAt}).Error
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{}).Error
}

func (s *Store) CountUnread(ctx context.Context, toID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("to_id = ? AND read = ?", toID, false).
		Count(&count).Error
	return count, err
}

func (s *Store) CountMessages(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).Count(&count).Error
	return count, err
}

// --- Claims -----------------------------------------------------------------

func (s *Store) GetClaim(ctx context.Context, marketID string) (*models.Claim, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Claim
	err := s.db.WithContext(ctx).Where("market_id = ?", marketID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertClaimTx(ctx context.Context, tx *gorm.DB, item *models.Claim) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "market_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"agent_id",
			"claimed_at",
			"expires_at",
			"status",
		}),
	}).Create(item).Error
}

func (s *Store) DeleteClaimTx(ctx context.Context, tx *gorm.DB, marketID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.handle(ctx, tx).Where("market_id = ?", marketID).Delete(&models.Claim{}).Error
}

func (s *Store) ListClaimsByAgent(ctx context.Context, agentID string) ([]models.Claim, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Claim
	err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("claimed_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertClaimEventTx(ctx context.Context, tx *gorm.DB, item *models.ClaimEvent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.handle(ctx, tx).Create(item).Error
}

// --- Rate windows -----------------------------------------------------------

func (s *Store) GetRateWindow(ctx context.Context, key string) (*models.RateWindow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.RateWindow
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveRateWindow(ctx context.Context, item *models.RateWindow) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"count",
			"window_start",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) DeleteExpiredRateWindows(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("window_start < ?", before).
		Delete(&models.RateWindow{})
	return res.RowsAffected, res.Error
}

// --- Market cache -----------------------------------------------------------

func (s *Store) ReplaceMarketsTx(ctx context.Context, tx *gorm.DB, items []models.Market) error {
	if s == nil || s.db == nil {
		return nil
	}
	handle := s.handle(ctx, tx)
	if err := handle.Where("1 = 1").Delete(&models.Market{}).Error; err != nil {
		return err
	}
	return createInBatches(handle, items, 200)
}

func (s *Store) ListMarkets(ctx context.Context, limit int) ([]models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Market
	err := s.db.WithContext(ctx).
		Model(&models.Market{}).
		Order("volume desc").
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetMarket(ctx context.Context, marketID string) (*models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Market
	err := s.db.WithContext(ctx).Where("market_id = ?", marketID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CountMarkets(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Market{}).Count(&count).Error
	return count, err
}

// --- Sync state -------------------------------------------------------------

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncState
	err := s.db.WithContext(ctx).Where("scope = ?", scope).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	return s.handle(ctx, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_fetch_at",
			"item_count",
			"updated_at",
		}),
	}).Create(state).Error
}

// --- helpers ----------------------------------------------------------------

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := db.Create(items[i:end]).Error; err != nil {
			return err
		}
	}
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sigmine/internal/apperr"
	"sigmine/internal/client/polymarket/gamma"
	"sigmine/internal/config"
	"sigmine/internal/feeds"
	"sigmine/internal/keylock"
	"sigmine/internal/models"
	"sigmine/internal/repository"
	"sigmine/internal/research"
)

const marketSyncScope = "polymarket:gamma"

// TaskService hands out research work: market-grounded tasks built on the
// cached market snapshot, and the legacy feed-based task pool.
type TaskService struct {
	Repo      repository.Repository
	Gamma     *gamma.Client
	Fetcher   *feeds.Fetcher
	Locks     *keylock.KeyLock
	Logger    *zap.Logger
	CacheTTL  time.Duration
	FeedTTL   time.Duration
	PageLimit int
	Now       func() time.Time

	// Legacy feed tasks are process-local, same as the market cache is
	// not: they expire fast and carry no points.
	feedMu        sync.Mutex
	feedTasks     []feeds.Article
	feedFetchedAt time.Time
}

func (s *TaskService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *TaskService) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return 10 * time.Minute
}

// RefreshMarkets replaces the market snapshot from the provider. With
// force false the refresh is skipped while the cache is fresh.
func (s *TaskService) RefreshMarkets(ctx context.Context, force bool) error {
	unlock := s.Locks.Lock("markets:refresh")
	defer unlock()

	now := s.now()
	if !force {
		state, err := s.Repo.GetSyncState(ctx, marketSyncScope)
		if err != nil {
			return err
		}
		if state != nil && state.ItemCount > 0 && now.Sub(state.LastFetchAt) < s.cacheTTL() {
			return nil
		}
	}

	limit := s.PageLimit
	if limit <= 0 {
		limit = 100
	}
	fetched, err := s.Gamma.ListOpenMarkets(ctx, limit)
	if err != nil {
		return apperr.Upstream(err, "market fetch failed")
	}

	items := make([]models.Market, 0, len(fetched))
	for _, m := range fetched {
		items = append(items, mapMarket(m, now))
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.ReplaceMarketsTx(ctx, tx, items); err != nil {
			return err
		}
		return s.Repo.SaveSyncStateTx(ctx, tx, &models.SyncState{
			Scope:       marketSyncScope,
			LastFetchAt: now,
			ItemCount:   len(items),
		})
	})
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("market cache refreshed", zap.Int("markets", len(items)))
	}
	return nil
}

func mapMarket(m gamma.Market, fetchedAt time.Time) models.Market {
	outcomes := []string(m.Outcomes)
	if len(outcomes) == 0 {
		outcomes = []string{"Yes", "No"}
	}
	prices := []float64(m.Prices)
	if len(prices) == 0 {
		prices = []float64{0.5, 0.5}
	}
	return models.Market{
		MarketID:    m.ID,
		Question:    m.Question,
		Slug:        m.Slug,
		Description: m.Description,
		Outcomes:    outcomes,
		Prices:      prices,
		Volume:      float64(m.Volume),
		Liquidity:   float64(m.Liquidity),
		EndDate:     m.EndDate,
		URL:         "https://polymarket.com/event/" + m.Slug,
		Platform:    "polymarket",
		FetchedAt:   fetchedAt,
	}
}

// MarketTask is a fully assembled research assignment for one market.
type MarketTask struct {
	TaskID       string          `json:"task_id"`
	Type         string          `json:"type"`
	Market       MarketSummary   `json:"market"`
	Research     TaskResearch    `json:"research"`
	Instructions string          `json:"instructions"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

type MarketSummary struct {
	ID          string             `json:"id"`
	Platform    string             `json:"platform"`
	Question    string             `json:"question"`
	Description string             `json:"description"`
	Outcomes    []string           `json:"outcomes"`
	CurrentOdds map[string]float64 `json:"current_odds"`
	VolumeUSD   float64            `json:"volume_usd"`
	ResolvesAt  *time.Time         `json:"resolves_at"`
	URL         string             `json:"url"`
}

type TaskResearch struct {
	DetectedTopics []string           `json:"detected_topics"`
	XResearch      XResearch          `json:"x_research"`
	RSSArticles    []RelevantArticle  `json:"rss_articles"`
	DataSources    []string           `json:"data_sources"`
	RSSFeeds       []research.FeedRef `json:"rss_feeds"`
}

type XResearch struct {
	AccountsToCheck []string `json:"accounts_to_check"`
	SearchTerms     []string `json:"search_terms"`
	Instructions    string   `json:"instructions"`
}

type RelevantArticle struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet"`
	Published string `json:"published"`
}

// BuildMarketTask assembles a market task. An empty marketID picks a
// random cached market; a missing explicit id is a 404.
func (s *TaskService) BuildMarketTask(ctx context.Context, marketID string) (*MarketTask, error) {
	if err := s.RefreshMarkets(ctx, false); err != nil && s.Logger != nil {
		// Serve from the stale cache rather than failing the task.
		s.Logger.Warn("market refresh failed, serving cached markets", zap.Error(err))
	}

	var market *models.Market
	if marketID != "" {
		found, err := s.Repo.GetMarket(ctx, marketID)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, apperr.NotFound("market not found")
		}
		market = found
	} else {
		markets, err := s.Repo.ListMarkets(ctx, 500)
		if err != nil {
			return nil, err
		}
		if len(markets) == 0 {
			return nil, apperr.NotFound("no markets available")
		}
		market = &markets[rand.Intn(len(markets))]
	}

	topics := research.DetectTopics(market.Question)
	bundle := research.BuildBundle(market.Question, topics)
	articles := s.relevantArticles(ctx, topics)

	now := s.now()
	description := market.Description
	if len(description) > 500 {
		description = description[:500]
	}
	task := &MarketTask{
		TaskID: uuid.NewString(),
		Type:   models.SignalTypeMarket,
		Market: MarketSummary{
			ID:          market.MarketID,
			Platform:    market.Platform,
			Question:    market.Question,
			Description: description,
			Outcomes:    market.Outcomes,
			CurrentOdds: market.Odds(),
			VolumeUSD:   market.Volume,
			ResolvesAt:  market.EndDate,
			URL:         market.URL,
		},
		Research: TaskResearch{
			DetectedTopics: topics,
			XResearch: XResearch{
				AccountsToCheck: bundle.TwitterAccounts,
				SearchTerms:     bundle.TwitterSearchTerms,
				Instructions:    "Search these accounts and terms for recent relevant posts",
			},
			RSSArticles: articles,
			DataSources: bundle.DataSources,
			RSSFeeds:    bundle.RSSFeeds,
		},
		Instructions: taskInstructions(market),
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	return task, nil
}

// relevantArticles pulls fresh items from the topic feeds, capped at
// three feeds and three articles per feed.
func (s *TaskService) relevantArticles(ctx context.Context, topics []string) []RelevantArticle {
	seen := map[string]struct{}{}
	var feedList []config.FeedConfig
	for _, topic := range topics {
		src, ok := research.SourcesFor(topic)
		if !ok {
			continue
		}
		for _, feed := range src.RSS {
			if _, dup := seen[feed.URL]; dup {
				continue
			}
			seen[feed.URL] = struct{}{}
			feedList = append(feedList, config.FeedConfig{
				Name:     feed.Name,
				URL:      feed.URL,
				Category: feed.Category,
			})
			if len(feedList) == 3 {
				break
			}
		}
		if len(feedList) == 3 {
			break
		}
	}
	fetched := s.Fetcher.FetchFrom(ctx, feedList, 3)
	articles := make([]RelevantArticle, 0, len(fetched))
	for _, item := range fetched {
		snippet := item.ContentSnippet
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		articles = append(articles, RelevantArticle{
			Source:    item.SourceName,
			Title:     item.Title,
			URL:       item.SourceURL,
			Snippet:   snippet,
			Published: item.Published,
		})
	}
	return articles
}

func taskInstructions(market *models.Market) string {
	var odds string
	if len(market.Outcomes) >= 2 && len(market.Prices) >= 2 {
		odds = fmt.Sprintf("%s %.1f%% / %s %.1f%%",
			market.Outcomes[0], market.Prices[0]*100,
			market.Outcomes[1], market.Prices[1]*100)
	}
	lines := []string{
		"TASK: Research this prediction market and submit a signal.",
		"",
		fmt.Sprintf("MARKET: %q", market.Question),
		"CURRENT ODDS: " + odds,
		"",
		"RESEARCH STEPS:",
		"1. Review the bundled RSS articles below",
		"2. Check the suggested X/Twitter accounts for recent posts",
		"3. Consult data sources if applicable",
		"4. Form your opinion: Does evidence support YES, NO, or NEUTRAL?",
		"",
		"SUBMIT via POST /signal/market with:",
		fmt.Sprintf("- market_id: %q", market.MarketID),
		`- direction: "supports_yes" | "supports_no" | "neutral"`,
		"- confidence: 0.0 to 1.0",
		"- signal: Your key finding (what you discovered)",
		"- sources: List of sources you used",
		"- reasoning: Your full analysis",
	}
	return strings.Join(lines, "\n")
}

// LegacyTask returns a random article from the feed pool, refreshing the
// pool when stale.
func (s *TaskService) LegacyTask(ctx context.Context) (*feeds.Article, error) {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()

	ttl := s.FeedTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	now := s.now()
	if now.Sub(s.feedFetchedAt) > ttl || len(s.feedTasks) == 0 {
		s.feedTasks = s.Fetcher.FetchAll(ctx)
		s.feedFetchedAt = now
	}
	if len(s.feedTasks) == 0 {
		return nil, apperr.NotFound("no tasks available")
	}
	task := s.feedTasks[rand.Intn(len(s.feedTasks))]
	return &task, nil
}

type MarketListing struct {
	Count       int
	LastUpdated time.Time
	Markets     []models.Market
}

// CachedMarkets lists the current snapshot without triggering a refresh.
func (s *TaskService) CachedMarkets(ctx context.Context) (MarketListing, error) {
	markets, err := s.Repo.ListMarkets(ctx, 500)
	if err != nil {
		return MarketListing{}, err
	}
	listing := MarketListing{Count: len(markets), Markets: markets}
	if state, err := s.Repo.GetSyncState(ctx, marketSyncScope); err == nil && state != nil {
		listing.LastUpdated = state.LastFetchAt
	}
	return listing, nil
}

// RecommendedWorkflow resolves the playbook for one cached market.
func (s *TaskService) RecommendedWorkflow(ctx context.Context, marketID string) (string, string, research.Workflow, error) {
	market, err := s.Repo.GetMarket(ctx, marketID)
	if err != nil {
		return "", "", research.Workflow{}, err
	}
	if market == nil {
		return "", "", research.Workflow{}, apperr.NotFound("market not found")
	}
	id := research.RecommendWorkflow(market.Question)
	wf, _ := research.GetWorkflow(id)
	return id, market.Question, wf, nil
}

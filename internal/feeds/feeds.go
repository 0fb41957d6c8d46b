package feeds

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"sigmine/internal/config"
)

// Article is one normalized feed item ready to hand out as a research task.
type Article struct {
	TaskID         string `json:"task_id"`
	SourceURL      string `json:"source_url"`
	SourceType     string `json:"source_type"`
	SourceName     string `json:"source_name"`
	Title          string `json:"title"`
	ContentSnippet string `json:"content_snippet"`
	Published      string `json:"published"`
	CategoryHint   string `json:"category_hint"`
	CreatedAt      string `json:"created_at"`
}

// Fetcher pulls configured RSS feeds and normalizes the newest entries.
// Individual feed failures are logged and skipped; the fetch succeeds with
// whatever the healthy feeds produced.
type Fetcher struct {
	parser       *gofeed.Parser
	feeds        []config.FeedConfig
	itemsPerFeed int
	timeout      time.Duration
	logger       *zap.Logger
}

func NewFetcher(feeds []config.FeedConfig, itemsPerFeed int, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if itemsPerFeed <= 0 {
		itemsPerFeed = 5
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		parser:       gofeed.NewParser(),
		feeds:        feeds,
		itemsPerFeed: itemsPerFeed,
		timeout:      timeout,
		logger:       logger,
	}
}

func (f *Fetcher) FetchAll(ctx context.Context) []Article {
	return f.FetchFrom(ctx, f.feeds, f.itemsPerFeed)
}

// FetchFrom pulls an arbitrary feed set, used for topic-scoped research
// feeds that are not part of the standing configuration.
func (f *Fetcher) FetchFrom(ctx context.Context, feedList []config.FeedConfig, perFeed int) []Article {
	if perFeed <= 0 {
		perFeed = f.itemsPerFeed
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var articles []Article
	for _, feed := range feedList {
		items, err := f.fetchOne(ctx, feed, perFeed)
		if err != nil {
			if f.logger != nil {
				f.logger.Warn("feed fetch failed",
					zap.String("feed", feed.Name),
					zap.Error(err))
			}
			continue
		}
		for _, item := range items {
			articles = append(articles, Article{
				TaskID:         uuid.NewString(),
				SourceURL:      item.Link,
				SourceType:     "rss",
				SourceName:     feed.Name,
				Title:          item.Title,
				ContentSnippet: snippet(item),
				Published:      published(item),
				CategoryHint:   feed.Category,
				CreatedAt:      now,
			})
		}
		if f.logger != nil {
			f.logger.Debug("feed fetched",
				zap.String("feed", feed.Name),
				zap.Int("items", len(items)))
		}
	}
	return articles
}

func (f *Fetcher) fetchOne(ctx context.Context, feed config.FeedConfig, perFeed int) ([]*gofeed.Item, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	parsed, err := f.parser.ParseURLWithContext(feed.URL, fetchCtx)
	if err != nil {
		return nil, err
	}
	items := parsed.Items
	if len(items) > perFeed {
		items = items[:perFeed]
	}
	return items, nil
}

func snippet(item *gofeed.Item) string {
	text := item.Description
	if text == "" {
		text = item.Content
	}
	text = strings.TrimSpace(text)
	if len(text) > 500 {
		text = text[:500]
	}
	return text
}

func published(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	return item.Published
}

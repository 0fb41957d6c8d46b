package service

import (
	"context"

	"go.uber.org/zap"

	"sigmine/internal/apperr"
	"sigmine/internal/client/exa"
	"sigmine/internal/client/twitterapi"
	"sigmine/internal/config"
)

// SourceService fronts the external research providers. Every method maps
// an unconfigured provider to an availability error so handlers return 503
// instead of dialing a dead client.
type SourceService struct {
	Exa         *exa.Client
	Twitter     *twitterapi.Client
	Credibility config.CredibilityConfig
	Logger      *zap.Logger
}

func errExaUnavailable() error {
	return apperr.Unavailable("Exa API not configured").WithMeta(map[string]any{
		"message": "Add an Exa API key to the research config",
	})
}

type WebSearchInput struct {
	Query          string
	Category       string
	NumResults     int
	IncludeDomains []string
	StartDate      string
	EndDate        string
}

// SearchWeb runs a full-content Exa search.
func (s *SourceService) SearchWeb(ctx context.Context, in WebSearchInput) ([]exa.Result, error) {
	if !s.Exa.Configured() {
		return nil, errExaUnavailable()
	}
	if in.Query == "" {
		return nil, apperr.Validation("query parameter required")
	}
	numResults := in.NumResults
	if numResults <= 0 {
		numResults = 10
	}
	results, err := s.Exa.Search(ctx, exa.SearchParams{
		Query:              in.Query,
		Category:           in.Category,
		NumResults:         numResults,
		IncludeDomains:     in.IncludeDomains,
		StartPublishedDate: in.StartDate,
		EndPublishedDate:   in.EndDate,
		Highlights:         true,
	})
	if err != nil {
		return nil, apperr.Upstream(err, "Exa search failed")
	}
	return results, nil
}

// SearchTweetsExa runs the Exa search scoped to the tweet category.
func (s *SourceService) SearchTweetsExa(ctx context.Context, query string, numResults int, startDate, endDate string) ([]exa.Result, error) {
	if !s.Exa.Configured() {
		return nil, errExaUnavailable()
	}
	if query == "" {
		return nil, apperr.Validation("query parameter required")
	}
	if numResults <= 0 {
		numResults = 10
	}
	results, err := s.Exa.Search(ctx, exa.SearchParams{
		Query:              query,
		Category:           "tweet",
		NumResults:         numResults,
		StartPublishedDate: startDate,
		EndPublishedDate:   endDate,
		Highlights:         true,
	})
	if err != nil {
		return nil, apperr.Upstream(err, "Exa tweet search failed")
	}
	return results, nil
}

// Answer returns the top highlight for a question with its citations.
func (s *SourceService) Answer(ctx context.Context, question string) (string, []exa.Result, error) {
	if !s.Exa.Configured() {
		return "", nil, errExaUnavailable()
	}
	if question == "" {
		return "", nil, apperr.Validation("question parameter required")
	}
	answer, citations, err := s.Exa.Answer(ctx, question)
	if err != nil {
		return "", nil, apperr.Upstream(err, "Exa answer failed")
	}
	return answer, citations, nil
}

type WebSource struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Snippet       string `json:"snippet"`
	PublishedDate string `json:"published_date,omitempty"`
}

// WebSources runs a snippet-sized search for signal source lists.
func (s *SourceService) WebSources(ctx context.Context, query string, count int) ([]WebSource, error) {
	if query == "" {
		return nil, apperr.Validation("query parameter required")
	}
	if !s.Exa.Configured() {
		return nil, errExaUnavailable()
	}
	if count <= 0 {
		count = 5
	}
	results, err := s.Exa.Search(ctx, exa.SearchParams{
		Query:         query,
		NumResults:    count,
		MaxCharacters: 300,
	})
	if err != nil {
		return nil, apperr.Upstream(err, "Exa search failed")
	}
	sources := make([]WebSource, 0, len(results))
	for _, r := range results {
		snippet := r.Text
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		sources = append(sources, WebSource{
			URL:           r.URL,
			Title:         r.Title,
			Snippet:       snippet,
			PublishedDate: r.PublishedDate,
		})
	}
	return sources, nil
}

type TweetSource struct {
	URL           string `json:"url"`
	Text          string `json:"text"`
	Author        string `json:"author"`
	AuthorName    string `json:"author_name"`
	PublishedDate string `json:"published_date,omitempty"`
	Followers     int    `json:"followers"`
	Verified      bool   `json:"verified"`
}

// TweetSources searches X and keeps only credible authors: verified
// accounts (when the bypass is on), or accounts clearing the follower or
// engagement thresholds.
func (s *SourceService) TweetSources(ctx context.Context, query string, count int) ([]TweetSource, error) {
	if query == "" {
		return nil, apperr.Validation("query parameter required")
	}
	if !s.Twitter.Configured() {
		return nil, apperr.Unavailable("TwitterAPI.io not configured").WithMeta(map[string]any{
			"message": "Add a TwitterAPI.io key to the research config",
		})
	}
	if count <= 0 {
		count = 10
	}
	tweets, err := s.Twitter.SearchLatest(ctx, query, count)
	if err != nil {
		return nil, apperr.Upstream(err, "Twitter search failed")
	}

	minFollowers := s.Credibility.MinFollowers
	if minFollowers <= 0 {
		minFollowers = 1000
	}
	minEngagement := s.Credibility.MinEngagement
	if minEngagement <= 0 {
		minEngagement = 100
	}

	sources := make([]TweetSource, 0, count)
	for _, tweet := range tweets {
		if !s.credible(&tweet, minFollowers, minEngagement) {
			continue
		}
		text := tweet.Text
		if len(text) > 300 {
			text = text[:300]
		}
		authorName := tweet.Author.Name
		if authorName == "" {
			authorName = tweet.Author.UserName
		}
		sources = append(sources, TweetSource{
			URL:           tweet.Link(),
			Text:          text,
			Author:        tweet.Author.UserName,
			AuthorName:    authorName,
			PublishedDate: tweet.CreatedAt,
			Followers:     tweet.Author.Followers,
			Verified:      tweet.Author.IsBlueVerified,
		})
		if len(sources) == count {
			break
		}
	}
	return sources, nil
}

func (s *SourceService) credible(tweet *twitterapi.Tweet, minFollowers, minEngagement int) bool {
	if s.Credibility.VerifiedBypass && tweet.Author.IsBlueVerified {
		return true
	}
	return tweet.Author.Followers >= minFollowers || tweet.Engagement() >= minEngagement
}

type CombinedSources struct {
	Tweets []TweetSource `json:"twitter_sources"`
	Web    []WebSource   `json:"web_sources"`
	Errors []string      `json:"errors,omitempty"`
}

// Combined fetches Twitter first (the primary source) and the web second.
// Partial provider failures degrade to whatever succeeded.
func (s *SourceService) Combined(ctx context.Context, query string, webCount, twitterCount int) (CombinedSources, error) {
	if query == "" {
		return CombinedSources{}, apperr.Validation("query parameter required")
	}
	if !s.Exa.Configured() {
		return CombinedSources{}, errExaUnavailable()
	}
	if webCount <= 0 {
		webCount = 3
	}
	if twitterCount <= 0 {
		twitterCount = 10
	}

	var out CombinedSources
	if s.Twitter.Configured() {
		tweets, err := s.TweetSources(ctx, query, twitterCount)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			if s.Logger != nil {
				s.Logger.Warn("twitter source fetch failed", zap.Error(err))
			}
		} else {
			out.Tweets = tweets
		}
	}
	web, err := s.WebSources(ctx, query, webCount)
	if err != nil {
		out.Errors = append(out.Errors, err.Error())
		if s.Logger != nil {
			s.Logger.Warn("web source fetch failed", zap.Error(err))
		}
	} else {
		out.Web = web
	}
	return out, nil
}

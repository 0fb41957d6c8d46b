package research

import (
	"regexp"
	"strings"
)

const (
	maxTwitterAccounts = 8
	maxDataSources     = 5
	maxRSSFeeds        = 4
	maxSearchTerms     = 5
	minSearchWordLen   = 4
)

// Bundle is the research starter pack attached to a market task.
type Bundle struct {
	Topics             []string  `json:"topics"`
	TwitterAccounts    []string  `json:"twitter_accounts"`
	TwitterSearchTerms []string  `json:"twitter_search_terms"`
	DataSources        []string  `json:"data_sources"`
	RSSFeeds           []FeedRef `json:"rss_feeds"`
}

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// BuildBundle assembles the deduped, capped source bundle for a market
// question and its detected topics.
func BuildBundle(question string, topics []string) Bundle {
	bundle := Bundle{
		Topics:             topics,
		TwitterAccounts:    []string{},
		TwitterSearchTerms: searchTerms(question),
		DataSources:        []string{},
		RSSFeeds:           []FeedRef{},
	}
	for _, topic := range topics {
		src, ok := SourcesFor(topic)
		if !ok {
			continue
		}
		bundle.TwitterAccounts = append(bundle.TwitterAccounts, src.Twitter...)
		bundle.DataSources = append(bundle.DataSources, src.DataSources...)
		for _, feed := range src.RSS {
			bundle.RSSFeeds = append(bundle.RSSFeeds, FeedRef{Name: feed.Name, URL: feed.URL})
		}
	}
	bundle.TwitterAccounts = capStrings(dedupe(bundle.TwitterAccounts), maxTwitterAccounts)
	bundle.DataSources = capStrings(dedupe(bundle.DataSources), maxDataSources)
	bundle.RSSFeeds = dedupeFeeds(bundle.RSSFeeds)
	if len(bundle.RSSFeeds) > maxRSSFeeds {
		bundle.RSSFeeds = bundle.RSSFeeds[:maxRSSFeeds]
	}
	return bundle
}

// dedupeFeeds drops repeat feed URLs, keeping the first occurrence. Topics
// share outlets, so multi-topic questions produce duplicates.
func dedupeFeeds(feeds []FeedRef) []FeedRef {
	seen := make(map[string]struct{}, len(feeds))
	out := make([]FeedRef, 0, len(feeds))
	for _, feed := range feeds {
		if _, ok := seen[feed.URL]; ok {
			continue
		}
		seen[feed.URL] = struct{}{}
		out = append(out, feed)
	}
	return out
}

// searchTerms extracts up to five words longer than three characters from
// the question, punctuation stripped, original order kept.
func searchTerms(question string) []string {
	cleaned := nonWordRe.ReplaceAllString(question, "")
	words := strings.Fields(cleaned)
	terms := make([]string, 0, maxSearchTerms)
	for _, w := range words {
		if len(w) < minSearchWordLen {
			continue
		}
		terms = append(terms, w)
		if len(terms) == maxSearchTerms {
			break
		}
	}
	return terms
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func capStrings(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}

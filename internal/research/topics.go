package research

import (
	"sort"
	"strings"
)

// TopicSources bundles the research pointers for one topic.
type TopicSources struct {
	Keywords    []string
	RSS         []FeedRef
	Twitter     []string
	DataSources []string
}

// FeedRef is one topic-scoped RSS feed.
type FeedRef struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category,omitempty"`
}

// topicSources maps topic ids to their curated sources. Matching is
// substring on the lowercased market question.
var topicSources = map[string]TopicSources{
	"crypto": {
		Keywords: []string{"crypto", "bitcoin", "btc", "ethereum", "eth", "solana", "sol", "defi", "nft"},
		RSS: []FeedRef{
			{Name: "CoinDesk", URL: "https://www.coindesk.com/arc/outboundfeeds/rss/", Category: "news"},
			{Name: "CoinTelegraph", URL: "https://cointelegraph.com/rss", Category: "news"},
			{Name: "The Block", URL: "https://www.theblock.co/rss.xml", Category: "news"},
		},
		Twitter:     []string{"@coindesk", "@caborr", "@whale_alert", "@glaboratory", "@santaborr"},
		DataSources: []string{"CoinGecko API", "DeFiLlama", "Glassnode"},
	},
	"politics_us": {
		Keywords: []string{"trump", "biden", "congress", "senate", "election", "democrat", "republican", "white house"},
		RSS: []FeedRef{
			{Name: "Politico", URL: "https://www.politico.com/rss/politics08.xml", Category: "politics"},
			{Name: "AP Politics", URL: "https://apnews.com/politics.rss", Category: "politics"},
		},
		Twitter:     []string{"@POTUS", "@AP_Politics", "@politaborr", "@Nate_Cohn"},
		DataSources: []string{"FiveThirtyEight", "RealClearPolitics", "PredictIt"},
	},
	"immigration": {
		Keywords: []string{"deport", "immigration", "ice", "border", "migrant", "visa"},
		RSS: []FeedRef{
			{Name: "Reuters US", URL: "https://www.reutersagency.com/feed/", Category: "news"},
		},
		Twitter:     []string{"@ICEgov", "@CBP", "@DHS"},
		DataSources: []string{"ICE Annual Reports", "CBP Statistics", "USCIS Data"},
	},
	"tech": {
		Keywords: []string{"ai", "openai", "chatgpt", "google", "apple", "microsoft", "meta", "nvidia"},
		RSS: []FeedRef{
			{Name: "TechCrunch", URL: "https://techcrunch.com/feed/", Category: "tech"},
			{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "tech"},
		},
		Twitter:     []string{"@OpenAI", "@sama", "@ylecun", "@elaborr_musk"},
		DataSources: []string{"Company earnings reports", "SEC filings", "App Store rankings"},
	},
	"geopolitics": {
		Keywords: []string{"ukraine", "russia", "china", "war", "nato", "putin", "zelensky", "taiwan"},
		RSS: []FeedRef{
			{Name: "Reuters World", URL: "https://www.reutersagency.com/feed/", Category: "world"},
			{Name: "BBC World", URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Category: "world"},
		},
		Twitter:     []string{"@KyivIndependent", "@BBCWorld", "@Reuters"},
		DataSources: []string{"ISW Reports", "UN Data", "Defense Ministry statements"},
	},
	"sports": {
		Keywords: []string{"nfl", "nba", "mlb", "super bowl", "world series", "championship", "playoffs"},
		RSS: []FeedRef{
			{Name: "ESPN", URL: "https://www.espn.com/espn/rss/news", Category: "sports"},
		},
		Twitter:     []string{"@espn", "@TheAthletic", "@SportsCenter"},
		DataSources: []string{"ESPN Stats", "Team injury reports", "Vegas odds"},
	},
	"elon": {
		Keywords: []string{"elon", "musk", "tesla", "spacex", "doge", "x.com", "twitter"},
		RSS: []FeedRef{
			{Name: "TechCrunch", URL: "https://techcrunch.com/feed/", Category: "tech"},
			{Name: "Electrek", URL: "https://electrek.co/feed/", Category: "tech"},
		},
		Twitter:     []string{"@elonmusk", "@Tesla", "@SpaceX", "@WholeMarsBlog"},
		DataSources: []string{"Tesla investor relations", "SEC filings", "Social Blade (tweet counts)"},
	},
}

// topicOrder keeps detection output deterministic.
var topicOrder = func() []string {
	keys := make([]string, 0, len(topicSources))
	for k := range topicSources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}()

// DetectTopics matches a market question against the keyword table and
// returns every matched topic, or ["general"] when nothing matched.
func DetectTopics(question string) []string {
	q := strings.ToLower(question)
	var matched []string
	for _, topic := range topicOrder {
		for _, kw := range topicSources[topic].Keywords {
			if strings.Contains(q, kw) {
				matched = append(matched, topic)
				break
			}
		}
	}
	if len(matched) == 0 {
		return []string{"general"}
	}
	return matched
}

// SourcesFor returns the curated sources for one topic id.
func SourcesFor(topic string) (TopicSources, bool) {
	src, ok := topicSources[topic]
	return src, ok
}

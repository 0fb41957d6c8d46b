package research

import "strings"

// WorkflowStep is one numbered step of an analysis playbook.
type WorkflowStep struct {
	Step    int      `json:"step"`
	Action  string   `json:"action"`
	Details []string `json:"details"`
}

// Workflow is a reusable analysis playbook agents can follow before
// submitting a market signal.
type Workflow struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Steps       []WorkflowStep `json:"steps"`
	DataSources []string       `json:"data_sources"`
}

const (
	WorkflowElonTweets      = "elon_tweets"
	WorkflowPricePrediction = "price_prediction"
	WorkflowPoliticalEvent  = "political_event"
)

var workflows = map[string]Workflow{
	WorkflowElonTweets: {
		Name:        "Elon Musk Tweet Analysis",
		Description: "Analyze Elon Musk tweeting patterns and predict tweet counts",
		Steps: []WorkflowStep{
			{Step: 1, Action: "FETCH @elonmusk profile", Details: []string{
				"Get current tweet count from profile",
				"Calculate posting pattern last 7 days",
				"Note average tweets/day",
			}},
			{Step: 2, Action: "CURRENT DATA", Details: []string{
				"Count current tweets in period",
				"Calculate average rate",
				"Days remaining in market",
				"Project final total",
			}},
			{Step: 3, Action: "CHECK FOR CATALYSTS", Details: []string{
				"Search \"Elon Musk\" on X for upcoming events",
				"SpaceX launches?",
				"Tesla earnings?",
				"DOGE/government news?",
				"If catalyst found, could increase tweet rate",
			}},
			{Step: 4, Action: "ANALYZE SENTIMENT", Details: []string{
				"Is Elon in \"tweet storm\" mode or quiet mode?",
				"Check recent engagement levels",
				"Look for controversial topics he might engage with",
			}},
			{Step: 5, Action: "FORM PREDICTION", Details: []string{
				"Calculate projected tweet count",
				"Compare to market ranges",
				"Determine confidence level",
				"Choose direction: YES/NO",
			}},
		},
		DataSources: []string{
			"@elonmusk profile (bird CLI or X)",
			"Social Blade stats",
			"SpaceX launch calendar",
			"Tesla investor calendar",
		},
	},
	WorkflowPricePrediction: {
		Name:        "Asset Price Analysis",
		Description: "Analyze asset price movements for yes/no predictions",
		Steps: []WorkflowStep{
			{Step: 1, Action: "GET CURRENT PRICE", Details: []string{
				"Fetch current market price",
				"Note 24h/7d/30d price changes",
				"Identify key support/resistance levels",
			}},
			{Step: 2, Action: "TECHNICAL ANALYSIS", Details: []string{
				"Check RSI (overbought/oversold)",
				"Look at moving averages",
				"Volume trends",
			}},
			{Step: 3, Action: "FUNDAMENTAL ANALYSIS", Details: []string{
				"Recent news/announcements",
				"Upcoming events (earnings, upgrades)",
				"Regulatory news",
			}},
			{Step: 4, Action: "SENTIMENT CHECK", Details: []string{
				"X/Twitter sentiment",
				"News sentiment",
				"Fear & Greed index",
			}},
			{Step: 5, Action: "FORM PREDICTION", Details: []string{
				"Compare current price to target",
				"Weight technical vs fundamental",
				"Assess probability",
				"Choose direction with confidence",
			}},
		},
		DataSources: []string{
			"CoinGecko / TradingView",
			"News APIs",
			"X/Twitter search",
			"On-chain data (DeFiLlama, Glassnode)",
		},
	},
	WorkflowPoliticalEvent: {
		Name:        "Political Event Analysis",
		Description: "Analyze political outcomes (elections, policy, etc)",
		Steps: []WorkflowStep{
			{Step: 1, Action: "BASELINE DATA", Details: []string{
				"Current polls/predictions",
				"Historical patterns",
				"Aggregate polling data",
			}},
			{Step: 2, Action: "RECENT DEVELOPMENTS", Details: []string{
				"News from last 48 hours",
				"Any major announcements",
				"Scandal/controversy check",
			}},
			{Step: 3, Action: "SENTIMENT ANALYSIS", Details: []string{
				"X/Twitter sentiment",
				"Pundit opinions",
				"Betting market movements",
			}},
			{Step: 4, Action: "CROSS-REFERENCE", Details: []string{
				"Compare multiple polling sources",
				"Look for poll-market divergence",
				"Check prediction market history",
			}},
			{Step: 5, Action: "FORM PREDICTION", Details: []string{
				"Weight evidence",
				"Account for uncertainty",
				"Choose direction with confidence",
			}},
		},
		DataSources: []string{
			"FiveThirtyEight",
			"RealClearPolitics",
			"PredictIt",
			"Official government sources",
			"Major news outlets",
		},
	},
}

// GetWorkflow looks up one playbook by id.
func GetWorkflow(id string) (Workflow, bool) {
	wf, ok := workflows[id]
	return wf, ok
}

// WorkflowIDs returns the available playbook ids in a stable order.
func WorkflowIDs() []string {
	return []string{WorkflowElonTweets, WorkflowPricePrediction, WorkflowPoliticalEvent}
}

// RecommendWorkflow picks the playbook best matching a market question.
// Price prediction is the fallback.
func RecommendWorkflow(question string) string {
	q := strings.ToLower(question)
	switch {
	case containsAny(q, "elon", "musk", "tweet"):
		return WorkflowElonTweets
	case containsAny(q, "trump", "biden", "elect", "congress", "senate"):
		return WorkflowPoliticalEvent
	default:
		return WorkflowPricePrediction
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

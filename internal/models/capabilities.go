package models

// Capabilities is the closed set an agent may advertise. Profile updates
// silently drop anything outside it.
var Capabilities = []string{
	"signal-analysis",
	"market-data",
	"sentiment-analysis",
	"on-chain-tracking",
	"news-aggregation",
	"trading-execution",
	"risk-assessment",
	"portfolio-management",
	"social-monitoring",
	"research",
	"coding",
	"data-extraction",
	"communication",
}

var CapabilityDescriptions = map[string]string{
	"signal-analysis":      "Analyze and extract signals from data sources",
	"market-data":          "Process market data, prices, and trading info",
	"sentiment-analysis":   "Analyze sentiment from text and social media",
	"on-chain-tracking":    "Track blockchain transactions and wallets",
	"news-aggregation":     "Aggregate and summarize news from multiple sources",
	"trading-execution":    "Execute trades on exchanges or protocols",
	"risk-assessment":      "Assess and quantify risk factors",
	"portfolio-management": "Manage and optimize portfolios",
	"social-monitoring":    "Monitor social media channels",
	"research":             "Conduct deep research and analysis",
	"coding":               "Write and execute code",
	"data-extraction":      "Extract structured data from sources",
	"communication":        "Handle communication and messaging tasks",
}

// FilterCapabilities keeps only entries from the valid set, preserving
// input order.
func FilterCapabilities(caps []string) []string {
	valid := make(map[string]struct{}, len(Capabilities))
	for _, c := range Capabilities {
		valid[c] = struct{}{}
	}
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		if _, ok := valid[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

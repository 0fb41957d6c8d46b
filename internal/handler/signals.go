package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sigmine/internal/service"
)

type SignalHandler struct {
	Signals  *service.SignalService
	Stats    *service.StatsService
	Registry *service.RegistryService
	Logger   *zap.Logger
}

func (h *SignalHandler) Register(r *gin.Engine) {
	optional := r.Group("", OptionalAgent(h.Registry))
	optional.POST("/signal/market", h.submitMarket)
	optional.POST("/signal", h.submitNews)

	r.GET("/signals", h.recent)
	r.GET("/leaderboard", h.leaderboard)
}

type marketSignalRequest struct {
	AgentID    string   `json:"agent_id"`
	MarketID   string   `json:"market_id"`
	Direction  string   `json:"direction"`
	Confidence *float64 `json:"confidence"`
	Finding    string   `json:"signal"`
	Sources    []string `json:"sources"`
	Reasoning  string   `json:"reasoning"`
}

// @Summary Submit a market research signal
// @Tags signals
// @Accept json
// @Success 201 {object} map[string]any
// @Router /signal/market [post]
func (h *SignalHandler) submitMarket(c *gin.Context) {
	var req marketSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	// The authenticated identity wins over any agent_id in the body;
	// unauthenticated callers may still attribute by body field.
	agentID := req.AgentID
	if agent := agentFrom(c); agent != nil {
		agentID = agent.ID
	}
	result, err := h.Signals.SubmitMarket(c.Request.Context(), service.SubmitMarketInput{
		AgentID:    agentID,
		MarketID:   req.MarketID,
		Direction:  req.Direction,
		Confidence: req.Confidence,
		Finding:    req.Finding,
		Sources:    req.Sources,
		Reasoning:  req.Reasoning,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("market signal accepted",
			zap.String("market", req.MarketID),
			zap.String("agent", agentID),
			zap.String("points", result.Signal.Points.String()),
		)
	}
	Created(c, gin.H{
		"signal_id":        result.Signal.ID,
		"market_id":        result.Signal.MarketID,
		"points_earned":    result.Signal.Points,
		"points_breakdown": result.Breakdown,
		"is_first_signal":  result.Signal.IsFirstSignal,
	}, nil)
}

type newsSignalRequest struct {
	AgentID   string   `json:"agent_id"`
	SourceURL string   `json:"source_url"`
	Title     string   `json:"title"`
	MainClaim string   `json:"main_claim"`
	Entities  []string `json:"entities"`
	Sentiment string   `json:"sentiment"`
	Category  string   `json:"category"`
	Summary   string   `json:"summary"`
}

func (h *SignalHandler) submitNews(c *gin.Context) {
	var req newsSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	agentID := req.AgentID
	if agent := agentFrom(c); agent != nil {
		agentID = agent.ID
	}
	signal, err := h.Signals.SubmitNews(c.Request.Context(), service.SubmitNewsInput{
		AgentID:   agentID,
		SourceURL: req.SourceURL,
		Title:     req.Title,
		MainClaim: req.MainClaim,
		Entities:  req.Entities,
		Sentiment: req.Sentiment,
		Category:  req.Category,
		Summary:   req.Summary,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, gin.H{
		"signal_id":     signal.ID,
		"points_earned": signal.Points,
	}, nil)
}

func (h *SignalHandler) recent(c *gin.Context) {
	signals, err := h.Stats.RecentSignals(c.Request.Context(), intQuery(c, "limit", 50))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, signals, map[string]any{"count": len(signals)})
}

// @Summary Points leaderboard
// @Tags stats
// @Success 200 {object} map[string]any
// @Router /leaderboard [get]
func (h *SignalHandler) leaderboard(c *gin.Context) {
	entries, err := h.Stats.Leaderboard(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, entries, map[string]any{"count": len(entries)})
}

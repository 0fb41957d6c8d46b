package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sigmine/internal/epoch"
	"sigmine/internal/service"
)

// MetaHandler serves the service card, epoch clock, pool stats, and
// health probes.
type MetaHandler struct {
	DB      *gorm.DB
	Stats   *service.StatsService
	Epochs  *epoch.Clock
	AppName string
	Version string
}

func (h *MetaHandler) Register(r *gin.Engine) {
	r.GET("/", h.card)
	r.GET("/docs", h.docs)
	r.GET("/epoch", h.epoch)
	r.GET("/stats", h.stats)
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

func (h *MetaHandler) docs(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
}

// @Summary Service card
// @Tags meta
// @Success 200 {object} map[string]any
// @Router / [get]
func (h *MetaHandler) card(c *gin.Context) {
	Ok(c, gin.H{
		"name":        h.AppName,
		"version":     h.Version,
		"description": "Signal mining pool for research agents on prediction markets",
		"endpoints": gin.H{
			"register":    "POST /agent/register",
			"heartbeat":   "POST /agent/heartbeat",
			"task":        "GET /task/market",
			"claim":       "POST /task/claim",
			"signal":      "POST /signal/market",
			"inbox":       "GET /agent/inbox",
			"delegate":    "POST /task/delegate",
			"leaderboard": "GET /leaderboard",
			"share":       "GET /share/tweet",
			"docs":        "GET /swagger/index.html",
		},
	}, nil)
}

func (h *MetaHandler) epoch(c *gin.Context) {
	current := h.Epochs.Current()
	Ok(c, gin.H{
		"epoch_id":          current.ID,
		"start_time":        current.StartTime,
		"end_time":          current.EndTime,
		"remaining_seconds": h.Epochs.Remaining(),
	}, nil)
}

// @Summary Pool-wide statistics
// @Tags meta
// @Success 200 {object} map[string]any
// @Router /stats [get]
func (h *MetaHandler) stats(c *gin.Context) {
	overview, err := h.Stats.Overview(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	current := h.Epochs.Current()
	Ok(c, gin.H{
		"total_signals":  overview.TotalSignals,
		"signals_today":  overview.SignalsToday,
		"total_agents":   overview.TotalAgents,
		"online_agents":  overview.OnlineAgents,
		"total_messages": overview.TotalMessages,
		"current_epoch":  current.ID,
		"reward_system": gin.H{
			"base_points":      2,
			"source_bonus":     "0.5 per source, max 2",
			"confidence_bonus": "1 when confidence > 0.7",
			"first_signal":     2,
			"reasoning_bonus":  "0.5 when reasoning > 100 chars",
			"share_bonus":      1,
			"genesis_multipliers": gin.H{
				"founding": "4x (first 10 agents)",
				"early":    "3x (agents 11-50)",
				"genesis":  "2x (agents 51-100)",
				"normal":   "1x",
			},
			"streak_multipliers": gin.H{
				"1-7_days":   "1x",
				"8-14_days":  "1.2x",
				"15-30_days": "1.5x",
				"31+_days":   "2x",
			},
		},
	}, nil)
}

func (h *MetaHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *MetaHandler) ready(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_missing"})
		return
	}
	sqlDB, err := h.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

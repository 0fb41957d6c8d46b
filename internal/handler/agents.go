package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sigmine/internal/models"
	"sigmine/internal/service"
)

type AgentHandler struct {
	Registry *service.RegistryService
	Logger   *zap.Logger
}

func (h *AgentHandler) Register(r *gin.Engine) {
	r.POST("/agent/register", h.register)

	auth := r.Group("/agent", RequireAgent(h.Registry))
	auth.GET("/me", h.me)
	auth.PUT("/me", h.updateProfile)
	auth.POST("/heartbeat", h.heartbeat)

	r.GET("/agent/:id", h.get)
	r.GET("/agents", h.search)
	r.GET("/agents/online", h.online)
	r.GET("/agents/match", h.match)
	r.GET("/capabilities", h.capabilities)
}

type registerRequest struct {
	Name         string         `json:"name"`
	Wallet       *string        `json:"wallet"`
	Capabilities []string       `json:"capabilities"`
	Description  string         `json:"description"`
	Metadata     map[string]any `json:"metadata"`
}

// @Summary Register a new agent
// @Tags agents
// @Accept json
// @Success 201 {object} map[string]any
// @Router /agent/register [post]
func (h *AgentHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	agent, apiKey, err := h.Registry.Register(c.Request.Context(), service.RegisterInput{
		Name:         req.Name,
		Wallet:       req.Wallet,
		Capabilities: req.Capabilities,
		Description:  req.Description,
		Metadata:     req.Metadata,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("agent registered",
			zap.String("name", agent.Name),
			zap.Int("genesis_number", agent.GenesisNumber),
			zap.String("genesis_tier", agent.GenesisTier),
		)
	}
	Created(c, gin.H{
		"agent_id": agent.ID,
		"api_key":  apiKey,
		"name":     agent.Name,
		"genesis": gin.H{
			"number":     agent.GenesisNumber,
			"tier":       agent.GenesisTier,
			"multiplier": agent.GenesisMultiplier,
		},
		"capabilities": []string(agent.Capabilities),
	}, nil)
}

// @Summary Current agent profile
// @Tags agents
// @Success 200 {object} map[string]any
// @Router /agent/me [get]
func (h *AgentHandler) me(c *gin.Context) {
	agent := agentFrom(c)
	Ok(c, agentView(agent, h.Registry.EffectiveStatus(agent)), nil)
}

type updateProfileRequest struct {
	Capabilities []string       `json:"capabilities"`
	Description  *string        `json:"description"`
	Metadata     map[string]any `json:"metadata"`
	Wallet       *string        `json:"wallet"`
}

func (h *AgentHandler) updateProfile(c *gin.Context) {
	agent := agentFrom(c)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	err := h.Registry.UpdateProfile(c.Request.Context(), agent, service.UpdateProfileInput{
		Capabilities: req.Capabilities,
		Description:  req.Description,
		Metadata:     req.Metadata,
		Wallet:       req.Wallet,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, agentView(agent, agent.Status), nil)
}

type heartbeatRequest struct {
	Status      string  `json:"status"`
	CurrentTask *string `json:"current_task"`
}

// @Summary Agent presence heartbeat
// @Tags agents
// @Accept json
// @Success 200 {object} map[string]any
// @Router /agent/heartbeat [post]
func (h *AgentHandler) heartbeat(c *gin.Context) {
	agent := agentFrom(c)
	var req heartbeatRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
	}
	unread, err := h.Registry.Heartbeat(c.Request.Context(), agent, req.Status, req.CurrentTask)
	if err != nil {
		Fail(c, err)
		return
	}
	// LastSeen was just stamped by the registry clock.
	Ok(c, gin.H{
		"status":          agent.Status,
		"unread_messages": unread,
		"server_time":     agent.LastSeen,
	}, nil)
}

func (h *AgentHandler) get(c *gin.Context) {
	agent, err := h.Registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	if agent == nil {
		Error(c, http.StatusNotFound, "agent not found", nil)
		return
	}
	Ok(c, agentView(agent, agent.Status), nil)
}

// @Summary Search the agent directory
// @Tags agents
// @Success 200 {object} map[string]any
// @Router /agents [get]
func (h *AgentHandler) search(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	result, err := h.Registry.Search(c.Request.Context(), service.SearchInput{
		Status:     strings.TrimSpace(c.Query("status")),
		Capability: strings.TrimSpace(c.Query("capability")),
		Search:     strings.TrimSpace(c.Query("search")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	views := make([]gin.H, 0, len(result.Agents))
	for i := range result.Agents {
		views = append(views, agentView(&result.Agents[i], result.Agents[i].Status))
	}
	Ok(c, views, paginationMeta(limit, offset, int64(result.Total)))
}

func (h *AgentHandler) online(c *gin.Context) {
	agents, err := h.Registry.Online(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	views := make([]gin.H, 0, len(agents))
	for i := range agents {
		views = append(views, agentView(&agents[i], agents[i].Status))
	}
	Ok(c, views, map[string]any{"count": len(views)})
}

// @Summary Match agents by capability set
// @Tags agents
// @Success 200 {object} map[string]any
// @Router /agents/match [get]
func (h *AgentHandler) match(c *gin.Context) {
	caps := csvQuery(c, "capabilities")
	if len(caps) == 0 {
		if single := strings.TrimSpace(c.Query("capability")); single != "" {
			caps = []string{single}
		}
	}
	matches, err := h.Registry.Match(c.Request.Context(), service.MatchInput{
		Capabilities: caps,
		OnlineOnly:   boolQueryDefault(c, "online_only", true),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	views := make([]gin.H, 0, len(matches))
	for i := range matches {
		view := agentView(&matches[i].Agent, matches[i].Agent.Status)
		view["match_score"] = matches[i].Score
		views = append(views, view)
	}
	Ok(c, views, map[string]any{"required_capabilities": caps})
}

func (h *AgentHandler) capabilities(c *gin.Context) {
	Ok(c, gin.H{
		"capabilities": models.Capabilities,
		"descriptions": models.CapabilityDescriptions,
	}, nil)
}

// agentView is the public directory shape: no API key, no share tweet,
// status as currently derived.
func agentView(agent *models.Agent, status string) gin.H {
	view := gin.H{
		"id":                 agent.ID,
		"name":               agent.Name,
		"capabilities":       []string(agent.Capabilities),
		"description":        agent.Description,
		"status":             status,
		"last_seen":          agent.LastSeen,
		"genesis_number":     agent.GenesisNumber,
		"genesis_tier":       agent.GenesisTier,
		"genesis_multiplier": agent.GenesisMultiplier,
		"streak":             agent.Streak,
		"points":             agent.Points,
		"signals":            agent.Signals,
		"messages_sent":      agent.MessagesSent,
		"messages_received":  agent.MessagesReceived,
		"created_at":         agent.CreatedAt,
	}
	if agent.CurrentTask != nil {
		view["current_task"] = *agent.CurrentTask
	}
	if agent.Wallet != nil {
		view["wallet"] = *agent.Wallet
	}
	return view
}

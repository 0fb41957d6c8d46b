package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sigmine/internal/service"
)

type ClaimHandler struct {
	Claims   *service.ClaimService
	Registry *service.RegistryService
}

func (h *ClaimHandler) Register(r *gin.Engine) {
	// Claim and release accept an unauthenticated body agent_id for
	// backward compatibility; a valid API key overrides it.
	optional := r.Group("", OptionalAgent(h.Registry))
	optional.POST("/task/claim", h.claim)
	optional.POST("/task/release", h.release)

	r.GET("/task/claims", RequireAgent(h.Registry), h.mine)
	r.GET("/task/claim/:marketId", h.status)
}

type claimRequest struct {
	MarketID string `json:"market_id"`
	AgentID  string `json:"agent_id"`
}

func (h *ClaimHandler) claimant(c *gin.Context, req claimRequest) string {
	if agent := agentFrom(c); agent != nil {
		return agent.ID
	}
	return req.AgentID
}

// @Summary Claim exclusive research rights on a market
// @Tags claims
// @Accept json
// @Success 201 {object} map[string]any
// @Router /task/claim [post]
func (h *ClaimHandler) claim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	claim, err := h.Claims.Claim(c.Request.Context(), req.MarketID, h.claimant(c, req))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, claim, nil)
}

func (h *ClaimHandler) release(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Claims.Release(c.Request.Context(), req.MarketID, h.claimant(c, req)); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"released": true, "market_id": req.MarketID}, nil)
}

func (h *ClaimHandler) mine(c *gin.Context) {
	agent := agentFrom(c)
	claims, err := h.Claims.Mine(c.Request.Context(), agent.ID)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, claims, map[string]any{"count": len(claims)})
}

// @Summary Lease state for one market
// @Tags claims
// @Success 200 {object} map[string]any
// @Router /task/claim/{marketId} [get]
func (h *ClaimHandler) status(c *gin.Context) {
	status, err := h.Claims.Status(c.Request.Context(), c.Param("marketId"))
	if err != nil {
		Fail(c, err)
		return
	}
	out := gin.H{
		"claimed":   status.Claimed,
		"available": status.Available,
	}
	if status.Claim != nil {
		out["claim"] = status.Claim
		out["remaining_seconds"] = status.RemainingSeconds
	}
	if status.ExpiredClaim != nil {
		out["expired_claim"] = status.ExpiredClaim
	}
	Ok(c, out, nil)
}

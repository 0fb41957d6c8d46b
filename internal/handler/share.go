package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sigmine/internal/service"
)

type ShareHandler struct {
	Share    *service.ShareService
	Registry *service.RegistryService
}

func (h *ShareHandler) Register(r *gin.Engine) {
	r.GET("/share/tweet", h.template)
	r.POST("/share/claim", RequireAgent(h.Registry), h.claim)
}

// @Summary Pre-canned share tweet and intent URL
// @Tags share
// @Success 200 {object} map[string]any
// @Router /share/tweet [get]
func (h *ShareHandler) template(c *gin.Context) {
	Ok(c, h.Share.Template(), nil)
}

type shareClaimRequest struct {
	TweetURL string `json:"tweet_url"`
	TweetID  string `json:"tweet_id"`
}

func (h *ShareHandler) claim(c *gin.Context) {
	agent := agentFrom(c)
	var req shareClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	proof := req.TweetURL
	if proof == "" {
		proof = req.TweetID
	}
	total, err := h.Share.ClaimBonus(c.Request.Context(), agent, proof)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{
		"bonus_awarded": 1,
		"total_points":  total,
	}, nil)
}

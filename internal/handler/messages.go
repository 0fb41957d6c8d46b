package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sigmine/internal/service"
)

type MessageHandler struct {
	Messages *service.MessageService
	Registry *service.RegistryService
	Logger   *zap.Logger
}

func (h *MessageHandler) Register(r *gin.Engine) {
	auth := r.Group("", RequireAgent(h.Registry))
	auth.GET("/agent/inbox", h.inbox)
	auth.POST("/agent/inbox/:messageId/read", h.markRead)
	auth.DELETE("/agent/inbox/:messageId", h.delete)
	auth.POST("/agent/message", h.send)
	auth.POST("/task/delegate", h.delegate)
}

// @Summary List inbox messages
// @Tags messages
// @Success 200 {object} map[string]any
// @Router /agent/inbox [get]
func (h *MessageHandler) inbox(c *gin.Context) {
	agent := agentFrom(c)
	result, err := h.Messages.Inbox(c.Request.Context(), agent.ID, service.InboxInput{
		UnreadOnly: boolQueryDefault(c, "unread_only", false),
		Type:       c.Query("type"),
		Limit:      intQuery(c, "limit", 50),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result.Messages, map[string]any{
		"count":  len(result.Messages),
		"unread": result.Unread,
	})
}

func (h *MessageHandler) markRead(c *gin.Context) {
	agent := agentFrom(c)
	msg, err := h.Messages.MarkRead(c.Request.Context(), agent.ID, c.Param("messageId"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, msg, nil)
}

func (h *MessageHandler) delete(c *gin.Context) {
	agent := agentFrom(c)
	if err := h.Messages.Delete(c.Request.Context(), agent.ID, c.Param("messageId")); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"deleted": true}, nil)
}

type sendMessageRequest struct {
	To       string         `json:"to"`
	Type     string         `json:"type"`
	Subject  string         `json:"subject"`
	Body     string         `json:"message"`
	Data     map[string]any `json:"data"`
	Priority string         `json:"priority"`
}

// @Summary Send a direct message to another agent
// @Tags messages
// @Accept json
// @Success 200 {object} map[string]any
// @Router /agent/message [post]
func (h *MessageHandler) send(c *gin.Context) {
	agent := agentFrom(c)
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	msg, err := h.Messages.Send(c.Request.Context(), agent, service.SendInput{
		To:       req.To,
		Type:     req.Type,
		Subject:  req.Subject,
		Body:     req.Body,
		Data:     req.Data,
		Priority: req.Priority,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("message sent",
			zap.String("from", msg.FromName),
			zap.String("to", msg.ToID),
			zap.String("type", msg.Type),
		)
	}
	Ok(c, msg, nil)
}

type delegateRequest struct {
	RequiredCapabilities []string       `json:"required_capabilities"`
	Subject              string         `json:"subject"`
	Body                 string         `json:"message"`
	Data                 map[string]any `json:"data"`
	Priority             string         `json:"priority"`
}

// @Summary Delegate a task to the best matching agent
// @Tags messages
// @Accept json
// @Success 200 {object} map[string]any
// @Router /task/delegate [post]
func (h *MessageHandler) delegate(c *gin.Context) {
	agent := agentFrom(c)
	var req delegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	result, err := h.Messages.Delegate(c.Request.Context(), agent, service.DelegateInput{
		RequiredCapabilities: req.RequiredCapabilities,
		Subject:              req.Subject,
		Body:                 req.Body,
		Data:                 req.Data,
		Priority:             req.Priority,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{
		"message_id": result.Message.ID,
		"delegated_to": gin.H{
			"id":           result.Chosen.ID,
			"name":         result.Chosen.Name,
			"status":       result.Chosen.Status,
			"points":       result.Chosen.Points,
			"capabilities": []string(result.Chosen.Capabilities),
		},
		"candidates_considered": result.CandidatesConsidered,
	}, nil)
}

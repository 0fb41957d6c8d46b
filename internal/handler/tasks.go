package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sigmine/internal/research"
	"sigmine/internal/service"
)

type TaskHandler struct {
	Tasks *service.TaskService
}

func (h *TaskHandler) Register(r *gin.Engine) {
	r.GET("/task", h.legacyTask)
	r.GET("/task/market", h.marketTask)
	r.GET("/task/market/:marketId/workflow", h.marketWorkflow)
	r.GET("/markets", h.markets)
	r.GET("/workflows", h.workflows)
	r.GET("/workflow/:id", h.workflow)
}

// @Summary Get a feed-based research task
// @Tags tasks
// @Success 200 {object} map[string]any
// @Router /task [get]
func (h *TaskHandler) legacyTask(c *gin.Context) {
	task, err := h.Tasks.LegacyTask(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, task, nil)
}

// @Summary Get a market research task with a research bundle
// @Tags tasks
// @Success 200 {object} map[string]any
// @Router /task/market [get]
func (h *TaskHandler) marketTask(c *gin.Context) {
	task, err := h.Tasks.BuildMarketTask(c.Request.Context(), c.Query("market_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, task, nil)
}

func (h *TaskHandler) marketWorkflow(c *gin.Context) {
	id, question, wf, err := h.Tasks.RecommendedWorkflow(c.Request.Context(), c.Param("marketId"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{
		"market_id":       c.Param("marketId"),
		"market_question": question,
		"recommended":     id,
		"workflow":        wf,
	}, nil)
}

// @Summary List cached open markets
// @Tags tasks
// @Success 200 {object} map[string]any
// @Router /markets [get]
func (h *TaskHandler) markets(c *gin.Context) {
	listing, err := h.Tasks.CachedMarkets(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, listing.Markets, map[string]any{
		"count":        listing.Count,
		"last_updated": listing.LastUpdated,
	})
}

func (h *TaskHandler) workflows(c *gin.Context) {
	ids := research.WorkflowIDs()
	out := make([]research.Workflow, 0, len(ids))
	for _, id := range ids {
		if wf, ok := research.GetWorkflow(id); ok {
			out = append(out, wf)
		}
	}
	Ok(c, out, map[string]any{"count": len(out)})
}

func (h *TaskHandler) workflow(c *gin.Context) {
	wf, ok := research.GetWorkflow(c.Param("id"))
	if !ok {
		Error(c, http.StatusNotFound, "workflow not found", map[string]any{"available": research.WorkflowIDs()})
		return
	}
	Ok(c, wf, nil)
}

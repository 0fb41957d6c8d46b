package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sigmine/internal/service"
)

type ResearchHandler struct {
	Sources *service.SourceService
}

func (h *ResearchHandler) Register(r *gin.Engine) {
	r.GET("/research/exa", h.searchWeb)
	r.GET("/research/exa/tweets", h.searchTweets)
	r.GET("/research/exa/answer", h.answer)

	r.GET("/sources/exa", h.webSources)
	r.GET("/sources/twitter", h.tweetSources)
	r.GET("/sources/combined", h.combined)
}

// @Summary Full-content web search
// @Tags research
// @Success 200 {object} map[string]any
// @Router /research/exa [get]
func (h *ResearchHandler) searchWeb(c *gin.Context) {
	results, err := h.Sources.SearchWeb(c.Request.Context(), service.WebSearchInput{
		Query:          strings.TrimSpace(c.Query("query")),
		Category:       strings.TrimSpace(c.Query("category")),
		NumResults:     intQuery(c, "num_results", 10),
		IncludeDomains: csvQuery(c, "include_domains"),
		StartDate:      strings.TrimSpace(c.Query("start_date")),
		EndDate:        strings.TrimSpace(c.Query("end_date")),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, results, map[string]any{"count": len(results)})
}

func (h *ResearchHandler) searchTweets(c *gin.Context) {
	results, err := h.Sources.SearchTweetsExa(
		c.Request.Context(),
		strings.TrimSpace(c.Query("query")),
		intQuery(c, "num_results", 10),
		strings.TrimSpace(c.Query("start_date")),
		strings.TrimSpace(c.Query("end_date")),
	)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, results, map[string]any{"count": len(results)})
}

// @Summary Direct answer for a research question
// @Tags research
// @Success 200 {object} map[string]any
// @Router /research/exa/answer [get]
func (h *ResearchHandler) answer(c *gin.Context) {
	answer, citations, err := h.Sources.Answer(c.Request.Context(), strings.TrimSpace(c.Query("question")))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{
		"answer":    answer,
		"citations": citations,
	}, nil)
}

func (h *ResearchHandler) webSources(c *gin.Context) {
	sources, err := h.Sources.WebSources(c.Request.Context(), strings.TrimSpace(c.Query("query")), intQuery(c, "count", 5))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, sources, map[string]any{"count": len(sources)})
}

// @Summary Credible tweet sources for a query
// @Tags research
// @Success 200 {object} map[string]any
// @Router /sources/twitter [get]
func (h *ResearchHandler) tweetSources(c *gin.Context) {
	sources, err := h.Sources.TweetSources(c.Request.Context(), strings.TrimSpace(c.Query("query")), intQuery(c, "count", 10))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, sources, map[string]any{"count": len(sources)})
}

func (h *ResearchHandler) combined(c *gin.Context) {
	combined, err := h.Sources.Combined(
		c.Request.Context(),
		strings.TrimSpace(c.Query("query")),
		intQuery(c, "web_count", 3),
		intQuery(c, "twitter_count", 10),
	)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, combined, nil)
}

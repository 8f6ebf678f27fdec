package handler

import (
	"net/http"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/middleware"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/search"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	engine *search.Engine
}

func NewSearchHandler(engine *search.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// Search ranks approved items against the query, excluding the caller's own
// reports. An empty result list is a valid outcome; an embedding provider
// failure is not.
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	results, err := h.engine.Search(c.Request.Context(), req.Query, callerID(c), req.Limit)
	if err != nil {
		middleware.RecordItemSearch("error")
		respondError(c, err)
		return
	}

	if len(results) == 0 {
		middleware.RecordItemSearch("empty")
	} else {
		middleware.RecordItemSearch("hit")
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

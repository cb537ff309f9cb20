package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mietrecht-backend/service"
)

// AnalysisHandler serves the knowledge base and free-text analysis
type AnalysisHandler struct {
	analysis *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysis *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// QuestionRequest is the body of both analysis endpoints
type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// ListTopics handles GET /api/topics
func (h *AnalysisHandler) ListTopics(c *gin.Context) {
	topics, err := h.analysis.Topics()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// GetTopic handles GET /api/topic/:name
func (h *AnalysisHandler) GetTopic(c *gin.Context) {
	topic, err := h.analysis.Topic(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, topic.Result())
}

// Analyze handles POST /api/analyze. Questions that resolve to a topic are
// answered from the knowledge base.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.analysis.Ask(c.Request.Context(), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AnalyzeCustom handles POST /api/analyze-custom and always asks the provider
func (h *AnalysisHandler) AnalyzeCustom(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

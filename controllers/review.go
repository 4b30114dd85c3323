package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ip-review-api/models"
	"ip-review-api/services"
)

type reviewDecisionReq struct {
	Stage    string `json:"stage" binding:"required"`
	Decision string `json:"decision" binding:"required"`
	Comments string `json:"comments"`
}

// SubmitReviewDecision handles POST /applications/:id/decisions
func (h *Handler) SubmitReviewDecision(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req reviewDecisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	stage := models.Stage(req.Stage)
	if !stage.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown stage", "code": services.CodeValidation})
		return
	}

	app, decision, err := h.Reviews.SubmitDecision(c.Request.Context(), actor, services.DecisionInput{
		ApplicationID: c.Param("id"),
		Stage:         stage,
		Decision:      models.Decision(req.Decision),
		Comments:      req.Comments,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"application": app,
		"decision":    decision,
	})
}

// ListReviewDecisions handles GET /applications/:id/decisions
func (h *Handler) ListReviewDecisions(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	items, err := h.Reviews.ListDecisions(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetStageHistory handles GET /applications/:id/history
func (h *Handler) GetStageHistory(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	items, err := h.Reviews.History(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

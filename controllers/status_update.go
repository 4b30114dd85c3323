package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ip-review-api/models"
	"ip-review-api/services"
)

type addStatusUpdateReq struct {
	Kind            string `json:"kind"`
	Priority        string `json:"priority"`
	Message         string `json:"message"`
	NotifyApplicant bool   `json:"notify_applicant"`
	NotifyInventors bool   `json:"notify_inventors"`
}

// AddStatusUpdate handles POST /applications/:id/status-updates
func (h *Handler) AddStatusUpdate(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req addStatusUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	update, err := h.StatusUpdates.Add(c.Request.Context(), actor, services.StatusUpdateInput{
		ApplicationID:   c.Param("id"),
		Kind:            models.UpdateKind(strings.TrimSpace(req.Kind)),
		Priority:        models.UpdatePriority(strings.TrimSpace(req.Priority)),
		Message:         req.Message,
		NotifyApplicant: req.NotifyApplicant,
		NotifyInventors: req.NotifyInventors,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "status_update": update})
}

// ListStatusUpdates handles GET /applications/:id/status-updates?order=newest|chronological
func (h *Handler) ListStatusUpdates(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var (
		items []models.StatusUpdate
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(c.Query("order"))) {
	case "", "newest":
		items, err = h.StatusUpdates.ListNewestFirst(c.Request.Context(), actor, c.Param("id"))
	case "chronological":
		items, err = h.StatusUpdates.ListChronological(c.Request.Context(), actor, c.Param("id"))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be newest or chronological"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// DeleteStatusUpdate handles DELETE /status-updates/:id
func (h *Handler) DeleteStatusUpdate(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.StatusUpdates.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

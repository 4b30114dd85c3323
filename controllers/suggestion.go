package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ip-review-api/services"
)

type proposeSuggestionReq struct {
	FieldName     string `json:"field_name" binding:"required"`
	FieldPath     string `json:"field_path"`
	OriginalValue string `json:"original_value"`
	ProposedValue string `json:"proposed_value"`
	Note          string `json:"note"`
}

type respondSuggestionReq struct {
	Action string `json:"action" binding:"required"` // accept|reject
	Note   string `json:"note"`
}

// ProposeSuggestion handles POST /applications/:id/suggestions
func (h *Handler) ProposeSuggestion(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req proposeSuggestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	suggestion, err := h.Suggestions.Propose(c.Request.Context(), actor, services.ProposeInput{
		ApplicationID: c.Param("id"),
		FieldName:     req.FieldName,
		FieldPath:     req.FieldPath,
		OriginalValue: req.OriginalValue,
		ProposedValue: req.ProposedValue,
		Note:          req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "suggestion": suggestion})
}

// RespondToSuggestion handles POST /suggestions/:id/respond
func (h *Handler) RespondToSuggestion(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req respondSuggestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	action := services.ResponseAction(strings.ToLower(strings.TrimSpace(req.Action)))
	suggestion, err := h.Suggestions.Respond(c.Request.Context(), actor, c.Param("id"), action, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "suggestion": suggestion})
}

// ListSuggestions handles GET /applications/:id/suggestions?field=&path=
func (h *Handler) ListSuggestions(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	items, err := h.Suggestions.ListForField(c.Request.Context(), actor, c.Param("id"), c.Query("field"), c.Query("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// GetPendingCount handles GET /applications/:id/suggestions/pending-count?scope=
func (h *Handler) GetPendingCount(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	scope := services.PendingScope(strings.TrimSpace(c.Query("scope")))
	n, err := h.Suggestions.PendingCount(c.Request.Context(), actor, c.Param("id"), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": n})
}

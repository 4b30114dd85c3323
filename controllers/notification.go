package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetNotifications handles GET /notifications?unreadOnly=&limit=&offset=
func (h *Handler) GetNotifications(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	unreadOnly := strings.TrimSpace(c.Query("unreadOnly"))
	limit, _ := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	offset, _ := strconv.Atoi(strings.TrimSpace(c.Query("offset")))

	items, err := h.Notifications.ListForUser(c.Request.Context(), actor.UserID,
		unreadOnly == "1" || strings.EqualFold(unreadOnly, "true"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// MarkNotificationRead handles POST /notifications/:id/read
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), actor.UserID, uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

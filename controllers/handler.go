package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ip-review-api/config"
	"ip-review-api/middleware"
	"ip-review-api/models"
	"ip-review-api/services"
)

// Handler binds the review engine services to gin routes.
type Handler struct {
	Applications  *services.ApplicationService
	Suggestions   *services.SuggestionService
	Reviews       *services.ReviewService
	StatusUpdates *services.StatusUpdateService
	Notifications *services.NotificationService
	Fields        *config.FieldCatalog
}

var errorStatus = map[services.ErrorCode]int{
	services.CodeValidation:        http.StatusBadRequest,
	services.CodeNotFound:          http.StatusNotFound,
	services.CodeAlreadyResolved:   http.StatusConflict,
	services.CodeInvalidTransition: http.StatusConflict,
	services.CodePermission:        http.StatusForbidden,
}

// respondError maps engine errors to HTTP answers. Anything that is not a
// domain error is logged and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	var domainErr *services.Error
	if errors.As(err, &domainErr) {
		body := gin.H{"error": domainErr.Message, "code": domainErr.Code}
		if domainErr.Rule != "" {
			body["rule"] = domainErr.Rule
		}
		c.JSON(errorStatus[domainErr.Code], body)
		return
	}

	log.Printf("request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func currentActor(c *gin.Context) (services.Actor, bool) {
	userID, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return services.Actor{}, false
	}
	role, ok := c.Get(middleware.ContextRole)
	if !ok {
		return services.Actor{}, false
	}
	id, _ := userID.(string)
	r, _ := role.(models.Role)
	if id == "" || r == "" {
		return services.Actor{}, false
	}
	return services.Actor{UserID: id, Role: r}, true
}

// actorOrAbort resolves the actor or answers 401.
func actorOrAbort(c *gin.Context) (services.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return actor, ok
}

// GetFieldCatalog serves the static field kinds and enum labels.
func (h *Handler) GetFieldCatalog(c *gin.Context) {
	fields := []config.FieldDefinition{}
	if h.Fields != nil {
		fields = h.Fields.Fields
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ip-review-api/controllers"
	"ip-review-api/middleware"
	"ip-review-api/models"
)

func SetupRoutes(router *gin.Engine, h *controllers.Handler, jwtSecret string) {
	v1 := router.Group("/api/v1")
	{
		// Public routes
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"message": "IP Review API is running",
			})
		})

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/fields", h.GetFieldCatalog)

			applications := protected.Group("/applications")
			{
				applications.POST("", middleware.RequireRole(models.RoleApplicant), h.CreateApplication)
				applications.GET("/:id", h.GetApplication)
				applications.POST("/:id/submit", middleware.RequireRole(models.RoleApplicant), h.SubmitApplication)
				applications.POST("/:id/resubmit", middleware.RequireRole(models.RoleApplicant), h.ResubmitApplication)

				applications.GET("/:id/suggestions", h.ListSuggestions)
				applications.GET("/:id/suggestions/pending-count", h.GetPendingCount)
				applications.POST("/:id/suggestions", h.ProposeSuggestion)

				applications.GET("/:id/decisions", h.ListReviewDecisions)
				applications.POST("/:id/decisions",
					middleware.RequireRole(models.RoleMentor, models.RoleDRDReviewer, models.RoleDean),
					h.SubmitReviewDecision)
				applications.GET("/:id/history", h.GetStageHistory)

				applications.GET("/:id/status-updates", h.ListStatusUpdates)
				applications.POST("/:id/status-updates", middleware.RequireRole(models.RoleDRDReviewer), h.AddStatusUpdate)
			}

			protected.POST("/suggestions/:id/respond", h.RespondToSuggestion)
			protected.DELETE("/status-updates/:id", middleware.RequireRole(models.RoleDRDReviewer), h.DeleteStatusUpdate)

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.GetNotifications)
				notifications.POST("/:id/read", h.MarkNotificationRead)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}

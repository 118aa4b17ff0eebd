package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"research-review-api/controllers"
	"research-review-api/middleware"
	"research-review-api/models"
	"research-review-api/services"
)

// Dependencies carries what SetupRoutes mounts.
type Dependencies struct {
	Auth          *controllers.AuthController
	Research      *controllers.ResearchController
	Notifications *controllers.NotificationController
	Users         services.UserLookup
	JWTSecret     string
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", deps.Auth.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"status":  "ok",
					"message": "Research Review API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTSecret, deps.Users))
		{
			// User profile
			protected.GET("/profile", deps.Auth.GetProfile)

			research := protected.Group("/research")
			{
				research.POST("", middleware.RequireRole(models.RoleStudent, models.RoleFaculty), deps.Research.SubmitResearch)
				research.GET("/mine", deps.Research.GetMyResearch)
				research.GET("/published", deps.Research.GetPublishedResearch)
				research.GET("/faculty-assigned", middleware.RequireRole(models.RoleFaculty), deps.Research.GetAssignedResearch)
				research.GET("/assigned",
					middleware.RequireRole(models.RoleFaculty, models.RoleStaff, models.RoleAdmin),
					deps.Research.GetAssignedResearch)
				research.GET("/:id", deps.Research.GetResearch)

				reviewers := middleware.RequireRole(models.RoleFaculty, models.RoleStaff, models.RoleAdmin)
				research.POST("/:id/approve", reviewers, deps.Research.ApproveResearch)
				research.POST("/:id/reject", reviewers, deps.Research.RejectResearch)
				research.POST("/:id/request-revision", reviewers, deps.Research.RequestRevision)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", deps.Notifications.GetNotifications)
				notifications.GET("/counter", deps.Notifications.GetNotificationCounter)
				notifications.PATCH("/mark-all-read", deps.Notifications.MarkAllNotificationsRead)
				notifications.PATCH("/:id/read", deps.Notifications.MarkNotificationRead)
			}
		}
	}
}

package routes

import (
	"app-review-api/controllers"
	"app-review-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/register", controllers.Register)
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "App Review API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// App catalog
			apps := protected.Group("/apps")
			{
				apps.GET("", controllers.GetApps)
				apps.GET("/search/suggestions", controllers.GetAppSuggestions)
				apps.GET("/categories", controllers.GetAppCategories)
				apps.GET("/developers", controllers.GetAppDevelopers)
				apps.GET("/:id", controllers.GetApp)
				apps.GET("/:id/reviews", controllers.GetAppReviews)

				// Only admins manage the catalog
				apps.POST("", middleware.RequireAdmin(), controllers.CreateApp)
				apps.PUT("/:id", middleware.RequireAdmin(), controllers.UpdateApp)
				apps.DELETE("/:id", middleware.RequireAdmin(), controllers.DeleteApp)
			}

			// Reviews (author side)
			reviews := protected.Group("/reviews")
			{
				reviews.POST("", controllers.CreateReview)
				reviews.GET("/my", controllers.GetMyReviews)
				reviews.GET("/stats", controllers.GetReviewStats)
				reviews.GET("/:id", controllers.GetReview)
				reviews.PUT("/:id", controllers.UpdateReview)
				reviews.DELETE("/:id", controllers.DeleteReview)
			}

			// Moderation (supervisor side)
			moderation := protected.Group("/moderation")
			moderation.Use(middleware.RequireSupervisor())
			{
				moderation.GET("/reviews", controllers.GetModerationReviews)
				moderation.POST("/reviews/:id/decision", controllers.CastReviewDecision)
				moderation.GET("/reviews/:id/decisions", controllers.GetReviewDecisions)
				moderation.GET("/stats", controllers.GetSupervisorStats)
			}

			// Admin override, conflict resolution, user management
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/conflicts", controllers.GetConflictedReviews)
				admin.POST("/reviews/:id/resolve", controllers.ResolveReviewConflict)
				admin.POST("/reviews/:id/override", controllers.OverrideReview)

				admin.GET("/users", controllers.GetUsers)
				admin.GET("/users/supervisors", controllers.GetSupervisors)
				admin.POST("/users/:id/promote", controllers.PromoteSupervisor)
				admin.POST("/users/:id/revoke", controllers.RevokeSupervisor)
			}
		}
	}
}

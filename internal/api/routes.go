package api

import (
	"net/http"

	"peakform/training-engine/internal/domain"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all handlers onto the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandler *AuthHandler,
	programHandler *ProgramHandler,
	sessionHandler *SessionHandler,
) {
	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Catalog ---
		programGroup := protected.Group("/programs")
		{
			programGroup.GET("", programHandler.ListPrograms)
			programGroup.GET("/:id", programHandler.GetProgram)
			programGroup.POST("", RoleMiddleware(domain.RoleCoach), programHandler.CreateProgram)
			programGroup.POST("/:id/media", RoleMiddleware(domain.RoleCoach), programHandler.RequestMediaUpload)
		}

		protected.GET("/recommendations", programHandler.GetRecommendations)

		// --- Sessions ---
		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.POST("", sessionHandler.Enroll)
			sessionGroup.GET("", sessionHandler.ListSessions)
			sessionGroup.POST("/:id/pause", sessionHandler.Pause)
			sessionGroup.POST("/:id/resume", sessionHandler.Resume)
			sessionGroup.POST("/:id/complete", sessionHandler.Complete)
			sessionGroup.POST("/:id/cancel", sessionHandler.Cancel)
			sessionGroup.POST("/:id/workouts", sessionHandler.RecordWorkout)
			sessionGroup.GET("/:id/next", sessionHandler.NextWorkout)
		}

		protected.GET("/workouts/today", sessionHandler.TodaysWorkouts)
		protected.GET("/analytics", sessionHandler.Analytics)
	}
}

package api

import (
	"net/http"

	"groupfit/session-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all HTTP endpoints onto the router. Every route
// under /api/v1 is fenced by the API key middleware.
func SetupRoutes(
	router *gin.Engine,
	apiKey string,
	sessionService service.SessionService,
	exerciseService service.ExerciseService,
	ledger service.EquipmentLedger,
	resolver service.SubstitutionResolver,
) {
	sessionHandler := NewSessionHandler(sessionService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	dashboardHandler := NewDashboardHandler(sessionService, ledger, resolver)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(APIKeyMiddleware(apiKey))
	{
		// --- Session Routes ---
		sessionGroup := apiV1.Group("/sessions")
		{
			sessionGroup.POST("", sessionHandler.StartSession)
			sessionGroup.POST("/:sessionId/complete", sessionHandler.CompleteSession)
			sessionGroup.GET("/:sessionId/states", sessionHandler.GetSessionStates)
			sessionGroup.GET("/:sessionId/alerts", dashboardHandler.GetSessionAlerts)
			sessionGroup.GET("/:sessionId/availability", dashboardHandler.GetAvailability)
			sessionGroup.GET("/:sessionId/alternatives/:exerciseId", dashboardHandler.PreviewAlternative)
		}

		// --- Per-client State Routes ---
		stateGroup := apiV1.Group("/states")
		{
			stateGroup.POST("/:stateId/advance", sessionHandler.Advance)
			stateGroup.POST("/:stateId/rpe", sessionHandler.SubmitExertion)
			stateGroup.POST("/:stateId/pain", sessionHandler.ReportPain)
		}

		// --- Exercise Library Routes ---
		exerciseGroup := apiV1.Group("/exercises")
		{
			exerciseGroup.POST("", exerciseHandler.CreateExercise)
			exerciseGroup.GET("", exerciseHandler.GetExercises)
			exerciseGroup.GET("/:exerciseId", exerciseHandler.GetExerciseByID)
			exerciseGroup.POST("/:exerciseId/demo/upload-url", exerciseHandler.RequestDemoUploadURL)
			exerciseGroup.POST("/:exerciseId/demo/confirm", exerciseHandler.ConfirmDemoUpload)
			exerciseGroup.GET("/:exerciseId/demo/download-url", exerciseHandler.GetDemoDownloadURL)
		}

		// --- Decision Log ---
		apiV1.GET("/decisions/recent", dashboardHandler.GetRecentDecisions)
	}
}

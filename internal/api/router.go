// Package api exposes the simulated job backend over HTTP for local
// development. It serves the same contract the client polls in production.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tiklens/internal/api/handler"
	"github.com/timmy/tiklens/internal/api/middleware"
	"github.com/timmy/tiklens/internal/logger"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	store *handler.JobStore,
	log *logger.Logger,
	mode string,
	allowedOrigins []string,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  allowedOrigins,
		AllowAllOrigins: len(allowedOrigins) == 0,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	collectionHandler := handler.NewCollectionHandler(store)
	analysisHandler := handler.NewAnalysisHandler(store)
	jobsHandler := handler.NewJobsHandler(store)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Job inventory
	r.GET("/jobs", jobsHandler.List)

	// Collection jobs
	r.POST("/collection/start", collectionHandler.Start)
	r.GET("/collection/status/:id", collectionHandler.Status)
	r.POST("/collection/cancel", collectionHandler.Cancel)

	// Analysis jobs
	r.POST("/analysis/start", analysisHandler.Start)
	r.GET("/analysis/status/:id", analysisHandler.Status)
	r.POST("/analysis/cancel", analysisHandler.Cancel)

	return r
}

// DefaultStore returns a job store with the stock simulated durations.
// Parameters: none.
// Returns:
//   - *handler.JobStore: store where collection takes 10s and analysis 8s.
func DefaultStore() *handler.JobStore {
	return handler.NewJobStore(10*time.Second, 8*time.Second)
}

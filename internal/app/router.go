package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/fayedaihall/tesseracts-world/internal/handler"
	"github.com/fayedaihall/tesseracts-world/internal/middleware"
	"github.com/fayedaihall/tesseracts-world/internal/repository"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	MovementHandler  *handler.MovementHandler
	JobHandler       *handler.JobHandler
	WorkerHandler    *handler.WorkerHandler
	AnalyticsHandler *handler.AnalyticsHandler
	APIKeyHandler    *handler.APIKeyHandler
	EventsHandler    *handler.EventsHandler
	APIKeyRepo       repository.APIKeyRepository
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Liveness and metrics stay unauthenticated.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Key issuance is open so a fresh deployment can mint its first key.
	// Revocation requires an existing key. The event stream is open too.
	router.POST("/v1/keys", deps.APIKeyHandler.CreateKey)
	router.GET("/v1/ws", deps.EventsHandler.Subscribe)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.APIKeyRepo))
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		// Movement routes.
		movement := v1.Group("/movement")
		{
			movement.POST("/request", deps.MovementHandler.RequestMovement)
			movement.POST("/accept", deps.MovementHandler.AcceptQuote)
		}

		// Job routes.
		jobs := v1.Group("/jobs")
		{
			jobs.GET("", deps.JobHandler.ListJobs)
			jobs.GET("/:id/status", deps.JobHandler.JobStatus)
			jobs.GET("/:id/track", deps.JobHandler.TrackJob)
			jobs.DELETE("/:id", deps.JobHandler.CancelJob)
		}

		// Worker routes.
		v1.GET("/workers", deps.WorkerHandler.AvailableWorkers)

		// Analytics and operations routes.
		v1.GET("/analytics", deps.AnalyticsHandler.Analytics)
		v1.PUT("/analytics/weights", deps.AnalyticsHandler.UpdateWeights)
		v1.GET("/health", deps.AnalyticsHandler.ProviderHealth)

		// API key revocation.
		v1.DELETE("/keys/:key", deps.APIKeyHandler.RevokeKey)
	}

	return router
}

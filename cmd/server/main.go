package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"github.com/fayedaihall/tesseracts-world/internal/app"
	"github.com/fayedaihall/tesseracts-world/internal/broker"
	"github.com/fayedaihall/tesseracts-world/internal/config"
	"github.com/fayedaihall/tesseracts-world/internal/domain"
	"github.com/fayedaihall/tesseracts-world/internal/events"
	"github.com/fayedaihall/tesseracts-world/internal/handler"
	"github.com/fayedaihall/tesseracts-world/internal/jobregistry"
	"github.com/fayedaihall/tesseracts-world/internal/provider"
	"github.com/fayedaihall/tesseracts-world/internal/provider/metro"
	"github.com/fayedaihall/tesseracts-world/internal/provider/mock"
	"github.com/fayedaihall/tesseracts-world/internal/quotecache"
	"github.com/fayedaihall/tesseracts-world/internal/repository/postgres"
	"github.com/fayedaihall/tesseracts-world/internal/scoring"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, gateway := wireServer(db, redisClient, nrApp, cfg)

	// Sweep expired quotes for the lifetime of the process.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.Broker.QuoteSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gateway.CleanupExpiredQuotes()
			case <-sweepDone:
				return
			}
		}
	}()

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	close(sweepDone)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and gateway.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *broker.Gateway) {
	// Register providers. The slice order is the fan-out order.
	providers := []provider.Provider{
		mock.New("QuickGig", domain.Location{Latitude: 37.7749, Longitude: -122.4194}),
		mock.New("CityRunners", domain.Location{Latitude: 37.7849, Longitude: -122.4094}),
		mock.New("LocalCouriers", domain.Location{Latitude: 37.7649, Longitude: -122.4294}),
	}
	if cfg.Metro.APIKey != "" {
		providers = append(providers, metro.New(cfg.Metro.APIKey, cfg.Metro.BaseURL, nil))
		log.Println("MetroRides provider enabled")
	}

	// Initialize the brokering core.
	scorer, err := scoring.New(providers, scoring.DefaultWeights(), scoring.DefaultCostBounds(), cfg.Broker.ProviderTimeout)
	if err != nil {
		log.Fatalf("failed to initialize scorer: %v", err)
	}
	hub := events.NewHub()
	gateway := broker.NewGateway(providers, scorer, quotecache.New(), jobregistry.New(), hub, cfg.Broker.ProviderTimeout)

	// Initialize repositories.
	apiKeyRepo := postgres.NewAPIKeyRepository(db)

	// Initialize handlers.
	movementHandler := handler.NewMovementHandler(gateway)
	jobHandler := handler.NewJobHandler(gateway)
	workerHandler := handler.NewWorkerHandler(gateway)
	analyticsHandler := handler.NewAnalyticsHandler(gateway)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyRepo)
	eventsHandler := handler.NewEventsHandler(hub)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		MovementHandler:  movementHandler,
		JobHandler:       jobHandler,
		WorkerHandler:    workerHandler,
		AnalyticsHandler: analyticsHandler,
		APIKeyHandler:    apiKeyHandler,
		EventsHandler:    eventsHandler,
		APIKeyRepo:       apiKeyRepo,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, gateway
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/rideinzw/dispatch/internal/api/handlers"
	"github.com/rideinzw/dispatch/internal/api/routes"
	"github.com/rideinzw/dispatch/internal/auth"
	"github.com/rideinzw/dispatch/internal/config"
	"github.com/rideinzw/dispatch/internal/domain/trip"
	"github.com/rideinzw/dispatch/internal/events"
	"github.com/rideinzw/dispatch/internal/service/bidding"
	"github.com/rideinzw/dispatch/internal/service/lifecycle"
	"github.com/rideinzw/dispatch/internal/service/presence"
	"github.com/rideinzw/dispatch/internal/service/pricing"
	"github.com/rideinzw/dispatch/internal/service/proximity"
	"github.com/rideinzw/dispatch/internal/service/rating"
	"github.com/rideinzw/dispatch/internal/storage/postgres"
	"github.com/rideinzw/dispatch/pkg/broker"
	"github.com/rideinzw/dispatch/pkg/cache"
	"github.com/rideinzw/dispatch/pkg/database"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/monitoring"
	"github.com/rideinzw/dispatch/pkg/realtime"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting RideIn dispatch service",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize New Relic", logger.Err(err))
	}
	if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cache.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer cache.Close(redisClient)

	appLogger.Info("Connected to Redis successfully")

	// Initialize PostgreSQL
	db, err := database.NewPostgresDB(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConnections,
		MaxIdle:  cfg.Database.MaxIdleConns,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}
	defer db.Close()

	appLogger.Info("Connected to PostgreSQL successfully")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgres.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		appLogger.Fatal("Failed to run migrations", logger.Err(err))
	}
	cancelMigrate()

	store := postgres.NewStore(db)

	// Initialize the event broker mirror
	eventBroker, err := broker.NewPublisher(broker.Config{
		Host:     cfg.Broker.Host,
		Port:     cfg.Broker.Port,
		User:     cfg.Broker.User,
		Password: cfg.Broker.Password,
		Exchange: cfg.Broker.Exchange,
		Enabled:  cfg.Broker.Enabled,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to RabbitMQ", logger.Err(err))
	}
	defer eventBroker.Close()

	// Initialize WebSocket hub
	hub := realtime.NewHub(appLogger)
	go hub.Run()

	var publisher events.Publisher = events.NewFanout(hub, eventBroker, appLogger)
	if !cfg.Features.EnableRealTimeUpdates {
		publisher = events.Noop{}
	}

	// Build the fare table from config
	rates := make(map[trip.Category]pricing.Rate, len(cfg.Pricing.Rates))
	for name, rate := range cfg.Pricing.Rates {
		rates[trip.Category(name)] = pricing.Rate{
			BaseFare:  rate.BaseFare,
			PerKM:     rate.PerKM,
			PerMinute: rate.PerMinute,
		}
	}
	pricingSvc := pricing.NewService(pricing.Config{
		Currency: cfg.Pricing.Currency,
		Rates:    rates,
	})

	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	lifecycleSvc := lifecycle.NewService(store.Trips, store.Bids, store.Users, pricingSvc, publisher, nrApp, appLogger)
	biddingSvc := bidding.NewService(store.Trips, store.Bids, store.Users, publisher, nrApp, appLogger)
	ratingSvc := rating.NewService(store.Trips, store.Reviews, store.Users, store.Favorites, publisher, nrApp, appLogger)
	presenceSvc := presence.NewService(store.Locations, store.Users, store.Trips, redisClient, publisher, nrApp, appLogger, presence.Config{
		LocationTTL: cfg.Presence.LocationTTL,
	})
	proximitySvc := proximity.NewService(store.Trips, store.Users, appLogger, proximity.Config{
		DefaultRadiusKM: cfg.Proximity.DefaultRadiusKM,
		MaxRadiusKM:     cfg.Proximity.MaxRadiusKM,
		MaxResults:      cfg.Proximity.MaxResults,
	})

	h := &handlers.Handlers{
		Lifecycle:    lifecycleSvc,
		Bidding:      biddingSvc,
		Rating:       ratingSvc,
		Presence:     presenceSvc,
		Proximity:    proximitySvc,
		Pricing:      pricingSvc,
		Users:        store.Users,
		Favorites:    store.Favorites,
		Tokens:       store.Tokens,
		TokenManager: tokenManager,
		Redis:        redisClient,
		Hub:          hub,
		Monitor:      nrApp,
		Logger:       appLogger,
		WebSocket:    cfg.WebSocket,
	}

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	var nrApplication *newrelic.Application
	if nrApp.IsEnabled() {
		nrApplication = nrApp.Application
	}
	routes.SetupRoutes(router, h, nrApplication, cfg)

	appLogger.Info("Routes configured successfully")

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}

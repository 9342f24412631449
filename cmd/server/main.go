package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/afltools/supercoach-optimizer/internal/api"
	"github.com/afltools/supercoach-optimizer/internal/api/handlers"
	"github.com/afltools/supercoach-optimizer/internal/api/middleware"
	"github.com/afltools/supercoach-optimizer/internal/providers"
	"github.com/afltools/supercoach-optimizer/internal/services"
	"github.com/afltools/supercoach-optimizer/internal/supercoach"
	"github.com/afltools/supercoach-optimizer/pkg/config"
	"github.com/afltools/supercoach-optimizer/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis. The cache degrades to miss-only when unavailable,
	// so a dead Redis slows things down rather than taking the service out.
	var redisClient *redis.Client
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient = redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Warnf("Redis unavailable, running without cache: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	cacheService := services.NewCacheService(redisClient)

	// Data providers
	var providerList []supercoach.Provider
	providerList = append(providerList,
		providers.NewFootyWireClient(cfg.FootyWireBaseURL, cfg.ProviderTimeout, cfg.CircuitBreakerThreshold, cacheService, logger))
	if cfg.CSVPoolPath != "" {
		providerList = append(providerList, providers.NewCSVProvider(cfg.CSVPoolPath, logger))
	}
	fallback := providers.NewSampleProvider(cfg.SyntheticPoolSize, logger)

	aggregator := services.NewPoolAggregator(db, cacheService, logger, providerList, fallback)

	refresher := services.NewDataRefresher(db, cacheService, aggregator, logger, cfg.Season, cfg.DataFetchInterval)
	if cfg.EnableBackgroundRefresh {
		if err := refresher.Start(); err != nil {
			logrus.Errorf("Failed to start data refresher: %v", err)
		}
		defer refresher.Stop()
	}

	optimizerService := services.NewOptimizerService(
		aggregator, cacheService, db, logger, cfg.SalaryCap, cfg.SquadSize)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CorsOrigins))
	router.Use(middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateBurst))

	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.GetHealth)

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, db, cfg, optimizerService, refresher)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

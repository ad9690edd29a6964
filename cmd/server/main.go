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

	"github.com/aryankhare2110/NSS-Bloodlink/internal/alerts"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/api"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/cache"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/config"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/forecast"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/redistribution"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/repository/postgres"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/service"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/storage"
	"github.com/aryankhare2110/NSS-Bloodlink/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories
	hospitalRepo := postgres.NewHospitalRepository(db)
	inventoryRepo := postgres.NewInventoryRepository(db)
	demandRepo := postgres.NewDemandRepository(db)
	forecastRepo := postgres.NewForecastRepository(db)
	runRepo := postgres.NewForecastRunRepository(db)

	// Model artifact store
	artifacts, err := buildArtifactStore(&cfg.Artifact)
	if err != nil {
		log.Fatalf("Failed to initialize artifact store: %v", err)
	}

	// Forecaster: trains on recorded history, falls back to synthetic
	// data until hospitals have uploaded enough of it
	forecaster := forecast.New(
		forecastConfig(&cfg.Forecast, cfg.Artifact.Key),
		artifacts,
		forecast.NewHistorySource(demandRepo),
		inventoryRepo,
		runRepo,
	)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	loaded, err := forecaster.LoadPersisted(startupCtx)
	cancelStartup()
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Could not load persisted model, starting untrained")
	} else if loaded {
		logger.Log.Info().Msg("Persisted demand model loaded")
	}

	// Caches degrade to noops when Redis is disabled or unreachable
	summaryCache, err := cache.NewForecastSummaryCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast summary cache unavailable, continuing without it")
		summaryCache = cache.NewNoopForecastSummaryCache()
	}
	volunteers, err := cache.NewVolunteerPool(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Volunteer pool unavailable, alerts will report zero volunteers")
		volunteers = cache.NewNoopVolunteerPool()
	}

	// Services
	redistributor := redistribution.NewRedistributor(inventoryRepo, hospitalRepo)
	notifier := alerts.NewNotifier(forecastRepo, volunteers)
	forecastingService := service.NewForecastingService(forecaster, forecastRepo, notifier, summaryCache)
	redistributionService := service.NewRedistributionService(redistributor, inventoryRepo, hospitalRepo, forecastRepo)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Forecasting:    forecastingService,
		Redistribution: redistributionService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func forecastConfig(cfg *config.ForecastConfig, artifactKey string) forecast.Config {
	return forecast.Config{
		Trees:               cfg.Trees,
		MaxDepth:            cfg.MaxDepth,
		Seed:                cfg.Seed,
		TrainingDays:        cfg.TrainingDays,
		DefaultHorizonHours: cfg.DefaultHorizonHours,
		MaxHorizonHours:     cfg.MaxHorizonHours,
		Workers:             cfg.Workers,
		ArtifactKey:         artifactKey,
	}
}

func buildArtifactStore(cfg *config.ArtifactConfig) (storage.ArtifactStore, error) {
	switch cfg.Backend {
	case "s3":
		return storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
	case "local", "":
		return storage.NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown artifact backend: %s", cfg.Backend)
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/forecast"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/redistribution"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/repository/postgres"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/storage"
	"github.com/aryankhare2110/NSS-Bloodlink/pkg/logger"
)

// One-shot batch run: retrain the demand model, persist a fresh forecast
// batch and print the redistribution plan those forecasts call for.
// Meant for cron; any failure exits non-zero.
func main() {
	dbURL := flag.String("db-url", "", "Database connection string")
	artifactDir := flag.String("artifact-dir", "./data/models", "Directory for the trained model artifact")
	horizon := flag.Int("horizon", 48, "Forecast horizon in hours")
	minRiskLabel := flag.String("min-risk", "High", "Lowest shortage risk that goes into the plan (Low, Medium, High, Critical)")
	force := flag.Bool("force", false, "Refit the model even when a persisted artifact exists")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("Database URL is required (use -db-url flag)")
	}

	logger.UseJSON()

	minRisk, ok := domain.ParseRiskLevel(*minRiskLabel)
	if !ok {
		log.Fatalf("Unknown risk level: %s", *minRiskLabel)
	}

	db, err := postgres.NewDBFromURL(*dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	hospitalRepo := postgres.NewHospitalRepository(db)
	inventoryRepo := postgres.NewInventoryRepository(db)
	demandRepo := postgres.NewDemandRepository(db)
	forecastRepo := postgres.NewForecastRepository(db)
	runRepo := postgres.NewForecastRunRepository(db)

	artifacts, err := storage.NewLocalStore(*artifactDir)
	if err != nil {
		log.Fatalf("Failed to open artifact store: %v", err)
	}

	forecaster := forecast.New(forecast.DefaultConfig(), artifacts,
		forecast.NewHistorySource(demandRepo), inventoryRepo, runRepo)
	redistributor := redistribution.NewRedistributor(inventoryRepo, hospitalRepo)

	ctx := context.Background()

	start := time.Now()
	result, err := forecaster.Train(ctx, *force)
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}
	if result.Reloaded {
		log.Printf("Reloaded persisted model (trained %s on %d rows)",
			result.TrainedAt.Format(time.RFC3339), result.Rows)
	} else {
		log.Printf("Trained on %d rows in %v (RMSE %.2f, MAE %.2f, R2 %.3f)",
			result.Rows, time.Since(start).Round(time.Millisecond),
			result.Metrics.RMSE, result.Metrics.MAE, result.Metrics.R2)
	}

	forecasts, err := forecaster.GenerateForecasts(ctx, *horizon, nil)
	if err != nil {
		log.Fatalf("Forecast generation failed: %v", err)
	}
	inserted, err := forecastRepo.InsertBatch(ctx, forecasts)
	if err != nil {
		log.Fatalf("Failed to persist forecasts: %v", err)
	}

	var atRisk int
	for _, f := range forecasts {
		if f.ShortageRisk.AtLeast(minRisk) {
			atRisk++
		}
	}
	log.Printf("Generated %d forecasts over %dh, persisted %d, %d at %s risk or above",
		len(forecasts), *horizon, inserted, atRisk, minRisk)

	plan, err := redistributor.PlanFromForecasts(ctx, forecasts, minRisk)
	if err != nil {
		log.Fatalf("Failed to plan redistribution: %v", err)
	}

	if len(plan) == 0 {
		log.Println("No redistribution needed")
		return
	}

	log.Printf("Redistribution plan (%d actions):", len(plan))
	for _, action := range plan {
		log.Printf("  %s -> %s: %d units of %s (priority %.1f) %s",
			action.FromHospitalName, action.ToHospitalName,
			action.TransferUnits, action.BloodType, action.Priority, action.Reason)
	}
}

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/forecast"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/redistribution"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/repository/postgres"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/storage"
	"github.com/urfave/cli/v2"
)

// runDemo walks the whole pipeline against a seeded database: train the
// demand model, inspect it, predict one cell, generate a forecast batch,
// then surface and execute a redistribution. It builds the same object
// graph as the server, minus HTTP.
func runDemo(c *cli.Context) error {
	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	hospitalRepo := postgres.NewHospitalRepository(db)
	inventoryRepo := postgres.NewInventoryRepository(db)
	demandRepo := postgres.NewDemandRepository(db)
	forecastRepo := postgres.NewForecastRepository(db)
	runRepo := postgres.NewForecastRunRepository(db)

	artifacts, err := storage.NewLocalStore(c.String("artifact-dir"))
	if err != nil {
		return fmt.Errorf("failed to open artifact store: %w", err)
	}

	forecaster := forecast.New(forecast.DefaultConfig(), artifacts,
		forecast.NewHistorySource(demandRepo), inventoryRepo, runRepo)
	redistributor := redistribution.NewRedistributor(inventoryRepo, hospitalRepo)

	ctx := c.Context
	horizon := c.Int("horizon")

	log.Println("=== 1. Training the demand model ===")
	historyRows, err := demandRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count demand history: %w", err)
	}
	log.Printf("Demand history holds %d rows\n", historyRows)

	result, err := forecaster.Train(ctx, true)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	log.Printf("Trained on %d rows in %s (RMSE %.2f, MAE %.2f, R2 %.3f)\n",
		result.Rows, result.Duration.Round(time.Millisecond),
		result.Metrics.RMSE, result.Metrics.MAE, result.Metrics.R2)

	log.Println("=== 2. Model status ===")
	status := forecaster.Status(ctx)
	log.Printf("State %s, artifact on disk: %v, training rows: %d\n",
		status.State, status.ModelExists, status.TrainingRows)

	log.Println("=== 3. Spot prediction ===")
	at := time.Now().Add(time.Duration(horizon) * time.Hour)
	units, confidence, err := forecaster.PredictDemand("O+", "South Delhi", at)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	risk := forecaster.AssessShortageRisk(units, 20)
	log.Printf("O+ in South Delhi at %s: %.1f units (confidence %.2f), risk vs 20 available: %s\n",
		at.Format(time.RFC3339), units, confidence, risk)

	log.Println("=== 4. Forecast batch ===")
	forecasts, err := forecaster.GenerateForecasts(ctx, horizon, nil)
	if err != nil {
		return fmt.Errorf("forecast generation failed: %w", err)
	}
	inserted, err := forecastRepo.InsertBatch(ctx, forecasts)
	if err != nil {
		return fmt.Errorf("failed to persist forecasts: %w", err)
	}
	log.Printf("Generated %d forecasts over %dh, persisted %d\n", len(forecasts), horizon, inserted)

	log.Println("=== 5. Redistribution opportunities ===")
	opportunities, err := redistributor.Opportunities(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to match opportunities: %w", err)
	}
	log.Printf("Found %d opportunities\n", len(opportunities))
	for i, opp := range opportunities {
		if i == 3 {
			break
		}
		log.Printf("  %s -> %s: %d units of %s (priority %.1f)\n",
			opp.FromHospitalName, opp.ToHospitalName, opp.TransferUnits, opp.BloodType, opp.Priority)
	}

	if len(opportunities) > 0 {
		log.Println("=== 6. Executing the top transfer ===")
		top := opportunities[0]
		transfer, err := redistributor.ExecuteTransfer(ctx,
			top.FromHospitalID, top.ToHospitalID, top.BloodType, top.TransferUnits)
		if err != nil {
			return fmt.Errorf("transfer failed: %w", err)
		}
		log.Printf("Transfer %s moved %d units of %s; source now %d, destination now %d\n",
			transfer.TransferID, transfer.UnitsTransferred, transfer.BloodType,
			transfer.SourceRemaining, transfer.DestNewLevel)
	} else {
		log.Println("=== 6. No transfer to execute, network is balanced ===")
	}

	log.Println("=== 7. Network summary ===")
	summary, err := redistributor.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to summarize network: %w", err)
	}
	log.Printf("%d hospitals, %d cells: %d critical, %d low, %d adequate, %d excess\n",
		summary.TotalHospitals, summary.TotalInventoryRecords,
		summary.CriticalCount, summary.LowCount, summary.AdequateCount, summary.ExcessCount)
	log.Printf("Shortage %d units, surplus %.0f units, %.0f units movable\n",
		summary.TotalShortageUnits, summary.TotalSurplusUnits, summary.RedistributionPotential)

	log.Println("Demo completed successfully!")
	return nil
}

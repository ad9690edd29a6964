package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/alerts"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/cache"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/forecast"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/repository"
	"github.com/rs/zerolog/log"
)

const backgroundTrainTimeout = 10 * time.Minute

// DemandForecaster is the slice of the forecaster the service drives.
type DemandForecaster interface {
	Train(ctx context.Context, force bool) (*forecast.TrainingResult, error)
	GenerateForecasts(ctx context.Context, horizonHours int, regions []string) ([]domain.Forecast, error)
	Status(ctx context.Context) forecast.StatusInfo
}

type ForecastingService struct {
	forecaster DemandForecaster
	forecasts  repository.ForecastRepository
	notifier   *alerts.Notifier
	cache      cache.ForecastSummaryCache
}

func NewForecastingService(forecaster DemandForecaster, forecasts repository.ForecastRepository, notifier *alerts.Notifier, cacheImpl cache.ForecastSummaryCache) *ForecastingService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastSummaryCache()
	}
	if notifier == nil {
		notifier = alerts.NewNotifier(forecasts, nil)
	}
	return &ForecastingService{
		forecaster: forecaster,
		forecasts:  forecasts,
		notifier:   notifier,
		cache:      cacheImpl,
	}
}

// Train fits or reloads the demand model synchronously.
func (s *ForecastingService) Train(ctx context.Context, force bool) (*forecast.TrainingResult, error) {
	return s.forecaster.Train(ctx, force)
}

// TrainAsync starts training in the background. Progress is observable
// through TrainingStatus.
func (s *ForecastingService) TrainAsync(force bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTrainTimeout)
		defer cancel()

		if _, err := s.forecaster.Train(ctx, force); err != nil {
			log.Error().Err(err).Msg("forecasting: background training failed")
		}
	}()
}

func (s *ForecastingService) TrainingStatus(ctx context.Context) forecast.StatusInfo {
	return s.forecaster.Status(ctx)
}

// Generate predicts the full region/blood-type grid and persists the
// batch.
func (s *ForecastingService) Generate(ctx context.Context, horizonHours int, regions []string) ([]domain.Forecast, error) {
	forecasts, err := s.forecaster.GenerateForecasts(ctx, horizonHours, regions)
	if err != nil {
		return nil, err
	}

	if _, err := s.forecasts.InsertBatch(ctx, forecasts); err != nil {
		return nil, fmt.Errorf("failed to persist forecast batch: %w", err)
	}

	// Fresh forecasts make cached summaries stale
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecasting: cache invalidation failed")
	}

	return forecasts, nil
}

func (s *ForecastingService) Query(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, error) {
	return s.forecasts.List(ctx, filter)
}

func (s *ForecastingService) Summary(ctx context.Context, hoursBack int) (*domain.ForecastSummary, error) {
	if hoursBack <= 0 {
		hoursBack = 24
	}

	if summary, ok, err := s.cache.GetSummary(ctx, hoursBack); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecasting: cache get summary failed")
	}

	summary, err := s.forecasts.Summary(ctx, hoursBack)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("forecasting: cache set summary failed")
	}

	return summary, nil
}

// SendAlerts alerts on one forecast when forecastID is set, otherwise on
// every pending forecast at or above minRisk.
func (s *ForecastingService) SendAlerts(ctx context.Context, forecastID *int64, minRisk domain.RiskLevel) ([]alerts.Alert, error) {
	if forecastID != nil {
		return s.notifier.SendByID(ctx, *forecastID)
	}
	return s.notifier.SendPending(ctx, minRisk)
}

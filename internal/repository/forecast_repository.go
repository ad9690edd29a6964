package repository

import (
	"context"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
)

// ForecastRepository defines operations over persisted demand forecasts.
type ForecastRepository interface {
	// InsertBatch stores a batch of forecasts in a single transaction and
	// returns how many rows were written.
	InsertBatch(ctx context.Context, forecasts []domain.Forecast) (int, error)

	// List returns forecasts matching the filter, newest first.
	List(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, error)

	// GetByID fetches a single forecast, returning domain.ErrForecastNotFound
	// when no row matches.
	GetByID(ctx context.Context, id int64) (*domain.Forecast, error)

	// Summary aggregates forecasts created within the last hoursBack hours.
	Summary(ctx context.Context, hoursBack int) (*domain.ForecastSummary, error)

	// PendingAlerts returns un-alerted forecasts at or above minRisk whose
	// forecast date is still in the future relative to now.
	PendingAlerts(ctx context.Context, minRisk domain.RiskLevel, now time.Time) ([]domain.Forecast, error)

	// Future returns forecasts whose forecast date is after now.
	Future(ctx context.Context, now time.Time) ([]domain.Forecast, error)

	// MarkAlertSent flags the given forecasts as alerted.
	MarkAlertSent(ctx context.Context, ids []int64) error
}

package postgres

import (
	"context"
	"fmt"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/forecast"
	"github.com/lib/pq"
)

// forecastRunRepository persists forecast batch lifecycle rows. It
// satisfies forecast.RunRecorder.
type forecastRunRepository struct {
	db *DB
}

func NewForecastRunRepository(db *DB) *forecastRunRepository {
	return &forecastRunRepository{db: db}
}

func (r *forecastRunRepository) StartRun(ctx context.Context, run *forecast.ForecastRun) error {
	query := `
		INSERT INTO forecast_runs (status, horizon_hours, regions, total_cells, forecast_count, skipped_cells, started_at)
		VALUES ($1, $2, $3, $4, 0, 0, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		string(run.Status), run.HorizonHours, pq.Array(run.Regions), run.TotalCells, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to start forecast run: %w", err)
	}

	return nil
}

func (r *forecastRunRepository) FinishRun(ctx context.Context, run *forecast.ForecastRun) error {
	query := `
		UPDATE forecast_runs
		SET status = $1,
		    forecast_count = $2,
		    skipped_cells = $3,
		    error_message = NULLIF($4, ''),
		    completed_at = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(
		ctx, query,
		string(run.Status), run.ForecastCount, run.SkippedCells, run.ErrorMessage, run.CompletedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish forecast run %d: %w", run.ID, err)
	}

	return nil
}

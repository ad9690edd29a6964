package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/lib/pq"
)

const defaultForecastLimit = 50

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) InsertBatch(ctx context.Context, forecasts []domain.Forecast) (int, error) {
	if len(forecasts) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO forecasts (blood_type, region, forecast_date, predicted_demand, confidence, shortage_risk, alert_sent, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare forecast insert: %w", err)
		}
		defer stmt.Close()

		for _, forecast := range forecasts {
			_, err := stmt.ExecContext(
				ctx,
				forecast.BloodType,
				forecast.Region,
				forecast.ForecastDate,
				forecast.PredictedDemand,
				forecast.Confidence,
				forecast.ShortageRisk,
				forecast.AlertSent,
			)
			if err != nil {
				return fmt.Errorf("failed to insert forecast: %w", err)
			}
			inserted++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

func (r *forecastRepository) List(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, error) {
	query := `
		SELECT id, blood_type, region, forecast_date, predicted_demand, confidence, shortage_risk, alert_sent, created_at
		FROM forecasts
		WHERE 1=1
	`

	var args []interface{}
	var conditions []string
	argCounter := 1

	if filter.BloodType != "" {
		conditions = append(conditions, fmt.Sprintf("blood_type = $%d", argCounter))
		args = append(args, filter.BloodType)
		argCounter++
	}

	if filter.Region != "" {
		conditions = append(conditions, fmt.Sprintf("region = $%d", argCounter))
		args = append(args, filter.Region)
		argCounter++
	}

	if filter.MinRisk != nil {
		conditions = append(conditions, fmt.Sprintf("shortage_risk = ANY($%d::text[])", argCounter))
		args = append(args, pq.Array(riskLabelsAtLeast(*filter.MinRisk)))
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultForecastLimit
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argCounter)
	args = append(args, limit)

	var forecasts []domain.Forecast
	if err := r.db.SelectContext(ctx, &forecasts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}

	return forecasts, nil
}

func (r *forecastRepository) GetByID(ctx context.Context, id int64) (*domain.Forecast, error) {
	query := `
		SELECT id, blood_type, region, forecast_date, predicted_demand, confidence, shortage_risk, alert_sent, created_at
		FROM forecasts
		WHERE id = $1
	`

	var forecast domain.Forecast
	if err := r.db.GetContext(ctx, &forecast, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrForecastNotFound
		}
		return nil, fmt.Errorf("failed to get forecast %d: %w", id, err)
	}

	return &forecast, nil
}

func (r *forecastRepository) Summary(ctx context.Context, hoursBack int) (*domain.ForecastSummary, error) {
	if hoursBack <= 0 {
		hoursBack = 24
	}

	countQuery := `
		SELECT shortage_risk, COUNT(*) AS count
		FROM forecasts
		WHERE created_at >= NOW() - make_interval(hours => $1)
		GROUP BY shortage_risk
	`

	counts := []struct {
		ShortageRisk domain.RiskLevel `db:"shortage_risk"`
		Count        int              `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &counts, countQuery, hoursBack); err != nil {
		return nil, fmt.Errorf("failed to count forecasts by risk: %w", err)
	}

	summary := &domain.ForecastSummary{HoursBack: hoursBack}
	for _, row := range counts {
		summary.TotalForecasts += row.Count
		switch row.ShortageRisk {
		case domain.RiskCritical:
			summary.ByRiskLevel.Critical = row.Count
		case domain.RiskHigh:
			summary.ByRiskLevel.High = row.Count
		case domain.RiskMedium:
			summary.ByRiskLevel.Medium = row.Count
		case domain.RiskLow:
			summary.ByRiskLevel.Low = row.Count
		}
	}

	regionQuery := `
		SELECT DISTINCT region
		FROM forecasts
		WHERE created_at >= NOW() - make_interval(hours => $1)
		ORDER BY region
	`
	if err := r.db.SelectContext(ctx, &summary.RegionsCovered, regionQuery, hoursBack); err != nil {
		return nil, fmt.Errorf("failed to list forecast regions: %w", err)
	}

	bloodTypeQuery := `
		SELECT DISTINCT blood_type
		FROM forecasts
		WHERE created_at >= NOW() - make_interval(hours => $1)
		ORDER BY blood_type
	`
	if err := r.db.SelectContext(ctx, &summary.BloodTypesCovered, bloodTypeQuery, hoursBack); err != nil {
		return nil, fmt.Errorf("failed to list forecast blood types: %w", err)
	}

	return summary, nil
}

func (r *forecastRepository) PendingAlerts(ctx context.Context, minRisk domain.RiskLevel, now time.Time) ([]domain.Forecast, error) {
	query := `
		SELECT id, blood_type, region, forecast_date, predicted_demand, confidence, shortage_risk, alert_sent, created_at
		FROM forecasts
		WHERE alert_sent = FALSE
		  AND forecast_date > $1
		  AND shortage_risk = ANY($2::text[])
		ORDER BY id
	`

	var forecasts []domain.Forecast
	err := r.db.SelectContext(ctx, &forecasts, query, now, pq.Array(riskLabelsAtLeast(minRisk)))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending alerts: %w", err)
	}

	return forecasts, nil
}

func (r *forecastRepository) Future(ctx context.Context, now time.Time) ([]domain.Forecast, error) {
	query := `
		SELECT id, blood_type, region, forecast_date, predicted_demand, confidence, shortage_risk, alert_sent, created_at
		FROM forecasts
		WHERE forecast_date > $1
		ORDER BY id
	`

	var forecasts []domain.Forecast
	if err := r.db.SelectContext(ctx, &forecasts, query, now); err != nil {
		return nil, fmt.Errorf("failed to list future forecasts: %w", err)
	}

	return forecasts, nil
}

func (r *forecastRepository) MarkAlertSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE forecasts
		SET alert_sent = TRUE
		WHERE id = ANY($1::bigint[])
	`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to mark alerts sent: %w", err)
	}

	return nil
}

// riskLabelsAtLeast expands a minimum severity into the label set stored
// in the shortage_risk column.
func riskLabelsAtLeast(min domain.RiskLevel) []string {
	labels := make([]string, 0, 4)
	for level := min; level <= domain.RiskCritical; level++ {
		labels = append(labels, level.String())
	}

	return labels
}

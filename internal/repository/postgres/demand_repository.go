package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
)

type demandRepository struct {
	db *DB
}

func NewDemandRepository(db *DB) *demandRepository {
	return &demandRepository{db: db}
}

func (r *demandRepository) ListSince(ctx context.Context, days int) ([]domain.DemandRecord, error) {
	query := `
		SELECT id, blood_type, region, observed_on, units, season, disease_outbreak, created_at
		FROM demand_history
		WHERE observed_on >= NOW() - make_interval(days => $1)
		ORDER BY observed_on
	`

	var records []domain.DemandRecord
	if err := r.db.SelectContext(ctx, &records, query, days); err != nil {
		return nil, fmt.Errorf("failed to list demand history: %w", err)
	}

	return records, nil
}

func (r *demandRepository) InsertBatch(ctx context.Context, records []domain.DemandRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO demand_history (blood_type, region, observed_on, units, season, disease_outbreak, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare demand insert: %w", err)
		}
		defer stmt.Close()

		for _, record := range records {
			_, err := stmt.ExecContext(
				ctx,
				record.BloodType,
				record.Region,
				record.ObservedOn,
				record.Units,
				record.Season,
				record.DiseaseOutbreak,
			)
			if err != nil {
				return fmt.Errorf("failed to insert demand record: %w", err)
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

func (r *demandRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM demand_history`); err != nil {
		return 0, fmt.Errorf("failed to count demand history: %w", err)
	}

	return count, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
)

type hospitalRepository struct {
	db *DB
}

func NewHospitalRepository(db *DB) *hospitalRepository {
	return &hospitalRepository{db: db}
}

func (r *hospitalRepository) List(ctx context.Context) ([]domain.Hospital, error) {
	query := `
		SELECT id, name, location, created_at, updated_at
		FROM hospitals
		ORDER BY name
	`

	var hospitals []domain.Hospital
	if err := r.db.SelectContext(ctx, &hospitals, query); err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}

	return hospitals, nil
}

func (r *hospitalRepository) GetByID(ctx context.Context, id int64) (*domain.Hospital, error) {
	query := `
		SELECT id, name, location, created_at, updated_at
		FROM hospitals
		WHERE id = $1
	`

	var hospital domain.Hospital
	if err := r.db.GetContext(ctx, &hospital, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHospitalNotFound
		}
		return nil, fmt.Errorf("failed to get hospital %d: %w", id, err)
	}

	return &hospital, nil
}

func (r *hospitalRepository) Upsert(ctx context.Context, hospital *domain.Hospital) error {
	query := `
		INSERT INTO hospitals (name, location, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE
		SET location = EXCLUDED.location,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, hospital.Name, hospital.Location).
		Scan(&hospital.ID, &hospital.CreatedAt, &hospital.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert hospital %q: %w", hospital.Name, err)
	}

	return nil
}

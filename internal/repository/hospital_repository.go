package repository

import (
	"context"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
)

// HospitalRepository defines operations over the hospital registry.
type HospitalRepository interface {
	// List returns all registered hospitals ordered by name.
	List(ctx context.Context) ([]domain.Hospital, error)

	// GetByID fetches a single hospital, returning domain.ErrHospitalNotFound
	// when no row matches.
	GetByID(ctx context.Context, id int64) (*domain.Hospital, error)

	// Upsert inserts the hospital or updates its mutable fields when the ID
	// already exists.
	Upsert(ctx context.Context, hospital *domain.Hospital) error
}

package repository

import (
	"context"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
)

// DemandRepository defines operations over the historical demand ledger
// used to train the forecasting model.
type DemandRepository interface {
	// ListSince returns demand records observed within the last N days,
	// oldest first.
	ListSince(ctx context.Context, days int) ([]domain.DemandRecord, error)

	// InsertBatch stores a batch of demand records in a single transaction.
	InsertBatch(ctx context.Context, records []domain.DemandRecord) (int, error)

	// Count returns the total number of stored demand records.
	Count(ctx context.Context) (int, error)
}

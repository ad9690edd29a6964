package repository

import (
	"context"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
)

// InventoryRepository defines operations over per-hospital blood inventory.
type InventoryRepository interface {
	// ListCells returns inventory cells matching the filter, joined with
	// hospital name and location.
	ListCells(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryCell, error)

	// UpsertCell sets the stock level for a hospital/blood type pair,
	// creating the cell with default thresholds when it does not exist.
	UpsertCell(ctx context.Context, hospitalID int64, bloodType string, currentUnits int) (*domain.InventoryCell, error)

	// TotalsByBloodType sums current units per blood type across all hospitals.
	TotalsByBloodType(ctx context.Context) (map[string]int, error)

	// Transfer atomically moves units of a blood type between two hospitals.
	// The source is debited and the destination credited inside a single
	// transaction; the destination cell is created with default thresholds
	// when missing. On validation failure nothing is mutated and the error
	// is one of domain.InsufficientInventoryError or
	// domain.CapacityExceededError.
	Transfer(ctx context.Context, fromHospitalID, toHospitalID int64, bloodType string, units int) (*domain.TransferResult, error)
}

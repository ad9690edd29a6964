package redistribution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/repository"
	"github.com/aryankhare2110/NSS-Bloodlink/pkg/logger"
	"github.com/google/uuid"
)

// Validation failures reported before any inventory is touched.
var (
	ErrSameHospital     = errors.New("source and destination hospitals are the same")
	ErrInvalidUnits     = errors.New("transfer units must be positive")
	ErrUnknownBloodType = errors.New("unknown blood type")
)

// Redistributor matches hospitals holding surplus blood against hospitals
// running short, and executes the resulting transfers.
type Redistributor struct {
	inventory repository.InventoryRepository
	hospitals repository.HospitalRepository
}

func NewRedistributor(inventory repository.InventoryRepository, hospitals repository.HospitalRepository) *Redistributor {
	return &Redistributor{
		inventory: inventory,
		hospitals: hospitals,
	}
}

// ListStatus returns every matching inventory cell graded into a stock
// band, with the shortage and surplus figures matching works from.
func (r *Redistributor) ListStatus(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryStatus, error) {
	cells, err := r.inventory.ListCells(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	statuses := make([]domain.InventoryStatus, 0, len(cells))
	for _, cell := range cells {
		statuses = append(statuses, grade(cell))
	}

	return statuses, nil
}

// grade bands one cell: below half the minimum is Critical, below the
// minimum is Low, above 90% of capacity is Excess. Surplus only counts
// stock above 1.5x the minimum; the band below that is working reserve.
func grade(cell domain.InventoryCell) domain.InventoryStatus {
	status := domain.StockAdequate
	switch {
	case float64(cell.CurrentUnits) < 0.5*float64(cell.MinRequired):
		status = domain.StockCritical
	case cell.CurrentUnits < cell.MinRequired:
		status = domain.StockLow
	case float64(cell.CurrentUnits) > 0.9*float64(cell.MaxCapacity):
		status = domain.StockExcess
	}

	shortage := cell.MinRequired - cell.CurrentUnits
	if shortage < 0 {
		shortage = 0
	}

	surplus := float64(cell.CurrentUnits) - 1.5*float64(cell.MinRequired)
	if surplus < 0 {
		surplus = 0
	}

	return domain.InventoryStatus{
		InventoryCell: cell,
		Status:        status,
		Shortage:      shortage,
		Surplus:       surplus,
	}
}

// Opportunities proposes transfers by pairing every shortage against
// every surplus of the same blood type, highest priority first. An empty
// bloodType considers the whole network. Proposals are advisory; stock
// moves only when a transfer executes.
func (r *Redistributor) Opportunities(ctx context.Context, bloodType string) ([]domain.RedistributionOpportunity, error) {
	statuses, err := r.ListStatus(ctx, domain.InventoryFilter{BloodType: bloodType})
	if err != nil {
		return nil, err
	}

	return match(statuses), nil
}

// match runs the pairing over an already-graded inventory snapshot.
func match(statuses []domain.InventoryStatus) []domain.RedistributionOpportunity {
	var donors, needy []domain.InventoryStatus
	for _, status := range statuses {
		if status.Surplus > 0 {
			donors = append(donors, status)
		}
		if status.Shortage > 0 {
			needy = append(needy, status)
		}
	}

	var opportunities []domain.RedistributionOpportunity
	for _, need := range needy {
		for _, donor := range donors {
			if donor.BloodType != need.BloodType || donor.HospitalID == need.HospitalID {
				continue
			}

			transfer := int(math.Min(float64(need.Shortage), donor.Surplus))
			if transfer <= 0 {
				continue
			}

			opportunities = append(opportunities, domain.RedistributionOpportunity{
				FromHospitalID:   donor.HospitalID,
				FromHospitalName: donor.HospitalName,
				ToHospitalID:     need.HospitalID,
				ToHospitalName:   need.HospitalName,
				BloodType:        need.BloodType,
				TransferUnits:    transfer,
				Priority:         priorityOf(need, donor),
				Reason:           reasonFor(need, donor),
			})
		}
	}

	// Stable sort keeps pair generation order for equal priorities
	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Priority > opportunities[j].Priority
	})

	return opportunities
}

// priorityOf scores a pairing: 100 for a critical destination, 50 for a
// low one, plus 2 per missing unit and 0.5 per movable donor unit.
func priorityOf(need, donor domain.InventoryStatus) float64 {
	priority := 0.0

	switch need.Status {
	case domain.StockCritical:
		priority += 100
	case domain.StockLow:
		priority += 50
	}

	priority += float64(need.Shortage) * 2
	priority += donor.Surplus * 0.5

	return priority
}

func reasonFor(need, donor domain.InventoryStatus) string {
	return fmt.Sprintf("%s has %d unit shortage while %s has %d unit surplus",
		need.HospitalName, need.Shortage, donor.HospitalName, int(donor.Surplus))
}

// ExecuteTransfer validates a transfer request and applies it atomically.
// Validation failures and inventory rule violations leave both hospitals'
// stock untouched.
func (r *Redistributor) ExecuteTransfer(ctx context.Context, fromHospitalID, toHospitalID int64, bloodType string, units int) (*domain.TransferResult, error) {
	if units <= 0 {
		return nil, ErrInvalidUnits
	}
	if fromHospitalID == toHospitalID {
		return nil, ErrSameHospital
	}
	if !domain.IsValidBloodType(bloodType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBloodType, bloodType)
	}

	for _, id := range []int64{fromHospitalID, toHospitalID} {
		if _, err := r.hospitals.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	result, err := r.inventory.Transfer(ctx, fromHospitalID, toHospitalID, bloodType, units)
	if err != nil {
		return nil, err
	}

	result.TransferID = uuid.New().String()

	logger.Log.Info().
		Str("transfer_id", result.TransferID).
		Int64("from_hospital_id", fromHospitalID).
		Int64("to_hospital_id", toHospitalID).
		Str("blood_type", bloodType).
		Int("units", units).
		Int("source_remaining", result.SourceRemaining).
		Int("dest_new_level", result.DestNewLevel).
		Msg("Redistribution transfer executed")

	return result, nil
}

// Summary aggregates the network-wide stock balance.
func (r *Redistributor) Summary(ctx context.Context) (*domain.RedistributionSummary, error) {
	statuses, err := r.ListStatus(ctx, domain.InventoryFilter{})
	if err != nil {
		return nil, err
	}

	hospitals := make(map[int64]struct{})
	bloodTypes := make(map[string]struct{})
	summary := &domain.RedistributionSummary{TotalInventoryRecords: len(statuses)}

	for _, status := range statuses {
		hospitals[status.HospitalID] = struct{}{}
		bloodTypes[status.BloodType] = struct{}{}

		switch status.Status {
		case domain.StockCritical:
			summary.CriticalCount++
		case domain.StockLow:
			summary.LowCount++
		case domain.StockAdequate:
			summary.AdequateCount++
		case domain.StockExcess:
			summary.ExcessCount++
		}

		summary.TotalShortageUnits += status.Shortage
		summary.TotalSurplusUnits += status.Surplus
	}

	summary.TotalHospitals = len(hospitals)
	summary.BloodTypesTracked = len(bloodTypes)
	summary.RedistributionPotential = math.Min(float64(summary.TotalShortageUnits), summary.TotalSurplusUnits)

	return summary, nil
}

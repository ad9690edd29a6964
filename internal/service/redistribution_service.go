package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/redistribution"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/repository"
)

// ErrNegativeUnits rejects inventory updates below zero.
var ErrNegativeUnits = errors.New("current units must not be negative")

type RedistributionService struct {
	redistributor *redistribution.Redistributor
	inventory     repository.InventoryRepository
	hospitals     repository.HospitalRepository
	forecasts     repository.ForecastRepository
}

func NewRedistributionService(redistributor *redistribution.Redistributor, inventory repository.InventoryRepository, hospitals repository.HospitalRepository, forecasts repository.ForecastRepository) *RedistributionService {
	return &RedistributionService{
		redistributor: redistributor,
		inventory:     inventory,
		hospitals:     hospitals,
		forecasts:     forecasts,
	}
}

// Inventory lists inventory cells joined with their hospital info.
func (s *RedistributionService) Inventory(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryCell, error) {
	return s.inventory.ListCells(ctx, filter)
}

// UpdateInventory sets the stock level for a hospital/blood-type pair,
// creating the cell with default bounds when it is new.
func (s *RedistributionService) UpdateInventory(ctx context.Context, hospitalID int64, bloodType string, currentUnits int) (*domain.InventoryCell, error) {
	if !domain.IsValidBloodType(bloodType) {
		return nil, fmt.Errorf("%w: %q", redistribution.ErrUnknownBloodType, bloodType)
	}
	if currentUnits < 0 {
		return nil, ErrNegativeUnits
	}
	if _, err := s.hospitals.GetByID(ctx, hospitalID); err != nil {
		return nil, err
	}

	return s.inventory.UpsertCell(ctx, hospitalID, bloodType, currentUnits)
}

// Opportunities proposes transfers for one blood type, or the whole
// network when bloodType is empty.
func (s *RedistributionService) Opportunities(ctx context.Context, bloodType string) ([]domain.RedistributionOpportunity, error) {
	return s.redistributor.Opportunities(ctx, bloodType)
}

// Execute runs one transfer atomically.
func (s *RedistributionService) Execute(ctx context.Context, fromHospitalID, toHospitalID int64, bloodType string, units int) (*domain.TransferResult, error) {
	return s.redistributor.ExecuteTransfer(ctx, fromHospitalID, toHospitalID, bloodType, units)
}

// Summary aggregates the network-wide stock balance.
func (s *RedistributionService) Summary(ctx context.Context) (*domain.RedistributionSummary, error) {
	return s.redistributor.Summary(ctx)
}

// PlanFromForecasts plans transfers from the stored future forecasts.
// ok reports whether any forecasts were available to plan from.
func (s *RedistributionService) PlanFromForecasts(ctx context.Context, minRisk domain.RiskLevel) (plan []domain.RedistributionOpportunity, ok bool, err error) {
	forecasts, err := s.forecasts.Future(ctx, time.Now())
	if err != nil {
		return nil, false, fmt.Errorf("failed to load forecasts: %w", err)
	}
	if len(forecasts) == 0 {
		return nil, false, nil
	}

	plan, err = s.redistributor.PlanFromForecasts(ctx, forecasts, minRisk)
	if err != nil {
		return nil, true, err
	}

	return plan, true, nil
}

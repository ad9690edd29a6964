package redistribution

import (
	"context"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
)

// PlanFromForecasts turns shortage forecasts into a transfer plan. It
// keeps only forecasts at or above minRisk, groups them per blood type,
// and proposes the current opportunities for each affected type, tagged
// with the regions the shortage is predicted for. Group order follows
// the first appearance of each blood type in the input.
func (r *Redistributor) PlanFromForecasts(ctx context.Context, forecasts []domain.Forecast, minRisk domain.RiskLevel) ([]domain.RedistributionOpportunity, error) {
	byBloodType := make(map[string][]domain.Forecast)
	var order []string
	for _, forecast := range forecasts {
		if !forecast.ShortageRisk.AtLeast(minRisk) {
			continue
		}
		if _, seen := byBloodType[forecast.BloodType]; !seen {
			order = append(order, forecast.BloodType)
		}
		byBloodType[forecast.BloodType] = append(byBloodType[forecast.BloodType], forecast)
	}

	var plan []domain.RedistributionOpportunity
	for _, bloodType := range order {
		opportunities, err := r.Opportunities(ctx, bloodType)
		if err != nil {
			return nil, err
		}

		regions := shortageRegions(byBloodType[bloodType])
		for _, opportunity := range opportunities {
			opportunity.ForecastBased = true
			opportunity.ShortageRegions = regions
			plan = append(plan, opportunity)
		}
	}

	return plan, nil
}

// shortageRegions collects the distinct regions of a forecast group,
// keeping first-appearance order.
func shortageRegions(forecasts []domain.Forecast) []string {
	seen := make(map[string]struct{}, len(forecasts))
	regions := make([]string, 0, len(forecasts))
	for _, forecast := range forecasts {
		if _, ok := seen[forecast.Region]; ok {
			continue
		}
		seen[forecast.Region] = struct{}{}
		regions = append(regions, forecast.Region)
	}

	return regions
}

package redistribution

import (
	"context"
	"testing"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func futureForecast(bloodType, region string, risk domain.RiskLevel) domain.Forecast {
	return domain.Forecast{
		BloodType:       bloodType,
		Region:          region,
		ForecastDate:    time.Now().Add(24 * time.Hour),
		PredictedDemand: 120,
		Confidence:      0.8,
		ShortageRisk:    risk,
	}
}

// plannerNetwork has an O+ and a B+ opportunity: hospital 1 holds the
// surplus, hospitals 2 and 3 run short.
func plannerNetwork() *fakeNetwork {
	net := newFakeNetwork()
	net.addHospital(1, "Apollo Hospital Delhi", "Sarita Vihar, Delhi")
	net.addHospital(2, "AIIMS Delhi", "Ansari Nagar, Delhi")
	net.addHospital(3, "Fortis Hospital", "Shalimar Bagh, Delhi")
	net.addCell(1, "O+", 40, 10, 100)
	net.addCell(2, "O+", 3, 10, 100)
	net.addCell(1, "B+", 50, 10, 100)
	net.addCell(3, "B+", 6, 10, 100)
	return net
}

func TestPlanFiltersBelowThreshold(t *testing.T) {
	net := plannerNetwork()
	r := NewRedistributor(net, net)

	forecasts := []domain.Forecast{
		futureForecast("O+", "East Delhi", domain.RiskCritical),
		futureForecast("B+", "South Delhi", domain.RiskMedium), // below threshold
	}

	plan, err := r.PlanFromForecasts(context.Background(), forecasts, domain.RiskHigh)
	require.NoError(t, err)
	require.Len(t, plan, 1)

	assert.Equal(t, "O+", plan[0].BloodType)
	assert.True(t, plan[0].ForecastBased)
	assert.Equal(t, []string{"East Delhi"}, plan[0].ShortageRegions)
}

func TestPlanGroupsByBloodTypeInFirstAppearanceOrder(t *testing.T) {
	net := plannerNetwork()
	r := NewRedistributor(net, net)

	forecasts := []domain.Forecast{
		futureForecast("B+", "North Delhi", domain.RiskHigh),
		futureForecast("O+", "East Delhi", domain.RiskCritical),
		futureForecast("B+", "West Delhi", domain.RiskCritical),
	}

	plan, err := r.PlanFromForecasts(context.Background(), forecasts, domain.RiskHigh)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	// B+ appeared first in the input, so its opportunities lead the plan
	assert.Equal(t, "B+", plan[0].BloodType)
	assert.Equal(t, []string{"North Delhi", "West Delhi"}, plan[0].ShortageRegions)
	assert.Equal(t, "O+", plan[1].BloodType)
	assert.Equal(t, []string{"East Delhi"}, plan[1].ShortageRegions)
}

func TestPlanDedupesShortageRegions(t *testing.T) {
	net := plannerNetwork()
	r := NewRedistributor(net, net)

	forecasts := []domain.Forecast{
		futureForecast("O+", "East Delhi", domain.RiskHigh),
		futureForecast("O+", "South Delhi", domain.RiskCritical),
		futureForecast("O+", "East Delhi", domain.RiskCritical),
	}

	plan, err := r.PlanFromForecasts(context.Background(), forecasts, domain.RiskHigh)
	require.NoError(t, err)
	require.Len(t, plan, 1)

	assert.Equal(t, []string{"East Delhi", "South Delhi"}, plan[0].ShortageRegions)
}

func TestPlanEmptyWhenNothingQualifies(t *testing.T) {
	net := plannerNetwork()
	r := NewRedistributor(net, net)

	forecasts := []domain.Forecast{
		futureForecast("O+", "East Delhi", domain.RiskLow),
		futureForecast("B+", "North Delhi", domain.RiskMedium),
	}

	plan, err := r.PlanFromForecasts(context.Background(), forecasts, domain.RiskHigh)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestPlanSkipsBloodTypesWithoutOpportunities(t *testing.T) {
	net := plannerNetwork()
	r := NewRedistributor(net, net)

	// AB- is forecast short but no hospital stocks it
	forecasts := []domain.Forecast{
		futureForecast("AB-", "East Delhi", domain.RiskCritical),
	}

	plan, err := r.PlanFromForecasts(context.Background(), forecasts, domain.RiskHigh)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForecastSource struct {
	forecasts []domain.Forecast
	marked    []int64
	loadErr   error
}

func (f *fakeForecastSource) PendingAlerts(_ context.Context, minRisk domain.RiskLevel, now time.Time) ([]domain.Forecast, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}

	var pending []domain.Forecast
	for _, forecast := range f.forecasts {
		if !forecast.AlertSent && forecast.ShortageRisk.AtLeast(minRisk) && forecast.ForecastDate.After(now) {
			pending = append(pending, forecast)
		}
	}
	return pending, nil
}

func (f *fakeForecastSource) GetByID(_ context.Context, id int64) (*domain.Forecast, error) {
	for _, forecast := range f.forecasts {
		if forecast.ID == id {
			found := forecast
			return &found, nil
		}
	}
	return nil, domain.ErrForecastNotFound
}

func (f *fakeForecastSource) MarkAlertSent(_ context.Context, ids []int64) error {
	f.marked = append(f.marked, ids...)
	for _, id := range ids {
		for i := range f.forecasts {
			if f.forecasts[i].ID == id {
				f.forecasts[i].AlertSent = true
			}
		}
	}
	return nil
}

type fakePool struct {
	available map[string]int
	err       error
}

func (p *fakePool) CountAvailable(_ context.Context, bloodType string, limit int) (int, error) {
	if p.err != nil {
		return 0, p.err
	}

	count := p.available[bloodType]
	if limit > 0 && count > limit {
		count = limit
	}
	return count, nil
}

func TestSendPendingBuildsAlertsAndMarksSent(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	source := &fakeForecastSource{forecasts: []domain.Forecast{
		{ID: 1, BloodType: "O+", Region: "East Delhi", ForecastDate: future, PredictedDemand: 142.7, ShortageRisk: domain.RiskHigh},
		{ID: 2, BloodType: "A+", Region: "South Delhi", ForecastDate: future, PredictedDemand: 88.2, ShortageRisk: domain.RiskCritical},
		{ID: 3, BloodType: "B+", Region: "North Delhi", ForecastDate: future, PredictedDemand: 40, ShortageRisk: domain.RiskMedium},
	}}
	pool := &fakePool{available: map[string]int{"O+": 3, "A+": 25}}

	n := NewNotifier(source, pool)
	alerts, err := n.SendPending(context.Background(), domain.RiskHigh)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	first := alerts[0]
	assert.Equal(t, "blood_shortage_prediction", first.AlertType)
	assert.Equal(t, "O+", first.BloodType)
	assert.Equal(t, "East Delhi", first.Region)
	assert.Equal(t, domain.RiskHigh, first.ShortageRisk)
	assert.Equal(t, 3, first.NotifiedVolunteers)
	assert.Equal(t, "Please schedule a donation appointment if you are available.", first.CallToAction)

	// Volunteer count caps at ten even when more are available
	assert.Equal(t, 10, alerts[1].NotifiedVolunteers)

	assert.ElementsMatch(t, []int64{1, 2}, source.marked)
	assert.True(t, source.forecasts[0].AlertSent)
	assert.False(t, source.forecasts[2].AlertSent)
}

func TestSendPendingSkipsAlreadySentAndPast(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	source := &fakeForecastSource{forecasts: []domain.Forecast{
		{ID: 1, BloodType: "O+", Region: "East Delhi", ForecastDate: future, ShortageRisk: domain.RiskCritical, AlertSent: true},
		{ID: 2, BloodType: "O+", Region: "East Delhi", ForecastDate: past, ShortageRisk: domain.RiskCritical},
	}}

	n := NewNotifier(source, &fakePool{})
	alerts, err := n.SendPending(context.Background(), domain.RiskHigh)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, source.marked)
}

func TestSendByIDFormatsMessage(t *testing.T) {
	forecastDate := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	source := &fakeForecastSource{forecasts: []domain.Forecast{
		{ID: 7, BloodType: "O+", Region: "East Delhi", ForecastDate: forecastDate, PredictedDemand: 142.7, ShortageRisk: domain.RiskHigh, AlertSent: true},
	}}

	n := NewNotifier(source, &fakePool{})
	alerts, err := n.SendByID(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	// By-id alerting works even on an already-alerted forecast
	assert.Equal(t,
		"⚠️ High risk of O+ shortage in East Delhi predicted for 2026-09-01 14:30. Expected demand: 142 units.",
		alerts[0].Message)
	assert.Equal(t, []int64{7}, source.marked)
}

func TestSendByIDUnknownForecast(t *testing.T) {
	n := NewNotifier(&fakeForecastSource{}, &fakePool{})

	_, err := n.SendByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrForecastNotFound)
}

func TestPoolFailureDegradesToZeroVolunteers(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	source := &fakeForecastSource{forecasts: []domain.Forecast{
		{ID: 1, BloodType: "O+", Region: "East Delhi", ForecastDate: future, PredictedDemand: 50, ShortageRisk: domain.RiskCritical},
	}}
	pool := &fakePool{err: errors.New("connection refused")}

	n := NewNotifier(source, pool)
	alerts, err := n.SendPending(context.Background(), domain.RiskHigh)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 0, alerts[0].NotifiedVolunteers)
}

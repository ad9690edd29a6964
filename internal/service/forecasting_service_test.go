package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForecaster struct {
	batch      []domain.Forecast
	genErr     error
	trainCalls int
}

func (f *fakeForecaster) Train(_ context.Context, force bool) (*forecast.TrainingResult, error) {
	f.trainCalls++
	return &forecast.TrainingResult{Rows: 100, TrainedAt: time.Now()}, nil
}

func (f *fakeForecaster) GenerateForecasts(_ context.Context, horizonHours int, regions []string) ([]domain.Forecast, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	return f.batch, nil
}

func (f *fakeForecaster) Status(_ context.Context) forecast.StatusInfo {
	return forecast.StatusInfo{State: forecast.StateTrained, ModelExists: true}
}

type fakeForecastRepo struct {
	forecasts    []domain.Forecast
	future       []domain.Forecast
	inserted     []domain.Forecast
	marked       []int64
	summaryCalls int
	summaryHours int
}

func (f *fakeForecastRepo) InsertBatch(_ context.Context, forecasts []domain.Forecast) (int, error) {
	f.inserted = append(f.inserted, forecasts...)
	return len(forecasts), nil
}

func (f *fakeForecastRepo) List(_ context.Context, filter domain.ForecastFilter) ([]domain.Forecast, error) {
	return f.forecasts, nil
}

func (f *fakeForecastRepo) GetByID(_ context.Context, id int64) (*domain.Forecast, error) {
	for _, fc := range f.forecasts {
		if fc.ID == id {
			found := fc
			return &found, nil
		}
	}
	return nil, domain.ErrForecastNotFound
}

func (f *fakeForecastRepo) Summary(_ context.Context, hoursBack int) (*domain.ForecastSummary, error) {
	f.summaryCalls++
	f.summaryHours = hoursBack
	return &domain.ForecastSummary{TotalForecasts: len(f.forecasts), HoursBack: hoursBack}, nil
}

func (f *fakeForecastRepo) PendingAlerts(_ context.Context, minRisk domain.RiskLevel, now time.Time) ([]domain.Forecast, error) {
	var pending []domain.Forecast
	for _, fc := range f.forecasts {
		if !fc.AlertSent && fc.ShortageRisk.AtLeast(minRisk) && fc.ForecastDate.After(now) {
			pending = append(pending, fc)
		}
	}
	return pending, nil
}

func (f *fakeForecastRepo) Future(_ context.Context, now time.Time) ([]domain.Forecast, error) {
	return f.future, nil
}

func (f *fakeForecastRepo) MarkAlertSent(_ context.Context, ids []int64) error {
	f.marked = append(f.marked, ids...)
	return nil
}

type fakeSummaryCache struct {
	entries       map[int]*domain.ForecastSummary
	invalidations int
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{entries: make(map[int]*domain.ForecastSummary)}
}

func (c *fakeSummaryCache) GetSummary(_ context.Context, hoursBack int) (*domain.ForecastSummary, bool, error) {
	summary, ok := c.entries[hoursBack]
	return summary, ok, nil
}

func (c *fakeSummaryCache) SetSummary(_ context.Context, summary *domain.ForecastSummary) error {
	c.entries[summary.HoursBack] = summary
	return nil
}

func (c *fakeSummaryCache) InvalidateAll(_ context.Context) error {
	c.invalidations++
	c.entries = make(map[int]*domain.ForecastSummary)
	return nil
}

func TestGeneratePersistsBatchAndInvalidatesCache(t *testing.T) {
	batch := []domain.Forecast{
		{BloodType: "O+", Region: "East Delhi", PredictedDemand: 120},
		{BloodType: "A+", Region: "East Delhi", PredictedDemand: 90},
	}
	fc := &fakeForecaster{batch: batch}
	repo := &fakeForecastRepo{}
	summaryCache := newFakeSummaryCache()

	svc := NewForecastingService(fc, repo, nil, summaryCache)
	got, err := svc.Generate(context.Background(), 24, nil)
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Len(t, repo.inserted, 2)
	assert.Equal(t, 1, summaryCache.invalidations)
}

func TestGenerateFailurePersistsNothing(t *testing.T) {
	fc := &fakeForecaster{genErr: domain.ErrModelNotReady}
	repo := &fakeForecastRepo{}

	svc := NewForecastingService(fc, repo, nil, newFakeSummaryCache())
	_, err := svc.Generate(context.Background(), 24, nil)

	assert.ErrorIs(t, err, domain.ErrModelNotReady)
	assert.Empty(t, repo.inserted)
}

func TestSummaryCacheAside(t *testing.T) {
	repo := &fakeForecastRepo{forecasts: []domain.Forecast{{ID: 1}}}
	summaryCache := newFakeSummaryCache()

	svc := NewForecastingService(&fakeForecaster{}, repo, nil, summaryCache)

	first, err := svc.Summary(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalForecasts)
	assert.Equal(t, 1, repo.summaryCalls)

	// Second call is served from cache
	second, err := svc.Summary(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, first.TotalForecasts, second.TotalForecasts)
	assert.Equal(t, 1, repo.summaryCalls)
}

func TestSummaryNormalizesLookBackWindow(t *testing.T) {
	repo := &fakeForecastRepo{}
	svc := NewForecastingService(&fakeForecaster{}, repo, nil, newFakeSummaryCache())

	summary, err := svc.Summary(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 24, summary.HoursBack)
	assert.Equal(t, 24, repo.summaryHours)
}

func TestSendAlertsDispatch(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	repo := &fakeForecastRepo{forecasts: []domain.Forecast{
		{ID: 1, BloodType: "O+", Region: "East Delhi", ForecastDate: future, ShortageRisk: domain.RiskCritical},
		{ID: 2, BloodType: "A+", Region: "South Delhi", ForecastDate: future, ShortageRisk: domain.RiskLow},
	}}

	svc := NewForecastingService(&fakeForecaster{}, repo, nil, newFakeSummaryCache())

	// Pending path only alerts at or above the minimum risk
	sent, err := svc.SendAlerts(context.Background(), nil, domain.RiskHigh)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "O+", sent[0].BloodType)
	assert.Equal(t, []int64{1}, repo.marked)

	// By-id path alerts the named forecast regardless of risk
	id := int64(2)
	sent, err = svc.SendAlerts(context.Background(), &id, domain.RiskHigh)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "A+", sent[0].BloodType)
}

func TestSendAlertsUnknownForecast(t *testing.T) {
	svc := NewForecastingService(&fakeForecaster{}, &fakeForecastRepo{}, nil, newFakeSummaryCache())

	id := int64(404)
	_, err := svc.SendAlerts(context.Background(), &id, domain.RiskHigh)
	assert.ErrorIs(t, err, domain.ErrForecastNotFound)
}

func TestTrainDelegates(t *testing.T) {
	fc := &fakeForecaster{}
	svc := NewForecastingService(fc, &fakeForecastRepo{}, nil, newFakeSummaryCache())

	res, err := svc.Train(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Rows)
	assert.Equal(t, 1, fc.trainCalls)

	status := svc.TrainingStatus(context.Background())
	assert.Equal(t, forecast.StateTrained, status.State)
}

func TestQueryDelegates(t *testing.T) {
	repo := &fakeForecastRepo{forecasts: []domain.Forecast{{ID: 1, BloodType: "O+"}}}
	svc := NewForecastingService(&fakeForecaster{}, repo, nil, newFakeSummaryCache())

	got, err := svc.Query(context.Background(), domain.ForecastFilter{BloodType: "O+"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].ID)
}

func TestGenerateErrorDoesNotInvalidateCache(t *testing.T) {
	summaryCache := newFakeSummaryCache()
	svc := NewForecastingService(&fakeForecaster{genErr: errors.New("no workers")}, &fakeForecastRepo{}, nil, summaryCache)

	_, err := svc.Generate(context.Background(), 24, nil)
	require.Error(t, err)
	assert.Equal(t, 0, summaryCache.invalidations)
}

package forecast

import (
	"context"
	"errors"
	"testing"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticSourceShape(t *testing.T) {
	regions := []string{"South Delhi", "Noida"}
	source := NewSyntheticSource(7, regions)

	records, err := source.HistoricalDemand(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, records, 30*len(regions)*len(domain.BloodTypes))

	for _, r := range records {
		assert.GreaterOrEqual(t, r.Units, 0)
		assert.Contains(t, regions, r.Region)
		assert.True(t, domain.IsValidBloodType(r.BloodType), "blood type %q", r.BloodType)

		season := SeasonOf(r.ObservedOn)
		assert.Equal(t, season.String(), r.Season)
		if r.DiseaseOutbreak {
			assert.True(t, season.OutbreakProne(),
				"outbreak recorded outside monsoon-adjacent season on %s", r.ObservedOn)
		}
	}
}

func TestSyntheticSourceReproducible(t *testing.T) {
	source := NewSyntheticSource(42, []string{"Dwarka"})

	first, err := source.HistoricalDemand(context.Background(), 20)
	require.NoError(t, err)
	second, err := source.HistoricalDemand(context.Background(), 20)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].BloodType, second[i].BloodType)
		assert.Equal(t, first[i].Region, second[i].Region)
		assert.Equal(t, first[i].Units, second[i].Units)
		assert.Equal(t, first[i].Season, second[i].Season)
		assert.Equal(t, first[i].DiseaseOutbreak, second[i].DiseaseOutbreak)
	}
}

func TestSyntheticSourceDefaults(t *testing.T) {
	source := NewSyntheticSource(1, nil)

	records, err := source.HistoricalDemand(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 365*len(DefaultRegions)*len(domain.BloodTypes))
}

func TestSyntheticSourceHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSyntheticSource(1, nil).HistoricalDemand(ctx, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

type stubDemandReader struct {
	rows []domain.DemandRecord
	err  error
	days int
}

func (s *stubDemandReader) ListSince(ctx context.Context, days int) ([]domain.DemandRecord, error) {
	s.days = days
	return s.rows, s.err
}

func TestHistorySourceDelegates(t *testing.T) {
	reader := &stubDemandReader{rows: []domain.DemandRecord{{BloodType: "O+", Region: "Noida", Units: 12}}}
	source := NewHistorySource(reader)

	records, err := source.HistoricalDemand(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, reader.rows, records)
	assert.Equal(t, 90, reader.days)

	reader.err = errors.New("connection refused")
	_, err = source.HistoricalDemand(context.Background(), 90)
	assert.Error(t, err)
}

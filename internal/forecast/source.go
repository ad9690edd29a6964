package forecast

import (
	"context"
	"math/rand"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
)

// DefaultRegions are the NCR regions forecasts cover when a request does
// not narrow them.
var DefaultRegions = []string{
	"South Delhi", "North Delhi", "East Delhi", "West Delhi",
	"Central Delhi", "Noida", "Gurgaon", "Dwarka",
}

// demandWeights approximate each blood group's share of daily demand.
var demandWeights = map[string]float64{
	"O+":  0.35,
	"A+":  0.30,
	"B+":  0.20,
	"AB+": 0.05,
	"O-":  0.05,
	"A-":  0.03,
	"B-":  0.015,
	"AB-": 0.005,
}

// TrainingDataSource provides historical demand rows for model fitting.
type TrainingDataSource interface {
	HistoricalDemand(ctx context.Context, days int) ([]domain.DemandRecord, error)
}

// DemandReader is the slice of the demand history repository the
// forecaster needs.
type DemandReader interface {
	ListSince(ctx context.Context, days int) ([]domain.DemandRecord, error)
}

// HistorySource feeds recorded demand history into training.
type HistorySource struct {
	repo DemandReader
}

func NewHistorySource(repo DemandReader) *HistorySource {
	return &HistorySource{repo: repo}
}

func (h *HistorySource) HistoricalDemand(ctx context.Context, days int) ([]domain.DemandRecord, error) {
	return h.repo.ListSince(ctx, days)
}

// SyntheticSource fabricates seasonally-shaped demand history. It backs
// training before any real history has been ingested, and its output
// doubles as seed data.
type SyntheticSource struct {
	seed    int64
	regions []string
}

func NewSyntheticSource(seed int64, regions []string) *SyntheticSource {
	if len(regions) == 0 {
		regions = DefaultRegions
	}

	return &SyntheticSource{seed: seed, regions: regions}
}

// HistoricalDemand generates one record per day, region and blood type.
// A fresh rng seeded from the source's seed makes the dataset
// reproducible across calls.
func (s *SyntheticSource) HistoricalDemand(ctx context.Context, days int) ([]domain.DemandRecord, error) {
	if days <= 0 {
		days = 365
	}

	rng := rand.New(rand.NewSource(s.seed))
	start := time.Now().AddDate(0, 0, -days)
	records := make([]domain.DemandRecord, 0, days*len(s.regions)*len(domain.BloodTypes))

	for d := 0; d < days; d++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date := start.AddDate(0, 0, d)
		season := SeasonOf(date)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

		for _, region := range s.regions {
			// One regional factor per day keeps a region's blood types correlated
			regionFactor := 0.8 + rng.Float64()*0.4

			for _, bt := range domain.BloodTypes {
				base := demandWeights[bt] * 100
				demand := base * season.DemandMultiplier() * regionFactor * (0.8 + rng.Float64()*0.4)

				outbreak := false
				if season.OutbreakProne() && rng.Float64() < 0.10 {
					outbreak = true
					demand *= 1.5
				}
				if weekend {
					demand *= 0.9
				}

				records = append(records, domain.DemandRecord{
					BloodType:       bt,
					Region:          region,
					ObservedOn:      date,
					Units:           int(demand),
					Season:          season.String(),
					DiseaseOutbreak: outbreak,
				})
			}
		}
	}

	return records, nil
}

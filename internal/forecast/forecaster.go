// internal/forecast/forecaster.go
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aryankhare2110/NSS-Bloodlink/internal/domain"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/ml"
	"github.com/aryankhare2110/NSS-Bloodlink/internal/storage"
	"github.com/aryankhare2110/NSS-Bloodlink/pkg/logger"
)

// TrainingState is the model lifecycle: untrained -> training -> trained.
// During a retrain the previous model keeps serving, so state is a
// reporting concern, not a serving gate.
type TrainingState int

const (
	StateUntrained TrainingState = iota
	StateTraining
	StateTrained
)

func (s TrainingState) String() string {
	switch s {
	case StateTraining:
		return "training"
	case StateTrained:
		return "trained"
	default:
		return "untrained"
	}
}

func (s TrainingState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

var featureNames = []string{
	"blood_type_encoded",
	"region_encoded",
	"season_encoded",
	"day_of_week",
	"month",
	"disease_outbreak",
	"is_monsoon_season",
}

const nominalInventory = 50

// Config tunes the demand model and the forecast batch.
type Config struct {
	Trees               int
	MaxDepth            int
	Seed                int64
	TrainingDays        int
	DefaultHorizonHours int
	MaxHorizonHours     int
	Workers             int
	Regions             []string
	ArtifactKey         string
}

func DefaultConfig() Config {
	return Config{
		Trees:               100,
		MaxDepth:            10,
		Seed:                42,
		TrainingDays:        365,
		DefaultHorizonHours: 48,
		MaxHorizonHours:     168,
		Workers:             4,
		Regions:             DefaultRegions,
		ArtifactKey:         "blood_demand_model.json",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Trees <= 0 {
		c.Trees = def.Trees
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = def.MaxDepth
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	if c.TrainingDays <= 0 {
		c.TrainingDays = def.TrainingDays
	}
	if c.DefaultHorizonHours <= 0 {
		c.DefaultHorizonHours = def.DefaultHorizonHours
	}
	if c.MaxHorizonHours <= 0 {
		c.MaxHorizonHours = def.MaxHorizonHours
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if len(c.Regions) == 0 {
		c.Regions = def.Regions
	}
	if c.ArtifactKey == "" {
		c.ArtifactKey = def.ArtifactKey
	}

	return c
}

// InventoryReader is the slice of the inventory repository the
// forecaster needs for risk grading.
type InventoryReader interface {
	TotalsByBloodType(ctx context.Context) (map[string]int, error)
}

// modelBundle is an immutable trained model: encoders plus forest.
// Training installs a fresh bundle with a single pointer swap under the
// write lock; readers predict against whichever bundle they observed.
type modelBundle struct {
	bloodTypes *ml.LabelEncoder
	regions    *ml.LabelEncoder
	seasons    *ml.LabelEncoder
	model      *ml.RandomForestRegressor
}

// Forecaster owns the demand model lifecycle and produces shortage-risk
// graded forecasts over the region/blood-type grid.
type Forecaster struct {
	cfg       Config
	artifacts storage.ArtifactStore
	source    TrainingDataSource
	fallback  *SyntheticSource
	inventory InventoryReader
	runs      RunRecorder

	trainMu sync.Mutex // serializes Train

	mu           sync.RWMutex // guards the fields below
	bundle       *modelBundle
	state        TrainingState
	trainedAt    time.Time
	trainingRows int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New wires a forecaster. source may be nil to train purely on synthetic
// history; inventory and runs may be nil to disable risk-grading lookups
// and run tracking respectively.
func New(cfg Config, artifacts storage.ArtifactStore, source TrainingDataSource, inventory InventoryReader, runs RunRecorder) *Forecaster {
	cfg = cfg.withDefaults()
	fallback := NewSyntheticSource(cfg.Seed, cfg.Regions)
	if source == nil {
		source = fallback
	}

	return &Forecaster{
		cfg:       cfg,
		artifacts: artifacts,
		source:    source,
		fallback:  fallback,
		inventory: inventory,
		runs:      runs,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}
}

// TrainingResult reports what a Train call did.
type TrainingResult struct {
	Reloaded  bool               `json:"reloaded"`
	Rows      int                `json:"training_rows"`
	Metrics   ml.TrainingMetrics `json:"metrics"`
	TrainedAt time.Time          `json:"trained_at"`
	Duration  time.Duration      `json:"-"`
}

// Train fits the demand model and persists the artifact. Without force,
// an existing artifact is reloaded instead of refitting. The new model
// is installed only after the artifact write succeeds; any failure
// leaves the previously served model in place.
func (f *Forecaster) Train(ctx context.Context, force bool) (*TrainingResult, error) {
	f.trainMu.Lock()
	defer f.trainMu.Unlock()

	start := time.Now()

	if !force {
		res, err := f.loadArtifact(ctx)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Stored model artifact unusable, retraining")
		} else if res != nil {
			res.Duration = time.Since(start)
			return res, nil
		}
	}

	f.setState(StateTraining)

	rows, err := f.source.HistoricalDemand(ctx, f.cfg.TrainingDays)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Training data source failed, falling back to synthetic history")
		if rows, err = f.fallback.HistoricalDemand(ctx, f.cfg.TrainingDays); err != nil {
			f.revertState()
			return nil, err
		}
	}
	if len(rows) == 0 {
		logger.Log.Info().Msg("No recorded demand history, training on synthetic data")
		if rows, err = f.fallback.HistoricalDemand(ctx, f.cfg.TrainingDays); err != nil {
			f.revertState()
			return nil, err
		}
	}

	bundle, err := f.fit(rows)
	if err != nil {
		f.revertState()
		return nil, fmt.Errorf("model training failed: %w", err)
	}

	trainedAt := time.Now()
	data, err := encodeArtifact(bundle, trainedAt, len(rows))
	if err != nil {
		f.revertState()
		return nil, fmt.Errorf("failed to encode model artifact: %w", err)
	}
	if err := f.artifacts.Save(ctx, f.cfg.ArtifactKey, data); err != nil {
		// A trained but unpersisted model would diverge from the
		// artifact on the next reload, so keep the previous one.
		f.revertState()
		return nil, fmt.Errorf("failed to persist model artifact: %w", err)
	}

	f.install(bundle, trainedAt, len(rows))

	logger.Log.Info().
		Int("rows", len(rows)).
		Float64("rmse", bundle.model.Metrics.RMSE).
		Dur("took", time.Since(start)).
		Msg("Demand model trained")

	return &TrainingResult{
		Rows:      len(rows),
		Metrics:   bundle.model.Metrics,
		TrainedAt: trainedAt,
		Duration:  time.Since(start),
	}, nil
}

// LoadPersisted installs a previously persisted model if one exists.
// Returns false when there is no artifact to load.
func (f *Forecaster) LoadPersisted(ctx context.Context) (bool, error) {
	f.trainMu.Lock()
	defer f.trainMu.Unlock()

	res, err := f.loadArtifact(ctx)
	if err != nil {
		return false, err
	}

	return res != nil, nil
}

func (f *Forecaster) loadArtifact(ctx context.Context) (*TrainingResult, error) {
	ok, err := f.artifacts.Exists(ctx, f.cfg.ArtifactKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	data, err := f.artifacts.Load(ctx, f.cfg.ArtifactKey)
	if err != nil {
		return nil, err
	}

	bundle, art, err := decodeArtifact(data)
	if err != nil {
		return nil, err
	}

	f.install(bundle, art.TrainedAt, art.TrainingRows)

	logger.Log.Info().
		Time("trained_at", art.TrainedAt).
		Int("rows", art.TrainingRows).
		Msg("Loaded persisted demand model")

	return &TrainingResult{
		Reloaded:  true,
		Rows:      art.TrainingRows,
		Metrics:   bundle.model.Metrics,
		TrainedAt: art.TrainedAt,
	}, nil
}

func (f *Forecaster) fit(rows []domain.DemandRecord) (*modelBundle, error) {
	bloodTypes := ml.NewLabelEncoder()
	regions := ml.NewLabelEncoder()
	seasons := ml.NewLabelEncoder()

	btVals := make([]string, len(rows))
	regionVals := make([]string, len(rows))
	seasonVals := make([]string, len(rows))
	for i, r := range rows {
		btVals[i] = r.BloodType
		regionVals[i] = r.Region
		seasonVals[i] = r.Season
	}
	bloodTypes.Fit(btVals)
	regions.Fit(regionVals)
	seasons.Fit(seasonVals)

	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		season, ok := ParseSeason(r.Season)
		if !ok {
			season = SeasonOf(r.ObservedOn)
		}
		X[i] = []float64{
			float64(bloodTypes.Encode(r.BloodType)),
			float64(regions.Encode(r.Region)),
			float64(seasons.Encode(r.Season)),
			float64(r.ObservedOn.Weekday()),
			float64(r.ObservedOn.Month()),
			boolFeature(r.DiseaseOutbreak),
			boolFeature(season.OutbreakProne()),
		}
		y[i] = float64(r.Units)
	}

	model := ml.NewRandomForestRegressor(f.cfg.Trees, f.cfg.MaxDepth, f.cfg.Seed)
	if err := model.Fit(X, y, featureNames); err != nil {
		return nil, err
	}

	return &modelBundle{
		bloodTypes: bloodTypes,
		regions:    regions,
		seasons:    seasons,
		model:      model,
	}, nil
}

// PredictDemand returns expected units and a confidence in [0.5, 0.95]
// derived from ensemble spread. A zero prediction carries the neutral
// confidence 0.7.
func (f *Forecaster) PredictDemand(bloodType, region string, at time.Time) (units, confidence float64, err error) {
	bundle := f.currentBundle()
	if bundle == nil {
		return 0, 0, domain.ErrModelNotReady
	}

	season := SeasonOf(at)
	outbreak := f.drawOutbreak(season)

	features := []float64{
		float64(bundle.bloodTypes.Encode(bloodType)),
		float64(bundle.regions.Encode(region)),
		float64(bundle.seasons.Encode(season.String())),
		float64(at.Weekday()),
		float64(at.Month()),
		boolFeature(outbreak),
		boolFeature(season.OutbreakProne()),
	}

	mean, spread, err := bundle.model.PredictWithSpread(features)
	if err != nil {
		return 0, 0, fmt.Errorf("prediction failed for %s/%s: %w", bloodType, region, err)
	}
	if mean < 0 {
		mean = 0
	}

	confidence = 0.7
	if mean > 0 {
		confidence = clamp(1-spread/mean, 0.5, 0.95)
	}

	return mean, confidence, nil
}

// AssessShortageRisk grades predicted demand against available stock.
// Zero or negative stock is unconditionally critical; zero predicted
// demand reads as abundant cover.
func (f *Forecaster) AssessShortageRisk(predicted float64, availableUnits int) domain.RiskLevel {
	if availableUnits <= 0 {
		return domain.RiskCritical
	}

	ratio := 10.0
	if predicted > 0 {
		ratio = float64(availableUnits) / predicted
	}

	switch {
	case ratio >= 3:
		return domain.RiskLow
	case ratio >= 2:
		return domain.RiskMedium
	case ratio >= 1:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

type cellJob struct {
	region    string
	bloodType string
}

// GenerateForecasts predicts one horizon-ahead figure for every
// (region, blood type) cell. Cells whose prediction fails are logged and
// skipped; the batch itself fails only when no model is loaded or the
// context is canceled.
func (f *Forecaster) GenerateForecasts(ctx context.Context, horizonHours int, regions []string) ([]domain.Forecast, error) {
	if f.currentBundle() == nil {
		return nil, domain.ErrModelNotReady
	}

	if horizonHours <= 0 {
		horizonHours = f.cfg.DefaultHorizonHours
	}
	if horizonHours > f.cfg.MaxHorizonHours {
		horizonHours = f.cfg.MaxHorizonHours
	}
	if len(regions) == 0 {
		regions = f.cfg.Regions
	}

	now := time.Now()
	forecastDate := now.Add(time.Duration(horizonHours) * time.Hour)

	jobs := make([]cellJob, 0, len(regions)*len(domain.BloodTypes))
	for _, region := range regions {
		for _, bt := range domain.BloodTypes {
			jobs = append(jobs, cellJob{region: region, bloodType: bt})
		}
	}

	run := &ForecastRun{
		Status:       RunProcessing,
		HorizonHours: horizonHours,
		Regions:      regions,
		TotalCells:   len(jobs),
		StartedAt:    now,
	}
	if f.runs != nil {
		if err := f.runs.StartRun(ctx, run); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to record forecast run")
		}
	}

	available := f.availableByBloodType(ctx)

	jobChan := make(chan cellJob, len(jobs))
	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		forecasts []domain.Forecast
		skipped   int
	)

	workers := f.cfg.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				if ctx.Err() != nil {
					return
				}

				units, confidence, err := f.PredictDemand(job.bloodType, job.region, forecastDate)
				if err != nil {
					logger.Log.Warn().Err(err).
						Str("region", job.region).
						Str("blood_type", job.bloodType).
						Msg("Skipping forecast cell")
					mu.Lock()
					skipped++
					mu.Unlock()
					continue
				}

				risk := f.AssessShortageRisk(units, availableFor(available, job.bloodType))

				mu.Lock()
				forecasts = append(forecasts, domain.Forecast{
					BloodType:       job.bloodType,
					Region:          job.region,
					ForecastDate:    forecastDate,
					PredictedDemand: units,
					Confidence:      confidence,
					ShortageRisk:    risk,
					CreatedAt:       now,
				})
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		f.finishRun(run, RunFailed, len(forecasts), skipped, err.Error())
		return nil, err
	}

	f.finishRun(run, RunCompleted, len(forecasts), skipped, "")

	logger.Log.Info().
		Int("forecasts", len(forecasts)).
		Int("skipped", skipped).
		Int("horizon_hours", horizonHours).
		Msg("Forecast batch generated")

	return forecasts, nil
}

// StatusInfo reports the model lifecycle for the training-status surface.
type StatusInfo struct {
	State             TrainingState `json:"state"`
	ModelExists       bool          `json:"model_exists"`
	LastTrainedAt     *time.Time    `json:"last_trained_at,omitempty"`
	TrainingRows      int           `json:"training_rows"`
	UnknownCategories int64         `json:"unknown_category_events"`
}

// Status reports the current state and whether a persisted artifact
// exists, so operators can tell "trained in memory" from "recoverable".
func (f *Forecaster) Status(ctx context.Context) StatusInfo {
	exists, err := f.artifacts.Exists(ctx, f.cfg.ArtifactKey)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Artifact existence check failed")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	info := StatusInfo{
		State:        f.state,
		ModelExists:  exists,
		TrainingRows: f.trainingRows,
	}
	if !f.trainedAt.IsZero() {
		t := f.trainedAt
		info.LastTrainedAt = &t
	}
	if f.bundle != nil {
		info.UnknownCategories = f.bundle.bloodTypes.Misses() +
			f.bundle.regions.Misses() +
			f.bundle.seasons.Misses()
	}

	return info
}

func (f *Forecaster) currentBundle() *modelBundle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bundle
}

func (f *Forecaster) setState(s TrainingState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *Forecaster) revertState() {
	f.mu.Lock()
	if f.bundle != nil {
		f.state = StateTrained
	} else {
		f.state = StateUntrained
	}
	f.mu.Unlock()
}

func (f *Forecaster) install(b *modelBundle, trainedAt time.Time, rows int) {
	f.hookEncoders(b)

	f.mu.Lock()
	f.bundle = b
	f.state = StateTrained
	f.trainedAt = trainedAt
	f.trainingRows = rows
	f.mu.Unlock()
}

func (f *Forecaster) hookEncoders(b *modelBundle) {
	warn := func(kind string) func(string) {
		return func(value string) {
			logger.Log.Warn().
				Str("kind", kind).
				Str("value", value).
				Msg("Unknown category encoded with fallback code")
		}
	}
	b.bloodTypes.SetMissHandler(warn("blood_type"))
	b.regions.SetMissHandler(warn("region"))
	b.seasons.SetMissHandler(warn("season"))
}

func (f *Forecaster) finishRun(run *ForecastRun, status RunStatus, produced, skipped int, errMsg string) {
	if f.runs == nil || run.ID == 0 {
		return
	}

	completed := time.Now()
	run.Status = status
	run.ForecastCount = produced
	run.SkippedCells = skipped
	run.ErrorMessage = errMsg
	run.CompletedAt = &completed

	// The caller's context may already be canceled; the run row should
	// still record the failure.
	if err := f.runs.FinishRun(context.Background(), run); err != nil {
		logger.Log.Warn().Err(err).Int64("run_id", run.ID).Msg("Failed to finalize forecast run")
	}
}

// drawOutbreak decides whether an outbreak is assumed at prediction
// time, mirroring how the synthetic history fabricates outbreak days.
func (f *Forecaster) drawOutbreak(season Season) bool {
	if !season.OutbreakProne() {
		return false
	}

	f.rngMu.Lock()
	defer f.rngMu.Unlock()
	return f.rng.Float64() < 0.10
}

// availableByBloodType loads network-wide stock per blood type. Absent
// data falls back to nominal stock so risk grading still yields a full
// grid.
func (f *Forecaster) availableByBloodType(ctx context.Context) map[string]int {
	if f.inventory == nil {
		return nil
	}

	totals, err := f.inventory.TotalsByBloodType(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Inventory lookup failed, assuming nominal stock levels")
		return nil
	}

	return totals
}

func availableFor(totals map[string]int, bloodType string) int {
	if totals == nil {
		return nominalInventory
	}
	if units, ok := totals[bloodType]; ok {
		return units
	}

	return nominalInventory
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

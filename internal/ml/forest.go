package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// RandomForestRegressor is a bagged ensemble of regression trees. Each
// tree trains on a bootstrap resample of the data; the spread of the
// per-tree predictions doubles as an uncertainty signal.
type RandomForestRegressor struct {
	NumTrees        int               `json:"num_trees"`
	MaxDepth        int               `json:"max_depth"`
	MinSamplesSplit int               `json:"min_samples_split"`
	Seed            int64             `json:"seed"`
	FeatureNames    []string          `json:"feature_names"`
	Trees           []*RegressionTree `json:"trees"`
	Metrics         TrainingMetrics   `json:"metrics"`
}

// TrainingMetrics summarizes fit quality on the training set.
type TrainingMetrics struct {
	Samples int     `json:"samples"`
	RMSE    float64 `json:"rmse"`
	MAE     float64 `json:"mae"`
	R2      float64 `json:"r2"`
}

// NewRandomForestRegressor creates an untrained forest.
func NewRandomForestRegressor(numTrees, maxDepth int, seed int64) *RandomForestRegressor {
	if numTrees <= 0 {
		numTrees = 100
	}
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &RandomForestRegressor{
		NumTrees:        numTrees,
		MaxDepth:        maxDepth,
		MinSamplesSplit: 2,
		Seed:            seed,
	}
}

// Fit trains the forest. Trees train in parallel; each goroutine owns a
// rng seeded from Seed and the tree index, so results are reproducible
// regardless of scheduling.
func (rf *RandomForestRegressor) Fit(X [][]float64, y []float64, featureNames []string) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return fmt.Errorf("feature names must match number of features")
	}

	rf.FeatureNames = featureNames
	rf.Trees = make([]*RegressionTree, rf.NumTrees)

	var wg sync.WaitGroup
	for i := 0; i < rf.NumTrees; i++ {
		wg.Add(1)
		go func(treeIdx int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(rf.Seed + int64(treeIdx)))
			bootX, bootY := bootstrapSample(X, y, rng)

			tree := &RegressionTree{
				MaxDepth:        rf.MaxDepth,
				MinSamplesSplit: rf.MinSamplesSplit,
			}
			tree.fit(bootX, bootY)

			// Distinct indices, no lock needed
			rf.Trees[treeIdx] = tree
		}(i)
	}
	wg.Wait()

	rf.Metrics = rf.trainingMetrics(X, y)

	return nil
}

// Trained reports whether the forest has fitted trees.
func (rf *RandomForestRegressor) Trained() bool {
	return len(rf.Trees) > 0
}

// Predict returns the ensemble mean for a single sample.
func (rf *RandomForestRegressor) Predict(x []float64) (float64, error) {
	mean, _, err := rf.PredictWithSpread(x)
	return mean, err
}

// PredictWithSpread returns the ensemble mean and the population standard
// deviation of the per-tree predictions.
func (rf *RandomForestRegressor) PredictWithSpread(x []float64) (mean, std float64, err error) {
	if len(rf.Trees) == 0 {
		return 0, 0, fmt.Errorf("model not trained")
	}
	if len(x) != len(rf.FeatureNames) {
		return 0, 0, fmt.Errorf("expected %d features, got %d", len(rf.FeatureNames), len(x))
	}

	preds := make([]float64, 0, len(rf.Trees))
	for _, tree := range rf.Trees {
		if tree == nil || tree.Root == nil {
			continue
		}
		preds = append(preds, tree.predict(x))
	}
	if len(preds) == 0 {
		return 0, 0, fmt.Errorf("no fitted trees in forest")
	}

	mean = stat.Mean(preds, nil)
	std = stat.PopStdDev(preds, nil)

	return mean, std, nil
}

func (rf *RandomForestRegressor) trainingMetrics(X [][]float64, y []float64) TrainingMetrics {
	preds := make([]float64, len(X))
	for i := range X {
		p, err := rf.Predict(X[i])
		if err != nil {
			return TrainingMetrics{Samples: len(X)}
		}
		preds[i] = p
	}

	sumSq, sumAbs := 0.0, 0.0
	for i := range preds {
		diff := preds[i] - y[i]
		sumSq += diff * diff
		sumAbs += math.Abs(diff)
	}
	n := float64(len(preds))

	return TrainingMetrics{
		Samples: len(X),
		RMSE:    math.Sqrt(sumSq / n),
		MAE:     sumAbs / n,
		R2:      stat.RSquaredFrom(preds, y, nil),
	}
}

func bootstrapSample(X [][]float64, y []float64, rng *rand.Rand) ([][]float64, []float64) {
	n := len(X)
	bootX := make([][]float64, n)
	bootY := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := rng.Intn(n)
		bootX[i] = X[idx]
		bootY[i] = y[idx]
	}

	return bootX, bootY
}

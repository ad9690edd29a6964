package ml

import "sort"

// TreeNode is one node of a fitted regression tree. Internal nodes route
// samples by comparing one feature against a threshold; leaves carry the
// mean target value of the training samples that reached them.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// RegressionTree is a CART-style regression tree that splits on the
// feature/threshold pair with the largest variance reduction.
type RegressionTree struct {
	Root            *TreeNode `json:"root"`
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
}

const minVariance = 1e-7

func (t *RegressionTree) fit(X [][]float64, y []float64) {
	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	t.Root = t.build(X, y, indices, 0)
}

func (t *RegressionTree) build(X [][]float64, y []float64, indices []int, depth int) *TreeNode {
	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = y[idx]
	}
	m := meanOf(values)
	node := &TreeNode{Value: m}

	if depth >= t.MaxDepth || len(indices) < t.MinSamplesSplit || varianceOf(values, m) < minVariance {
		node.Leaf = true
		return node
	}

	feature, threshold, gain := t.bestSplit(X, y, indices)
	if gain <= 0 {
		node.Leaf = true
		return node
	}

	left, right := partition(X, indices, feature, threshold)
	if len(left) == 0 || len(right) == 0 {
		node.Leaf = true
		return node
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = t.build(X, y, left, depth+1)
	node.Right = t.build(X, y, right, depth+1)

	return node
}

// bestSplit scans every feature and candidate threshold for the split
// with the largest weighted variance reduction.
func (t *RegressionTree) bestSplit(X [][]float64, y []float64, indices []int) (int, float64, float64) {
	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	parent := make([]float64, len(indices))
	for i, idx := range indices {
		parent[i] = y[idx]
	}
	parentVariance := varianceOf(parent, meanOf(parent))

	numFeatures := len(X[indices[0]])
	for feature := 0; feature < numFeatures; feature++ {
		values := make([]float64, len(indices))
		for i, idx := range indices {
			values[i] = X[idx][feature]
		}

		for _, threshold := range candidateThresholds(values) {
			left, right := partition(X, indices, feature, threshold)
			if len(left) == 0 || len(right) == 0 {
				continue
			}

			leftValues := make([]float64, len(left))
			for i, idx := range left {
				leftValues[i] = y[idx]
			}
			rightValues := make([]float64, len(right))
			for i, idx := range right {
				rightValues[i] = y[idx]
			}

			n := float64(len(indices))
			weighted := float64(len(left))/n*varianceOf(leftValues, meanOf(leftValues)) +
				float64(len(right))/n*varianceOf(rightValues, meanOf(rightValues))

			if gain := parentVariance - weighted; gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

func (t *RegressionTree) predict(x []float64) float64 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}

	return node.Value
}

func partition(X [][]float64, indices []int, feature int, threshold float64) (left, right []int) {
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	return left, right
}

// candidateThresholds returns midpoints between consecutive distinct
// values, so every possible binary partition of the samples is reachable.
func candidateThresholds(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var thresholds []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			thresholds = append(thresholds, (sorted[i]+sorted[i-1])/2)
		}
	}

	return thresholds
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func varianceOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}

	return variance / float64(len(values))
}

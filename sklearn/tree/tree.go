// Package tree implements a CART regression tree compatible with
// scikit-learn's DecisionTreeRegressor.
package tree

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/metrics"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// featureThreshold is the minimum gap between two consecutive sorted
// feature values for a split to be considered between them.
const featureThreshold = 1e-7

// Node is a single node stored in the flat node array of a tree.
// LeftChild and RightChild are -1 for leaves.
type Node struct {
	LeftChild    int
	RightChild   int
	SplitFeature int
	Threshold    float64
	Value        float64 // mean target of the samples reaching the node
	Impurity     float64 // mean squared error of those samples
	NSamples     int
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.LeftChild < 0
}

// DecisionTreeRegressor grows a binary tree greedily, choosing at every node
// the split with the largest reduction in squared error. Thresholds are the
// midpoint between consecutive distinct feature values; features are scanned
// in column order and the first best split wins ties.
type DecisionTreeRegressor struct {
	State *model.StateManager

	// MaxDepth of 0 grows until leaves are pure or cannot be split.
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int

	Nodes []Node
	Depth int

	// FeatureImportances holds the normalized impurity decrease per feature.
	FeatureImportances []float64
}

var _ model.Regressor = (*DecisionTreeRegressor)(nil)

// Option は DecisionTreeRegressor の設定オプション
type Option func(*DecisionTreeRegressor)

// WithMaxDepth limits the depth of the tree. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(t *DecisionTreeRegressor) { t.MaxDepth = depth }
}

// WithMinSamplesSplit sets the minimum node size that may be split.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}

// NewDecisionTreeRegressor creates an unlimited-depth tree with
// min_samples_split=2 and min_samples_leaf=1.
func NewDecisionTreeRegressor(options ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		State:           model.NewStateManager(),
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Columns is a column-major copy of a design matrix. Ensembles build it once
// and share it between their trees.
type Columns [][]float64

// ColumnsOf copies X into column-major form.
func ColumnsOf(X mat.Matrix) Columns {
	_, c := X.Dims()
	cols := make(Columns, c)
	for j := range cols {
		cols[j] = mat.Col(nil, j, X)
	}
	return cols
}

// Fit はモデルを訓練データで学習
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", 1, yCols, 1)
	}

	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	return t.FitColumns(ColumnsOf(X), mat.Col(nil, 0, y), indices)
}

// FitColumns fits the tree on the rows named by indices. Indices may repeat,
// which is how bootstrap samples are expressed.
func (t *DecisionTreeRegressor) FitColumns(cols Columns, y []float64, indices []int) error {
	if t.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", t.MinSamplesSplit)
	}
	if t.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", t.MinSamplesLeaf)
	}
	if len(cols) == 0 || len(indices) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}

	b := &builder{tree: t, cols: cols, y: y, importances: make([]float64, len(cols))}
	t.Nodes = t.Nodes[:0]
	t.Depth = 0
	idx := make([]int, len(indices))
	copy(idx, indices)
	b.grow(idx, 0)

	var total float64
	for _, v := range b.importances {
		total += v
	}
	if total > 0 {
		for j := range b.importances {
			b.importances[j] /= total
		}
	}
	t.FeatureImportances = b.importances

	t.State.SetDimensions(len(cols), len(indices))
	t.State.SetFitted()
	return nil
}

type builder struct {
	tree        *DecisionTreeRegressor
	cols        Columns
	y           []float64
	importances []float64
}

type split struct {
	feature   int
	threshold float64
	nLeft     int
	proxy     float64
}

// grow appends the subtree for idx and returns the index of its root.
func (b *builder) grow(idx []int, depth int) int {
	t := b.tree
	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	mean := sum / n
	impurity := sumSq/n - mean*mean
	if impurity < 0 {
		impurity = 0
	}

	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		LeftChild:    -1,
		RightChild:   -1,
		SplitFeature: -1,
		Value:        mean,
		Impurity:     impurity,
		NSamples:     len(idx),
	})
	if depth > t.Depth {
		t.Depth = depth
	}

	if impurity <= 1e-12 ||
		len(idx) < t.MinSamplesSplit ||
		len(idx) < 2*t.MinSamplesLeaf ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return id
	}

	best, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}

	col := b.cols[best.feature]
	left := make([]int, 0, best.nLeft)
	right := make([]int, 0, len(idx)-best.nLeft)
	for _, i := range idx {
		if col[i] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	// impurity decrease weighted by node size
	b.importances[best.feature] += best.proxy - sum*sum/n

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	node := &t.Nodes[id]
	node.LeftChild = l
	node.RightChild = r
	node.SplitFeature = best.feature
	node.Threshold = best.threshold
	return id
}

// bestSplit maximizes sumL²/nL + sumR²/nR, which is equivalent to minimizing
// the summed squared error of the two children.
func (b *builder) bestSplit(idx []int, total float64) (split, bool) {
	minLeaf := b.tree.MinSamplesLeaf
	n := len(idx)
	sorted := make([]int, n)
	best := split{proxy: math.Inf(-1)}
	found := false

	for f, col := range b.cols {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return col[sorted[a]] < col[sorted[c]] })
		if col[sorted[n-1]] <= col[sorted[0]]+featureThreshold {
			continue
		}

		var sumLeft float64
		for k := 0; k < n-1; k++ {
			sumLeft += b.y[sorted[k]]
			nLeft := k + 1
			if nLeft < minLeaf {
				continue
			}
			if n-nLeft < minLeaf {
				break
			}
			lo, hi := col[sorted[k]], col[sorted[k+1]]
			if hi <= lo+featureThreshold {
				continue
			}
			sumRight := total - sumLeft
			proxy := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(n-nLeft)
			if proxy > best.proxy {
				threshold := lo/2 + hi/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, nLeft: nLeft, proxy: proxy}
				found = true
			}
		}
	}
	return best, found
}

// PredictRow returns the leaf value reached by a single sample.
func (t *DecisionTreeRegressor) PredictRow(x []float64) float64 {
	id := 0
	for {
		node := &t.Nodes[id]
		if node.IsLeaf() {
			return node.Value
		}
		if x[node.SplitFeature] <= node.Threshold {
			id = node.LeftChild
		} else {
			id = node.RightChild
		}
	}
}

// Predict は入力データに対する予測を行う
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if err := t.State.RequirePredictable("DecisionTreeRegressor", cols); err != nil {
		return nil, err
	}

	out := mat.NewDense(rows, 1, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, t.PredictRow(row))
	}
	return out, nil
}

// Score はモデルの決定係数（R²）を計算
func (t *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// NLeaves returns the number of leaves of the fitted tree.
func (t *DecisionTreeRegressor) NLeaves() int {
	n := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			n++
		}
	}
	return n
}

func (t *DecisionTreeRegressor) String() string {
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, min_samples_split=%d, min_samples_leaf=%d)",
		t.MaxDepth, t.MinSamplesSplit, t.MinSamplesLeaf)
}

package ensemble

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/core/parallel"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/sklearn/tree"
)

// RandomForestRegressor averages fully grown regression trees, each fitted on
// a bootstrap sample. Every tree draws its sample from its own seed derived
// from RandomState, so the fitted forest does not depend on how trees are
// scheduled across cores.
type RandomForestRegressor struct {
	State *model.StateManager

	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Bootstrap       bool
	RandomState     uint64

	Estimators []*tree.DecisionTreeRegressor
}

var _ model.Regressor = (*RandomForestRegressor)(nil)

// ForestOption は RandomForestRegressor の設定オプション
type ForestOption func(*RandomForestRegressor)

// WithForestEstimators sets the number of trees.
func WithForestEstimators(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}

// WithForestMaxDepth limits every tree's depth. 0 means unlimited.
func WithForestMaxDepth(depth int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = depth }
}

// WithBootstrap toggles bootstrap sampling.
func WithBootstrap(b bool) ForestOption {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = b }
}

// WithForestRandomState sets the seed of the bootstrap draws.
func WithForestRandomState(seed uint64) ForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}

// NewRandomForestRegressor creates a forest of 100 bootstrapped trees.
func NewRandomForestRegressor(options ...ForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
	for _, opt := range options {
		opt(rf)
	}
	return rf
}

// Fit trains the trees in parallel.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	if rf.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be positive", rf.NEstimators)
	}
	rows, cols, err := checkFitInput("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}

	columns := tree.ColumnsOf(X)
	target := mat.Col(nil, 0, y)

	seeds := make([]uint64, rf.NEstimators)
	seeder := newRand(rf.RandomState)
	for i := range seeds {
		seeds[i] = seeder.Uint64()
	}

	estimators := make([]*tree.DecisionTreeRegressor, rf.NEstimators)
	err = parallel.ForEach(rf.NEstimators, func(i int) error {
		indices := allIndices(rows)
		if rf.Bootstrap {
			rng := newRand(seeds[i])
			for j := range indices {
				indices[j] = rng.IntN(rows)
			}
		}
		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(rf.MaxDepth),
			tree.WithMinSamplesSplit(rf.MinSamplesSplit),
			tree.WithMinSamplesLeaf(rf.MinSamplesLeaf),
		)
		if err := t.FitColumns(columns, target, indices); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
		estimators[i] = t
		return nil
	})
	if err != nil {
		return err
	}

	rf.Estimators = estimators
	rf.State.SetDimensions(cols, rows)
	rf.State.SetFitted()
	return nil
}

// Predict returns the mean prediction of all trees.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, cols := X.Dims()
	if err := rf.State.RequirePredictable("RandomForestRegressor", cols); err != nil {
		return nil, err
	}
	n := float64(len(rf.Estimators))
	return predictRows(X, func(row []float64) float64 {
		var sum float64
		for _, t := range rf.Estimators {
			sum += t.PredictRow(row)
		}
		return sum / n
	}), nil
}

// Score はモデルの決定係数（R²）を計算
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2(y, pred)
}

// FeatureImportances averages the impurity-based importances of the trees.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	nFeatures, _ := rf.State.GetDimensions()
	out := make([]float64, nFeatures)
	for _, t := range rf.Estimators {
		for j, v := range t.FeatureImportances {
			out[j] += v / float64(len(rf.Estimators))
		}
	}
	return out
}

func (rf *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, bootstrap=%t, random_state=%d)",
		rf.NEstimators, rf.Bootstrap, rf.RandomState)
}

package ensemble

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/sklearn/tree"
)

// GradientBoostingRegressor fits shallow trees stage by stage to the
// residuals of the running prediction under squared loss.
type GradientBoostingRegressor struct {
	State *model.StateManager

	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int

	// Init is the constant stage-zero prediction, the training target mean.
	Init       float64
	Estimators []*tree.DecisionTreeRegressor
	// TrainScore is the training MSE after each stage.
	TrainScore []float64
}

var _ model.Regressor = (*GradientBoostingRegressor)(nil)

// BoostingOption は GradientBoostingRegressor の設定オプション
type BoostingOption func(*GradientBoostingRegressor)

// WithBoostingEstimators sets the number of boosting stages.
func WithBoostingEstimators(n int) BoostingOption {
	return func(gb *GradientBoostingRegressor) { gb.NEstimators = n }
}

// WithLearningRate shrinks the contribution of each stage.
func WithLearningRate(lr float64) BoostingOption {
	return func(gb *GradientBoostingRegressor) { gb.LearningRate = lr }
}

// WithBoostingMaxDepth sets the depth of each stage's tree.
func WithBoostingMaxDepth(depth int) BoostingOption {
	return func(gb *GradientBoostingRegressor) { gb.MaxDepth = depth }
}

// NewGradientBoostingRegressor creates a booster with 100 stages of depth-3
// trees and learning rate 0.1.
func NewGradientBoostingRegressor(options ...BoostingOption) *GradientBoostingRegressor {
	gb := &GradientBoostingRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, opt := range options {
		opt(gb)
	}
	return gb
}

// Fit はモデルを訓練データで学習
func (gb *GradientBoostingRegressor) Fit(X, y mat.Matrix) error {
	if gb.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be positive", gb.NEstimators)
	}
	if gb.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", gb.LearningRate)
	}
	rows, cols, err := checkFitInput("GradientBoostingRegressor.Fit", X, y)
	if err != nil {
		return err
	}

	columns := tree.ColumnsOf(X)
	target := mat.Col(nil, 0, y)
	indices := allIndices(rows)

	gb.Init = stat.Mean(target, nil)
	raw := make([]float64, rows)
	for i := range raw {
		raw[i] = gb.Init
	}

	residual := make([]float64, rows)
	gb.Estimators = make([]*tree.DecisionTreeRegressor, 0, gb.NEstimators)
	gb.TrainScore = make([]float64, 0, gb.NEstimators)
	for stage := 0; stage < gb.NEstimators; stage++ {
		for i := range residual {
			residual[i] = target[i] - raw[i]
		}
		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(gb.MaxDepth),
			tree.WithMinSamplesSplit(gb.MinSamplesSplit),
			tree.WithMinSamplesLeaf(gb.MinSamplesLeaf),
		)
		if err := t.FitColumns(columns, residual, indices); err != nil {
			return errors.Wrapf(err, "stage %d", stage)
		}
		update := predictColumns(t, columns, rows)
		var loss float64
		for i := range raw {
			raw[i] += gb.LearningRate * update[i]
			d := target[i] - raw[i]
			loss += d * d
		}
		loss /= float64(rows)
		if err := errors.CheckScalar("GradientBoostingRegressor.Fit", loss, stage); err != nil {
			return err
		}
		gb.Estimators = append(gb.Estimators, t)
		gb.TrainScore = append(gb.TrainScore, loss)
	}

	gb.State.SetDimensions(cols, rows)
	gb.State.SetFitted()
	return nil
}

// Predict returns Init plus the shrunken sum of all stage predictions.
func (gb *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, cols := X.Dims()
	if err := gb.State.RequirePredictable("GradientBoostingRegressor", cols); err != nil {
		return nil, err
	}
	return predictRows(X, func(row []float64) float64 {
		v := gb.Init
		for _, t := range gb.Estimators {
			v += gb.LearningRate * t.PredictRow(row)
		}
		return v
	}), nil
}

// Score はモデルの決定係数（R²）を計算
func (gb *GradientBoostingRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := gb.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2(y, pred)
}

func (gb *GradientBoostingRegressor) String() string {
	return fmt.Sprintf("GradientBoostingRegressor(n_estimators=%d, learning_rate=%g, max_depth=%d)",
		gb.NEstimators, gb.LearningRate, gb.MaxDepth)
}

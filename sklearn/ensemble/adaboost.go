package ensemble

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/sklearn/tree"
)

// AdaBoostRegressor implements AdaBoost.R2 with linear loss. Each round fits
// a depth-limited tree on a weighted resample of the training set and the
// ensemble predicts the weighted median of its trees.
type AdaBoostRegressor struct {
	State *model.StateManager

	NEstimators  int
	LearningRate float64
	MaxDepth     int
	RandomState  uint64

	Estimators       []*tree.DecisionTreeRegressor
	EstimatorWeights []float64
	EstimatorErrors  []float64
}

var _ model.Regressor = (*AdaBoostRegressor)(nil)

// AdaBoostOption は AdaBoostRegressor の設定オプション
type AdaBoostOption func(*AdaBoostRegressor)

// WithAdaBoostEstimators sets the maximum number of boosting rounds.
func WithAdaBoostEstimators(n int) AdaBoostOption {
	return func(ab *AdaBoostRegressor) { ab.NEstimators = n }
}

// WithAdaBoostLearningRate sets the weight shrinkage per round.
func WithAdaBoostLearningRate(lr float64) AdaBoostOption {
	return func(ab *AdaBoostRegressor) { ab.LearningRate = lr }
}

// WithAdaBoostRandomState sets the seed of the weighted resampling.
func WithAdaBoostRandomState(seed uint64) AdaBoostOption {
	return func(ab *AdaBoostRegressor) { ab.RandomState = seed }
}

// NewAdaBoostRegressor creates a booster of at most 50 depth-3 trees.
func NewAdaBoostRegressor(options ...AdaBoostOption) *AdaBoostRegressor {
	ab := &AdaBoostRegressor{
		State:        model.NewStateManager(),
		NEstimators:  50,
		LearningRate: 1,
		MaxDepth:     3,
	}
	for _, opt := range options {
		opt(ab)
	}
	return ab
}

// Fit はモデルを訓練データで学習
func (ab *AdaBoostRegressor) Fit(X, y mat.Matrix) error {
	if ab.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be positive", ab.NEstimators)
	}
	if ab.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", ab.LearningRate)
	}
	rows, cols, err := checkFitInput("AdaBoostRegressor.Fit", X, y)
	if err != nil {
		return err
	}

	columns := tree.ColumnsOf(X)
	target := mat.Col(nil, 0, y)
	rng := newRand(ab.RandomState)

	weights := make([]float64, rows)
	for i := range weights {
		weights[i] = 1 / float64(rows)
	}

	ab.Estimators = ab.Estimators[:0]
	ab.EstimatorWeights = ab.EstimatorWeights[:0]
	ab.EstimatorErrors = ab.EstimatorErrors[:0]

	cdf := make([]float64, rows)
	sample := make([]int, rows)
	loss := make([]float64, rows)
	for round := 0; round < ab.NEstimators; round++ {
		var acc float64
		for i, w := range weights {
			acc += w
			cdf[i] = acc
		}
		for i := range sample {
			u := rng.Float64() * acc
			j := sort.Search(rows, func(k int) bool { return cdf[k] > u })
			if j == rows {
				j = rows - 1
			}
			sample[i] = j
		}

		t := tree.NewDecisionTreeRegressor(tree.WithMaxDepth(ab.MaxDepth))
		if err := t.FitColumns(columns, target, sample); err != nil {
			return errors.Wrapf(err, "round %d", round)
		}
		pred := predictColumns(t, columns, rows)

		var maxLoss float64
		for i := range loss {
			loss[i] = math.Abs(pred[i] - target[i])
			if weights[i] > 0 && loss[i] > maxLoss {
				maxLoss = loss[i]
			}
		}
		var estErr float64
		for i := range loss {
			if maxLoss > 0 {
				loss[i] /= maxLoss
			}
			estErr += weights[i] * loss[i]
		}

		if estErr <= 0 {
			// A perfect fit ends boosting.
			ab.appendRound(t, 1, 0)
			break
		}
		if estErr >= 0.5 {
			// Worse than chance: keep the tree only when it is the first.
			if len(ab.Estimators) == 0 {
				ab.appendRound(t, 0, estErr)
			}
			break
		}

		beta := estErr / (1 - estErr)
		ab.appendRound(t, ab.LearningRate*math.Log(1/beta), estErr)
		if round == ab.NEstimators-1 {
			break
		}

		var sum float64
		for i := range weights {
			if weights[i] > 0 {
				weights[i] *= math.Pow(beta, (1-loss[i])*ab.LearningRate)
			}
			sum += weights[i]
		}
		if sum <= 0 {
			break
		}
		for i := range weights {
			weights[i] /= sum
		}
	}

	ab.State.SetDimensions(cols, rows)
	ab.State.SetFitted()
	return nil
}

func (ab *AdaBoostRegressor) appendRound(t *tree.DecisionTreeRegressor, weight, err float64) {
	ab.Estimators = append(ab.Estimators, t)
	ab.EstimatorWeights = append(ab.EstimatorWeights, weight)
	ab.EstimatorErrors = append(ab.EstimatorErrors, err)
}

type weightedPrediction struct {
	values  []float64
	weights []float64
}

func (w weightedPrediction) Len() int           { return len(w.values) }
func (w weightedPrediction) Less(i, j int) bool { return w.values[i] < w.values[j] }
func (w weightedPrediction) Swap(i, j int) {
	w.values[i], w.values[j] = w.values[j], w.values[i]
	w.weights[i], w.weights[j] = w.weights[j], w.weights[i]
}

// Predict returns the weighted median of the tree predictions.
func (ab *AdaBoostRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, cols := X.Dims()
	if err := ab.State.RequirePredictable("AdaBoostRegressor", cols); err != nil {
		return nil, err
	}
	buf := weightedPrediction{
		values:  make([]float64, len(ab.Estimators)),
		weights: make([]float64, len(ab.Estimators)),
	}
	return predictRows(X, func(row []float64) float64 {
		for i, t := range ab.Estimators {
			buf.values[i] = t.PredictRow(row)
			buf.weights[i] = ab.EstimatorWeights[i]
		}
		sort.Stable(buf)
		return stat.Quantile(0.5, stat.Empirical, buf.values, buf.weights)
	}), nil
}

// Score はモデルの決定係数（R²）を計算
func (ab *AdaBoostRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := ab.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2(y, pred)
}

func (ab *AdaBoostRegressor) String() string {
	return fmt.Sprintf("AdaBoostRegressor(n_estimators=%d, learning_rate=%g, random_state=%d)",
		ab.NEstimators, ab.LearningRate, ab.RandomState)
}

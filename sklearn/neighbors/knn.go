// Package neighbors implements neighbor-based regression.
package neighbors

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/core/parallel"
	"github.com/YuminosukeSato/aurora/metrics"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// parallelRows is the query count above which Predict fans out over cores.
const parallelRows = 64

// KNeighborsRegressor predicts the mean target of the K nearest training
// samples under Euclidean distance (brute force, uniform weights). Equal
// distances are broken by training order.
type KNeighborsRegressor struct {
	State *model.StateManager

	K int

	// Training data kept row-major.
	X []float64
	Y []float64
}

var _ model.Regressor = (*KNeighborsRegressor)(nil)

// Option は KNeighborsRegressor の設定オプション
type Option func(*KNeighborsRegressor)

// WithNeighbors sets the number of neighbors.
func WithNeighbors(k int) Option {
	return func(r *KNeighborsRegressor) { r.K = k }
}

// NewKNeighborsRegressor creates a regressor with K=5.
func NewKNeighborsRegressor(options ...Option) *KNeighborsRegressor {
	r := &KNeighborsRegressor{State: model.NewStateManager(), K: 5}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Fit stores the training data.
func (r *KNeighborsRegressor) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("KNeighborsRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("KNeighborsRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("KNeighborsRegressor.Fit", 1, yCols, 1)
	}
	if r.K < 1 {
		return errors.NewValidationError("n_neighbors", "must be positive", r.K)
	}
	if r.K > rows {
		return errors.NewValidationError("n_neighbors", fmt.Sprintf("must be <= n_samples (%d)", rows), r.K)
	}

	r.X = make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		r.X = append(r.X, mat.Row(nil, i, X)...)
	}
	r.Y = mat.Col(nil, 0, y)

	r.State.SetDimensions(cols, rows)
	r.State.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (r *KNeighborsRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if err := r.State.RequirePredictable("KNeighborsRegressor", cols); err != nil {
		return nil, err
	}

	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, parallelRows, func(start, end int) {
		q := make([]float64, cols)
		nb := make([]neighbor, len(r.Y))
		for i := start; i < end; i++ {
			mat.Row(q, i, X)
			out[i] = r.predictOne(q, nb)
		}
	})
	return mat.NewDense(rows, 1, out), nil
}

type neighbor struct {
	dist  float64
	index int
}

func (r *KNeighborsRegressor) predictOne(q []float64, nb []neighbor) float64 {
	cols := len(q)
	for i := range nb {
		row := r.X[i*cols : (i+1)*cols]
		var d float64
		for j, v := range row {
			diff := v - q[j]
			d += diff * diff
		}
		nb[i] = neighbor{dist: d, index: i}
	}
	sort.Slice(nb, func(a, b int) bool {
		if nb[a].dist != nb[b].dist {
			return nb[a].dist < nb[b].dist
		}
		return nb[a].index < nb[b].index
	})

	var sum float64
	for _, n := range nb[:r.K] {
		sum += r.Y[n.index]
	}
	return sum / float64(r.K)
}

// Score はモデルの決定係数（R²）を計算
func (r *KNeighborsRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

func (r *KNeighborsRegressor) String() string {
	return fmt.Sprintf("KNeighborsRegressor(n_neighbors=%d)", r.K)
}

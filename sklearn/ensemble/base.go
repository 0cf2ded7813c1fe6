// Package ensemble implements tree ensembles for regression: random forest,
// gradient boosting and AdaBoost.R2.
package ensemble

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/metrics"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/sklearn/tree"
)

// newRand returns the deterministic generator used for every seeded draw.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func checkFitInput(op string, X, y mat.Matrix) (rows, cols int, err error) {
	rows, cols = X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return 0, 0, errors.NewDimensionError(op, rows, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError(op, 1, yCols, 1)
	}
	return rows, cols, nil
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// predictRows evaluates fn for every row of X.
func predictRows(X mat.Matrix, fn func(row []float64) float64) *mat.Dense {
	rows, cols := X.Dims()
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out[i] = fn(row)
	}
	return mat.NewDense(rows, 1, out)
}

// predictColumns evaluates a tree on every training row kept column-major.
func predictColumns(t *tree.DecisionTreeRegressor, cols tree.Columns, n int) []float64 {
	out := make([]float64, n)
	row := make([]float64, len(cols))
	for i := 0; i < n; i++ {
		for j := range cols {
			row[j] = cols[j][i]
		}
		out[i] = t.PredictRow(row)
	}
	return out
}

func r2(y mat.Matrix, pred mat.Matrix) (float64, error) {
	return metrics.R2ScoreMatrix(y, pred)
}

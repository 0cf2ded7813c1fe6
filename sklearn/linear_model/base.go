// Package linear_model provides scikit-learn compatible linear regressors:
// ordinary least squares, Ridge and Lasso.
package linear_model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/metrics"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// checkFitInput validates the shapes passed to Fit.
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

// centerData returns X and y with their column means removed when
// fitIntercept is set, together with those means.
func centerData(X, y mat.Matrix, fitIntercept bool) (Xc *mat.Dense, yc *mat.VecDense, xMean []float64, yMean float64) {
	rows, cols := X.Dims()
	Xc = mat.DenseCopyOf(X)
	yc = mat.NewVecDense(rows, mat.Col(nil, 0, y))
	xMean = make([]float64, cols)
	if !fitIntercept {
		return Xc, yc, xMean, 0
	}

	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += Xc.At(i, j)
		}
		xMean[j] = sum / float64(rows)
		for i := 0; i < rows; i++ {
			Xc.Set(i, j, Xc.At(i, j)-xMean[j])
		}
	}
	for i := 0; i < rows; i++ {
		yMean += yc.AtVec(i)
	}
	yMean /= float64(rows)
	for i := 0; i < rows; i++ {
		yc.SetVec(i, yc.AtVec(i)-yMean)
	}
	return Xc, yc, xMean, yMean
}

// interceptFor recovers the intercept of the uncentered problem.
func interceptFor(coef, xMean []float64, yMean float64, fitIntercept bool) float64 {
	if !fitIntercept {
		return 0
	}
	b := yMean
	for j, w := range coef {
		b -= w * xMean[j]
	}
	return b
}

// predictLinear computes X·coef + intercept after the shared checks.
func predictLinear(state *model.StateManager, name string, coef []float64, intercept float64, X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if err := state.RequirePredictable(name, cols); err != nil {
		return nil, err
	}

	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		pred := intercept
		for j := 0; j < cols; j++ {
			pred += X.At(i, j) * coef[j]
		}
		out.Set(i, 0, pred)
	}
	return out, nil
}

func score(p model.Predictor, X, y mat.Matrix) (float64, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

func copyCoef(coef []float64) []float64 {
	if coef == nil {
		return nil
	}
	out := make([]float64, len(coef))
	copy(out, coef)
	return out
}

package linear_model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// LinearRegression is a linear regression model using ordinary least squares.
//
// The solution is the minimum-norm least squares fit computed from an SVD of
// the centered design matrix, matching scikit-learn on rank-deficient inputs
// such as a full one-hot block.
type LinearRegression struct {
	State *model.StateManager

	// Hyperparameters
	FitIntercept bool

	// Learned parameters
	Coef []float64
	Bias float64
	Rank int
}

var _ model.LinearModel = (*LinearRegression)(nil)

// NewLinearRegression は新しいLinearRegressionモデルを作成
func NewLinearRegression(options ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{
		State:        model.NewStateManager(),
		FitIntercept: true,
	}
	for _, opt := range options {
		opt(lr)
	}
	return lr
}

// LinearRegressionOption は設定オプション
type LinearRegressionOption func(*LinearRegression)

// WithLRFitIntercept は切片の学習有無を設定（LinearRegression用）
func WithLRFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.FitIntercept = fit
	}
}

// Fit はモデルを訓練データで学習
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	rows, cols, err := checkFitInput("LinearRegression.Fit", X, y)
	if err != nil {
		return err
	}

	Xc, yc, xMean, yMean := centerData(X, y, lr.FitIntercept)

	var svd mat.SVD
	if ok := svd.Factorize(Xc, mat.SVDThin); !ok {
		return errors.NewModelError("LinearRegression.Fit", "SVD did not converge", errors.ErrSingularMatrix)
	}

	// numpy.linalg.lstsq の既定と同じ打ち切り
	rcond := math.Nextafter(1, 2) - 1
	rcond *= float64(max(rows, cols))
	lr.Rank = svd.Rank(rcond)
	if lr.Rank == 0 {
		lr.Coef = make([]float64, cols)
	} else {
		var coef mat.Dense
		svd.SolveTo(&coef, yc, lr.Rank)
		lr.Coef = mat.Col(nil, 0, &coef)
	}
	lr.Bias = interceptFor(lr.Coef, xMean, yMean, lr.FitIntercept)

	lr.State.SetDimensions(cols, rows)
	lr.State.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	return predictLinear(lr.State, "LinearRegression", lr.Coef, lr.Bias, X)
}

// Score はモデルの決定係数（R²）を計算
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	return score(lr, X, y)
}

// Weights は学習された重み係数を返す
func (lr *LinearRegression) Weights() []float64 {
	return copyCoef(lr.Coef)
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	return lr.Bias
}

// String returns the string representation of the model
func (lr *LinearRegression) String() string {
	if !lr.State.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t)", lr.FitIntercept)
	}
	nFeatures, _ := lr.State.GetDimensions()
	return fmt.Sprintf("LinearRegression(fit_intercept=%t, n_features=%d, rank=%d)",
		lr.FitIntercept, nFeatures, lr.Rank)
}

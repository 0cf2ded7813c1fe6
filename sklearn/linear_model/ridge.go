package linear_model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// Ridge is linear least squares with an L2 penalty on the coefficients.
// The intercept is not penalised.
//
//	minimize ||y - Xw||² + Alpha·||w||²
type Ridge struct {
	State *model.StateManager

	Alpha        float64
	FitIntercept bool

	Coef []float64
	Bias float64
}

var _ model.LinearModel = (*Ridge)(nil)

// RidgeOption は Ridge の設定オプション
type RidgeOption func(*Ridge)

// WithRidgeAlpha は正則化の強さを設定
func WithRidgeAlpha(alpha float64) RidgeOption {
	return func(r *Ridge) { r.Alpha = alpha }
}

// WithRidgeFitIntercept は切片の学習有無を設定
func WithRidgeFitIntercept(fit bool) RidgeOption {
	return func(r *Ridge) { r.FitIntercept = fit }
}

// NewRidge creates a Ridge regressor with Alpha=1.
func NewRidge(options ...RidgeOption) *Ridge {
	r := &Ridge{
		State:        model.NewStateManager(),
		Alpha:        1.0,
		FitIntercept: true,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Fit solves (XᵀX + αI)w = Xᵀy on centered data with a Cholesky factorization.
func (r *Ridge) Fit(X, y mat.Matrix) error {
	if r.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", r.Alpha)
	}
	rows, cols, err := checkFitInput("Ridge.Fit", X, y)
	if err != nil {
		return err
	}

	Xc, yc, xMean, yMean := centerData(X, y, r.FitIntercept)

	gram := mat.NewSymDense(cols, nil)
	gram.SymOuterK(1, Xc.T())
	for j := 0; j < cols; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Alpha)
	}

	var rhs mat.VecDense
	rhs.MulVec(Xc.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return errors.NewModelError("Ridge.Fit", "normal equations are not positive definite", errors.ErrSingularMatrix)
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return errors.NewModelError("Ridge.Fit", "cholesky solve failed", err)
	}

	r.Coef = mat.Col(nil, 0, &w)
	r.Bias = interceptFor(r.Coef, xMean, yMean, r.FitIntercept)

	r.State.SetDimensions(cols, rows)
	r.State.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	return predictLinear(r.State, "Ridge", r.Coef, r.Bias, X)
}

// Score はモデルの決定係数（R²）を計算
func (r *Ridge) Score(X, y mat.Matrix) (float64, error) {
	return score(r, X, y)
}

// Weights は学習された重み係数を返す
func (r *Ridge) Weights() []float64 { return copyCoef(r.Coef) }

// Intercept は学習された切片を返す
func (r *Ridge) Intercept() float64 { return r.Bias }

func (r *Ridge) String() string {
	return fmt.Sprintf("Ridge(alpha=%g, fit_intercept=%t)", r.Alpha, r.FitIntercept)
}

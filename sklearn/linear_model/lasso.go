package linear_model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// Lasso is linear least squares with an L1 penalty, fitted by cyclic
// coordinate descent.
//
//	minimize (1 / (2·n))·||y - Xw||² + Alpha·||w||₁
//
// Iteration stops once the largest coefficient update relative to the largest
// coefficient falls under Tol and the duality gap is below Tol·||y||². When
// MaxIter is reached first a ConvergenceWarning is emitted and the current
// coefficients are kept.
type Lasso struct {
	State *model.StateManager

	Alpha        float64
	FitIntercept bool
	MaxIter      int
	Tol          float64

	Coef  []float64
	Bias  float64
	NIter int
	Gap   float64
}

var _ model.LinearModel = (*Lasso)(nil)

// LassoOption は Lasso の設定オプション
type LassoOption func(*Lasso)

// WithLassoAlpha は正則化の強さを設定
func WithLassoAlpha(alpha float64) LassoOption {
	return func(l *Lasso) { l.Alpha = alpha }
}

// WithLassoMaxIter は最大反復回数を設定
func WithLassoMaxIter(n int) LassoOption {
	return func(l *Lasso) { l.MaxIter = n }
}

// WithLassoTol は収束判定の許容誤差を設定
func WithLassoTol(tol float64) LassoOption {
	return func(l *Lasso) { l.Tol = tol }
}

// NewLasso creates a Lasso regressor with Alpha=1, MaxIter=1000, Tol=1e-4.
func NewLasso(options ...LassoOption) *Lasso {
	l := &Lasso{
		State:        model.NewStateManager(),
		Alpha:        1.0,
		FitIntercept: true,
		MaxIter:      1000,
		Tol:          1e-4,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Fit はモデルを訓練データで学習
func (l *Lasso) Fit(X, y mat.Matrix) error {
	if l.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", l.Alpha)
	}
	if l.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", l.MaxIter)
	}
	rows, cols, err := checkFitInput("Lasso.Fit", X, y)
	if err != nil {
		return err
	}

	Xc, yc, xMean, yMean := centerData(X, y, l.FitIntercept)

	columns := make([][]float64, cols)
	normCols := make([]float64, cols)
	for j := range columns {
		columns[j] = mat.Col(nil, j, Xc)
		normCols[j] = floats.Dot(columns[j], columns[j])
	}
	yv := mat.Col(nil, 0, yc)

	w := make([]float64, cols)
	residual := make([]float64, rows)
	copy(residual, yv)

	l1 := l.Alpha * float64(rows)
	tol := l.Tol * floats.Dot(yv, yv)

	converged := false
	l.NIter = 0
	for iter := 0; iter < l.MaxIter; iter++ {
		l.NIter = iter + 1
		var wMax, dwMax float64
		for j := 0; j < cols; j++ {
			if normCols[j] == 0 {
				continue
			}
			wOld := w[j]
			if wOld != 0 {
				floats.AddScaled(residual, wOld, columns[j])
			}
			tmp := floats.Dot(columns[j], residual)
			w[j] = softThreshold(tmp, l1) / normCols[j]
			if w[j] != 0 {
				floats.AddScaled(residual, -w[j], columns[j])
			}
			dwMax = math.Max(dwMax, math.Abs(w[j]-wOld))
			wMax = math.Max(wMax, math.Abs(w[j]))
		}

		if wMax == 0 || dwMax/wMax < l.Tol || iter == l.MaxIter-1 {
			l.Gap = dualityGap(columns, residual, yv, w, l1)
			if l.Gap < tol {
				converged = true
				break
			}
		}
	}
	if err := errors.CheckNumericalStability("Lasso.Fit", w, l.NIter); err != nil {
		return err
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("Lasso", l.NIter,
			fmt.Sprintf("duality gap %.3g above tolerance %.3g", l.Gap, tol)))
	}

	l.Coef = w
	l.Bias = interceptFor(w, xMean, yMean, l.FitIntercept)
	l.State.SetDimensions(cols, rows)
	l.State.SetFitted()
	return nil
}

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	default:
		return 0
	}
}

// dualityGap evaluates the Lasso duality gap for the current residual.
func dualityGap(columns [][]float64, residual, y, w []float64, l1 float64) float64 {
	var dualNorm float64
	for _, col := range columns {
		dualNorm = math.Max(dualNorm, math.Abs(floats.Dot(col, residual)))
	}
	rNorm2 := floats.Dot(residual, residual)

	scale := 1.0
	gap := rNorm2
	if dualNorm > l1 {
		scale = l1 / dualNorm
		gap = 0.5 * (rNorm2 + rNorm2*scale*scale)
	}
	var l1Norm float64
	for _, v := range w {
		l1Norm += math.Abs(v)
	}
	return gap + l1*l1Norm - scale*floats.Dot(residual, y)
}

// Predict は入力データに対する予測を行う
func (l *Lasso) Predict(X mat.Matrix) (mat.Matrix, error) {
	return predictLinear(l.State, "Lasso", l.Coef, l.Bias, X)
}

// Score はモデルの決定係数（R²）を計算
func (l *Lasso) Score(X, y mat.Matrix) (float64, error) {
	return score(l, X, y)
}

// Weights は学習された重み係数を返す
func (l *Lasso) Weights() []float64 { return copyCoef(l.Coef) }

// Intercept は学習された切片を返す
func (l *Lasso) Intercept() float64 { return l.Bias }

func (l *Lasso) String() string {
	return fmt.Sprintf("Lasso(alpha=%g, max_iter=%d, tol=%g)", l.Alpha, l.MaxIter, l.Tol)
}

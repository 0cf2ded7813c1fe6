// Package svm implements epsilon-support vector regression with an RBF
// kernel, solved by sequential minimal optimization.
package svm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/core/parallel"
	"github.com/YuminosukeSato/aurora/metrics"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

const tau = 1e-12

// GammaScale selects gamma = 1 / (n_features * Var(X)) at fit time.
const GammaScale = 0

// MaxKernelRows caps the training rows Fit accepts. The Gram matrix is held
// densely, n×n float64 values, so the cap bounds it at 800 MB.
const MaxKernelRows = 10000

// SVR is an epsilon-insensitive support vector regressor with RBF kernel.
// Fit precomputes the full kernel matrix instead of caching rows, so memory
// grows with the square of the training rows (see MaxKernelRows).
type SVR struct {
	State *model.StateManager

	C       float64
	Epsilon float64
	// Gamma of GammaScale is resolved from the training data.
	Gamma   float64
	Tol     float64
	MaxIter int

	// SupportVectors is row-major, NSupport rows of NFeatures values.
	SupportVectors []float64
	DualCoef       []float64
	Intercept      float64
	NSupport       int
	FittedGamma    float64
	NIter          int
}

var _ model.Regressor = (*SVR)(nil)

// Option は SVR の設定オプション
type Option func(*SVR)

// WithC sets the regularization parameter.
func WithC(c float64) Option {
	return func(s *SVR) { s.C = c }
}

// WithEpsilon sets the width of the insensitive tube.
func WithEpsilon(eps float64) Option {
	return func(s *SVR) { s.Epsilon = eps }
}

// WithGamma fixes the RBF kernel coefficient.
func WithGamma(gamma float64) Option {
	return func(s *SVR) { s.Gamma = gamma }
}

// WithTol sets the stopping tolerance on the maximal KKT violation.
func WithTol(tol float64) Option {
	return func(s *SVR) { s.Tol = tol }
}

// WithMaxIter caps the number of SMO steps. 0 picks a bound from the
// training size.
func WithMaxIter(n int) Option {
	return func(s *SVR) { s.MaxIter = n }
}

// NewSVR creates an SVR with C=1, epsilon=0.1 and gamma="scale".
func NewSVR(options ...Option) *SVR {
	s := &SVR{
		State:   model.NewStateManager(),
		C:       1,
		Epsilon: 0.1,
		Gamma:   GammaScale,
		Tol:     1e-3,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func rbf(gamma float64, a, b []float64) float64 {
	var d float64
	for k := range a {
		diff := a[k] - b[k]
		d += diff * diff
	}
	return math.Exp(-gamma * d)
}

func scaleGamma(data []float64, nFeatures int) float64 {
	_, variance := stat.PopMeanVariance(data, nil)
	if variance == 0 {
		return 1
	}
	return 1 / (float64(nFeatures) * variance)
}

// Fit solves the dual problem over the 2n variables alpha+ and alpha-.
func (s *SVR) Fit(X, y mat.Matrix) error {
	if s.C <= 0 {
		return errors.NewValidationError("C", "must be positive", s.C)
	}
	if s.Epsilon < 0 {
		return errors.NewValidationError("epsilon", "must be non-negative", s.Epsilon)
	}
	if s.Gamma < 0 {
		return errors.NewValidationError("gamma", "must be non-negative", s.Gamma)
	}
	n, p := X.Dims()
	yRows, yCols := y.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("SVR.Fit", "empty data", errors.ErrEmptyData)
	}
	if n != yRows {
		return errors.NewDimensionError("SVR.Fit", n, yRows, 0)
	}
	if n > MaxKernelRows {
		return errors.NewValidationError("X", "too many training rows for a dense kernel", n)
	}
	if yCols != 1 {
		return errors.NewDimensionError("SVR.Fit", 1, yCols, 1)
	}

	data := make([]float64, n*p)
	for i := 0; i < n; i++ {
		mat.Row(data[i*p:(i+1)*p], i, X)
	}
	target := mat.Col(nil, 0, y)

	gamma := s.Gamma
	if gamma == GammaScale {
		gamma = scaleGamma(data, p)
	}

	kernel := make([]float64, n*n)
	parallel.ParallelizeWithThreshold(n, 64, func(start, end int) {
		for i := start; i < end; i++ {
			xi := data[i*p : (i+1)*p]
			for j := 0; j < n; j++ {
				kernel[i*n+j] = rbf(gamma, xi, data[j*p:(j+1)*p])
			}
		}
	})

	sol := newSolver(kernel, target, n, s.C, s.Epsilon, s.Tol)
	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = max(10_000_000, 100*2*n)
	}
	iter, converged := sol.solve(maxIter)
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("SVR", iter, "maximum number of iterations reached"))
	}

	s.SupportVectors = s.SupportVectors[:0]
	s.DualCoef = s.DualCoef[:0]
	for i := 0; i < n; i++ {
		coef := sol.alpha[i] - sol.alpha[i+n]
		if coef != 0 {
			s.SupportVectors = append(s.SupportVectors, data[i*p:(i+1)*p]...)
			s.DualCoef = append(s.DualCoef, coef)
		}
	}
	s.NSupport = len(s.DualCoef)
	s.Intercept = -sol.rho()
	s.FittedGamma = gamma
	s.NIter = iter
	if err := errors.CheckScalar("SVR.Fit", s.Intercept, iter); err != nil {
		return err
	}

	s.State.SetDimensions(p, n)
	s.State.SetFitted()
	return nil
}

// Predict evaluates sum(dual_coef * K(sv, x)) + intercept for every row.
func (s *SVR) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if err := s.State.RequirePredictable("SVR", cols); err != nil {
		return nil, err
	}
	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, 64, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			v := s.Intercept
			for k, coef := range s.DualCoef {
				v += coef * rbf(s.FittedGamma, s.SupportVectors[k*cols:(k+1)*cols], row)
			}
			out[i] = v
		}
	})
	return mat.NewDense(rows, 1, out), nil
}

// Score はモデルの決定係数（R²）を計算
func (s *SVR) Score(X, y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

func (s *SVR) String() string {
	gamma := "scale"
	if s.Gamma != GammaScale {
		gamma = fmt.Sprintf("%g", s.Gamma)
	}
	return fmt.Sprintf("SVR(kernel=rbf, C=%g, epsilon=%g, gamma=%s)", s.C, s.Epsilon, gamma)
}

package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/pkg/errors"
)

func sineData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := 6 * float64(i) / float64(n-1)
		X.Set(i, 0, x)
		y.Set(i, 0, math.Sin(x))
	}
	return X, y
}

func TestSVR_FitsSine(t *testing.T) {
	X, y := sineData(60)

	svr := NewSVR(WithC(10), WithGamma(1))
	require.NoError(t, svr.Fit(X, y))

	r2, err := svr.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.95)
	assert.Greater(t, svr.NSupport, 0)
	assert.LessOrEqual(t, svr.NSupport, 60)
	assert.Len(t, svr.SupportVectors, svr.NSupport)
}

func TestSVR_DualCoefBoxed(t *testing.T) {
	X, y := sineData(40)

	svr := NewSVR()
	require.NoError(t, svr.Fit(X, y))
	var sum float64
	for _, c := range svr.DualCoef {
		assert.LessOrEqual(t, math.Abs(c), svr.C+1e-12)
		sum += c
	}
	// Equality constraint of the dual.
	assert.InDelta(t, 0, sum, 1e-8)
}

func TestSVR_WideTubeHasNoSupportVectors(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{2, 2.01, 2, 1.99, 2})

	svr := NewSVR(WithEpsilon(1))
	require.NoError(t, svr.Fit(X, y))
	assert.Equal(t, 0, svr.NSupport)

	pred, err := svr.Predict(mat.NewDense(1, 1, []float64{3}))
	require.NoError(t, err)
	assert.InDelta(t, 2, pred.At(0, 0), 1)
}

func TestSVR_GammaScale(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{0, 0, 1, 1, 2, 2, 3, 3})
	y := mat.NewDense(4, 1, []float64{0, 1, 2, 3})

	svr := NewSVR()
	require.NoError(t, svr.Fit(X, y))
	// Var of {0,0,1,1,2,2,3,3} is 1.25.
	assert.InDelta(t, 1/(2*1.25), svr.FittedGamma, 1e-12)
}

func TestSVR_Deterministic(t *testing.T) {
	X, y := sineData(50)
	a, b := NewSVR(), NewSVR()
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	assert.Equal(t, a.DualCoef, b.DualCoef)
	assert.Equal(t, a.Intercept, b.Intercept)
}

func TestSVR_Errors(t *testing.T) {
	X, y := sineData(10)

	_, err := NewSVR().Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = NewSVR(WithC(0)).Fit(X, y)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))

	svr := NewSVR()
	require.NoError(t, svr.Fit(X, y))
	_, err = svr.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestSVR_RejectsOversizedKernel(t *testing.T) {
	n := MaxKernelRows + 1
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)

	err := NewSVR().Fit(X, y)
	require.Error(t, err)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "X", ve.ParamName)
	assert.Equal(t, n, ve.Value)
}

func TestSVR_ConvergenceWarning(t *testing.T) {
	X, y := sineData(30)

	var warnings []error
	errors.SetZerologWarnFunc(func(w error) { warnings = append(warnings, w) })
	defer errors.SetZerologWarnFunc(nil)

	svr := NewSVR(WithMaxIter(1))
	require.NoError(t, svr.Fit(X, y))
	require.NotEmpty(t, warnings)
	var cw *errors.ConvergenceWarning
	assert.True(t, errors.As(warnings[0], &cw))
}

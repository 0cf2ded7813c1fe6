package tree

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// TestDecisionTreeRegressor_StepFunction tests that a single split recovers a step
func TestDecisionTreeRegressor_StepFunction(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{5, 5, 5, 20, 20, 20})

	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))

	require.Len(t, dt.Nodes, 3)
	root := dt.Nodes[0]
	assert.Equal(t, 0, root.SplitFeature)
	assert.Equal(t, 6.5, root.Threshold)
	assert.Equal(t, 2, dt.NLeaves())
	assert.Equal(t, 1, dt.Depth)

	pred, err := dt.Predict(mat.NewDense(3, 1, []float64{0, 6.5, 100}))
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 20}, mat.Col(nil, 0, pred))
}

// TestDecisionTreeRegressor_Memorizes tests that an unlimited tree fits distinct points exactly
func TestDecisionTreeRegressor_Memorizes(t *testing.T) {
	n := 40
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, math.Mod(float64(i)*7, 13))
		y.Set(i, 0, math.Sin(float64(i)))
	}

	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))

	r2, err := dt.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r2, 1e-12)
	assert.Equal(t, n, dt.NLeaves())
}

func TestDecisionTreeRegressor_MaxDepth(t *testing.T) {
	n := 64
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i*i))
	}

	dt := NewDecisionTreeRegressor(WithMaxDepth(3))
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, 3, dt.Depth)
	assert.LessOrEqual(t, dt.NLeaves(), 8)
}

func TestDecisionTreeRegressor_MinSamplesLeaf(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 0, 0, 100})

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(2))
	require.NoError(t, dt.Fit(X, y))
	for _, node := range dt.Nodes {
		if node.IsLeaf() {
			assert.GreaterOrEqual(t, node.NSamples, 2)
		}
	}
}

func TestDecisionTreeRegressor_FeatureImportances(t *testing.T) {
	// only column 1 carries signal
	X := mat.NewDense(8, 2, []float64{
		5, 0,
		3, 0,
		5, 0,
		3, 0,
		5, 1,
		3, 1,
		5, 1,
		3, 1,
	})
	y := mat.NewDense(8, 1, []float64{1, 1, 1, 1, 9, 9, 9, 9})

	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))
	assert.InDeltaSlice(t, []float64{0, 1}, dt.FeatureImportances, 1e-12)
}

func TestDecisionTreeRegressor_FitColumnsWithRepeats(t *testing.T) {
	cols := Columns{{1, 2, 3, 4}}
	y := []float64{1, 2, 3, 4}

	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.FitColumns(cols, y, []int{0, 0, 3, 3}))
	assert.Equal(t, 1.0, dt.PredictRow([]float64{1.5}))
	assert.Equal(t, 4.0, dt.PredictRow([]float64{3.5}))
}

func TestDecisionTreeRegressor_Errors(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	_, err := dt.Predict(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = NewDecisionTreeRegressor(WithMinSamplesSplit(1)).Fit(
		mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	require.NoError(t, dt.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2})))
	_, err = dt.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestDecisionTreeRegressor_GobRoundTrip(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{5, 5, 5, 20, 20, 20})
	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))

	path := filepath.Join(t.TempDir(), "tree.gob")
	require.NoError(t, model.SaveModel(dt, path))

	var loaded DecisionTreeRegressor
	require.NoError(t, model.LoadModel(&loaded, path))

	want, err := dt.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}

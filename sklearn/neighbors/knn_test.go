package neighbors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/pkg/errors"
)

func TestKNeighborsRegressor(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 20, 30})

	knn := NewKNeighborsRegressor(WithNeighbors(3))
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(2, 1, []float64{1, 11}))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, pred.At(0, 0), 1e-12)
	assert.InDelta(t, 20.0, pred.At(1, 0), 1e-12)
}

func TestKNeighborsRegressor_TiesByTrainingOrder(t *testing.T) {
	// query 0 is equidistant from -1 and 1; the earlier sample wins
	X := mat.NewDense(3, 1, []float64{1, -1, 5})
	y := mat.NewDense(3, 1, []float64{10, 20, 30})

	knn := NewKNeighborsRegressor(WithNeighbors(1))
	require.NoError(t, knn.Fit(X, y))
	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{0}))
	require.NoError(t, err)
	assert.Equal(t, 10.0, pred.At(0, 0))
}

func TestKNeighborsRegressor_ParallelMatchesSequential(t *testing.T) {
	n := 200
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i%17))
		X.Set(i, 1, float64(i%5))
		y.Set(i, 0, float64(i))
	}
	knn := NewKNeighborsRegressor()
	require.NoError(t, knn.Fit(X, y))

	all, err := knn.Predict(X)
	require.NoError(t, err)
	for _, i := range []int{0, 57, 199} {
		one, err := knn.Predict(mat.NewDense(1, 2, mat.Row(nil, i, X)))
		require.NoError(t, err)
		assert.Equal(t, one.At(0, 0), all.At(i, 0))
	}
}

func TestKNeighborsRegressor_Errors(t *testing.T) {
	knn := NewKNeighborsRegressor()
	_, err := knn.Predict(mat.NewDense(1, 1, []float64{0}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = knn.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{1, 2, 3}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve), "k larger than the training set")
}

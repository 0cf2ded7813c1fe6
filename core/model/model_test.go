package model

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/aurora/pkg/errors"
)

type savedState struct {
	Name  string
	Coef  []float64
	State *StateManager
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()

	err := s.RequireFitted("Ridge", "Predict")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Ridge", nf.ModelName)

	s.SetDimensions(19, 800)
	s.SetFitted()
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequirePredictable("Ridge", 19))

	err = s.RequirePredictable("Ridge", 7)
	var de *errors.DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 19, de.Expected)
	assert.Equal(t, 7, de.Got)

	s.Reset()
	assert.False(t, s.IsFitted())
	nFeatures, nSamples := s.GetDimensions()
	assert.Zero(t, nFeatures)
	assert.Zero(t, nSamples)
}

func TestSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")

	in := savedState{Name: "Lasso", Coef: []float64{0.5, -1.25}, State: NewStateManager()}
	in.State.SetDimensions(2, 10)
	in.State.SetFitted()
	require.NoError(t, SaveModel(&in, path))

	var out savedState
	require.NoError(t, LoadModel(&out, path))
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Coef, out.Coef)
	assert.True(t, out.State.IsFitted())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoadModelErrors(t *testing.T) {
	dir := t.TempDir()

	var out savedState
	err := LoadModel(&out, filepath.Join(dir, "missing.gob"))
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))

	garbage := filepath.Join(dir, "garbage.gob")
	require.NoError(t, os.WriteFile(garbage, []byte("not gob"), 0o600))
	err = LoadModel(&out, garbage)
	assert.Equal(t, errors.KindIO, errors.KindOf(err))
}

func TestWriteFileAtomicKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o600))

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("encoder failed")
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindIO, errors.KindOf(err))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))
}

package pipeline

import (
	"encoding/gob"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/aurora/config"
	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/dataset"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

func init() {
	gob.Register(&leakRegressor{})
}

// leakRegressor predicts A*x0 + (1-A)*mean(x0) over the rows it is given.
// With x0 equal to the target this scores exactly R² = 1-(1-A)².
type leakRegressor struct {
	A      float64
	Fitted bool
}

func leakFor(r2 float64) float64 { return 1 - math.Sqrt(1-r2) }

func (l *leakRegressor) Fit(X, y mat.Matrix) error {
	l.Fitted = true
	return nil
}

func (l *leakRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !l.Fitted {
		return nil, errors.NewNotFittedError("leakRegressor", "Predict")
	}
	x0 := mat.Col(nil, 0, X)
	mean := stat.Mean(x0, nil)
	out := make([]float64, len(x0))
	for i, v := range x0 {
		out[i] = l.A*v + (1-l.A)*mean
	}
	return mat.NewDense(len(out), 1, out), nil
}

func (l *leakRegressor) Score(X, y mat.Matrix) (float64, error) {
	return 0, nil
}

// panicRegressor panics from Fit.
type panicRegressor struct{ leakRegressor }

func (p *panicRegressor) Fit(X, y mat.Matrix) error { panic("index out of range") }

// nanRegressor predicts NaN.
type nanRegressor struct{ leakRegressor }

func (n *nanRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, math.NaN())
	}
	return out, nil
}

func leakCandidate(name string, r2 float64) Candidate {
	a := leakFor(r2)
	return Candidate{Name: name, New: func() model.Regressor { return &leakRegressor{A: a} }}
}

// leakMatrices returns train and test matrices whose first feature equals
// the target, which is also the last column.
func leakMatrices(nTrain, nTest int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(1, 2))
	build := func(n int) *mat.Dense {
		m := mat.NewDense(n, 3, nil)
		for i := 0; i < n; i++ {
			y := rng.Float64() * 100
			m.Set(i, 0, y)
			m.Set(i, 1, rng.NormFloat64())
			m.Set(i, 2, y)
		}
		return m
	}
	return build(nTrain), build(nTest)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Artifacts.Dir = filepath.Join(t.TempDir(), "artifacts")
	return cfg
}

// syntheticRecords draws n students whose math score is the rounded mean of
// the reading and writing scores.
func syntheticRecords(n int, seed uint64) []dataset.Record {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	pick := func(values []string) string { return values[rng.IntN(len(values))] }
	out := make([]dataset.Record, n)
	for i := range out {
		reading := 20 + rng.IntN(81)
		writing := 20 + rng.IntN(81)
		out[i] = dataset.Record{
			Gender:                   pick(dataset.Genders),
			RaceEthnicity:            pick(dataset.RaceEthnicities),
			ParentalLevelOfEducation: pick(dataset.ParentalEducationLevels),
			Lunch:                    pick(dataset.Lunches),
			TestPreparationCourse:    pick(dataset.TestPreparationCourses),
			ReadingScore:             reading,
			WritingScore:             writing,
			MathScore:                int(math.Round(0.5*float64(reading) + 0.5*float64(writing))),
		}
	}
	return out
}

func writeDataset(t *testing.T, records []dataset.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stud.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, dataset.WriteCSV(f, records))
	return path
}

func sampleInput() dataset.Record {
	return dataset.Record{
		Gender:                   "female",
		RaceEthnicity:            "group C",
		ParentalLevelOfEducation: "some college",
		Lunch:                    "standard",
		TestPreparationCourse:    "none",
		ReadingScore:             80,
		WritingScore:             90,
	}
}

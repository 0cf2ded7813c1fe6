package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/pkg/log"
)

func TestReport_Best(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{"first of ties", Report{{Name: "A", TestR2: 0.5}, {Name: "B", TestR2: 0.82}, {Name: "C", TestR2: 0.82}}, "B"},
		{"strictly greater later", Report{{Name: "A", TestR2: 0.7}, {Name: "B", TestR2: 0.71}}, "B"},
		{"single", Report{{Name: "A", TestR2: -3}}, "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok := tt.report.Best()
			require.True(t, ok)
			assert.Equal(t, tt.want, best.Name)
		})
	}

	_, ok := Report{}.Best()
	assert.False(t, ok)

	s, ok := Report{{Name: "A", TestR2: 0.5}}.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, 0.5, s.TestR2)
	_, ok = Report{}.Lookup("A")
	assert.False(t, ok)
}

func TestModelTrainer_SelectsFirstOfTies(t *testing.T) {
	cfg := testConfig(t)
	panel := []Candidate{leakCandidate("A", 0.5), leakCandidate("B", 0.82), leakCandidate("C", 0.82)}
	trainM, testM := leakMatrices(50, 20)

	trainer := NewModelTrainer(cfg, log.Nop(), WithPanel(panel), WithRunID("run-1"))
	res, err := trainer.TrainWithReport(context.Background(), trainM, testM)
	require.NoError(t, err)

	assert.Equal(t, "B", res.Artifact.Name)
	assert.InDelta(t, 0.82, res.Score, 1e-9)
	require.Len(t, res.Report, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{res.Report[0].Name, res.Report[1].Name, res.Report[2].Name})

	var stored ModelArtifact
	require.NoError(t, model.LoadModel(&stored, cfg.Artifacts.ModelPath()))
	assert.Equal(t, "B", stored.Name)
	assert.Equal(t, "run-1", stored.RunID)
	assert.Equal(t, 2, stored.NFeatures)
}

func TestModelTrainer_QualityGate(t *testing.T) {
	cfg := testConfig(t)
	panel := []Candidate{leakCandidate("A", 0.3), leakCandidate("B", 0.59)}
	trainM, testM := leakMatrices(50, 20)

	tl, _ := log.NewTestLogger(log.LevelDebug)
	score, err := NewModelTrainer(cfg, tl, WithPanel(panel)).Train(context.Background(), trainM, testM)
	require.Error(t, err)
	assert.Zero(t, score)
	assert.Equal(t, errors.KindInsufficientQuality, errors.KindOf(err))

	var qe *errors.InsufficientQualityError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "B", qe.BestModel)
	assert.InDelta(t, 0.59, qe.Score, 1e-9)
	assert.Equal(t, 0.6, qe.Threshold)

	assert.NoFileExists(t, cfg.Artifacts.ModelPath())
	assert.True(t, tl.ContainsMessage("No candidate reached the quality threshold"))
}

// constantTarget returns an n-row test matrix whose target, and the leaked
// first feature, are all equal to v.
func constantTarget(n int, v float64) *mat.Dense {
	m := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		m.Set(i, 0, v)
		m.Set(i, 1, float64(i%3)-1)
		m.Set(i, 2, v)
	}
	return m
}

func TestModelTrainer_ConstantTestTarget(t *testing.T) {
	var ridge Candidate
	for _, c := range DefaultPanel(1) {
		if c.Name == RidgeName {
			ridge = c
		}
	}
	require.NotNil(t, ridge.New)

	tests := []struct {
		name    string
		panel   []Candidate
		kind    errors.Kind
		wantR2  float64
	}{
		{"inexact fit scores zero and fails the gate", []Candidate{ridge}, errors.KindInsufficientQuality, 0},
		{"exact fit scores one", []Candidate{ridge, leakCandidate("Mean", 0)}, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			trainM, _ := leakMatrices(50, 1)

			res, err := NewModelTrainer(cfg, log.Nop(), WithPanel(tt.panel)).
				TrainWithReport(context.Background(), trainM, constantTarget(5, 70))
			if tt.kind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.kind, errors.KindOf(err))
				var qe *errors.InsufficientQualityError
				require.True(t, errors.As(err, &qe))
				assert.Equal(t, tt.wantR2, qe.Score)
				assert.NoFileExists(t, cfg.Artifacts.ModelPath())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantR2, res.Score)
			s, ok := res.Report.Lookup(RidgeName)
			require.True(t, ok)
			assert.Zero(t, s.TestR2)
			assert.FileExists(t, cfg.Artifacts.ModelPath())
		})
	}
}

func TestModelTrainer_ThresholdIsConfigurable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Trainer.MinR2 = 0.5
	trainM, testM := leakMatrices(30, 10)

	score, err := NewModelTrainer(cfg, log.Nop(), WithPanel([]Candidate{leakCandidate("A", 0.59)})).
		Train(context.Background(), trainM, testM)
	require.NoError(t, err)
	assert.InDelta(t, 0.59, score, 1e-9)
	assert.FileExists(t, cfg.Artifacts.ModelPath())
}

func TestModelTrainer_CandidateFailures(t *testing.T) {
	trainM, testM := leakMatrices(30, 10)

	tests := []struct {
		name  string
		panel []Candidate
		check func(t *testing.T, err error)
	}{
		{
			name:  "panic",
			panel: []Candidate{leakCandidate("A", 0.9), {Name: "P", New: func() model.Regressor { return &panicRegressor{} }}},
			check: func(t *testing.T, err error) {
				var pe *errors.PanicError
				require.True(t, errors.As(err, &pe))
				assert.Equal(t, "P.Fit", pe.Operation)
				assert.Equal(t, errors.KindInternal, errors.KindOf(err))
			},
		},
		{
			name:  "non-finite",
			panel: []Candidate{{Name: "N", New: func() model.Regressor { return &nanRegressor{leakRegressor{A: 1}} }}},
			check: func(t *testing.T, err error) {
				var ni *errors.NumericalInstabilityError
				require.True(t, errors.As(err, &ni))
			},
		},
		{
			name:  "duplicate",
			panel: []Candidate{leakCandidate("A", 0.9), leakCandidate("A", 0.8)},
			check: func(t *testing.T, err error) {
				assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))
			},
		},
		{
			name:  "empty panel",
			panel: []Candidate{},
			check: func(t *testing.T, err error) {
				assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			_, err := NewModelTrainer(cfg, log.Nop(), WithPanel(tt.panel)).Train(context.Background(), trainM, testM)
			require.Error(t, err)
			tt.check(t, err)
			assert.NoFileExists(t, cfg.Artifacts.ModelPath())
		})
	}
}

func TestModelTrainer_BadMatrices(t *testing.T) {
	cfg := testConfig(t)
	trainM, _ := leakMatrices(10, 1)
	trainer := NewModelTrainer(cfg, log.Nop(), WithPanel([]Candidate{leakCandidate("A", 0.9)}))

	_, err := trainer.Train(context.Background(), trainM, mat.NewDense(2, 2, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	_, err = trainer.Train(context.Background(), mat.NewDense(3, 1, nil), trainM)
	assert.True(t, errors.As(err, &dim))
}

func TestModelTrainer_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	trainM, testM := leakMatrices(10, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewModelTrainer(cfg, log.Nop(), WithPanel([]Candidate{leakCandidate("A", 0.9)})).Train(ctx, trainM, testM)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultPanelOrder(t *testing.T) {
	panel := DefaultPanel(42)
	names := make([]string, len(panel))
	for i, c := range panel {
		names[i] = c.Name
		assert.NotNil(t, c.New())
	}
	assert.Equal(t, []string{
		LinearRegressionName, RidgeName, LassoName, KNeighborsName, DecisionTreeName,
		RandomForestName, GradientBoostingName, AdaBoostName, SVRName,
	}, names)
}

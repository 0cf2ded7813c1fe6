package pipeline

import (
	"context"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/config"
	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/metrics"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/pkg/log"
	"github.com/YuminosukeSato/aurora/pkg/telemetry"
)

// ModelTrainer fits every candidate of the panel, keeps the one with the
// best held-out R² and persists it if it clears the quality gate.
type ModelTrainer struct {
	trainer   config.TrainerConfig
	artifacts config.ArtifactsConfig
	panel     []Candidate
	logger    log.Logger
	metrics   *telemetry.Metrics
	runID     string
	now       func() time.Time
}

// TrainerOption configures a ModelTrainer.
type TrainerOption func(*ModelTrainer)

// WithPanel replaces the default candidate panel.
func WithPanel(panel []Candidate) TrainerOption {
	return func(t *ModelTrainer) { t.panel = panel }
}

// WithTrainerMetrics records candidate scores in m.
func WithTrainerMetrics(m *telemetry.Metrics) TrainerOption {
	return func(t *ModelTrainer) { t.metrics = m }
}

// WithRunID stamps the artifact and log lines with id.
func WithRunID(id string) TrainerOption {
	return func(t *ModelTrainer) { t.runID = id }
}

// NewModelTrainer creates a trainer over DefaultPanel(cfg.Trainer.RandomState).
func NewModelTrainer(cfg config.Config, logger log.Logger, opts ...TrainerOption) *ModelTrainer {
	if logger == nil {
		logger = log.GetLoggerWithName("trainer")
	}
	t := &ModelTrainer{
		trainer:   cfg.Trainer,
		artifacts: cfg.Artifacts,
		panel:     DefaultPanel(cfg.Trainer.RandomState),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TrainResult is the outcome of a successful training.
type TrainResult struct {
	Report   Report
	Artifact *ModelArtifact
	// Score is the winner's test R² recomputed from the persisted model.
	Score float64
	// RMSE and MAE are the winner's held-out errors in score points.
	RMSE, MAE float64
	// TestTarget and TestPredictions are the winner's held-out fit.
	TestTarget      []float64
	TestPredictions []float64
}

// Train returns the winner's test R² or an InsufficientQualityError when no
// candidate reaches the threshold, in which case nothing is written.
func (t *ModelTrainer) Train(ctx context.Context, trainM, testM mat.Matrix) (float64, error) {
	res, err := t.TrainWithReport(ctx, trainM, testM)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// TrainWithReport is Train that also returns the report and the artifact.
func (t *ModelTrainer) TrainWithReport(ctx context.Context, trainM, testM mat.Matrix) (*TrainResult, error) {
	XTrain, yTrain, err := splitMatrix(trainM)
	if err != nil {
		return nil, errors.Wrap(err, "train matrix")
	}
	XTest, yTest, err := splitMatrix(testM)
	if err != nil {
		return nil, errors.Wrap(err, "test matrix")
	}
	_, nFeatures := XTrain.Dims()
	if _, c := XTest.Dims(); c != nFeatures {
		return nil, errors.NewDimensionError("ModelTrainer.Train", nFeatures, c, 1)
	}

	logger := t.logger.With(log.PhaseKey, log.PhaseTraining)
	if t.runID != "" {
		logger = logger.With(log.RunIDKey, t.runID)
	}

	report, fitted, err := t.evaluate(ctx, logger, XTrain, yTrain, XTest, yTest)
	if err != nil {
		return nil, err
	}

	best, ok := report.Best()
	if !ok {
		return nil, errors.NewConfigurationError("trainer.panel", "no candidates configured")
	}
	if best.TestR2 < t.trainer.MinR2 {
		logger.Warn("No candidate reached the quality threshold",
			log.ModelNameKey, best.Name,
			log.R2ScoreKey, best.TestR2,
			log.ThresholdKey, t.trainer.MinR2,
		)
		return nil, errors.NewInsufficientQualityError(best.Name, best.TestR2, t.trainer.MinR2)
	}
	t.metrics.ObserveBest(best.TestR2)

	artifact := &ModelArtifact{
		Name:      best.Name,
		Model:     fitted[best.Name],
		TestR2:    best.TestR2,
		TrainR2:   best.TrainR2,
		RunID:     t.runID,
		NFeatures: nFeatures,
		TrainedAt: t.now().UTC(),
	}
	if err := ensureDir(t.artifacts.Dir); err != nil {
		return nil, err
	}
	path := t.artifacts.ModelPath()
	if err := model.SaveModel(artifact, path); err != nil {
		return nil, err
	}

	pred, err := artifact.Model.Predict(XTest)
	if err != nil {
		return nil, errors.Wrapf(err, "%s predict", best.Name)
	}
	score, err := r2(yTest, pred)
	if err != nil {
		return nil, errors.Wrap(err, "score selected model")
	}
	nTest, _ := yTest.Dims()
	yTrue := mat.NewVecDense(nTest, mat.Col(nil, 0, yTest))
	yPred := mat.NewVecDense(nTest, mat.Col(nil, 0, pred))
	rmse, err := metrics.RMSE(yTrue, yPred)
	if err != nil {
		return nil, errors.Wrap(err, "rmse of selected model")
	}
	mae, err := metrics.MAE(yTrue, yPred)
	if err != nil {
		return nil, errors.Wrap(err, "mae of selected model")
	}

	logger.Info("Model selected",
		log.ModelNameKey, best.Name,
		log.R2ScoreKey, score,
		log.TrainR2ScoreKey, best.TrainR2,
		log.RMSEKey, rmse,
		log.MAEKey, mae,
		log.ArtifactPathKey, path,
	)
	return &TrainResult{
		Report:          report,
		Artifact:        artifact,
		Score:           score,
		RMSE:            rmse,
		MAE:             mae,
		TestTarget:      yTrue.RawVector().Data,
		TestPredictions: yPred.RawVector().Data,
	}, nil
}

func splitMatrix(m mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	if m == nil {
		return nil, nil, errors.NewModelError("ModelTrainer.Train", "empty data", errors.ErrEmptyData)
	}
	r, c := m.Dims()
	if r == 0 || c < 2 {
		return nil, nil, errors.NewDimensionError("ModelTrainer.Train", 2, c, 1)
	}
	X := mat.NewDense(r, c-1, nil)
	X.Copy(m)
	y := mat.NewDense(r, 1, mat.Col(nil, c-1, m))
	return X, y, nil
}

// evaluate fits the panel in order and returns the report together with the
// fitted models by name.
func (t *ModelTrainer) evaluate(ctx context.Context, logger log.Logger, XTrain, yTrain, XTest, yTest *mat.Dense) (Report, map[string]model.Regressor, error) {
	report := make(Report, 0, len(t.panel))
	fitted := make(map[string]model.Regressor, len(t.panel))

	for _, c := range t.panel {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrap(err, "training cancelled")
		}
		if _, dup := fitted[c.Name]; dup {
			return nil, nil, errors.NewConfigurationError("trainer.panel", "duplicate candidate "+c.Name)
		}

		m := c.New()
		start := time.Now()
		err := errors.SafeExecute(c.Name+".Fit", func() error {
			return m.Fit(XTrain, yTrain)
		})
		elapsed := time.Since(start)
		if err != nil {
			logger.Error("Candidate failed to fit", err, log.ModelNameKey, c.Name)
			return nil, nil, errors.Wrapf(err, "fit %s", c.Name)
		}

		trainR2, err := scoreCandidate(c.Name, m, XTrain, yTrain)
		if err != nil {
			return nil, nil, err
		}
		testR2, err := scoreCandidate(c.Name, m, XTest, yTest)
		if err != nil {
			return nil, nil, err
		}

		report = append(report, Score{Name: c.Name, TrainR2: trainR2, TestR2: testR2, FitDuration: elapsed})
		fitted[c.Name] = m
		t.metrics.ObserveCandidate(c.Name, trainR2, testR2, elapsed)
		logger.Info("Candidate evaluated",
			log.ModelNameKey, c.Name,
			log.TrainR2ScoreKey, trainR2,
			log.R2ScoreKey, testR2,
			log.DurationMsKey, elapsed.Milliseconds(),
		)
	}
	return report, fitted, nil
}

func scoreCandidate(name string, m model.Regressor, X, y *mat.Dense) (float64, error) {
	var pred mat.Matrix
	err := errors.SafeExecute(name+".Predict", func() error {
		var err error
		pred, err = m.Predict(X)
		return err
	})
	if err != nil {
		return 0, errors.Wrapf(err, "predict %s", name)
	}
	r, c := pred.Dims()
	if err := errors.CheckMatrix(name+".Predict", pred, r, c, 0); err != nil {
		return 0, err
	}
	score, err := r2(y, pred)
	if err != nil {
		return 0, errors.Wrapf(err, "score %s", name)
	}
	return score, nil
}

// r2 is the coefficient of determination of pred against the column y. A
// constant y scores 1 for an exact fit and 0 otherwise, leaving the outcome
// to the quality gate.
func r2(y *mat.Dense, pred mat.Matrix) (float64, error) {
	col := mat.Col(nil, 0, y)
	if len(col) > 0 && floats.Min(col) == floats.Max(col) {
		mse, err := metrics.MSEMatrix(y, pred)
		if err != nil {
			return 0, err
		}
		if mse == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return metrics.R2ScoreMatrix(y, pred)
}

package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/config"
	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/features"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/pkg/log"
	"github.com/YuminosukeSato/aurora/pkg/telemetry"
	"github.com/YuminosukeSato/aurora/report"
)

// TrainPipeline runs ingestion, feature fitting and model selection in
// sequence.
type TrainPipeline struct {
	cfg     config.Config
	logger  log.Logger
	metrics *telemetry.Metrics
	opts    []TrainerOption
	newID   func() string
}

// TrainPipelineOption configures a TrainPipeline.
type TrainPipelineOption func(*TrainPipeline)

// WithMetrics records run metrics in m instead of a pipeline-owned registry.
func WithMetrics(m *telemetry.Metrics) TrainPipelineOption {
	return func(p *TrainPipeline) { p.metrics = m }
}

// WithTrainerOptions passes opts to the ModelTrainer of every run.
func WithTrainerOptions(opts ...TrainerOption) TrainPipelineOption {
	return func(p *TrainPipeline) { p.opts = append(p.opts, opts...) }
}

// NewTrainPipeline creates a pipeline for cfg.
func NewTrainPipeline(cfg config.Config, logger log.Logger, opts ...TrainPipelineOption) *TrainPipeline {
	if logger == nil {
		logger = log.GetLoggerWithName("train")
	}
	p := &TrainPipeline{cfg: cfg, logger: logger, newID: uuid.NewString}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil && cfg.Report.MetricsFile != "" {
		p.metrics = telemetry.New()
	}
	return p
}

// Run trains on the dataset at source and returns the selected model's test
// R². Artifacts of completed stages stay on disk when a later stage fails.
func (p *TrainPipeline) Run(ctx context.Context, source string) (float64, error) {
	res, err := p.RunWithReport(ctx, source)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// RunWithReport is Run that also returns the candidate report.
func (p *TrainPipeline) RunWithReport(ctx context.Context, source string) (res *TrainResult, err error) {
	runID := p.newID()
	logger := p.logger.With(log.RunIDKey, runID)
	start := time.Now()

	defer func() {
		outcome := telemetry.OutcomeSuccess
		if err != nil {
			outcome = telemetry.OutcomeFailure
			logger.Error("Training failed", err, log.ErrorKindKey, string(errors.KindOf(err)))
		}
		p.metrics.ObserveRun(outcome)
		if path := p.cfg.Report.MetricsFile; path != "" {
			if werr := p.metrics.WriteTextfile(path); werr != nil {
				logger.Warn("Could not write metrics file", werr)
			}
		}
	}()

	logger.Info("Training started", log.ConfigVersionKey, p.cfg.SchemaVersion)
	trainPath, testPath, err := NewDataIngestion(p.cfg, logger).Ingest(ctx, source)
	if err != nil {
		return nil, err
	}

	trainM, testM, err := p.transform(ctx, logger, trainPath, testPath)
	if err != nil {
		return nil, err
	}

	opts := append([]TrainerOption{WithRunID(runID), WithTrainerMetrics(p.metrics)}, p.opts...)
	res, err = NewModelTrainer(p.cfg, logger, opts...).TrainWithReport(ctx, trainM, testM)
	if err != nil {
		return nil, err
	}

	if path := p.cfg.Report.PlotFile; path != "" {
		if perr := report.PlotPredictions(path, res.TestTarget, res.TestPredictions, res.Artifact.Name); perr != nil {
			logger.Warn("Could not write prediction plot", perr, log.ArtifactPathKey, path)
		}
	}

	logger.Info("Training completed",
		log.ModelNameKey, res.Artifact.Name,
		log.R2ScoreKey, res.Score,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// transform fits the feature transformer on the train split, persists it and
// returns both splits as matrices with the target as last column.
func (p *TrainPipeline) transform(ctx context.Context, logger log.Logger, trainPath, testPath string) (trainM, testM *mat.Dense, err error) {
	train, err := readRecords(trainPath)
	if err != nil {
		return nil, nil, err
	}
	test, err := readRecords(testPath)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "training cancelled")
	}

	tr := features.NewTransformer()
	trainM, err = tr.FitTransform(train, true)
	if err != nil {
		return nil, nil, errors.Wrap(err, "transform train split")
	}
	testM, err = tr.Transform(test, true)
	if err != nil {
		return nil, nil, errors.Wrap(err, "transform test split")
	}

	path := p.cfg.Artifacts.TransformerPath()
	if err := model.SaveModel(tr, path); err != nil {
		return nil, nil, err
	}
	logger.Info("Features prepared",
		log.PhaseKey, log.PhasePreprocessing,
		log.FeaturesKey, tr.NFeatures(),
		log.TrainSamplesKey, len(train),
		log.TestSamplesKey, len(test),
		log.ArtifactPathKey, path,
	)
	return trainM, testM, nil
}

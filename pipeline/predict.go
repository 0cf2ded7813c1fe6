package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/config"
	"github.com/YuminosukeSato/aurora/dataset"
	"github.com/YuminosukeSato/aurora/features"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/pkg/log"
	"github.com/YuminosukeSato/aurora/pkg/telemetry"
)

// PredictPipeline applies the persisted transformer and model to new
// records. It is read-only after construction and safe for concurrent use.
type PredictPipeline struct {
	transformer *features.Transformer
	artifact    *ModelArtifact
	logger      log.Logger
	metrics     *telemetry.Metrics
}

// PredictOption configures a PredictPipeline.
type PredictOption func(*PredictPipeline)

// WithPredictMetrics counts predictions in m.
func WithPredictMetrics(m *telemetry.Metrics) PredictOption {
	return func(p *PredictPipeline) { p.metrics = m }
}

// NewPredictPipeline loads the transformer and model artifacts named by
// cfg. A missing artifact is a NotFoundError and an undecodable one an
// IOFailure.
func NewPredictPipeline(cfg config.Config, logger log.Logger, opts ...PredictOption) (*PredictPipeline, error) {
	if logger == nil {
		logger = log.GetLoggerWithName("predict")
	}
	tr, err := loadTransformer(cfg.Artifacts.TransformerPath())
	if err != nil {
		return nil, err
	}
	artifact, err := loadArtifact(cfg.Artifacts.ModelPath())
	if err != nil {
		return nil, err
	}
	if artifact.NFeatures != tr.NFeatures() {
		return nil, errors.NewIOFailure("decode", cfg.Artifacts.ModelPath(),
			errors.Newf("model expects %d features, transformer produces %d", artifact.NFeatures, tr.NFeatures()))
	}

	p := &PredictPipeline{
		transformer: tr,
		artifact:    artifact,
		logger: logger.With(
			log.PhaseKey, log.PhaseInference,
			log.ModelNameKey, artifact.Name,
			log.RunIDKey, artifact.RunID,
		),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger.Debug("Artifacts loaded", log.FeaturesKey, artifact.NFeatures)
	return p, nil
}

// ModelName is the panel name of the loaded model.
func (p *PredictPipeline) ModelName() string { return p.artifact.Name }

// Artifact returns the metadata of the loaded model.
func (p *PredictPipeline) Artifact() ModelArtifact { return *p.artifact }

// Predict validates rec and returns the predicted math score.
func (p *PredictPipeline) Predict(rec dataset.Record) (float64, error) {
	out, err := p.predict([]dataset.Record{rec})
	p.metrics.ObservePrediction(err)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// PredictBatch predicts every record. It fails on the first invalid record
// and reports its index.
func (p *PredictPipeline) PredictBatch(recs []dataset.Record) ([]float64, error) {
	out, err := p.predict(recs)
	p.metrics.ObservePrediction(err)
	return out, err
}

func (p *PredictPipeline) predict(recs []dataset.Record) ([]float64, error) {
	if len(recs) == 0 {
		return nil, errors.NewValidationError("records", "no records to predict", 0)
	}
	for i, rec := range recs {
		if err := dataset.ValidateInput(rec); err != nil {
			if len(recs) > 1 {
				return nil, errors.Wrapf(err, "record %d", i)
			}
			return nil, err
		}
	}

	X, err := p.transformer.Transform(recs, false)
	if err != nil {
		return nil, errors.Wrap(err, "transform input")
	}
	pred, err := p.artifact.Model.Predict(X)
	if err != nil {
		return nil, errors.Wrapf(err, "%s predict", p.artifact.Name)
	}
	r, c := pred.Dims()
	if err := errors.CheckMatrix(p.artifact.Name+".Predict", pred, r, c, 0); err != nil {
		return nil, err
	}
	return mat.Col(nil, 0, pred), nil
}

// Standard attribute keys shared by every log line in a training or
// inference run. Keys follow a hierarchical naming convention ("model.name",
// "data.samples") so runs can be filtered by category.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies a candidate or the selected model.
	// Examples: "Linear Regression", "Random Forest"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "ingest"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	// Examples: "ingestion", "trainer", "predict"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"

	// RunIDKey correlates every line of a single training run.
	RunIDKey = "run.id"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey describe a split.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"

	// ArtifactPathKey records a file written or read by a pipeline stage.
	ArtifactPathKey = "artifact.path"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records R² coefficient of determination for regression.
	// Range typically [-∞, 1.0], with 1.0 being perfect prediction.
	R2ScoreKey = "metrics.r2_score"

	// TrainR2ScoreKey records the training-partition R².
	TrainR2ScoreKey = "metrics.train_r2_score"

	// ThresholdKey records the acceptance threshold of the quality gate.
	ThresholdKey = "metrics.threshold"

	// RMSEKey and MAEKey hold held-out errors of the selected model.
	RMSEKey = "metrics.rmse"
	MAEKey  = "metrics.mae"

	// IterationKey records the current iteration number during iterative processes.
	IterationKey = "training.iteration"
)

// Error and Warning Context
const (
	// ErrorKey holds the error message.
	ErrorKey = "error"

	// ErrorKindKey holds the taxonomy kind of the error.
	ErrorKindKey = "error.kind"

	// ErrorDetailKey holds the structured detail of a typed error.
	ErrorDetailKey = "error.detail"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ConfigVersionKey tracks the configuration schema version.
	ConfigVersionKey = "config.version"
)

// Standard attribute value constants.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationIngest    = "ingest"

	PhaseIngestion     = "ingestion"
	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseInference     = "inference"
)

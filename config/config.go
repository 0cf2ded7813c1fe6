// Package config loads the run configuration: an optional YAML file merged
// with AURORA__ prefixed environment variables.
package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/pkg/log"
)

// SupportedSchema is the only accepted schema_version.
const SupportedSchema = "v1"

// EnvPrefix prefixes every environment override. Nested keys are separated
// by a double underscore, e.g. AURORA__TRAINER__MIN_R2=0.7.
const EnvPrefix = "AURORA__"

// ArtifactsConfig names the artifact directory and the files inside it.
type ArtifactsConfig struct {
	Dir         string `koanf:"dir"`
	RawData     string `koanf:"raw_data"`
	TrainData   string `koanf:"train_data"`
	TestData    string `koanf:"test_data"`
	Transformer string `koanf:"transformer"`
	Model       string `koanf:"model"`
}

func (a ArtifactsConfig) path(name string) string { return filepath.Join(a.Dir, name) }

// RawDataPath is where the unmodified copy of the source is written.
func (a ArtifactsConfig) RawDataPath() string { return a.path(a.RawData) }

// TrainDataPath is the training split artifact.
func (a ArtifactsConfig) TrainDataPath() string { return a.path(a.TrainData) }

// TestDataPath is the held-out split artifact.
func (a ArtifactsConfig) TestDataPath() string { return a.path(a.TestData) }

// TransformerPath is the fitted feature transformer artifact.
func (a ArtifactsConfig) TransformerPath() string { return a.path(a.Transformer) }

// ModelPath is the trained model artifact.
func (a ArtifactsConfig) ModelPath() string { return a.path(a.Model) }

type IngestionConfig struct {
	TestSize    float64 `koanf:"test_size"`
	RandomState uint64  `koanf:"random_state"`
}

type TrainerConfig struct {
	MinR2       float64 `koanf:"min_r2"`
	RandomState uint64  `koanf:"random_state"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ReportConfig enables optional run reports. Empty paths disable them.
type ReportConfig struct {
	MetricsFile string `koanf:"metrics_file"`
	PlotFile    string `koanf:"plot_file"`
}

// Config is passed by value into every component.
type Config struct {
	SchemaVersion string          `koanf:"schema_version"`
	Artifacts     ArtifactsConfig `koanf:"artifacts"`
	Ingestion     IngestionConfig `koanf:"ingestion"`
	Trainer       TrainerConfig   `koanf:"trainer"`
	Log           LogConfig       `koanf:"log"`
	Report        ReportConfig    `koanf:"report"`
}

var defaults = map[string]interface{}{
	"schema_version":         SupportedSchema,
	"artifacts.dir":          "artifacts",
	"artifacts.raw_data":     "data.csv",
	"artifacts.train_data":   "train.csv",
	"artifacts.test_data":    "test.csv",
	"artifacts.transformer":  "preprocessor.gob",
	"artifacts.model":        "model.gob",
	"ingestion.test_size":    0.2,
	"ingestion.random_state": 42,
	"trainer.min_r2":         0.6,
	"trainer.random_state":   42,
	"log.level":              "info",
	"log.format":             "json",
	"report.metrics_file":    "",
	"report.plot_file":       "",
}

func applyDefaults(k *koanf.Koanf) error {
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return errors.Wrapf(err, "default %s", key)
		}
	}
	return nil
}

// Default returns the configuration used when nothing is overridden. It
// panics if the built-in defaults cannot be decoded.
func Default() Config {
	k := koanf.New(".")
	if err := applyDefaults(k); err != nil {
		panic(err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		panic(errors.Wrap(err, "decode defaults"))
	}
	return cfg
}

// Load merges defaults, the YAML file at path (skipped when path is empty or
// the file does not exist) and environment overrides, then validates.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := applyDefaults(k); err != nil {
		return Config{}, err
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, errors.Wrap(errors.NewConfigurationError(path, err.Error()), "load config file")
			}
		} else if !os.IsNotExist(err) {
			return Config{}, errors.NewIOFailure("stat", path, err)
		}
	}

	envKey := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", envKey), nil); err != nil {
		return Config{}, errors.NewConfigurationError("env", err.Error())
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.NewConfigurationError("unmarshal", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid key as a ConfigurationError.
func (c Config) Validate() error {
	if c.SchemaVersion != SupportedSchema {
		return errors.NewConfigurationError("schema_version", "unsupported version "+c.SchemaVersion+", want "+SupportedSchema)
	}
	files := []struct{ key, value string }{
		{"artifacts.dir", c.Artifacts.Dir},
		{"artifacts.raw_data", c.Artifacts.RawData},
		{"artifacts.train_data", c.Artifacts.TrainData},
		{"artifacts.test_data", c.Artifacts.TestData},
		{"artifacts.transformer", c.Artifacts.Transformer},
		{"artifacts.model", c.Artifacts.Model},
	}
	for _, f := range files {
		if strings.TrimSpace(f.value) == "" {
			return errors.NewConfigurationError(f.key, "must not be empty")
		}
	}
	if !(c.Ingestion.TestSize > 0 && c.Ingestion.TestSize < 1) {
		return errors.NewConfigurationError("ingestion.test_size", "must be in (0, 1)")
	}
	if math.IsNaN(c.Trainer.MinR2) || c.Trainer.MinR2 > 1 {
		return errors.NewConfigurationError("trainer.min_r2", "must be at most 1")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.NewConfigurationError("log.level", err.Error())
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.NewConfigurationError("log.format", "must be json or console")
	}
	return nil
}

package pipeline

import (
	"os"
	"time"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/features"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// ModelArtifact is the persisted winner of a training run.
type ModelArtifact struct {
	Name      string
	Model     model.Regressor
	TestR2    float64
	TrainR2   float64
	RunID     string
	NFeatures int
	TrainedAt time.Time
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIOFailure("mkdir", dir, err)
	}
	return nil
}

func loadArtifact(path string) (*ModelArtifact, error) {
	var a ModelArtifact
	if err := model.LoadModel(&a, path); err != nil {
		return nil, err
	}
	if a.Model == nil {
		return nil, errors.NewIOFailure("decode", path, errors.New("artifact carries no model"))
	}
	return &a, nil
}

func loadTransformer(path string) (*features.Transformer, error) {
	var t features.Transformer
	if err := model.LoadModel(&t, path); err != nil {
		return nil, err
	}
	if t.State == nil || !t.State.IsFitted() {
		return nil, errors.NewIOFailure("decode", path, errors.New("transformer is not fitted"))
	}
	return &t, nil
}

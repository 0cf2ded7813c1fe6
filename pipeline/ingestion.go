package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/YuminosukeSato/aurora/config"
	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/dataset"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/pkg/log"
)

// DataIngestion copies a raw dataset into the artifact directory and splits
// it into train and test artifacts.
type DataIngestion struct {
	ingestion config.IngestionConfig
	artifacts config.ArtifactsConfig
	logger    log.Logger
}

// NewDataIngestion creates an ingestion stage for cfg.
func NewDataIngestion(cfg config.Config, logger log.Logger) *DataIngestion {
	if logger == nil {
		logger = log.GetLoggerWithName("ingestion")
	}
	return &DataIngestion{
		ingestion: cfg.Ingestion,
		artifacts: cfg.Artifacts,
		logger:    logger.With(log.PhaseKey, log.PhaseIngestion),
	}
}

// Ingest validates every row of source, writes a byte-identical raw copy,
// then writes the split artifacts and returns their paths.
//
// The raw copy is written before splitting. If a later step fails the raw
// artifact remains without matching splits.
func (d *DataIngestion) Ingest(ctx context.Context, source string) (trainPath, testPath string, err error) {
	if strings.TrimSpace(source) == "" {
		return "", "", errors.NewConfigurationError("source", "data path is required")
	}
	info, err := os.Stat(source)
	switch {
	case os.IsNotExist(err):
		return "", "", errors.NewNotFoundError("dataset", source)
	case err != nil:
		return "", "", errors.NewIOFailure("stat", source, err)
	case info.IsDir():
		return "", "", errors.NewIOFailure("read", source, errors.New("is a directory"))
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return "", "", errors.NewIOFailure("read", source, err)
	}
	records, err := dataset.ReadCSV(bytes.NewReader(raw))
	if err != nil {
		return "", "", errors.Wrapf(err, "parse %s", source)
	}
	d.logger.Info("Dataset loaded",
		log.OperationKey, log.OperationIngest,
		log.ArtifactPathKey, source,
		log.SamplesKey, len(records),
	)

	if err := ctx.Err(); err != nil {
		return "", "", errors.Wrap(err, "ingestion cancelled")
	}
	if err := ensureDir(d.artifacts.Dir); err != nil {
		return "", "", err
	}
	rawPath := d.artifacts.RawDataPath()
	if err := model.WriteFileAtomic(rawPath, func(w io.Writer) error {
		_, err := w.Write(raw)
		return err
	}); err != nil {
		return "", "", err
	}

	train, test, err := dataset.TrainTestSplit(records, d.ingestion.TestSize, d.ingestion.RandomState)
	if err != nil {
		return "", "", errors.Wrap(err, "split dataset")
	}

	trainPath, testPath = d.artifacts.TrainDataPath(), d.artifacts.TestDataPath()
	if err := writeRecords(trainPath, train); err != nil {
		return "", "", err
	}
	if err := writeRecords(testPath, test); err != nil {
		return "", "", err
	}

	d.logger.Info("Dataset split",
		log.TrainSamplesKey, len(train),
		log.TestSamplesKey, len(test),
		log.RandomSeedKey, d.ingestion.RandomState,
	)
	return trainPath, testPath, nil
}

func writeRecords(path string, records []dataset.Record) error {
	return model.WriteFileAtomic(path, func(w io.Writer) error {
		return dataset.WriteCSV(w, records)
	})
}

// readRecords loads a split artifact written by Ingest.
func readRecords(path string) ([]dataset.Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("split artifact", path)
	}
	if err != nil {
		return nil, errors.NewIOFailure("open", path, err)
	}
	defer f.Close()

	records, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return records, nil
}

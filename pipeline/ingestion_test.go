package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/pkg/log"
)

func TestDataIngestion_Ingest(t *testing.T) {
	cfg := testConfig(t)
	source := writeDataset(t, syntheticRecords(100, 1))

	trainPath, testPath, err := NewDataIngestion(cfg, log.Nop()).Ingest(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, cfg.Artifacts.TrainDataPath(), trainPath)
	assert.Equal(t, cfg.Artifacts.TestDataPath(), testPath)

	want, err := os.ReadFile(source)
	require.NoError(t, err)
	got, err := os.ReadFile(cfg.Artifacts.RawDataPath())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	train, err := readRecords(trainPath)
	require.NoError(t, err)
	test, err := readRecords(testPath)
	require.NoError(t, err)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)
}

func TestDataIngestion_Deterministic(t *testing.T) {
	source := writeDataset(t, syntheticRecords(57, 2))

	read := func() ([]byte, []byte) {
		cfg := testConfig(t)
		trainPath, testPath, err := NewDataIngestion(cfg, log.Nop()).Ingest(context.Background(), source)
		require.NoError(t, err)
		train, err := os.ReadFile(trainPath)
		require.NoError(t, err)
		test, err := os.ReadFile(testPath)
		require.NoError(t, err)
		return train, test
	}
	train1, test1 := read()
	train2, test2 := read()
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
}

func TestDataIngestion_Errors(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(malformed,
		[]byte("gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,math_score,reading_score,writing_score\n"+
			"female,group B,high school,standard,none,x,1,2\n"), 0o644))

	tests := []struct {
		name   string
		source string
		kind   errors.Kind
	}{
		{"empty path", "", errors.KindConfiguration},
		{"blank path", "   ", errors.KindConfiguration},
		{"missing file", filepath.Join(dir, "absent.csv"), errors.KindNotFound},
		{"directory", dir, errors.KindIO},
		{"malformed row", malformed, errors.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			_, _, err := NewDataIngestion(cfg, log.Nop()).Ingest(context.Background(), tt.source)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errors.KindOf(err))
			assert.NoFileExists(t, cfg.Artifacts.RawDataPath())
		})
	}
}

func TestDataIngestion_SplitFailureKeepsRawCopy(t *testing.T) {
	cfg := testConfig(t)
	source := writeDataset(t, syntheticRecords(1, 3))

	_, _, err := NewDataIngestion(cfg, log.Nop()).Ingest(context.Background(), source)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	assert.FileExists(t, cfg.Artifacts.RawDataPath())
	assert.NoFileExists(t, cfg.Artifacts.TrainDataPath())
}

func TestDataIngestion_ArtifactDirIsFile(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cfg.Artifacts.Dir = filepath.Join(blocker, "artifacts")

	_, _, err := NewDataIngestion(cfg, log.Nop()).Ingest(context.Background(), writeDataset(t, syntheticRecords(10, 4)))
	assert.Equal(t, errors.KindIO, errors.KindOf(err))
}

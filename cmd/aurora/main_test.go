package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/aurora/dataset"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "aurora.yml")
	body := fmt.Sprintf("artifacts:\n  dir: %s\nlog:\n  level: error\n", filepath.Join(dir, "artifacts"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func writeData(t *testing.T, dir string, n int) string {
	t.Helper()
	rng := rand.New(rand.NewPCG(5, 6))
	recs := make([]dataset.Record, n)
	for i := range recs {
		r, w := rng.IntN(101), rng.IntN(101)
		recs[i] = dataset.Record{
			Gender:                   dataset.Genders[rng.IntN(2)],
			RaceEthnicity:            dataset.RaceEthnicities[rng.IntN(5)],
			ParentalLevelOfEducation: dataset.ParentalEducationLevels[rng.IntN(6)],
			Lunch:                    dataset.Lunches[rng.IntN(2)],
			TestPreparationCourse:    dataset.TestPreparationCourses[rng.IntN(2)],
			ReadingScore:             r,
			WritingScore:             w,
			MathScore:                (r + w) / 2,
		}
	}
	path := filepath.Join(dir, "stud.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, dataset.WriteCSV(f, recs))
	return path
}

func TestRun_TrainThenPredict(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	data := writeData(t, dir, 200)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"train", "-config", cfg, "-data", data}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Regexp(t, regexp.MustCompile(`^Training completed\. Best model R2 score: (0\.9\d{3}|1\.0000)\n$`), stdout.String())

	stdout.Reset()
	code = run(context.Background(), []string{"predict", "-config", cfg,
		"-gender", "male", "-race", "group A", "-education", "high school",
		"-lunch", "standard", "-test-prep", "completed", "-reading", "60", "-writing", "70",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Regexp(t, regexp.MustCompile(`^Predicted math score: \d+\.\d{2}\n$`), stdout.String())
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	tests := []struct {
		name    string
		args    []string
		code    int
		wantErr string
	}{
		{"no command", nil, 2, "usage:"},
		{"unknown command", []string{"serve"}, 2, `unknown command "serve"`},
		{"bad flag", []string{"train", "-bogus"}, 2, "usage:"},
		{"missing data", []string{"train", "-config", cfg, "-data", filepath.Join(dir, "none.csv")}, 1, "error: NotFoundError:"},
		{"empty data", []string{"train", "-config", cfg, "-data", ""}, 1, "error: ConfigurationError:"},
		{"invalid input", []string{"predict", "-config", cfg, "-gender", "other", "-race", "group A",
			"-education", "high school", "-lunch", "standard", "-test-prep", "none", "-reading", "1", "-writing", "1"}, 1, "error: ValidationError:"},
		{"no model", []string{"predict", "-config", cfg, "-gender", "male", "-race", "group A",
			"-education", "high school", "-lunch", "standard", "-test-prep", "none", "-reading", "1", "-writing", "1"}, 1, "error: NotFoundError:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr.String(), tt.wantErr)
			assert.Empty(t, stdout.String())
		})
	}
}

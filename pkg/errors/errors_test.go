package errors

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "aurora: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "aurora: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 19, 7, 1)

	want := "aurora: Predict: dimension mismatch on axis 1 (features). Expected 19, got 7"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Ridge", "Predict")

	want := "aurora: Ridge: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("Lasso", 1000, "duality gap above tolerance")

	want := "Lasso failed to converge after 1000 iterations: duality gap above tolerance"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}
}

func TestWarnRoutesToZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewConvergenceWarning("SVR", 10, ""))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "SVR failed to converge")
}

func TestTaxonomyErrors(t *testing.T) {
	cause := os.ErrPermission

	tests := []struct {
		name    string
		err     error
		kind    Kind
		wantMsg string
	}{
		{
			name:    "configuration",
			err:     NewConfigurationError("ingestion.test_size", "must be in (0, 1)"),
			kind:    KindConfiguration,
			wantMsg: `aurora: invalid configuration "ingestion.test_size": must be in (0, 1)`,
		},
		{
			name:    "not found",
			err:     NewNotFoundError("dataset", "data/stud.csv"),
			kind:    KindNotFound,
			wantMsg: "aurora: dataset not found at data/stud.csv",
		},
		{
			name:    "validation",
			err:     NewValidationError("gender", "not one of [female male]", "other"),
			kind:    KindValidation,
			wantMsg: "aurora: validation failed for parameter 'gender': not one of [female male] (got: other)",
		},
		{
			name:    "row validation",
			err:     NewRowValidationError(7, "reading_score", "not an integer", "abc", nil),
			kind:    KindValidation,
			wantMsg: "aurora: line 7: validation failed for parameter 'reading_score': not an integer (got: abc)",
		},
		{
			name:    "insufficient quality",
			err:     NewInsufficientQualityError("Ridge", 0.59, 0.6),
			kind:    KindInsufficientQuality,
			wantMsg: `aurora: no acceptable model: best candidate "Ridge" scored R2=0.5900 below threshold 0.6000`,
		},
		{
			name:    "io",
			err:     NewIOFailure("write", "artifacts/model.gob", cause),
			kind:    KindIO,
			wantMsg: "aurora: write artifacts/model.gob: permission denied",
		},
		{
			name: "internal",
			err:  New("boom"),
			kind: KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.kind, KindOf(Wrap(tt.err, "in pipeline")))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, tt.err.Error())
			}
		})
	}

	assert.Equal(t, Kind(""), KindOf(nil))
	assert.True(t, Is(NewIOFailure("read", "x", cause), os.ErrPermission))
}

func TestKindOfReturnsOutermost(t *testing.T) {
	inner := NewIOFailure("read", "train.csv", os.ErrClosed)
	outer := NewRowValidationError(2, "math_score", "unreadable row", nil, inner)
	assert.Equal(t, KindValidation, KindOf(outer))
}

func TestMarshalZerologObject(t *testing.T) {
	var sb strings.Builder
	logger := zerolog.New(&sb)

	var qe *InsufficientQualityError
	require.True(t, As(NewInsufficientQualityError("SVR", 0.41, 0.6), &qe))
	logger.Error().Object("error_detail", qe).Msg("rejected")

	out := sb.String()
	assert.Contains(t, out, `"best_model":"SVR"`)
	assert.Contains(t, out, `"type":"InsufficientQualityError"`)
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in Predict: expected 10, got 5") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}

func TestCheckMatrix(t *testing.T) {
	m := fakeMatrix{{1, 2}, {3, nan()}}
	err := CheckMatrix("predict", m, 2, 2, 0)
	require.Error(t, err)

	var ni *NumericalInstabilityError
	require.True(t, As(err, &ni))
	assert.Equal(t, "predict", ni.Operation)
	assert.NoError(t, CheckMatrix("predict", fakeMatrix{{1}}, 1, 1, 0))
}

type fakeMatrix [][]float64

func (m fakeMatrix) At(i, j int) float64 { return m[i][j] }

func nan() float64 {
	var zero float64
	return zero / zero
}

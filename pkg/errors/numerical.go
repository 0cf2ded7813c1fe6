package errors

import (
	"math"
)

// maxReported caps how many non-finite values an error carries.
const maxReported = 10

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// CheckNumericalStability returns a NumericalInstabilityError listing the
// NaN or Inf entries of values, or nil when all are finite. iteration is the
// solver step the values belong to (0 outside iterative solvers).
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	var bad []float64
	for _, v := range values {
		if !finite(v) {
			bad = append(bad, v)
			if len(bad) == maxReported {
				break
			}
		}
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, iteration)
	}
	return nil
}

// CheckScalar is CheckNumericalStability for one value, e.g. a loss.
func CheckScalar(operation string, value float64, iteration int) error {
	if !finite(value) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckMatrix scans the rows×cols block of matrix, typically a prediction
// column, and fails on the first maxReported non-finite entries.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols, iteration int) error {
	var bad []float64
	for i := 0; i < rows && len(bad) < maxReported; i++ {
		for j := 0; j < cols && len(bad) < maxReported; j++ {
			if v := matrix.At(i, j); !finite(v) {
				bad = append(bad, v)
			}
		}
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, iteration)
	}
	return nil
}

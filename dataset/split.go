package dataset

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// TrainTestSplit shuffles records with a PCG generator seeded by seed and
// returns the last n-ceil(testSize*n) permuted records as train and the
// first ceil(testSize*n) as test, both in permutation order. The input slice
// is not modified.
func TrainTestSplit(records []Record, testSize float64, seed uint64) (train, test []Record, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	n := len(records)
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, errors.NewValidationError("records",
			"too few records to split into non-empty train and test sets", n)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	test = make([]Record, 0, nTest)
	for _, i := range perm[:nTest] {
		test = append(test, records[i])
	}
	train = make([]Record, 0, nTrain)
	for _, i := range perm[nTest:] {
		train = append(train, records[i])
	}
	return train, test, nil
}

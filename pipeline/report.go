package pipeline

import "time"

// Score is the evaluation of one candidate.
type Score struct {
	Name        string
	TrainR2     float64
	TestR2      float64
	FitDuration time.Duration
}

// Report holds candidate scores in panel order.
type Report []Score

// Lookup returns the score recorded for name.
func (r Report) Lookup(name string) (Score, bool) {
	for _, s := range r {
		if s.Name == name {
			return s, true
		}
	}
	return Score{}, false
}

// Best returns the candidate with the highest test R². A later candidate
// replaces the running best only when strictly greater, so ties go to the
// earlier entry.
func (r Report) Best() (Score, bool) {
	if len(r) == 0 {
		return Score{}, false
	}
	best := r[0]
	for _, s := range r[1:] {
		if s.TestR2 > best.TestR2 {
			best = s
		}
	}
	return best, true
}

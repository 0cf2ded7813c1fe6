package svm

import "math"

// solver minimizes 0.5 a'Qa + p'a subject to 0 <= a <= C and y'a = 0, where
// the first n variables carry sign +1 and the last n sign -1.
type solver struct {
	kernel []float64 // n x n Gram matrix
	n      int
	c      float64
	tol    float64

	sign  []float64
	alpha []float64
	grad  []float64
}

func newSolver(kernel, target []float64, n int, c, eps, tol float64) *solver {
	l := 2 * n
	s := &solver{
		kernel: kernel,
		n:      n,
		c:      c,
		tol:    tol,
		sign:   make([]float64, l),
		alpha:  make([]float64, l),
		grad:   make([]float64, l),
	}
	for i := 0; i < n; i++ {
		s.sign[i] = 1
		s.grad[i] = eps - target[i]
		s.sign[i+n] = -1
		s.grad[i+n] = eps + target[i]
	}
	return s
}

// q returns Q[i][j] = y_i y_j K(i mod n, j mod n).
func (s *solver) q(i, j int) float64 {
	return s.sign[i] * s.sign[j] * s.kernel[(i%s.n)*s.n+j%s.n]
}

func (s *solver) qd(i int) float64 {
	k := i % s.n
	return s.kernel[k*s.n+k]
}

func (s *solver) upper(i int) bool { return s.alpha[i] >= s.c }
func (s *solver) lower(i int) bool { return s.alpha[i] <= 0 }

// selectPair picks the maximal violating pair with second order
// information. ok is false once the KKT gap is below tol.
func (s *solver) selectPair() (int, int, bool) {
	l := len(s.alpha)
	gmax := math.Inf(-1)
	i := -1
	for t := 0; t < l; t++ {
		if s.sign[t] > 0 {
			if !s.upper(t) && -s.grad[t] >= gmax {
				gmax = -s.grad[t]
				i = t
			}
		} else if !s.lower(t) && s.grad[t] >= gmax {
			gmax = s.grad[t]
			i = t
		}
	}
	if i < 0 {
		return -1, -1, false
	}

	gmax2 := math.Inf(-1)
	j := -1
	objMin := math.Inf(1)
	for t := 0; t < l; t++ {
		if s.sign[t] > 0 {
			if s.lower(t) {
				continue
			}
			diff := gmax + s.grad[t]
			if s.grad[t] >= gmax2 {
				gmax2 = s.grad[t]
			}
			if diff > 0 {
				quad := s.qd(i) + s.qd(t) - 2*s.sign[i]*s.q(i, t)
				if quad <= 0 {
					quad = tau
				}
				if obj := -diff * diff / quad; obj <= objMin {
					j = t
					objMin = obj
				}
			}
		} else {
			if s.upper(t) {
				continue
			}
			diff := gmax - s.grad[t]
			if -s.grad[t] >= gmax2 {
				gmax2 = -s.grad[t]
			}
			if diff > 0 {
				quad := s.qd(i) + s.qd(t) + 2*s.sign[i]*s.q(i, t)
				if quad <= 0 {
					quad = tau
				}
				if obj := -diff * diff / quad; obj <= objMin {
					j = t
					objMin = obj
				}
			}
		}
	}
	if gmax+gmax2 < s.tol || j < 0 {
		return -1, -1, false
	}
	return i, j, true
}

// solve runs SMO steps until convergence or maxIter and reports the number of
// steps taken.
func (s *solver) solve(maxIter int) (int, bool) {
	iter := 0
	for ; iter < maxIter; iter++ {
		i, j, ok := s.selectPair()
		if !ok {
			return iter, true
		}
		s.step(i, j)
	}
	_, _, ok := s.selectPair()
	return iter, !ok
}

func (s *solver) step(i, j int) {
	c := s.c
	oldI, oldJ := s.alpha[i], s.alpha[j]
	ai, aj := oldI, oldJ
	qij := s.q(i, j)

	if s.sign[i] != s.sign[j] {
		quad := s.qd(i) + s.qd(j) + 2*qij
		if quad <= 0 {
			quad = tau
		}
		delta := (-s.grad[i] - s.grad[j]) / quad
		diff := ai - aj
		ai += delta
		aj += delta
		if diff > 0 {
			if aj < 0 {
				aj = 0
				ai = diff
			}
		} else if ai < 0 {
			ai = 0
			aj = -diff
		}
		if diff > 0 {
			if ai > c {
				ai = c
				aj = c - diff
			}
		} else if aj > c {
			aj = c
			ai = c + diff
		}
	} else {
		quad := s.qd(i) + s.qd(j) - 2*qij
		if quad <= 0 {
			quad = tau
		}
		delta := (s.grad[i] - s.grad[j]) / quad
		sum := ai + aj
		ai -= delta
		aj += delta
		if sum > c {
			if ai > c {
				ai = c
				aj = sum - c
			}
		} else if aj < 0 {
			aj = 0
			ai = sum
		}
		if sum > c {
			if aj > c {
				aj = c
				ai = sum - c
			}
		} else if ai < 0 {
			ai = 0
			aj = sum
		}
	}

	s.alpha[i], s.alpha[j] = ai, aj
	dI, dJ := ai-oldI, aj-oldJ
	for t := range s.grad {
		s.grad[t] += s.q(t, i)*dI + s.q(t, j)*dJ
	}
}

// rho is the negated bias, averaged over free variables.
func (s *solver) rho() float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	var sum float64
	free := 0
	for t := range s.alpha {
		yg := s.sign[t] * s.grad[t]
		switch {
		case s.upper(t):
			if s.sign[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case s.lower(t):
			if s.sign[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			sum += yg
			free++
		}
	}
	if free > 0 {
		return sum / float64(free)
	}
	return (ub + lb) / 2
}

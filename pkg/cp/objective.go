package cp

import (
	"fmt"
	"math"
)

// Objective drives branch-and-bound. The search calls Tighten each time a
// solution is found; the objective records a strictly better bound that is
// imposed at the start of every later fixpoint.
type Objective interface {
	// Tighten records the bound derived from the current solution and
	// returns ErrInconsistency so the search backtracks.
	Tighten() error
}

// Minimize is the objective "minimize x".
type Minimize struct {
	x     IntVar
	bound int
}

// Minimize creates a minimization objective on x and hooks it into every
// fixpoint of s.
func (s *Solver) Minimize(x IntVar) *Minimize {
	m := &Minimize{x: x, bound: math.MaxInt}
	s.OnFixPoint(func() error { return m.x.RemoveAbove(m.bound) })
	return m
}

// Bound returns the inclusive upper bound imposed on x.
func (m *Minimize) Bound() int { return m.bound }

// Tighten requires x to be fixed. Every later solution must be strictly
// smaller than the current value of x.
func (m *Minimize) Tighten() error {
	if !m.x.IsFixed() {
		return fmt.Errorf("%w: minimize tighten on unfixed %s", ErrInvalidArgument, m.x)
	}
	m.bound = m.x.Max() - 1
	return ErrInconsistency
}

// Maximize is the objective "maximize x".
type Maximize struct {
	x     IntVar
	bound int
}

// Maximize creates a maximization objective on x and hooks it into every
// fixpoint of s.
func (s *Solver) Maximize(x IntVar) *Maximize {
	m := &Maximize{x: x, bound: math.MinInt}
	s.OnFixPoint(func() error { return m.x.RemoveBelow(m.bound) })
	return m
}

// Bound returns the inclusive lower bound imposed on x.
func (m *Maximize) Bound() int { return m.bound }

// Tighten requires x to be fixed. Every later solution must be strictly
// larger than the current value of x.
func (m *Maximize) Tighten() error {
	if !m.x.IsFixed() {
		return fmt.Errorf("%w: maximize tighten on unfixed %s", ErrInvalidArgument, m.x)
	}
	m.bound = m.x.Min() + 1
	return ErrInconsistency
}

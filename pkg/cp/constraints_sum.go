package cp

import (
	"fmt"
	"math"

	"github.com/gitrdm/gokancp/pkg/state"
)

// Sum enforces xs[0] + ... + xs[n-1] == y with bounds consistency.
//
// Internally the constraint is sum(terms) == 0 with terms = xs ++ [-y].
// Fixed terms are moved out of the way: unfixed holds a permutation of the
// term indexes whose first nUnfixed entries are the terms still unfixed, and
// fixedSum is the total of the rest. Both counters are reversible; the
// permutation itself is not, since restoring nUnfixed brings back the same
// set of unfixed terms.
type Sum struct {
	ConstraintBase
	terms    []IntVar
	unfixed  []int
	nUnfixed *state.Int
	fixedSum *state.Int
}

// NewSum creates sum(xs) == y. It fails with ErrOverflow when the extreme
// sums of the current domains do not fit in an int.
func NewSum(xs []IntVar, y IntVar) (*Sum, error) {
	negY, err := Opposite(y)
	if err != nil {
		return nil, err
	}
	terms := make([]IntVar, 0, len(xs)+1)
	terms = append(terms, xs...)
	terms = append(terms, negY)
	lo, hi := 0, 0
	for _, t := range terms {
		var ok1, ok2 bool
		lo, ok1 = addChecked(lo, t.Min())
		hi, ok2 = addChecked(hi, t.Max())
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: sum of %d terms", ErrOverflow, len(terms))
		}
	}
	s := y.Solver()
	sm := s.StateManager()
	unfixed := make([]int, len(terms))
	for i := range unfixed {
		unfixed[i] = i
	}
	return &Sum{
		ConstraintBase: NewConstraintBase(s),
		terms:          terms,
		unfixed:        unfixed,
		nUnfixed:       state.NewInt(sm, len(terms)),
		fixedSum:       state.NewInt(sm, 0),
	}, nil
}

func addChecked(a, b int) (int, bool) {
	if (b > 0 && a > math.MaxInt-b) || (b < 0 && a < math.MinInt-b) {
		return 0, false
	}
	return a + b, true
}

// Post implements Constraint.
func (s *Sum) Post() error {
	for _, t := range s.terms {
		t.PropagateOnBoundChange(s)
	}
	return s.Propagate()
}

// Propagate implements Constraint.
func (s *Sum) Propagate() error {
	n := s.nUnfixed.Value()
	fixed := s.fixedSum.Value()
	lo, hi := fixed, fixed
	for i := n - 1; i >= 0; i-- {
		t := s.terms[s.unfixed[i]]
		lo += t.Min()
		hi += t.Max()
		if t.IsFixed() {
			fixed += t.Min()
			s.unfixed[i], s.unfixed[n-1] = s.unfixed[n-1], s.unfixed[i]
			n--
		}
	}
	s.nUnfixed.SetValue(n)
	s.fixedSum.SetValue(fixed)
	if lo > 0 || hi < 0 {
		return ErrInconsistency
	}
	for i := n - 1; i >= 0; i-- {
		t := s.terms[s.unfixed[i]]
		tmin, tmax := t.Min(), t.Max()
		if err := t.RemoveAbove(-(lo - tmin)); err != nil {
			return err
		}
		if err := t.RemoveBelow(-(hi - tmax)); err != nil {
			return err
		}
	}
	if n == 0 {
		s.SetActive(false)
	}
	return nil
}

func (s *Sum) String() string {
	return fmt.Sprintf("Sum(%d terms)", len(s.terms)-1)
}

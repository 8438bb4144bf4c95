package cp

import (
	"fmt"

	"github.com/gitrdm/gokancp/pkg/state"
)

// AllDifferentFC enforces pairwise difference by forward checking: whenever
// a variable becomes fixed its value is removed from every unfixed variable.
//
// fixed is a permutation of the variable indexes; its first nFixed entries
// are the variables already handled. The constraint deactivates once every
// variable is fixed.
type AllDifferentFC struct {
	ConstraintBase
	xs     []IntVar
	fixed  []int
	nFixed *state.Int
}

// NewAllDifferentFC creates alldifferent(xs). xs must not be empty.
func NewAllDifferentFC(xs []IntVar) (*AllDifferentFC, error) {
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: alldifferent over no variables", ErrInvalidArgument)
	}
	s := xs[0].Solver()
	fixed := make([]int, len(xs))
	for i := range fixed {
		fixed[i] = i
	}
	return &AllDifferentFC{
		ConstraintBase: NewConstraintBase(s),
		xs:             append([]IntVar(nil), xs...),
		fixed:          fixed,
		nFixed:         state.NewInt(s.StateManager(), 0),
	}, nil
}

// Post implements Constraint.
func (a *AllDifferentFC) Post() error {
	for _, x := range a.xs {
		x.PropagateOnFix(a)
	}
	return a.Propagate()
}

// Propagate implements Constraint.
func (a *AllDifferentFC) Propagate() error {
	start := a.nFixed.Value()
	nf := start
	for i := start; i < len(a.fixed); i++ {
		if a.xs[a.fixed[i]].IsFixed() {
			a.fixed[i], a.fixed[nf] = a.fixed[nf], a.fixed[i]
			nf++
		}
	}
	a.nFixed.SetValue(nf)

	// Two variables fixed by the same fixpoint never see each other's
	// removal, so newcomers are checked against all fixed values.
	for i := start; i < nf; i++ {
		v := a.xs[a.fixed[i]].Min()
		for j := 0; j < i; j++ {
			if a.xs[a.fixed[j]].Min() == v {
				return ErrInconsistency
			}
		}
	}
	for i := start; i < nf; i++ {
		v := a.xs[a.fixed[i]].Min()
		for j := nf; j < len(a.fixed); j++ {
			if err := a.xs[a.fixed[j]].Remove(v); err != nil {
				return err
			}
		}
	}
	if nf == len(a.fixed) {
		a.SetActive(false)
	}
	return nil
}

func (a *AllDifferentFC) String() string {
	return fmt.Sprintf("AllDifferentFC(%d vars)", len(a.xs))
}

package search

import "github.com/gitrdm/gokancp/pkg/cp"

// VarSelector returns the next variable to branch on, or nil when there is
// none left.
type VarSelector func() cp.IntVar

// ValSelector chooses the value tried first for x.
type ValSelector func(x cp.IntVar) int

// MinValue selects the smallest value in the domain.
func MinValue(x cp.IntVar) int { return x.Min() }

// MaxValue selects the largest value in the domain.
func MaxValue(x cp.IntVar) int { return x.Max() }

// SelectMin returns the element of xs with the smallest key among those
// accepted by keep. Ties go to the earliest element. ok is false when no
// element is accepted.
func SelectMin[T any](xs []T, keep func(T) bool, key func(T) int) (best T, ok bool) {
	bestKey := 0
	for _, x := range xs {
		if !keep(x) {
			continue
		}
		if k := key(x); !ok || k < bestKey {
			best, bestKey, ok = x, k, true
		}
	}
	return best, ok
}

func unfixed(x cp.IntVar) bool { return !x.IsFixed() }
func size(x cp.IntVar) int     { return x.Size() }

// FirstFailSelector picks the unfixed variable with the smallest domain.
func FirstFailSelector(xs ...cp.IntVar) VarSelector {
	return func() cp.IntVar {
		x, ok := SelectMin(xs, unfixed, size)
		if !ok {
			return nil
		}
		return x
	}
}

// InOrderSelector picks the first unfixed variable of xs.
func InOrderSelector(xs ...cp.IntVar) VarSelector {
	return func() cp.IntVar {
		for _, x := range xs {
			if !x.IsFixed() {
				return x
			}
		}
		return nil
	}
}

// EqualBranch is the alternative x == v followed by a fixpoint.
func EqualBranch(x cp.IntVar, v int) Alternative {
	return func() error {
		if err := x.Fix(v); err != nil {
			return err
		}
		return x.Solver().FixPoint()
	}
}

// NotEqualBranch is the alternative x != v followed by a fixpoint.
func NotEqualBranch(x cp.IntVar, v int) Alternative {
	return func() error {
		if err := x.Remove(v); err != nil {
			return err
		}
		return x.Solver().FixPoint()
	}
}

// Binary branches on the variable chosen by varSel with the two-way split
// x == v | x != v, v chosen by valSel.
func Binary(varSel VarSelector, valSel ValSelector) Branching {
	return BranchingFunc(func() []Alternative {
		x := varSel()
		if x == nil {
			return nil
		}
		v := valSel(x)
		return Branch(EqualBranch(x, v), NotEqualBranch(x, v))
	})
}

// FirstFail is the classic first-fail strategy: smallest domain first,
// smallest value first.
func FirstFail(xs ...cp.IntVar) Branching {
	return Binary(FirstFailSelector(xs...), MinValue)
}

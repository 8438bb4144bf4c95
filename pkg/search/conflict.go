package search

import (
	"slices"

	"github.com/gitrdm/gokancp/pkg/cp"
)

// A conflict is an alternative that failed. Its variable is the one the
// failed alternative branched on. Conflict memory lives for one run: the
// driver resets it when a run starts, and it is not undone on backtrack.

type lastConflict struct {
	varSel   VarSelector
	valSel   ValSelector
	conflict cp.IntVar
}

// LastConflict branches first on the variable of the most recent conflict
// as long as it is unfixed; otherwise varSel decides. The branch itself is
// the usual x == v | x != v with v from valSel.
func LastConflict(varSel VarSelector, valSel ValSelector) Branching {
	return &lastConflict{varSel: varSel, valSel: valSel}
}

func (l *lastConflict) Branch() []Alternative {
	x := l.conflict
	if x == nil || x.IsFixed() {
		x = l.varSel()
	}
	if x == nil {
		return nil
	}
	v := l.valSel(x)
	return Branch(
		recordConflict(EqualBranch(x, v), func() { l.conflict = x }),
		recordConflict(NotEqualBranch(x, v), func() { l.conflict = x }),
	)
}

func (l *lastConflict) Reset() { l.conflict = nil }

// conflictOrdering keeps every variable that has been in a conflict, most
// recent first. Each conflict moves its variable to the front, so no two
// variables ever share a rank.
type conflictOrdering struct {
	varSel VarSelector
	valSel ValSelector
	order  []cp.IntVar
}

// ConflictOrdering branches on the unfixed variable with the most recent
// conflict. Variables that never failed are chosen by varSel, and only
// once every conflicting variable is fixed.
func ConflictOrdering(varSel VarSelector, valSel ValSelector) Branching {
	return &conflictOrdering{varSel: varSel, valSel: valSel}
}

func (c *conflictOrdering) Branch() []Alternative {
	var x cp.IntVar
	for _, y := range c.order {
		if !y.IsFixed() {
			x = y
			break
		}
	}
	if x == nil {
		x = c.varSel()
	}
	if x == nil {
		return nil
	}
	v := c.valSel(x)
	return Branch(
		recordConflict(EqualBranch(x, v), func() { c.bump(x) }),
		recordConflict(NotEqualBranch(x, v), func() { c.bump(x) }),
	)
}

func (c *conflictOrdering) bump(x cp.IntVar) {
	if i := slices.Index(c.order, x); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	c.order = slices.Insert(c.order, 0, x)
}

func (c *conflictOrdering) Reset() { c.order = c.order[:0] }

// Order returns the conflict ranking, most recent first.
func (c *conflictOrdering) Order() []cp.IntVar { return slices.Clone(c.order) }

func recordConflict(alt Alternative, record func()) Alternative {
	return func() error {
		err := alt()
		if cp.IsInconsistency(err) {
			record()
		}
		return err
	}
}

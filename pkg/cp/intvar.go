package cp

import (
	"fmt"

	"github.com/gitrdm/gokancp/pkg/state"
)

// maxDomainSize bounds the range of a single variable. Sparse sets allocate
// two slots per value in the range.
const maxDomainSize = 1 << 24

// IntVar is a finite-domain integer variable or a view over one.
//
// Mutators never leave the domain empty: a wipe-out returns ErrInconsistency
// and the caller must unwind the current fixpoint or branch.
type IntVar interface {
	Solver() *Solver

	Min() int
	Max() int
	Size() int
	IsFixed() bool
	Contains(v int) bool
	// FillArray writes the values into dst (len(dst) >= Size()) in no
	// particular order and returns how many were written.
	FillArray(dst []int) int

	Remove(v int) error
	Fix(v int) error
	RemoveBelow(v int) error
	RemoveAbove(v int) error

	// WhenFixed, WhenBoundChange and WhenDomainChange run fn during the
	// fixpoint that follows the corresponding event.
	WhenFixed(fn func() error)
	WhenBoundChange(fn func() error)
	WhenDomainChange(fn func() error)

	PropagateOnFix(c Constraint)
	PropagateOnBoundChange(c Constraint)
	PropagateOnDomainChange(c Constraint)

	String() string
}

// intVar is the domain-backed IntVar.
type intVar struct {
	solver   *Solver
	domain   IntDomain
	onDomain *state.Stack[Constraint]
	onFix    *state.Stack[Constraint]
	onBound  *state.Stack[Constraint]
	name     string
}

// NewIntVar creates a variable with domain {min, ..., max}.
func NewIntVar(s *Solver, min, max int) (IntVar, error) {
	if min > max {
		return nil, fmt.Errorf("%w: min %d > max %d", ErrInvalidRange, min, max)
	}
	if size := max - min + 1; size <= 0 || size > maxDomainSize {
		return nil, fmt.Errorf("%w: [%d, %d] holds more than %d values", ErrInvalidRange, min, max, maxDomainSize)
	}
	sm := s.StateManager()
	return &intVar{
		solver:   s,
		domain:   NewSparseSetDomain(sm, min, max),
		onDomain: state.NewStack[Constraint](sm),
		onFix:    state.NewStack[Constraint](sm),
		onBound:  state.NewStack[Constraint](sm),
	}, nil
}

// NewIntVarFromValues creates a variable whose domain is exactly values.
func NewIntVarFromValues(s *Solver, values []int) (IntVar, error) {
	if len(values) == 0 {
		return nil, ErrEmptyDomain
	}
	lo, hi := values[0], values[0]
	keep := make(map[int]struct{}, len(values))
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
		keep[v] = struct{}{}
	}
	x, err := NewIntVar(s, lo, hi)
	if err != nil {
		return nil, err
	}
	iv := x.(*intVar)
	for v := lo; v <= hi; v++ {
		if _, ok := keep[v]; !ok {
			// Neither bound is removed, so this never wipes out.
			_ = iv.domain.Remove(v, silent{})
		}
	}
	return x, nil
}

// NewIntVars creates n variables sharing the range [min, max].
func NewIntVars(s *Solver, n, min, max int) ([]IntVar, error) {
	xs := make([]IntVar, n)
	for i := range xs {
		x, err := NewIntVar(s, min, max)
		if err != nil {
			return nil, err
		}
		xs[i] = x
	}
	return xs, nil
}

// NewNamedIntVar is NewIntVar with a name used by String.
func NewNamedIntVar(s *Solver, name string, min, max int) (IntVar, error) {
	x, err := NewIntVar(s, min, max)
	if err != nil {
		return nil, err
	}
	x.(*intVar).name = name
	return x, nil
}

func (x *intVar) Solver() *Solver         { return x.solver }
func (x *intVar) Min() int                { return x.domain.Min() }
func (x *intVar) Max() int                { return x.domain.Max() }
func (x *intVar) Size() int               { return x.domain.Size() }
func (x *intVar) IsFixed() bool           { return x.domain.IsFixed() }
func (x *intVar) Contains(v int) bool     { return x.domain.Contains(v) }
func (x *intVar) FillArray(dst []int) int { return x.domain.FillArray(dst) }
func (x *intVar) Remove(v int) error      { return x.domain.Remove(v, bridge{x}) }
func (x *intVar) Fix(v int) error         { return x.domain.RemoveAllBut(v, bridge{x}) }
func (x *intVar) RemoveBelow(v int) error { return x.domain.RemoveBelow(v, bridge{x}) }
func (x *intVar) RemoveAbove(v int) error { return x.domain.RemoveAbove(v, bridge{x}) }

func (x *intVar) WhenFixed(fn func() error) {
	x.onFix.Push(newClosureConstraint(x.solver, fn))
}

func (x *intVar) WhenBoundChange(fn func() error) {
	x.onBound.Push(newClosureConstraint(x.solver, fn))
}

func (x *intVar) WhenDomainChange(fn func() error) {
	x.onDomain.Push(newClosureConstraint(x.solver, fn))
}

func (x *intVar) PropagateOnFix(c Constraint)          { x.onFix.Push(c) }
func (x *intVar) PropagateOnBoundChange(c Constraint)  { x.onBound.Push(c) }
func (x *intVar) PropagateOnDomainChange(c Constraint) { x.onDomain.Push(c) }

func (x *intVar) String() string {
	if x.name != "" {
		return x.name + "=" + x.domain.String()
	}
	return x.domain.String()
}

func (x *intVar) scheduleAll(cs *state.Stack[Constraint]) {
	for _, c := range cs.Items() {
		x.solver.Schedule(c)
	}
}

// bridge turns domain events into constraint scheduling.
type bridge struct{ x *intVar }

// Empty needs no scheduling; the failure travels back as the mutator's error.
func (b bridge) Empty()     {}
func (b bridge) Fix()       { b.x.scheduleAll(b.x.onFix) }
func (b bridge) Change()    { b.x.scheduleAll(b.x.onDomain) }
func (b bridge) ChangeMin() { b.x.scheduleAll(b.x.onBound) }
func (b bridge) ChangeMax() { b.x.scheduleAll(b.x.onBound) }

// silent discards events while a domain is being shaped at build time.
type silent struct{}

func (silent) Empty()     {}
func (silent) Fix()       {}
func (silent) Change()    {}
func (silent) ChangeMin() {}
func (silent) ChangeMax() {}

// BoolVar is a 0/1 variable.
type BoolVar struct {
	IntVar
}

// NewBoolVar creates an unfixed boolean.
func NewBoolVar(s *Solver) BoolVar {
	x, _ := NewIntVar(s, 0, 1)
	return BoolVar{IntVar: x}
}

// IsTrue reports whether b is fixed to 1.
func (b BoolVar) IsTrue() bool { return b.Min() == 1 }

// IsFalse reports whether b is fixed to 0.
func (b BoolVar) IsFalse() bool { return b.Max() == 0 }

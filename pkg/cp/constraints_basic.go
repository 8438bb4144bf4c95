package cp

import "fmt"

// NotEqual enforces x != y + c.
//
// It waits until one side is fixed, removes the forbidden value from the
// other side and then deactivates itself.
type NotEqual struct {
	ConstraintBase
	x, y IntVar
	c    int
}

// NewNotEqual creates x != y + c.
func NewNotEqual(x, y IntVar, c int) *NotEqual {
	return &NotEqual{ConstraintBase: NewConstraintBase(x.Solver()), x: x, y: y, c: c}
}

// Post implements Constraint.
func (n *NotEqual) Post() error {
	switch {
	case n.x.IsFixed():
		return n.y.Remove(n.x.Min() - n.c)
	case n.y.IsFixed():
		return n.x.Remove(n.y.Min() + n.c)
	}
	n.x.PropagateOnFix(n)
	n.y.PropagateOnFix(n)
	return nil
}

// Propagate implements Constraint.
func (n *NotEqual) Propagate() error {
	var err error
	if n.y.IsFixed() {
		err = n.x.Remove(n.y.Min() + n.c)
	} else {
		err = n.y.Remove(n.x.Min() - n.c)
	}
	if err != nil {
		return err
	}
	n.SetActive(false)
	return nil
}

func (n *NotEqual) String() string {
	return fmt.Sprintf("NotEqual(%s != %s + %d)", n.x, n.y, n.c)
}

// Equal enforces x == y with domain consistency: after propagation both
// variables have exactly the same domain.
type Equal struct {
	ConstraintBase
	x, y IntVar
	buf  []int
}

// NewEqual creates x == y.
func NewEqual(x, y IntVar) *Equal {
	return &Equal{
		ConstraintBase: NewConstraintBase(x.Solver()),
		x:              x,
		y:              y,
		buf:            make([]int, max(x.Size(), y.Size())),
	}
}

// Post implements Constraint.
func (e *Equal) Post() error {
	switch {
	case e.x.IsFixed():
		return e.y.Fix(e.x.Min())
	case e.y.IsFixed():
		return e.x.Fix(e.y.Min())
	}
	e.x.PropagateOnDomainChange(e)
	e.y.PropagateOnDomainChange(e)
	return e.Propagate()
}

// Propagate implements Constraint.
func (e *Equal) Propagate() error {
	lo, hi := max(e.x.Min(), e.y.Min()), min(e.x.Max(), e.y.Max())
	for _, v := range [2]IntVar{e.x, e.y} {
		if err := v.RemoveBelow(lo); err != nil {
			return err
		}
		if err := v.RemoveAbove(hi); err != nil {
			return err
		}
	}
	if err := e.prune(e.x, e.y); err != nil {
		return err
	}
	if err := e.prune(e.y, e.x); err != nil {
		return err
	}
	if e.x.IsFixed() {
		e.SetActive(false)
	}
	return nil
}

// prune removes from to every value that from does not contain.
func (e *Equal) prune(from, to IntVar) error {
	n := to.FillArray(e.buf)
	for _, v := range e.buf[:n] {
		if !from.Contains(v) {
			if err := to.Remove(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Equal) String() string {
	return fmt.Sprintf("Equal(%s == %s)", e.x, e.y)
}

// LessOrEqual enforces x <= y on bounds.
type LessOrEqual struct {
	ConstraintBase
	x, y IntVar
}

// NewLessOrEqual creates x <= y.
func NewLessOrEqual(x, y IntVar) *LessOrEqual {
	return &LessOrEqual{ConstraintBase: NewConstraintBase(x.Solver()), x: x, y: y}
}

// Post implements Constraint.
func (l *LessOrEqual) Post() error {
	l.x.PropagateOnBoundChange(l)
	l.y.PropagateOnBoundChange(l)
	return l.Propagate()
}

// Propagate implements Constraint. The constraint is entailed, and
// deactivated, once x.Max() <= y.Min().
func (l *LessOrEqual) Propagate() error {
	if err := l.x.RemoveAbove(l.y.Max()); err != nil {
		return err
	}
	if err := l.y.RemoveBelow(l.x.Min()); err != nil {
		return err
	}
	if l.x.Max() <= l.y.Min() {
		l.SetActive(false)
	}
	return nil
}

func (l *LessOrEqual) String() string {
	return fmt.Sprintf("LessOrEqual(%s <= %s)", l.x, l.y)
}

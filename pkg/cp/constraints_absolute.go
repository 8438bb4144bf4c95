package cp

import (
	"fmt"
	"math"
)

// Absolute enforces y == |x|.
//
// Propagation is on bounds, with two exceptions: when y is fixed x is
// reduced to {-y, y}, and when y.Min() > 0 the values of x strictly between
// -y.Min() and y.Min() are removed.
type Absolute struct {
	ConstraintBase
	x, y IntVar
	buf  []int
}

// NewAbsolute creates y == |x|. x must not contain math.MinInt, whose
// absolute value is not an int.
func NewAbsolute(x, y IntVar) (*Absolute, error) {
	if x.Min() == math.MinInt {
		return nil, fmt.Errorf("%w: |%s|", ErrOverflow, x)
	}
	return &Absolute{
		ConstraintBase: NewConstraintBase(x.Solver()),
		x:              x,
		y:              y,
		buf:            make([]int, x.Size()),
	}, nil
}

// Post implements Constraint.
func (a *Absolute) Post() error {
	if err := a.y.RemoveBelow(0); err != nil {
		return err
	}
	a.x.PropagateOnDomainChange(a)
	a.y.PropagateOnDomainChange(a)
	return a.Propagate()
}

// Propagate implements Constraint.
func (a *Absolute) Propagate() error {
	x, y := a.x, a.y
	if x.IsFixed() {
		if err := y.Fix(abs(x.Min())); err != nil {
			return err
		}
		a.SetActive(false)
		return nil
	}
	if y.IsFixed() {
		v := y.Min()
		if err := a.keepX(func(w int) bool { return w == v || w == -v }); err != nil {
			return err
		}
		a.SetActive(false)
		return nil
	}

	// y within [min |x|, max |x|].
	var lo, hi int
	switch {
	case x.Min() >= 0:
		lo, hi = x.Min(), x.Max()
	case x.Max() <= 0:
		lo, hi = -x.Max(), -x.Min()
	default:
		lo, hi = 0, max(x.Max(), -x.Min())
	}
	if err := y.RemoveBelow(lo); err != nil {
		return err
	}
	if err := y.RemoveAbove(hi); err != nil {
		return err
	}

	// x within [-y.Max(), y.Max()], minus the open interval (-y.Min(), y.Min()).
	if err := x.RemoveAbove(y.Max()); err != nil {
		return err
	}
	if err := x.RemoveBelow(-y.Max()); err != nil {
		return err
	}
	if m := y.Min(); m > 0 {
		return a.keepX(func(w int) bool { return w <= -m || w >= m })
	}
	return nil
}

func (a *Absolute) keepX(keep func(int) bool) error {
	n := a.x.FillArray(a.buf)
	for _, w := range a.buf[:n] {
		if !keep(w) {
			if err := a.x.Remove(w); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Absolute) String() string {
	return fmt.Sprintf("Absolute(%s == |%s|)", a.y, a.x)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

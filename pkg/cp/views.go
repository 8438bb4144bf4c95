package cp

import (
	"fmt"
	"math"
)

// Views are stateless affine transformations of a base variable. They hold
// no domain: every read and write is translated and delegated, and event
// subscriptions go straight to the base variable.
//
// Values outside the view's current bounds are handled before translation,
// so the arithmetic on the way to the base variable cannot overflow.

// Plus returns the view x + v.
func Plus(x IntVar, v int) (IntVar, error) {
	if v == 0 {
		return x, nil
	}
	if (v > 0 && x.Max() > math.MaxInt-v) || (v < 0 && x.Min() < math.MinInt-v) {
		return nil, fmt.Errorf("%w: %s + %d", ErrOverflow, x, v)
	}
	return &offsetView{x: x, o: v}, nil
}

// Minus returns the view x - v.
func Minus(x IntVar, v int) (IntVar, error) {
	if v == math.MinInt {
		return nil, fmt.Errorf("%w: %s - %d", ErrOverflow, x, v)
	}
	return Plus(x, -v)
}

// Opposite returns the view -x.
func Opposite(x IntVar) (IntVar, error) {
	if x.Min() == math.MinInt {
		return nil, fmt.Errorf("%w: -%s", ErrOverflow, x)
	}
	return &oppositeView{x: x}, nil
}

// Mul returns the view a * x for a > 0.
func Mul(x IntVar, a int) (IntVar, error) {
	if a <= 0 {
		return nil, fmt.Errorf("%w: view coefficient %d must be positive", ErrInvalidArgument, a)
	}
	if a == 1 {
		return x, nil
	}
	if x.Max() > math.MaxInt/a || x.Min() < math.MinInt/a {
		return nil, fmt.Errorf("%w: %d * %s", ErrOverflow, a, x)
	}
	return &mulView{x: x, a: a}, nil
}

type offsetView struct {
	x IntVar
	o int
}

func (v *offsetView) Solver() *Solver         { return v.x.Solver() }
func (v *offsetView) Min() int                { return v.x.Min() + v.o }
func (v *offsetView) Max() int                { return v.x.Max() + v.o }
func (v *offsetView) Size() int               { return v.x.Size() }
func (v *offsetView) IsFixed() bool           { return v.x.IsFixed() }
func (v *offsetView) inRange(val int) bool    { return val >= v.Min() && val <= v.Max() }
func (v *offsetView) Contains(val int) bool   { return v.inRange(val) && v.x.Contains(val-v.o) }
func (v *offsetView) FillArray(dst []int) int { return shift(dst, v.x.FillArray(dst), v.o) }

func (v *offsetView) Remove(val int) error {
	if !v.inRange(val) {
		return nil
	}
	return v.x.Remove(val - v.o)
}

func (v *offsetView) Fix(val int) error {
	if !v.inRange(val) {
		return ErrInconsistency
	}
	return v.x.Fix(val - v.o)
}

func (v *offsetView) RemoveBelow(val int) error {
	if val <= v.Min() {
		return nil
	}
	if val > v.Max() {
		return ErrInconsistency
	}
	return v.x.RemoveBelow(val - v.o)
}

func (v *offsetView) RemoveAbove(val int) error {
	if val >= v.Max() {
		return nil
	}
	if val < v.Min() {
		return ErrInconsistency
	}
	return v.x.RemoveAbove(val - v.o)
}

func (v *offsetView) WhenFixed(fn func() error)            { v.x.WhenFixed(fn) }
func (v *offsetView) WhenBoundChange(fn func() error)      { v.x.WhenBoundChange(fn) }
func (v *offsetView) WhenDomainChange(fn func() error)     { v.x.WhenDomainChange(fn) }
func (v *offsetView) PropagateOnFix(c Constraint)          { v.x.PropagateOnFix(c) }
func (v *offsetView) PropagateOnBoundChange(c Constraint)  { v.x.PropagateOnBoundChange(c) }
func (v *offsetView) PropagateOnDomainChange(c Constraint) { v.x.PropagateOnDomainChange(c) }
func (v *offsetView) String() string                       { return formatValues(v) }

type oppositeView struct {
	x IntVar
}

func (v *oppositeView) Solver() *Solver         { return v.x.Solver() }
func (v *oppositeView) Min() int                { return -v.x.Max() }
func (v *oppositeView) Max() int                { return -v.x.Min() }
func (v *oppositeView) Size() int               { return v.x.Size() }
func (v *oppositeView) IsFixed() bool           { return v.x.IsFixed() }
func (v *oppositeView) inRange(val int) bool    { return val >= v.Min() && val <= v.Max() }
func (v *oppositeView) Contains(val int) bool   { return v.inRange(val) && v.x.Contains(-val) }
func (v *oppositeView) FillArray(dst []int) int { return negate(dst, v.x.FillArray(dst)) }

func (v *oppositeView) Remove(val int) error {
	if !v.inRange(val) {
		return nil
	}
	return v.x.Remove(-val)
}

func (v *oppositeView) Fix(val int) error {
	if !v.inRange(val) {
		return ErrInconsistency
	}
	return v.x.Fix(-val)
}

func (v *oppositeView) RemoveBelow(val int) error {
	if val <= v.Min() {
		return nil
	}
	if val > v.Max() {
		return ErrInconsistency
	}
	return v.x.RemoveAbove(-val)
}

func (v *oppositeView) RemoveAbove(val int) error {
	if val >= v.Max() {
		return nil
	}
	if val < v.Min() {
		return ErrInconsistency
	}
	return v.x.RemoveBelow(-val)
}

func (v *oppositeView) WhenFixed(fn func() error)            { v.x.WhenFixed(fn) }
func (v *oppositeView) WhenBoundChange(fn func() error)      { v.x.WhenBoundChange(fn) }
func (v *oppositeView) WhenDomainChange(fn func() error)     { v.x.WhenDomainChange(fn) }
func (v *oppositeView) PropagateOnFix(c Constraint)          { v.x.PropagateOnFix(c) }
func (v *oppositeView) PropagateOnBoundChange(c Constraint)  { v.x.PropagateOnBoundChange(c) }
func (v *oppositeView) PropagateOnDomainChange(c Constraint) { v.x.PropagateOnDomainChange(c) }
func (v *oppositeView) String() string                       { return formatValues(v) }

// mulView is a * x with a > 1. Only multiples of a are members; bounds are
// translated with ceiling and floor so that they only ever tighten.
type mulView struct {
	x IntVar
	a int
}

func (v *mulView) Solver() *Solver         { return v.x.Solver() }
func (v *mulView) Min() int                { return v.a * v.x.Min() }
func (v *mulView) Max() int                { return v.a * v.x.Max() }
func (v *mulView) Size() int               { return v.x.Size() }
func (v *mulView) IsFixed() bool           { return v.x.IsFixed() }
func (v *mulView) inRange(val int) bool    { return val >= v.Min() && val <= v.Max() }
func (v *mulView) FillArray(dst []int) int { return scale(dst, v.x.FillArray(dst), v.a) }

func (v *mulView) Contains(val int) bool {
	return v.inRange(val) && val%v.a == 0 && v.x.Contains(val/v.a)
}

func (v *mulView) Remove(val int) error {
	if !v.inRange(val) || val%v.a != 0 {
		return nil
	}
	return v.x.Remove(val / v.a)
}

func (v *mulView) Fix(val int) error {
	if !v.inRange(val) || val%v.a != 0 {
		return ErrInconsistency
	}
	return v.x.Fix(val / v.a)
}

func (v *mulView) RemoveBelow(val int) error {
	if val <= v.Min() {
		return nil
	}
	if val > v.Max() {
		return ErrInconsistency
	}
	return v.x.RemoveBelow(ceilDiv(val, v.a))
}

func (v *mulView) RemoveAbove(val int) error {
	if val >= v.Max() {
		return nil
	}
	if val < v.Min() {
		return ErrInconsistency
	}
	return v.x.RemoveAbove(floorDiv(val, v.a))
}

func (v *mulView) WhenFixed(fn func() error)            { v.x.WhenFixed(fn) }
func (v *mulView) WhenBoundChange(fn func() error)      { v.x.WhenBoundChange(fn) }
func (v *mulView) WhenDomainChange(fn func() error)     { v.x.WhenDomainChange(fn) }
func (v *mulView) PropagateOnFix(c Constraint)          { v.x.PropagateOnFix(c) }
func (v *mulView) PropagateOnBoundChange(c Constraint)  { v.x.PropagateOnBoundChange(c) }
func (v *mulView) PropagateOnDomainChange(c Constraint) { v.x.PropagateOnDomainChange(c) }
func (v *mulView) String() string                       { return formatValues(v) }

// floorDiv and ceilDiv round the quotient of v by a positive a.
func floorDiv(v, a int) int {
	q := v / a
	if v%a != 0 && v < 0 {
		q--
	}
	return q
}

func ceilDiv(v, a int) int {
	q := v / a
	if v%a != 0 && v > 0 {
		q++
	}
	return q
}

func shift(dst []int, n, o int) int {
	for i := 0; i < n; i++ {
		dst[i] += o
	}
	return n
}

func negate(dst []int, n int) int {
	for i := 0; i < n; i++ {
		dst[i] = -dst[i]
	}
	return n
}

func scale(dst []int, n, a int) int {
	for i := 0; i < n; i++ {
		dst[i] *= a
	}
	return n
}

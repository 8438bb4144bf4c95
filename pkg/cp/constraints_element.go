package cp

import "fmt"

// Element1D enforces z == table[y] over a constant table.
//
// y is an index into table (0-based). Propagation is domain consistent in
// both directions:
//  1. y is clamped to [0, len(table)-1].
//  2. An index survives only if its entry is a value of z.
//  3. A value of z survives only if some surviving index maps to it.
//
// Duplicate entries in table are allowed.
type Element1D struct {
	ConstraintBase
	table     []int
	y, z      IntVar
	buf       []int
	supported map[int]struct{}
}

// NewElement1D creates z == table[y]. table must not be empty.
func NewElement1D(table []int, y, z IntVar) (*Element1D, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: element over an empty table", ErrInvalidArgument)
	}
	return &Element1D{
		ConstraintBase: NewConstraintBase(y.Solver()),
		table:          append([]int(nil), table...),
		y:              y,
		z:              z,
		buf:            make([]int, max(y.Size(), z.Size())),
		supported:      make(map[int]struct{}, len(table)),
	}, nil
}

// Post implements Constraint.
func (e *Element1D) Post() error {
	if err := e.y.RemoveBelow(0); err != nil {
		return err
	}
	if err := e.y.RemoveAbove(len(e.table) - 1); err != nil {
		return err
	}
	e.y.PropagateOnDomainChange(e)
	e.z.PropagateOnDomainChange(e)
	return e.Propagate()
}

// Propagate implements Constraint.
func (e *Element1D) Propagate() error {
	n := e.y.FillArray(e.buf)
	for _, i := range e.buf[:n] {
		if !e.z.Contains(e.table[i]) {
			if err := e.y.Remove(i); err != nil {
				return err
			}
		}
	}

	clear(e.supported)
	n = e.y.FillArray(e.buf)
	for _, i := range e.buf[:n] {
		e.supported[e.table[i]] = struct{}{}
	}
	n = e.z.FillArray(e.buf)
	for _, v := range e.buf[:n] {
		if _, ok := e.supported[v]; !ok {
			if err := e.z.Remove(v); err != nil {
				return err
			}
		}
	}

	if e.y.IsFixed() {
		e.SetActive(false)
	}
	return nil
}

func (e *Element1D) String() string {
	return fmt.Sprintf("Element1D(%s == table[%s], n=%d)", e.z, e.y, len(e.table))
}

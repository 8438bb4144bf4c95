// Package cp is the propagation engine: reversible finite domains, integer
// variables and views, the constraint contract, the fixpoint loop, and the
// objectives used by branch-and-bound.
//
// This file defines the domain abstraction and its sparse-set implementation.
package cp

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gitrdm/gokancp/pkg/state"
)

// DomainListener receives the events produced by a domain mutation.
//
// For one mutation the events arrive in this order: Change if anything was
// removed, ChangeMin and/or ChangeMax if a bound moved, Fix if exactly one
// value is left. Empty pre-empts all of them: when the last value goes, only
// Empty is called and the mutator returns ErrInconsistency.
type DomainListener interface {
	Empty()
	Fix()
	Change()
	ChangeMin()
	ChangeMax()
}

// IntDomain is a reversible finite set of integers.
//
// Reads are O(1). Mutators cost O(values removed) and report a wipe-out as
// ErrInconsistency.
type IntDomain interface {
	Min() int
	Max() int
	Size() int
	Contains(v int) bool
	IsFixed() bool
	FillArray(dst []int) int

	Remove(v int, l DomainListener) error
	RemoveAllBut(v int, l DomainListener) error
	RemoveBelow(v int, l DomainListener) error
	RemoveAbove(v int, l DomainListener) error

	String() string
}

// SparseSetDomain is the IntDomain used by every IntVar.
type SparseSetDomain struct {
	set *StateSparseSet
}

// NewSparseSetDomain creates the domain {min, ..., max}. The caller checks
// the range.
func NewSparseSetDomain(sm state.Manager, min, max int) *SparseSetDomain {
	return &SparseSetDomain{set: NewStateSparseSet(sm, max-min+1, min)}
}

func (d *SparseSetDomain) Min() int                { return d.set.Min() }
func (d *SparseSetDomain) Max() int                { return d.set.Max() }
func (d *SparseSetDomain) Size() int               { return d.set.Size() }
func (d *SparseSetDomain) Contains(v int) bool     { return d.set.Contains(v) }
func (d *SparseSetDomain) IsFixed() bool           { return d.set.Size() == 1 }
func (d *SparseSetDomain) FillArray(dst []int) int { return d.set.FillArray(dst) }

// Remove deletes v if present.
func (d *SparseSetDomain) Remove(v int, l DomainListener) error {
	if !d.set.Contains(v) {
		return nil
	}
	maxChanged := d.Max() == v
	minChanged := d.Min() == v
	d.set.Remove(v)
	if d.set.IsEmpty() {
		l.Empty()
		return ErrInconsistency
	}
	l.Change()
	if maxChanged {
		l.ChangeMax()
	}
	if minChanged {
		l.ChangeMin()
	}
	if d.set.Size() == 1 {
		l.Fix()
	}
	return nil
}

// RemoveAllBut keeps only v. If v is absent the domain is emptied.
func (d *SparseSetDomain) RemoveAllBut(v int, l DomainListener) error {
	if !d.set.Contains(v) {
		d.set.RemoveAll()
		l.Empty()
		return ErrInconsistency
	}
	if d.set.Size() == 1 {
		return nil
	}
	maxChanged := d.Max() != v
	minChanged := d.Min() != v
	d.set.RemoveAllBut(v)
	l.Change()
	if maxChanged {
		l.ChangeMax()
	}
	if minChanged {
		l.ChangeMin()
	}
	l.Fix()
	return nil
}

// RemoveBelow deletes every value strictly smaller than v.
func (d *SparseSetDomain) RemoveBelow(v int, l DomainListener) error {
	if d.Min() >= v {
		return nil
	}
	d.set.RemoveBelow(v)
	switch d.set.Size() {
	case 0:
		l.Empty()
		return ErrInconsistency
	case 1:
		l.Change()
		l.ChangeMin()
		l.Fix()
	default:
		l.Change()
		l.ChangeMin()
	}
	return nil
}

// RemoveAbove deletes every value strictly greater than v.
func (d *SparseSetDomain) RemoveAbove(v int, l DomainListener) error {
	if d.Max() <= v {
		return nil
	}
	d.set.RemoveAbove(v)
	switch d.set.Size() {
	case 0:
		l.Empty()
		return ErrInconsistency
	case 1:
		l.Change()
		l.ChangeMax()
		l.Fix()
	default:
		l.Change()
		l.ChangeMax()
	}
	return nil
}

// String renders the domain in ascending order, e.g. {1,3,4}.
func (d *SparseSetDomain) String() string {
	return formatValues(d)
}

type valueFiller interface {
	Size() int
	FillArray(dst []int) int
}

func formatValues(d valueFiller) string {
	vals := make([]int, d.Size())
	n := d.FillArray(vals)
	vals = vals[:n]
	sort.Ints(vals)
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte('}')
	return b.String()
}

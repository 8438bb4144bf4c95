package search

import (
	"fmt"

	"github.com/gitrdm/gokancp/pkg/cp"
	"github.com/gitrdm/gokancp/pkg/state"
)

type sequencer []Branching

// Sequencer composes branchings: each node is branched by the first of bs
// that still has alternatives. The choice is made fresh at every node from
// the current domains.
func Sequencer(bs ...Branching) Branching {
	return sequencer(append([]Branching(nil), bs...))
}

func (s sequencer) Branch() []Alternative {
	for _, b := range s {
		if alts := b.Branch(); len(alts) > 0 {
			return alts
		}
	}
	return nil
}

// Reset forwards to every resettable component.
func (s sequencer) Reset() {
	for _, b := range s {
		if r, ok := b.(Resetter); ok {
			r.Reset()
		}
	}
}

// limitedDiscrepancy wraps a branching and drops every alternative whose
// index would take the path's discrepancy past max.
type limitedDiscrepancy struct {
	b           Branching
	max         int
	discrepancy *state.Int
}

// LimitedDiscrepancy bounds the discrepancy of every explored path by
// maxD. Taking the alternative at index i adds i to the path's
// discrepancy; alternatives that would exceed maxD are never returned, so
// the search does not visit them at all.
//
// The discrepancy counter is a reversible cell of sm, which must be the
// state manager driving the search.
func LimitedDiscrepancy(sm state.Manager, b Branching, maxD int) (Branching, error) {
	if maxD < 0 {
		return nil, fmt.Errorf("%w: negative discrepancy limit %d", cp.ErrInvalidArgument, maxD)
	}
	return &limitedDiscrepancy{b: b, max: maxD, discrepancy: state.NewInt(sm, 0)}, nil
}

func (l *limitedDiscrepancy) Branch() []Alternative {
	alts := l.b.Branch()
	d := l.discrepancy.Value()
	keep := min(len(alts), l.max-d+1)
	out := make([]Alternative, keep)
	for i := range out {
		alt := alts[i]
		out[i] = func() error {
			l.discrepancy.SetValue(d + i)
			return alt()
		}
	}
	return out
}

func (l *limitedDiscrepancy) Reset() {
	if r, ok := l.b.(Resetter); ok {
		r.Reset()
	}
}

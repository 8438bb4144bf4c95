// Package search drives depth-first exploration of a cp model.
//
// A Branching turns the current state into an ordered list of alternatives.
// DFSearch executes each alternative under a saved state, recurses on
// success and restores afterwards. Failure is the cp.ErrInconsistency
// signal: it is counted and the next alternative is tried. Branch-and-bound
// reuses the same traversal: every solution tightens the objective and
// then fails.
//
// This file defines the shared vocabulary: alternatives, branchings,
// statistics and stop predicates.
package search

import (
	"fmt"
	"time"
)

// Alternative applies one branch decision to the model. It returns
// cp.ErrInconsistency (possibly wrapped) when the decision fails.
type Alternative func() error

// Branching produces the alternatives for the current node. An empty
// result means every decision has been taken: the node is a solution.
type Branching interface {
	Branch() []Alternative
}

// BranchingFunc adapts a plain function to the Branching interface.
type BranchingFunc func() []Alternative

// Branch implements Branching.
func (f BranchingFunc) Branch() []Alternative { return f() }

// Resetter is implemented by branchings that keep memory across the nodes
// of one run. DFSearch calls Reset at the start of every run.
type Resetter interface {
	Reset()
}

// Branch is a convenience for building an alternative list inline.
func Branch(alts ...Alternative) []Alternative { return alts }

// Statistics describes one run.
type Statistics struct {
	Nodes     int
	Failures  int
	Solutions int
	// Completed is true when the tree was exhausted without an early stop.
	Completed bool
	Start     time.Time
}

// Elapsed returns the wall time since the run started.
func (s Statistics) Elapsed() time.Duration { return time.Since(s.Start) }

func (s Statistics) String() string {
	return fmt.Sprintf("#nodes: %d, #failures: %d, #solutions: %d, completed: %t",
		s.Nodes, s.Failures, s.Solutions, s.Completed)
}

// StopPredicate is checked before every node is expanded. Returning true
// ends the run with Completed == false. A nil predicate never stops.
type StopPredicate func(Statistics) bool

// StopAfterSolutions stops once n solutions have been found.
func StopAfterSolutions(n int) StopPredicate {
	return func(s Statistics) bool { return s.Solutions >= n }
}

// StopAfterNodes stops once n nodes have been visited.
func StopAfterNodes(n int) StopPredicate {
	return func(s Statistics) bool { return s.Nodes >= n }
}

// StopAfterFailures stops once n failures have been counted.
func StopAfterFailures(n int) StopPredicate {
	return func(s Statistics) bool { return s.Failures >= n }
}

// StopAfterDuration stops once d has elapsed since the run started.
func StopAfterDuration(d time.Duration) StopPredicate {
	return func(s Statistics) bool { return s.Elapsed() >= d }
}

// AnyOf stops as soon as one of ps does. Nil predicates are ignored.
func AnyOf(ps ...StopPredicate) StopPredicate {
	return func(s Statistics) bool {
		for _, p := range ps {
			if p != nil && p(s) {
				return true
			}
		}
		return false
	}
}

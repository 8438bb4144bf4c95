package cp

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gitrdm/gokancp/pkg/state"
)

func mustVar(t *testing.T, s *Solver, min, max int) IntVar {
	t.Helper()
	x, err := NewIntVar(s, min, max)
	if err != nil {
		t.Fatalf("NewIntVar(%d, %d): %v", min, max, err)
	}
	return x
}

// countingConstraint counts its propagations and optionally fails.
type countingConstraint struct {
	ConstraintBase
	calls int
	fail  bool
}

func newCounting(s *Solver) *countingConstraint {
	return &countingConstraint{ConstraintBase: NewConstraintBase(s)}
}

func (c *countingConstraint) Post() error { return nil }

func (c *countingConstraint) Propagate() error {
	c.calls++
	if c.fail {
		return ErrInconsistency
	}
	return nil
}

func TestNewIntVar_Errors(t *testing.T) {
	s := NewSolver()
	if _, err := NewIntVar(s, 3, 2); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("min > max: err = %v, want ErrInvalidRange", err)
	}
	if _, err := NewIntVar(s, 0, maxDomainSize); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("oversized range: err = %v, want ErrInvalidRange", err)
	}
	if _, err := NewIntVarFromValues(s, nil); !errors.Is(err, ErrEmptyDomain) {
		t.Errorf("no values: err = %v, want ErrEmptyDomain", err)
	}
}

func TestNewIntVarFromValues(t *testing.T) {
	s := NewSolver()
	x, err := NewIntVarFromValues(s, []int{7, -1, 3, 7})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := x.String(), "{-1,3,7}"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if x.Size() != 3 || x.Min() != -1 || x.Max() != 7 {
		t.Fatalf("size/min/max = %d/%d/%d", x.Size(), x.Min(), x.Max())
	}
}

func TestIntVar_NamedString(t *testing.T) {
	s := NewSolver()
	x, err := NewNamedIntVar(s, "q0", 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := x.String(); got != "q0={1,2,3}" {
		t.Fatalf("String() = %q", got)
	}
}

func TestSolver_ScheduleOnce(t *testing.T) {
	s := NewSolver()
	c := newCounting(s)
	s.Schedule(c)
	s.Schedule(c)
	if !c.IsScheduled() || s.QueueLen() != 1 {
		t.Fatalf("QueueLen() = %d, want 1", s.QueueLen())
	}
	if err := s.FixPoint(); err != nil {
		t.Fatal(err)
	}
	if c.calls != 1 {
		t.Fatalf("calls = %d, want 1", c.calls)
	}
	if c.IsScheduled() {
		t.Fatal("still scheduled after fixpoint")
	}
}

func TestSolver_InactiveSkipped(t *testing.T) {
	s := NewSolver()
	c := newCounting(s)
	c.SetActive(false)
	s.Schedule(c)
	if s.QueueLen() != 0 {
		t.Fatal("inactive constraint was enqueued")
	}
}

func TestSolver_FailedFixPointClearsQueue(t *testing.T) {
	s := NewSolver()
	bad := newCounting(s)
	bad.fail = true
	others := []*countingConstraint{newCounting(s), newCounting(s)}

	s.Schedule(bad)
	for _, o := range others {
		s.Schedule(o)
	}
	if err := s.FixPoint(); !IsInconsistency(err) {
		t.Fatalf("FixPoint() = %v, want inconsistency", err)
	}
	if s.QueueLen() != 0 {
		t.Fatalf("QueueLen() = %d after failure, want 0", s.QueueLen())
	}
	for i, o := range others {
		if o.IsScheduled() {
			t.Errorf("constraint %d still flagged as scheduled", i)
		}
		if o.calls != 0 {
			t.Errorf("constraint %d propagated after failure", i)
		}
	}

	// Flags are clear, so the constraints can be queued again.
	s.Schedule(others[0])
	if s.QueueLen() != 1 {
		t.Fatalf("QueueLen() = %d, want 1", s.QueueLen())
	}
}

func TestSolver_RestoreClearsQueue(t *testing.T) {
	for _, b := range []state.Backend{state.Trail, state.Copy} {
		t.Run(b.String(), func(t *testing.T) {
			s := NewSolver(WithBackend(b))
			c := newCounting(s)
			s.StateManager().SaveState()
			s.Schedule(c)
			s.StateManager().RestoreState()
			if s.QueueLen() != 0 || c.IsScheduled() {
				t.Fatal("queue survived a restore")
			}
		})
	}
}

func TestSolver_ActiveFlagIsReversible(t *testing.T) {
	s := NewSolver()
	c := newCounting(s)
	sm := s.StateManager()
	sm.SaveState()
	c.SetActive(false)
	sm.RestoreState()
	if !c.IsActive() {
		t.Fatal("deactivation survived restore")
	}
}

func TestSolver_ArenaReleasedOnRestore(t *testing.T) {
	for _, b := range []state.Backend{state.Trail, state.Copy} {
		t.Run(b.String(), func(t *testing.T) {
			s := NewSolver(WithBackend(b))
			sm := s.StateManager()
			x := mustVar(t, s, 0, 3)
			newCounting(s)
			live := s.Constraints()

			sm.SaveState()
			inner := newCounting(s)
			inner.SetActive(false)
			s.Schedule(newCounting(s))
			x.WhenFixed(func() error { return nil })
			if got := s.Constraints(); got != live+3 {
				t.Fatalf("Constraints() = %d, want %d", got, live+3)
			}
			sm.RestoreState()
			if got := s.Constraints(); got != live {
				t.Fatalf("after restore Constraints() = %d, want %d", got, live)
			}

			reused := newCounting(s)
			if reused.ID() != inner.ID() {
				t.Fatalf("ID() = %d, want reused slot %d", reused.ID(), inner.ID())
			}
			if !reused.IsActive() || reused.IsScheduled() {
				t.Fatal("reused slot kept the flags of its previous owner")
			}
		})
	}
}

func TestSolver_Subscriptions(t *testing.T) {
	s := NewSolver()
	x := mustVar(t, s, 0, 9)
	var fixed, bound, domain int
	x.WhenFixed(func() error { fixed++; return nil })
	x.WhenBoundChange(func() error { bound++; return nil })
	x.WhenDomainChange(func() error { domain++; return nil })

	steps := []struct {
		op                    func() error
		fixed, bound, domain int
	}{
		{func() error { return x.Remove(5) }, 0, 0, 1},
		{func() error { return x.RemoveBelow(2) }, 0, 1, 2},
		{func() error { return x.Remove(9) }, 0, 2, 3},
		{func() error { return x.Fix(3) }, 1, 3, 4},
	}
	for i, st := range steps {
		if err := st.op(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if err := s.FixPoint(); err != nil {
			t.Fatalf("step %d fixpoint: %v", i, err)
		}
		if fixed != st.fixed || bound != st.bound || domain != st.domain {
			t.Fatalf("step %d: fixed/bound/domain = %d/%d/%d, want %d/%d/%d",
				i, fixed, bound, domain, st.fixed, st.bound, st.domain)
		}
	}
}

func TestSolver_SubscriptionsRestored(t *testing.T) {
	s := NewSolver(WithBackend(state.Copy))
	x := mustVar(t, s, 0, 3)
	calls := 0
	sm := s.StateManager()
	sm.SaveState()
	x.WhenDomainChange(func() error { calls++; return nil })
	sm.RestoreState()
	if err := x.Remove(1); err != nil {
		t.Fatal(err)
	}
	if err := s.FixPoint(); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatalf("callback registered in a restored level ran %d times", calls)
	}
}

func TestSolver_PostFailureLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewSolver(WithLogger(logger))
	x := mustVar(t, s, 0, 0)
	y := mustVar(t, s, 0, 0)
	if err := s.Post(NewNotEqual(x, y, 0)); !IsInconsistency(err) {
		t.Fatalf("Post() = %v, want inconsistency", err)
	}
	if !strings.Contains(buf.String(), "post failed") {
		t.Fatalf("log output %q does not mention the failed post", buf.String())
	}
}

func TestSolver_PostWithoutFixPoint(t *testing.T) {
	s := NewSolver()
	x := mustVar(t, s, 0, 5)
	y := mustVar(t, s, 0, 5)
	if err := s.PostWith(NewLessOrEqual(x, y), false); err != nil {
		t.Fatal(err)
	}
	if err := y.RemoveAbove(2); err != nil {
		t.Fatal(err)
	}
	if x.Max() != 5 {
		t.Fatalf("x pruned before a fixpoint: %s", x)
	}
	if err := s.FixPoint(); err != nil {
		t.Fatal(err)
	}
	if x.Max() != 2 {
		t.Fatalf("x = %s, want max 2", x)
	}
	if s.Propagations() == 0 {
		t.Fatal("Propagations() = 0 after a fixpoint that pruned")
	}
}

func TestObjective_Minimize(t *testing.T) {
	s := NewSolver()
	x := mustVar(t, s, 0, 10)
	obj := s.Minimize(x)

	if err := obj.Tighten(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Tighten on unfixed var: err = %v", err)
	}

	sm := s.StateManager()
	sm.SaveState()
	if err := x.Fix(6); err != nil {
		t.Fatal(err)
	}
	if err := obj.Tighten(); !IsInconsistency(err) {
		t.Fatalf("Tighten() = %v, want inconsistency", err)
	}
	sm.RestoreState()

	if obj.Bound() != 5 {
		t.Fatalf("Bound() = %d, want 5", obj.Bound())
	}
	if err := s.FixPoint(); err != nil {
		t.Fatal(err)
	}
	if x.Max() != 5 {
		t.Fatalf("x = %s, want max 5 after the bound is imposed", x)
	}
}

func TestObjective_Maximize(t *testing.T) {
	s := NewSolver()
	x := mustVar(t, s, 0, 10)
	obj := s.Maximize(x)
	sm := s.StateManager()
	sm.SaveState()
	_ = x.Fix(10)
	_ = obj.Tighten()
	sm.RestoreState()
	if err := s.FixPoint(); !IsInconsistency(err) {
		t.Fatalf("FixPoint() = %v, want inconsistency once nothing beats 10", err)
	}
}

func TestObjective_MaximizeBoundIsInclusive(t *testing.T) {
	s := NewSolver()
	x := mustVar(t, s, 0, 10)
	obj := s.Maximize(x)
	sm := s.StateManager()
	sm.SaveState()
	if err := x.Fix(7); err != nil {
		t.Fatal(err)
	}
	_ = obj.Tighten()
	sm.RestoreState()

	if obj.Bound() != 8 {
		t.Fatalf("Bound() = %d, want 8", obj.Bound())
	}
	if err := s.FixPoint(); err != nil {
		t.Fatal(err)
	}
	if x.Min() != obj.Bound() {
		t.Fatalf("x = %s, want min %d", x, obj.Bound())
	}
}

func TestBoolVar(t *testing.T) {
	s := NewSolver()
	b := NewBoolVar(s)
	if b.IsTrue() || b.IsFalse() {
		t.Fatal("fresh BoolVar is decided")
	}
	if err := b.Fix(1); err != nil {
		t.Fatal(err)
	}
	if !b.IsTrue() {
		t.Fatal("IsTrue() = false after Fix(1)")
	}
}

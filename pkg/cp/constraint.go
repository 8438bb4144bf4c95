package cp

// Constraint is the contract every propagator satisfies.
//
// Post runs once when the constraint is registered with Solver.Post. It
// typically subscribes the constraint to variable events and may prune or
// fail immediately. Propagate runs each time the constraint is dequeued by
// the fixpoint loop while it is active.
//
// Implementations embed ConstraintBase, created with NewConstraintBase, and
// are used through a pointer.
type Constraint interface {
	Post() error
	Propagate() error

	base() *ConstraintBase
}

// ConstraintBase links a constraint to its record in the solver arena. The
// record holds the reversible active flag and the transient scheduled flag.
type ConstraintBase struct {
	solver *Solver
	id     int
}

// NewConstraintBase allocates the arena record for a new constraint.
func NewConstraintBase(s *Solver) ConstraintBase {
	return ConstraintBase{solver: s, id: s.newRecord()}
}

func (b *ConstraintBase) base() *ConstraintBase { return b }

// Solver returns the owning solver.
func (b *ConstraintBase) Solver() *Solver { return b.solver }

// ID returns the arena index of the constraint.
func (b *ConstraintBase) ID() int { return b.id }

// Propagate is a no-op default for constraints that do all their work in
// Post or in closures.
func (b *ConstraintBase) Propagate() error { return nil }

// SetActive switches the constraint on or off. Deactivation is reversible
// and is the way a subsumed constraint stops being propagated.
func (b *ConstraintBase) SetActive(active bool) {
	b.solver.records[b.id].active.SetValue(active)
}

// IsActive reports whether the constraint is still propagated.
func (b *ConstraintBase) IsActive() bool {
	return b.solver.records[b.id].active.Value()
}

// IsScheduled reports whether the constraint is waiting in the queue.
func (b *ConstraintBase) IsScheduled() bool {
	return b.solver.records[b.id].scheduled
}

// closureConstraint runs a callback on variable events.
type closureConstraint struct {
	ConstraintBase
	fn func() error
}

func newClosureConstraint(s *Solver, fn func() error) *closureConstraint {
	return &closureConstraint{ConstraintBase: NewConstraintBase(s), fn: fn}
}

func (c *closureConstraint) Post() error      { return nil }
func (c *closureConstraint) Propagate() error { return c.fn() }

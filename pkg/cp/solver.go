package cp

import (
	"context"
	"log/slog"

	"github.com/gitrdm/gokancp/pkg/state"
)

// Solver owns the state manager, the constraint arena and the propagation
// queue.
//
// Posting a constraint drives one fixpoint. During search the driver saves
// and restores state around every alternative; the solver listens to those
// restores and empties its queue, so work scheduled by a failed branch never
// leaks into its sibling.
//
// A Solver is not safe for concurrent use.
type Solver struct {
	sm       state.Manager
	records  []constraintRecord
	nRecords *state.Int // live prefix of records
	queue    []Constraint
	head     int

	fixPointListeners []func() error

	logger       *slog.Logger
	propagations int64
}

type constraintRecord struct {
	active    *state.Ref[bool]
	scheduled bool
}

// Option configures a Solver.
type Option func(*solverConfig)

type solverConfig struct {
	sm      state.Manager
	backend state.Backend
	logger  *slog.Logger
}

// WithBackend selects the reversible state strategy. The default is
// state.Trail.
func WithBackend(b state.Backend) Option {
	return func(c *solverConfig) { c.backend = b }
}

// WithStateManager supplies an existing state manager. It takes precedence
// over WithBackend.
func WithStateManager(sm state.Manager) Option {
	return func(c *solverConfig) { c.sm = sm }
}

// WithLogger sets a structured logger for solver diagnostics.
// When nil, no logging is performed.
func WithLogger(logger *slog.Logger) Option {
	return func(c *solverConfig) { c.logger = logger }
}

// NewSolver creates a solver.
func NewSolver(opts ...Option) *Solver {
	cfg := solverConfig{backend: state.Trail}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	sm := cfg.sm
	if sm == nil {
		sm = state.New(cfg.backend)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Solver{
		sm:       sm,
		nRecords: state.NewInt(sm, 0),
		queue:    make([]Constraint, 0, 64),
		logger:   logger,
	}
	sm.OnRestore(s.clearQueue)
	return s
}

// StateManager returns the reversible state manager.
func (s *Solver) StateManager() state.Manager { return s.sm }

// Logger returns the solver logger.
func (s *Solver) Logger() *slog.Logger { return s.logger }

// Propagations returns how many Propagate calls the fixpoint loop has made.
func (s *Solver) Propagations() int64 { return s.propagations }

// QueueLen reports the number of constraints waiting to be propagated.
func (s *Solver) QueueLen() int { return len(s.queue) - s.head }

// newRecord hands out the next arena slot. The live length is reversible,
// so slots of constraints created in a restored branch are reused.
func (s *Solver) newRecord() int {
	id := s.nRecords.Value()
	if id < len(s.records) {
		r := &s.records[id]
		r.active.SetValue(true)
		r.scheduled = false
	} else {
		s.records = append(s.records, constraintRecord{active: state.NewBool(s.sm, true)})
	}
	s.nRecords.SetValue(id + 1)
	return id
}

// Constraints reports how many arena records are live.
func (s *Solver) Constraints() int { return s.nRecords.Value() }

func (s *Solver) record(c Constraint) *constraintRecord {
	return &s.records[c.base().id]
}

// Schedule enqueues c unless it is inactive or already queued.
func (s *Solver) Schedule(c Constraint) {
	r := s.record(c)
	if r.scheduled || !r.active.Value() {
		return
	}
	r.scheduled = true
	s.queue = append(s.queue, c)
}

// OnFixPoint registers fn to run at the start of every fixpoint. Objectives
// use it to impose their bound.
func (s *Solver) OnFixPoint(fn func() error) {
	s.fixPointListeners = append(s.fixPointListeners, fn)
}

// FixPoint propagates until the queue is empty. On failure the queue is
// drained, every scheduled flag is cleared, and the error is returned.
func (s *Solver) FixPoint() error {
	if err := s.fixPoint(); err != nil {
		s.clearQueue()
		return err
	}
	return nil
}

func (s *Solver) fixPoint() error {
	for _, fn := range s.fixPointListeners {
		if err := fn(); err != nil {
			return err
		}
	}
	for s.head < len(s.queue) {
		c := s.queue[s.head]
		s.queue[s.head] = nil
		s.head++
		r := s.record(c)
		r.scheduled = false
		if !r.active.Value() {
			continue
		}
		s.propagations++
		if err := c.Propagate(); err != nil {
			return err
		}
	}
	s.queue = s.queue[:0]
	s.head = 0
	return nil
}

func (s *Solver) clearQueue() {
	for i := s.head; i < len(s.queue); i++ {
		s.record(s.queue[i]).scheduled = false
		s.queue[i] = nil
	}
	s.queue = s.queue[:0]
	s.head = 0
}

// Post registers c and runs a fixpoint.
func (s *Solver) Post(c Constraint) error {
	return s.PostWith(c, true)
}

// PostWith registers c; the fixpoint runs only if enforceFixPoint is set.
// A failing Post leaves the queue empty.
func (s *Solver) PostWith(c Constraint, enforceFixPoint bool) error {
	if err := c.Post(); err != nil {
		s.clearQueue()
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "post failed",
			slog.Int("constraint", c.base().id), slog.Any("error", err))
		return err
	}
	if enforceFixPoint {
		return s.FixPoint()
	}
	return nil
}

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/gitrdm/gokancp/pkg/cp"
	"github.com/gitrdm/gokancp/pkg/state"
)

// errStopped unwinds the recursion when the stop predicate fires.
var errStopped = errors.New("search: stopped")

// DFSearch is a depth-first search driver.
//
// Every alternative runs under its own saved state: the driver saves,
// counts a node, executes the alternative, recurses on success and restores
// before moving to the next sibling. An alternative returning
// cp.ErrInconsistency is a counted failure; any other error aborts the run.
//
// Per-run counters live on the driver, so a DFSearch must not be used by
// two runs at the same time. Independent drivers over independent solvers
// do not interfere.
type DFSearch struct {
	sm         state.Manager
	branching  Branching
	cfg        config
	onSolution []func()
	onFailure  []func()

	ctx       context.Context
	limit     StopPredicate
	objective cp.Objective
	stats     Statistics
	nextID    int
}

// New creates a driver exploring the tree produced by b. sm must be the
// state manager of the solver the alternatives act on.
func New(sm state.Manager, b Branching, opts ...Option) *DFSearch {
	return &DFSearch{
		sm:        sm,
		branching: b,
		cfg:       buildConfig(opts),
	}
}

// OnSolution registers fn to run at every solution node.
func (d *DFSearch) OnSolution(fn func()) {
	d.onSolution = append(d.onSolution, fn)
}

// OnFailure registers fn to run after every failed alternative.
func (d *DFSearch) OnFailure(fn func()) {
	d.onFailure = append(d.onFailure, fn)
}

// Solve explores the tree from the current state. The state is restored
// to its entry level before Solve returns.
func (d *DFSearch) Solve(ctx context.Context, limit StopPredicate) (Statistics, error) {
	return d.run(ctx, "solve", nil, limit, nil)
}

// SolveSubjectTo runs subjectTo (typically posting extra constraints) under
// a saved state, then solves. The extra constraints are gone when it
// returns. If subjectTo fails with an inconsistency the run is complete
// with zero nodes and no error.
func (d *DFSearch) SolveSubjectTo(ctx context.Context, limit StopPredicate, subjectTo func() error) (Statistics, error) {
	return d.run(ctx, "solve_subject_to", nil, limit, subjectTo)
}

// Optimize runs branch-and-bound: every solution calls obj.Tighten, which
// records a strictly better bound and fails. The last solution reported to
// OnSolution listeners is the best one found.
func (d *DFSearch) Optimize(ctx context.Context, obj cp.Objective, limit StopPredicate) (Statistics, error) {
	return d.run(ctx, "optimize", obj, limit, nil)
}

// OptimizeSubjectTo is Optimize under the extra constraints of subjectTo.
func (d *DFSearch) OptimizeSubjectTo(ctx context.Context, obj cp.Objective, limit StopPredicate, subjectTo func() error) (Statistics, error) {
	return d.run(ctx, "optimize_subject_to", obj, limit, subjectTo)
}

var spanNames = map[string]string{
	"solve":               "search.Solve",
	"solve_subject_to":    "search.SolveSubjectTo",
	"optimize":            "search.Optimize",
	"optimize_subject_to": "search.OptimizeSubjectTo",
}

func (d *DFSearch) run(ctx context.Context, mode string, obj cp.Objective, limit StopPredicate, subjectTo func() error) (Statistics, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := d.cfg.tracer.Start(ctx, spanNames[mode])
	defer span.End()

	d.ctx, d.limit, d.objective = ctx, limit, obj
	d.stats = Statistics{Start: time.Now()}
	d.nextID = 0
	if r, ok := d.branching.(Resetter); ok {
		r.Reset()
	}
	log := d.cfg.logger
	log.LogAttrs(ctx, slog.LevelDebug, "search started",
		slog.String("mode", mode), slog.Int("level", d.sm.Level()))

	err := d.sm.WithNewState(func() error {
		if subjectTo != nil {
			if err := subjectTo(); err != nil {
				if cp.IsInconsistency(err) {
					log.LogAttrs(ctx, slog.LevelDebug, "subject-to constraints are infeasible",
						slog.String("mode", mode))
				}
				return err
			}
		}
		return d.dfs(-1, 0)
	})

	switch {
	case err == nil, cp.IsInconsistency(err):
		d.stats.Completed = true
		err = nil
	case errors.Is(err, errStopped):
		err = nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// Cancellation is reported as ctx.Err() itself.
	default:
		err = fmt.Errorf("search %s: %w", mode, err)
	}
	st := d.stats
	d.ctx, d.limit, d.objective = nil, nil, nil

	span.SetAttributes(
		attribute.String("search.mode", mode),
		attribute.Int("search.nodes", st.Nodes),
		attribute.Int("search.failures", st.Failures),
		attribute.Int("search.solutions", st.Solutions),
		attribute.Bool("search.completed", st.Completed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	d.cfg.metrics.observe(mode, st)
	log.LogAttrs(ctx, slog.LevelDebug, "search finished",
		slog.String("mode", mode),
		slog.Int("nodes", st.Nodes),
		slog.Int("failures", st.Failures),
		slog.Int("solutions", st.Solutions),
		slog.Bool("completed", st.Completed),
		slog.Duration("elapsed", st.Elapsed()),
	)
	return st, err
}

func (d *DFSearch) dfs(parentID, position int) error {
	if d.limit != nil && d.limit(d.stats) {
		return errStopped
	}
	if err := d.ctx.Err(); err != nil {
		return err
	}
	alts := d.branching.Branch()
	id := d.nextID
	d.nextID++

	if len(alts) == 0 {
		d.stats.Solutions++
		if l := d.cfg.listener; l != nil {
			l.Solution(parentID, id, position)
		}
		for _, fn := range d.onSolution {
			fn()
		}
		if d.objective != nil {
			return d.objective.Tighten()
		}
		return nil
	}

	if l := d.cfg.listener; l != nil {
		l.Branch(parentID, id, position, len(alts))
	}
	for i, alt := range alts {
		err := d.sm.WithNewState(func() error {
			d.stats.Nodes++
			if err := alt(); err != nil {
				return err
			}
			return d.dfs(id, i)
		})
		if err == nil {
			continue
		}
		if !cp.IsInconsistency(err) {
			return err
		}
		d.stats.Failures++
		if l := d.cfg.listener; l != nil {
			l.Fail(id, d.nextID, i)
		}
		d.nextID++
		for _, fn := range d.onFailure {
			fn()
		}
	}
	return nil
}

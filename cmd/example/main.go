// Command example solves the n-queens puzzle with the finite-domain solver.
//
// It counts solutions (or stops early with -solutions / -timeout), prints the
// first board found and reports search statistics. Search runs can be
// observed through Prometheus (-metrics-addr) and OpenTelemetry spans written
// to stdout (-trace). With -portfolio every branching strategy runs on both
// state backends concurrently, each on its own solver.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gitrdm/gokancp/internal/parallel"
	"github.com/gitrdm/gokancp/pkg/cp"
	"github.com/gitrdm/gokancp/pkg/search"
	"github.com/gitrdm/gokancp/pkg/state"
)

var strategies = []string{"firstfail", "lastconflict", "conflictordering"}

func main() {
	n := flag.Int("n", 8, "board size")
	backend := flag.String("backend", "trail", "state backend: trail or copy")
	strategy := flag.String("strategy", "firstfail", "branching: "+strings.Join(strategies, ", "))
	lds := flag.Int("lds", -1, "bound the number of right branches per path (negative disables)")
	maxSolutions := flag.Int("solutions", 0, "stop after this many solutions (0 enumerates all)")
	timeout := flag.Duration("timeout", 0, "abort the search after this long (0 disables)")
	portfolio := flag.Bool("portfolio", false, "run every strategy on both backends in parallel")
	workers := flag.Int("workers", 0, "portfolio worker goroutines (0 uses the CPU count)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (empty disables)")
	traceSpans := flag.Bool("trace", false, "export search spans to stdout")
	flag.Parse()

	log := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := initTracing(ctx, *traceSpans, log)
	if err != nil {
		log.Error("failed to initialise tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownWithTimeout(shutdownTracing, log)

	var metrics *search.Metrics
	if *metricsAddr != "" {
		if metrics, err = search.NewMetrics(nil); err != nil {
			log.Error("failed to initialise metrics", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	metricsSrv := serveMetrics(*metricsAddr, metrics, log)

	cfg := runConfig{
		n:            *n,
		lds:          *lds,
		maxSolutions: *maxSolutions,
		timeout:      *timeout,
		metrics:      metrics,
		log:          log,
	}
	if *portfolio {
		err = runPortfolio(ctx, cfg, *workers)
	} else {
		err = runSingle(ctx, cfg, *backend, *strategy)
	}
	if err != nil {
		log.Error("search failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if metricsSrv != nil {
		log.Info("search done; serving metrics until interrupted")
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

type runConfig struct {
	n            int
	lds          int
	maxSolutions int
	timeout      time.Duration
	metrics      *search.Metrics
	log          *slog.Logger
}

// job builds a fresh model and returns the search over it together with the
// queen variables.
func (c runConfig) job(backend, strategy string) (*search.DFSearch, []cp.IntVar, error) {
	b, err := state.ParseBackend(backend)
	if err != nil {
		return nil, nil, err
	}
	s := cp.NewSolver(cp.WithBackend(b), cp.WithLogger(c.log))
	q, err := queens(s, c.n)
	if err != nil {
		return nil, nil, err
	}
	br, err := branching(s, q, strategy, c.lds)
	if err != nil {
		return nil, nil, err
	}
	d := search.New(s.StateManager(), br,
		search.WithMetrics(c.metrics),
		search.WithLogger(c.log.With(slog.String("backend", backend), slog.String("strategy", strategy))),
	)
	return d, q, nil
}

func (c runConfig) solve(ctx context.Context, d *search.DFSearch) (search.Statistics, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	var limit search.StopPredicate
	if c.maxSolutions > 0 {
		limit = search.StopAfterSolutions(c.maxSolutions)
	}
	st, err := d.Solve(ctx, limit)
	if errors.Is(err, context.DeadlineExceeded) {
		c.log.Warn("search timed out", slog.Duration("timeout", c.timeout))
		return st, nil
	}
	return st, err
}

func runSingle(ctx context.Context, c runConfig, backend, strategy string) error {
	d, q, err := c.job(backend, strategy)
	if err != nil {
		return err
	}
	var first []int
	d.OnSolution(func() {
		if first == nil {
			first = values(q)
		}
	})

	fmt.Printf("=== %d-Queens (%s, %s) ===\n\n", c.n, backend, strategy)
	st, err := c.solve(ctx, d)
	if err != nil {
		return err
	}
	if first == nil {
		fmt.Println("No solution found.")
	} else {
		printBoard(first)
	}
	fmt.Printf("\n%v\nelapsed: %v\n", st, st.Elapsed().Round(time.Microsecond))
	return nil
}

func runPortfolio(ctx context.Context, c runConfig, workers int) error {
	var jobs []parallel.Job
	for _, backend := range []string{"trail", "copy"} {
		for _, strategy := range strategies {
			jobs = append(jobs, parallel.Job{
				Name: backend + "/" + strategy,
				Run: func(ctx context.Context) (search.Statistics, error) {
					d, _, err := c.job(backend, strategy)
					if err != nil {
						return search.Statistics{}, err
					}
					return c.solve(ctx, d)
				},
			})
		}
	}

	fmt.Printf("=== %d-Queens portfolio (%d runs) ===\n\n", c.n, len(jobs))
	var errs []error
	for _, r := range parallel.RunAll(ctx, workers, jobs) {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
			continue
		}
		fmt.Printf("%-24s %v\n", r.Name, r.Stats)
	}
	return errors.Join(errs...)
}

// queens posts the three disequalities between every pair of rows.
func queens(s *cp.Solver, n int) ([]cp.IntVar, error) {
	q := make([]cp.IntVar, n)
	for i := range q {
		x, err := cp.NewNamedIntVar(s, fmt.Sprintf("q%d", i), 0, n-1)
		if err != nil {
			return nil, err
		}
		q[i] = x
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for _, c := range []int{0, j - i, i - j} {
				if err := s.Post(cp.NewNotEqual(q[i], q[j], c)); err != nil {
					return nil, err
				}
			}
		}
	}
	return q, nil
}

func branching(s *cp.Solver, q []cp.IntVar, strategy string, lds int) (search.Branching, error) {
	var b search.Branching
	switch strategy {
	case "firstfail":
		b = search.FirstFail(q...)
	case "lastconflict":
		b = search.LastConflict(search.FirstFailSelector(q...), search.MinValue)
	case "conflictordering":
		b = search.ConflictOrdering(search.FirstFailSelector(q...), search.MinValue)
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	if lds < 0 {
		return b, nil
	}
	return search.LimitedDiscrepancy(s.StateManager(), b, lds)
}

func values(xs []cp.IntVar) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = x.Min()
	}
	return out
}

func printBoard(cols []int) {
	for _, c := range cols {
		row := make([]string, len(cols))
		for j := range row {
			row[j] = "."
		}
		row[c] = "Q"
		fmt.Println(strings.Join(row, " "))
	}
}

func serveMetrics(addr string, m *search.Metrics, log *slog.Logger) *http.Server {
	if addr == "" || m == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server exited", slog.String("error", err.Error()))
		}
	}()

	log.Info("serving Prometheus metrics", slog.String("addr", addr))
	return srv
}

package search

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors updated at the end of every
// search run. All collectors are labeled by run mode (solve, optimize, ...).
type Metrics struct {
	gatherer prometheus.Gatherer

	Runs      *prometheus.CounterVec
	Nodes     *prometheus.CounterVec
	Failures  *prometheus.CounterVec
	Solutions *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
}

// NewMetrics registers the search metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice on the same
// registry returns the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cp_search_runs_total",
		Help: "Search runs, labeled by mode and whether the tree was exhausted.",
	}, []string{"mode", "completed"}), "cp_search_runs_total")
	if err != nil {
		return nil, err
	}
	nodes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cp_search_nodes_total",
		Help: "Search nodes visited, one per executed alternative.",
	}, []string{"mode"}), "cp_search_nodes_total")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cp_search_failures_total",
		Help: "Failed alternatives.",
	}, []string{"mode"}), "cp_search_failures_total")
	if err != nil {
		return nil, err
	}
	solutions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cp_search_solutions_total",
		Help: "Solutions found.",
	}, []string{"mode"}), "cp_search_solutions_total")
	if err != nil {
		return nil, err
	}
	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cp_search_duration_seconds",
		Help:    "Wall time of a search run in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
	}, []string{"mode"}), "cp_search_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:  gatherer,
		Runs:      runs,
		Nodes:     nodes,
		Failures:  failures,
		Solutions: solutions,
		Duration:  duration,
	}, nil
}

// observe records one finished run. A nil receiver is a no-op.
func (m *Metrics) observe(mode string, st Statistics) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(mode, strconv.FormatBool(st.Completed)).Inc()
	m.Nodes.WithLabelValues(mode).Add(float64(st.Nodes))
	m.Failures.WithLabelValues(mode).Add(float64(st.Failures))
	m.Solutions.WithLabelValues(mode).Add(float64(st.Solutions))
	m.Duration.WithLabelValues(mode).Observe(st.Elapsed().Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

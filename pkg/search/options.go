package search

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gitrdm/gokancp/pkg/search"

// Option configures a DFSearch.
type Option func(*config)

type config struct {
	listener Listener
	metrics  *Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// WithListener attaches a structural tree listener.
func WithListener(l Listener) Option {
	return func(c *config) { c.listener = l }
}

// WithMetrics records per-run statistics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithTracer overrides the tracer used for run spans. The default is the
// global provider's tracer for this package.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) { c.tracer = t }
}

// WithLogger sets a structured logger for run diagnostics.
// When nil, no logging is performed.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func buildConfig(opts []Option) config {
	var cfg config
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

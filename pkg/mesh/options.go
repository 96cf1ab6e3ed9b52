package mesh

// options.go is the mesh's functional-options layer, in the same shape
// as the teacher's config.go: a private config struct, sensible
// defaults, and a set of With* constructors that are the only way
// callers can influence construction.

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Voskan/shards/pkg/store"
)

type config struct {
	registry *prometheus.Registry
	logger   *zap.Logger
	store    *store.Store
	clock    func() int64 // unix-nanos, overridable for deterministic tests
}

func defaultConfig() *config {
	return &config{
		logger: zap.NewNop(),
	}
}

// Option configures a Mesh at construction time.
type Option func(*config)

// WithMetrics enables Prometheus metrics on the mesh. Passing nil
// disables metrics (the default).
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger plugs an external zap.Logger. The mesh only logs slow or
// exceptional events (compose failures, wire errors); the tick hot path
// never logs.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStore attaches a durable store backing External variables so
// AllocExternalVariable survives process restarts.
func WithStore(s *store.Store) Option {
	return func(c *config) { c.store = s }
}

// WithClock records a clock on the mesh configuration. No mesh
// operation reads it; suspend deadlines are taken from time.Now.
func WithClock(now func() int64) Option {
	return func(c *config) {
		if now != nil {
			c.clock = now
		}
	}
}

// Package pool implements the Doppelganger pool (§4.11): a template
// wire plus a thread-safe free list of structurally-identical clones,
// so TryMany/Expand/Spawn (pkg/parallel) can acquire N running copies
// of a wire without recomposing each one from scratch.
//
// The source builds a clone by deserializing a byte-for-byte copy of
// the template; this port has no wire serialization format, so a Pool
// is constructed with a factory closure that rebuilds an equivalent
// wire from scratch instead — the same "fresh copy, then compose"
// shape, with the deserialize step swapped for a constructor call. See
// DESIGN.md for the tradeoff.
package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Voskan/shards/pkg/compose"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// NotStoppedError is returned by Release when handed a wire that is
// still running — the caller must stop a clone before returning it
// (§4.11: "the caller must have called stop on it first").
type NotStoppedError struct {
	Wire string
}

func (e *NotStoppedError) Error() string {
	return fmt.Sprintf("pool: release %q: wire is still running", e.Wire)
}

type idleClone struct {
	w     *wire.Wire
	since time.Time
}

// Pool owns a factory for fresh clones and a free list of released
// ones. All bookkeeping is behind a single mutex (§5: "Doppelganger-pool
// acquire/release is mutex-guarded") — contention is expected to be low
// since acquire/release only happen at TryMany/Expand/Spawn boundaries,
// not on every tick.
type Pool struct {
	mu sync.Mutex

	name    string
	factory func() *wire.Wire

	free []idleClone
	ttl  time.Duration
	now  func() time.Time

	composedHash uint64
	hasTemplate  bool

	hits, misses, released, pruned uint64

	metrics metricsSink
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithIdleTTL bounds how long a released clone sits in the free list
// before Prune discards it. Zero (the default) disables pruning: clones
// live until the pool itself is garbage collected.
func WithIdleTTL(d time.Duration) Option {
	return func(p *Pool) { p.ttl = d }
}

// WithClock overrides the pool's notion of "now", for deterministic
// idle-TTL tests — the same override shape as mesh.WithClock.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		if now != nil {
			p.now = now
		}
	}
}

// WithMetrics enables hit/miss/idle gauges on the pool.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(p *Pool) { p.metrics = newMetricsSink(reg, p.name) }
}

// New constructs a Pool of clones built by factory. factory must return
// a wire structurally identical to every other wire it returns (same
// shards in the same order with the same configuration) — Acquire
// relies on that to guarantee every clone composes to the same hash
// (§4.11's "Guarantees").
func New(name string, factory func() *wire.Wire, opts ...Option) *Pool {
	p := &Pool{
		name:    name,
		factory: factory,
		now:     time.Now,
		metrics: noopMetrics{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Acquire returns a cloned, composed wire: a recycled one from the free
// list if the pool has one ready, otherwise a fresh copy from the
// factory composed against inputType/shared (§4.11). Every clone this
// pool ever returns composes to the same hash; a factory that violates
// that is a programmer error and Acquire returns an error rather than
// silently returning a structurally different wire.
func (p *Pool) Acquire(composer *compose.Composer, inputType *typesys.Type, shared *variable.Scope) (*wire.Wire, error) {
	p.mu.Lock()
	p.pruneLocked()
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free = p.free[:n-1]
		p.hits++
		p.metrics.incHit()
		p.metrics.setIdle(len(p.free))
		p.mu.Unlock()
		c.w.Reset()
		return c.w, nil
	}
	p.misses++
	p.metrics.incMiss()
	p.mu.Unlock()

	w := p.factory()
	if _, err := composer.Compose(w, inputType, shared); err != nil {
		return nil, fmt.Errorf("pool %s: compose clone: %w", p.name, err)
	}

	p.mu.Lock()
	if !p.hasTemplate {
		p.composedHash = w.ComposedHash()
		p.hasTemplate = true
	} else if w.ComposedHash() != p.composedHash {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool %s: factory produced a structurally different clone (hash %x, want %x)", p.name, w.ComposedHash(), p.composedHash)
	}
	p.mu.Unlock()

	return w, nil
}

// Release returns clone to the free list for reuse. clone must already
// be stopped (HasEnded true); Release does not stop it itself, matching
// §4.11's "the caller must have called stop on it first".
func (p *Pool) Release(clone *wire.Wire) error {
	if clone.IsRunning() {
		return &NotStoppedError{Wire: clone.WireName()}
	}
	p.mu.Lock()
	p.free = append(p.free, idleClone{w: clone, since: p.now()})
	p.released++
	p.metrics.incRelease()
	p.metrics.setIdle(len(p.free))
	p.mu.Unlock()
	return nil
}

// Prune discards free clones that have been idle longer than the
// configured TTL. Acquire calls this internally on every invocation, so
// callers only need Prune directly if they want to reclaim memory from
// an otherwise-idle pool between acquisitions (§4.11 adapts the
// teacher's generation-ring bulk-free-on-TTL idea — genring rotates
// whole generations of arena-backed entries; a pool's free list is
// small enough that per-clone age stamps serve the same purpose without
// the ring machinery).
func (p *Pool) Prune() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pruneLocked()
}

func (p *Pool) pruneLocked() int {
	if p.ttl <= 0 || len(p.free) == 0 {
		return 0
	}
	now := p.now()
	cut := 0
	for cut < len(p.free) && now.Sub(p.free[cut].since) >= p.ttl {
		cut++
	}
	if cut == 0 {
		return 0
	}
	p.free = append([]idleClone(nil), p.free[cut:]...)
	p.pruned += uint64(cut)
	p.metrics.incPruned(cut)
	p.metrics.setIdle(len(p.free))
	return cut
}

// Stats reports cumulative hit/miss/release/prune counts and the
// current free-list size, for tests and host introspection.
func (p *Pool) Stats() (hits, misses, released, pruned uint64, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses, p.released, p.pruned, len(p.free)
}

// Package mesh implements the cooperative scheduler that owns wires,
// ticks them round-robin, routes shared globals/refs, and tracks the
// visited-wires memoization cache the composer relies on (§4.9).
package mesh

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Voskan/shards/pkg/compose"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// Wire is the minimal surface the mesh drives. *wire.Wire satisfies it.
type Wire interface {
	compose.ShardSequence
	shard.WireHandle

	Prepare(flow *shard.Flow, refs, globals variable.Table)
	Start(input value.Value)
	Tick() (wire.State, error)
	Stop(out value.Value) (value.Value, error)
	IsRunning() bool
	HasEnded() bool
	FinishedOutput() value.Value
	FinishedError() error
}

// Mesh is a single-threaded cooperative scheduler (§4.9, §5).
type Mesh struct {
	mu sync.Mutex

	cfg *config

	composer *compose.Composer

	refs    variable.Table
	globals variable.Table

	scheduled []Wire
	flows     map[Wire]*shard.Flow

	visited map[string]bool

	errLog []error

	metrics metricsSink
}

// New constructs an empty Mesh.
func New(opts ...Option) *Mesh {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	return &Mesh{
		cfg:      cfg,
		composer: compose.New(),
		refs:     make(variable.Table),
		globals:  make(variable.Table),
		flows:    make(map[Wire]*shard.Flow),
		visited:  make(map[string]bool),
		metrics:  newMetricsSink(cfg.registry),
	}
}

// Schedule composes w (if not already composed), warms it up, and
// queues it. Each wire is added exactly once (§4.9).
func (m *Mesh) Schedule(w Wire, input value.Value, forceCompose bool) error {
	m.mu.Lock()
	for _, existing := range m.scheduled {
		if existing == w {
			m.mu.Unlock()
			return nil
		}
	}
	m.mu.Unlock()

	if forceCompose || w.ComposedHash() == 0 {
		scope := variable.NewScope(nil, m.refs, m.globals)
		if _, err := m.composer.Compose(w, nil, scope); err != nil {
			m.mu.Lock()
			m.errLog = append(m.errLog, err)
			m.mu.Unlock()
			m.cfg.logger.Warn("wire compose error", zap.String("wire", w.WireName()), zap.Error(err))
			return err
		}
	}

	flow := &shard.Flow{}
	w.Prepare(flow, m.refs, m.globals)
	w.Start(input)

	m.mu.Lock()
	m.visited[w.Key()] = true
	m.scheduled = append(m.scheduled, w)
	m.flows[w] = flow
	m.mu.Unlock()

	m.metrics.incScheduled()
	m.metrics.setActiveWires(len(m.scheduled))
	return nil
}

// Unschedule removes w from the mesh without stopping it.
func (m *Mesh) Unschedule(w Wire) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.scheduled {
		if existing == w {
			m.scheduled = append(m.scheduled[:i], m.scheduled[i+1:]...)
			delete(m.flows, w)
			break
		}
	}
	m.metrics.setActiveWires(len(m.scheduled))
}

// Tick advances every active wire one cooperative step, in insertion
// order, and returns true while any wire is still runnable (§4.9).
func (m *Mesh) Tick() bool {
	m.mu.Lock()
	wires := append([]Wire(nil), m.scheduled...)
	m.mu.Unlock()

	m.metrics.incTicks()

	anyRunning := false
	for _, w := range wires {
		if !w.IsRunning() {
			continue
		}
		if _, err := w.Tick(); err != nil {
			m.mu.Lock()
			m.errLog = append(m.errLog, err)
			m.mu.Unlock()
			m.metrics.incErrors()
			m.cfg.logger.Warn("wire tick error", zap.String("wire", w.WireName()), zap.Error(err))
		}
		if w.HasEnded() {
			if w.FinishedError() != nil {
				m.metrics.incErrors()
				m.mu.Lock()
				m.errLog = append(m.errLog, w.FinishedError())
				m.mu.Unlock()
				m.cfg.logger.Warn("wire failed", zap.String("wire", w.WireName()), zap.Error(w.FinishedError()))
			}
			m.Unschedule(w)
		} else if w.IsRunning() {
			anyRunning = true
		}
	}
	return anyRunning
}

// Terminate stops every scheduled wire, fires on-stops (via Wire.Stop),
// and clears the visited-wires cache and refs table (§4.9, §5).
func (m *Mesh) Terminate() error {
	m.mu.Lock()
	wires := append([]Wire(nil), m.scheduled...)
	m.mu.Unlock()

	var errs error
	for _, w := range wires {
		if _, err := w.Stop(value.None); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("wire %s: %w", w.WireName(), err))
		}
	}

	m.mu.Lock()
	m.scheduled = nil
	m.flows = make(map[Wire]*shard.Flow)
	m.visited = make(map[string]bool)
	m.refs = make(variable.Table)
	m.mu.Unlock()
	m.metrics.setActiveWires(0)
	return errs
}

// SetGlobal binds name in the mesh's globals table, the outermost scope
// level (§4.3).
func (m *Mesh) SetGlobal(name string, v value.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.globals[name]; ok {
		existing.Set(v)
		return
	}
	m.globals[name] = variable.NewVariable(name, v)
}

// GetGlobal reads a mesh global.
func (m *Mesh) GetGlobal(name string) (value.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.globals[name]
	if !ok {
		return value.None, false
	}
	return v.Get(), true
}

// AllocExternalVariable injects a host-owned variable that Release never
// frees (§4.3); when a Store is configured it is also persisted.
func (m *Mesh) AllocExternalVariable(name string, v value.Value) error {
	m.mu.Lock()
	m.refs[name] = variable.NewExternal(name, v)
	m.mu.Unlock()
	if m.cfg.store != nil {
		return m.cfg.store.Put(name, v)
	}
	return nil
}

// FreeExternalVariable removes the host-injected slot and, if a Store is
// configured, its persisted copy.
func (m *Mesh) FreeExternalVariable(name string) error {
	m.mu.Lock()
	delete(m.refs, name)
	m.mu.Unlock()
	if m.cfg.store != nil {
		return m.cfg.store.Delete(name)
	}
	return nil
}

// VisitedWires reports whether key was already composed in this mesh's
// lifetime, the memoization the composer consults so sibling shards
// referencing the same sub-wire compose it once (§4.9, §4.10).
func (m *Mesh) VisitedWires(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visited[key]
}

// MarkVisited records key in the visited-wires cache.
func (m *Mesh) MarkVisited(key string) {
	m.mu.Lock()
	m.visited[key] = true
	m.mu.Unlock()
}

// Errors returns a snapshot of the mesh's error log (§7: "Hosts that
// schedule wires see them in the mesh's error log; the mesh continues
// running other wires").
func (m *Mesh) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errLog...)
}

// Refs exposes the mesh-refs scope level (e.g. for control-flow shards
// building a Scope for a target wire).
func (m *Mesh) Refs() variable.Table { return m.refs }

// Globals exposes the mesh-globals scope level.
func (m *Mesh) Globals() variable.Table { return m.globals }

// Composer returns the mesh's Composer, reused so deep-requirement
// propagation and recursion guards span every wire scheduled on this
// mesh (control-flow shards compose their target wire through it).
func (m *Mesh) Composer() *compose.Composer { return m.composer }

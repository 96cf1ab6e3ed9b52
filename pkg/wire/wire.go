// Package wire implements the wire execution unit (§4.7). The
// flow/context machinery that tracks "where am I running" (§4.8) lives
// in pkg/shard, which this package imports; a Context refers to its
// active wire only through the shard.WireHandle interface, so pkg/shard
// does not import this package.
package wire

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Voskan/shards/internal/coro"
	"github.com/Voskan/shards/pkg/compose"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// State is a wire's lifecycle state (§4.7).
type State uint8

const (
	StateIdle State = iota
	StatePrepared
	StateStarting
	StateIterating
	StateEnded
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePrepared:
		return "Prepared"
	case StateStarting:
		return "Starting"
	case StateIterating:
		return "Iterating"
	case StateEnded:
		return "Ended"
	case StateStopped:
		return "Stopped"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

var idSeq atomic.Uint64

// StopListener is invoked, in LIFO registration order, when the wire
// finalizes via Stop (§5 cancellation semantics).
type StopListener func(w *Wire)

// Wire is an ordered sequence of shards executed as a coroutine (§4.7).
type Wire struct {
	mu sync.Mutex

	id   uint64
	name string

	shards []shard.Shard

	inputType    *typesys.Type
	composedHash uint64
	cachedInput  *typesys.Type
	cachedResult compose.Result
	hasCached    bool

	Looped bool
	Unsafe bool

	state State

	startInput     value.Value
	finishedOutput value.Value
	finishedErr    error

	locals variable.Table

	co  *coro.Coroutine
	ctx *shard.Context

	stopListeners []StopListener
}

// New constructs an empty, Idle wire named name.
func New(name string) *Wire {
	return &Wire{
		id:     idSeq.Add(1),
		name:   name,
		locals: make(variable.Table),
		state:  StateIdle,
	}
}

func (w *Wire) WireName() string             { return w.name }
func (w *Wire) Locals() variable.Table        { return w.locals }
func (w *Wire) StartInput() value.Value       { return w.startInput }
func (w *Wire) ID() uint64                    { return w.id }
func (w *Wire) State() State                  { w.mu.Lock(); defer w.mu.Unlock(); return w.state }
func (w *Wire) FinishedOutput() value.Value   { return w.finishedOutput }
func (w *Wire) FinishedError() error          { return w.finishedErr }
func (w *Wire) IsRunning() bool {
	s := w.State()
	return s == StatePrepared || s == StateStarting || s == StateIterating
}
func (w *Wire) HasEnded() bool {
	s := w.State()
	return s == StateEnded || s == StateStopped || s == StateFailed
}

// AddShard appends s to the wire. Only legal before Compose.
func (w *Wire) AddShard(s shard.Shard) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shards = append(w.shards, s)
}

// RemoveShard removes the shard at index i.
func (w *Wire) RemoveShard(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.shards) {
		return fmt.Errorf("wire %s: remove shard: index %d out of range", w.name, i)
	}
	w.shards = append(w.shards[:i], w.shards[i+1:]...)
	return nil
}

// Shards returns the wire's ordered shard sequence (compose.ShardSequence).
func (w *Wire) Shards() []shard.Shard { return w.shards }

// InputType returns the wire's declared input type, or Any if unset.
func (w *Wire) InputType() *typesys.Type {
	if w.inputType == nil {
		return typesys.AnyT
	}
	return w.inputType
}

// SetInputType declares the wire's expected input type.
func (w *Wire) SetInputType(t *typesys.Type) { w.inputType = t }

// Key identifies this wire for the composer's recursion guard and
// memoization cache.
func (w *Wire) Key() string { return fmt.Sprintf("%s#%d", w.name, w.id) }

func (w *Wire) ComposedHash() uint64    { return w.composedHash }
func (w *Wire) SetComposedHash(h uint64) { w.composedHash = h }

// CachedResult implements the compose-time cache check of §4.5 step 5:
// a cached result is reusable only if the wire was composed before and
// the presented input type matches the one it was composed with.
func (w *Wire) CachedResult() (compose.Result, bool) {
	if !w.hasCached {
		return compose.Result{}, false
	}
	return w.cachedResult, true
}

// CachedInputType returns the input type the wire was last composed
// with, so the composer can compare it against the type presented on
// a subsequent Compose call (§4.5 step 5).
func (w *Wire) CachedInputType() *typesys.Type { return w.cachedInput }

func (w *Wire) SetCachedResult(in *typesys.Type, r compose.Result) {
	w.cachedInput = in
	w.cachedResult = r
	w.hasCached = true
}

// ClearComposedHash forces the next Compose to re-walk the wire (§8:
// idempotence holds "unless W is marked root or its composed-hash has
// been cleared").
func (w *Wire) ClearComposedHash() {
	w.composedHash = 0
	w.hasCached = false
}

// OnStop registers a listener fired during Stop, LIFO.
func (w *Wire) OnStop(l StopListener) { w.stopListeners = append(w.stopListeners, l) }

// Reset returns an ended wire to Idle without discarding its composed
// shape: composedHash/cachedResult survive, so a subsequent Compose call
// on the same input type is a cache hit. Only the per-run state
// (coroutine, context, finished output/error) is cleared. The caller
// must have already stopped the wire — this is the Doppelganger pool's
// reuse path (§4.11), which recycles a clone instead of reconstructing
// one from the template.
func (w *Wire) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateIdle
	w.finishedOutput = value.None
	w.finishedErr = nil
	w.co = nil
	w.ctx = nil
}

// AddLocal binds name in this wire's local scope.
func (w *Wire) AddLocal(name string, v value.Value) *variable.Variable {
	vv := variable.NewVariable(name, v)
	w.locals[name] = vv
	return vv
}

// Compose is the wire-level entry point for §4.5: composes this wire
// against inputType (or the declared InputType if nil), in the given
// shared scope, using c.
func (w *Wire) Compose(c *compose.Composer, inputType *typesys.Type, shared *variable.Scope) (compose.Result, error) {
	return c.Compose(w, inputType, shared)
}

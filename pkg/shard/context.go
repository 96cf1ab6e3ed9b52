package shard

import (
	"time"

	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// FlowState is the control-flow signal propagated after each shard
// activation (§3, §4.7's loop body).
type FlowState uint8

const (
	FlowContinue FlowState = iota
	FlowReturn
	FlowRebase
	FlowRestart
	FlowStop
	FlowError
)

func (s FlowState) String() string {
	switch s {
	case FlowContinue:
		return "Continue"
	case FlowReturn:
		return "Return"
	case FlowRebase:
		return "Rebase"
	case FlowRestart:
		return "Restart"
	case FlowStop:
		return "Stop"
	case FlowError:
		return "Error"
	default:
		return "Unknown"
	}
}

// WireHandle is the minimal surface Context needs from the active wire:
// enough to identify it and reach its local variable table, without this
// package depending on the concrete pkg/wire.Wire type — which itself
// holds Shard values and would otherwise import this package, forming a
// cycle. pkg/wire.Wire satisfies this interface directly.
type WireHandle interface {
	WireName() string
	Locals() variable.Table
	StartInput() value.Value
}

// Flow is the mutable "where am I running" pointer described in §4.8:
// the active wire, the resumer to switch back to on yield/end, and the
// current flow-control signal.
type Flow struct {
	Active  WireHandle
	Resumer WireHandle
	State   FlowState
}

// StopFlow sets the flow's state to Stop, per §4.8's stopFlow(out).
func (f *Flow) StopFlow() { f.State = FlowStop }

// Context is passed to Warmup/Activate/Compose. It carries the flow, the
// three-level variable scope, the wire stack for nested Do/Resume, the
// current shard's error buffer, and the suspend deadline (§4.8).
type Context struct {
	Flow  *Flow
	Scope *variable.Scope

	wireStack    []WireHandle
	CurrentShard Shard

	SuspendUntil time.Time
	FinishedErr  error

	// Yield hands control back to the resumer; it is wired to the owning
	// wire's coroutine primitive (internal/coro) and is nil for contexts
	// used outside a running coroutine (e.g. unit tests of Activate).
	Yield func()
}

// NewContext builds a Context bound to flow and scope.
func NewContext(flow *Flow, scope *variable.Scope) *Context {
	return &Context{Flow: flow, Scope: scope}
}

// PushWire records w as entered by a nested Do, so that Recur can
// resolve "the current wire".
func (c *Context) PushWire(w WireHandle) { c.wireStack = append(c.wireStack, w) }

// PopWire removes the most recently pushed wire.
func (c *Context) PopWire() {
	if n := len(c.wireStack); n > 0 {
		c.wireStack = c.wireStack[:n-1]
	}
}

// CurrentWire returns the innermost wire on the stack, or nil.
func (c *Context) CurrentWire() WireHandle {
	if n := len(c.wireStack); n > 0 {
		return c.wireStack[n-1]
	}
	return nil
}

// Suspend sets the resume deadline and yields the coroutine until the
// deadline has passed: a resume that comes earlier yields straight back,
// unless the flow has left Continue (e.g. a Stop unwinding the wire).
func (c *Context) Suspend(seconds float64) {
	c.SuspendUntil = time.Now().Add(time.Duration(seconds * float64(time.Second)))
	if c.Yield == nil {
		return
	}
	c.Yield()
	for c.Flow.State == FlowContinue && time.Now().Before(c.SuspendUntil) {
		c.Yield()
	}
}

// GetState returns the context's current flow-control signal.
func (c *Context) GetState() FlowState { return c.Flow.State }

// AbortWire sets the flow to Error with err, the equivalent of the
// embedder-facing abortWire operation (§6).
func (c *Context) AbortWire(err error) {
	c.FinishedErr = err
	c.Flow.State = FlowError
}

// ReferenceVariable resolves name through Scope and increments its
// refcount, mirroring the embedder-facing referenceVariable operation.
func (c *Context) ReferenceVariable(name string) (*variable.Variable, bool) {
	v, ok := c.Scope.Lookup(name)
	if !ok {
		return nil, false
	}
	return v.Reference(), true
}

// ReleaseVariable decrements name's refcount if it is currently bound.
func (c *Context) ReleaseVariable(name string) {
	if v, ok := c.Scope.Lookup(name); ok {
		v.Release()
	}
}

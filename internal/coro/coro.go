// Package coro implements the suspendable execution unit each wire owns
// (§4.6). Go has no public stackful-coroutine-switch primitive, but a
// goroutine parked on an unbuffered channel receive already behaves like
// one: it keeps its entire call stack alive across the park, and control
// transfers to/from it with a single handshake — exactly resume/yield.
// This is the same producer/consumer goroutine-handshake idiom used
// elsewhere in this codebase's dependency graph (adapted from the
// channel-driven evaluator pattern), specialized to a strict
// ping-pong of one resumer and one body goroutine.
package coro

import (
	"fmt"
	"sync"

	"github.com/Voskan/shards/internal/unsafehelpers"
)

// State is the coroutine's own lifecycle, distinct from the wire State
// it drives.
type State uint8

const (
	StateReady State = iota
	StateRunning
	StateSuspended
	StateDone
	StateFailed
)

// Yielder is handed to the coroutine body; calling Yield() parks the
// goroutine and hands control back to the resumer until the next
// Resume().
type Yielder interface {
	Yield()
}

// Body is the coroutine's entry point. It receives a Yielder so it can
// suspend itself (the wire-tick loop calls Yield() at its designated
// suspension points, §5).
type Body func(y Yielder)

// Coroutine pairs one body goroutine with a strict two-channel handshake
// with its resumer: resumeCh wakes the body, yieldCh wakes the resumer.
// Only one side runs at a time, so no additional synchronization over
// the body's own state is needed — this mirrors a real stack switch.
type Coroutine struct {
	mu    sync.Mutex
	state State

	resumeCh chan struct{}
	yieldCh  chan struct{}

	body    Body
	started bool
	err     error

	// stackHint is advisory only (Go goroutines grow their stack
	// dynamically); it is rounded up the same way a real stack allocator
	// would round a requested size, preserved here so callers porting
	// stack-size tuning knobs from the original implementation have
	// somewhere to put them.
	stackHint int
}

// DefaultStackHint is the minimum recommended by §4.6 for deeply nested
// Do chains; Go goroutines need no literal stack reservation but callers
// may still use this as a sizing hint for bookkeeping pools.
const DefaultStackHint = 128 * 1024

// New constructs a Coroutine in Ready state. stackHint is raised to
// DefaultStackHint if smaller, then rounded up to a multiple of 4096.
func New(body Body, stackHint int) *Coroutine {
	if stackHint < DefaultStackHint {
		stackHint = DefaultStackHint
	}
	return &Coroutine{
		state:     StateReady,
		resumeCh:  make(chan struct{}),
		yieldCh:   make(chan struct{}),
		body:      body,
		stackHint: int(unsafehelpers.AlignUp(uintptr(stackHint), 4096)),
	}
}

// State returns the coroutine's current lifecycle state.
func (c *Coroutine) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

type yielder struct{ c *Coroutine }

func (y yielder) Yield() {
	y.c.mu.Lock()
	y.c.state = StateSuspended
	y.c.mu.Unlock()
	y.c.yieldCh <- struct{}{}
	<-y.c.resumeCh
	y.c.mu.Lock()
	y.c.state = StateRunning
	y.c.mu.Unlock()
}

// Resume jumps into the coroutine: starts it on the first call, or wakes
// it from its last Yield() otherwise. It blocks until the coroutine
// yields or returns, mirroring a real context-switch resume.
func (c *Coroutine) Resume() error {
	c.mu.Lock()
	switch c.state {
	case StateDone, StateFailed:
		c.mu.Unlock()
		return fmt.Errorf("coro: resume of terminated coroutine")
	case StateRunning:
		c.mu.Unlock()
		return fmt.Errorf("coro: resume of already-running coroutine")
	}
	first := !c.started
	c.started = true
	c.state = StateRunning
	c.mu.Unlock()

	if first {
		go c.run()
	} else {
		c.resumeCh <- struct{}{}
	}
	<-c.yieldCh

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Coroutine) run() {
	defer func() {
		if r := recover(); r != nil {
			c.mu.Lock()
			c.state = StateFailed
			c.err = fmt.Errorf("coro: body panicked: %v", r)
			c.mu.Unlock()
			c.yieldCh <- struct{}{}
			return
		}
	}()
	c.body(yielder{c})
	c.mu.Lock()
	c.state = StateDone
	c.mu.Unlock()
	c.yieldCh <- struct{}{}
}

// Done reports whether the coroutine body has returned (normally or via
// panic).
func (c *Coroutine) Done() bool {
	s := c.State()
	return s == StateDone || s == StateFailed
}

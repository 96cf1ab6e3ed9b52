// Package parallel implements the fan-out runner behind TryMany, Expand,
// and Spawn (§4.12): acquire N doppelganger clones from a pool, drive
// them to completion either inline (T==1) or across T worker threads
// using golang.org/x/sync/errgroup, and collect their results per a
// wait policy. pkg/control's TryMany/Expand shards are thin adapters
// that map their own input shape onto Runner.Run; Spawn does not use
// this package at all (it acquires one clone and returns immediately,
// §4.12's fire-and-forget case).
package parallel

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Voskan/shards/pkg/compose"
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/pool"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// Policy decides how Runner.Run combines N clones' outcomes (§4.12).
type Policy uint8

const (
	FirstSuccess Policy = iota
	AllSuccess
	SomeSuccess
)

func (p Policy) String() string {
	switch p {
	case FirstSuccess:
		return "FirstSuccess"
	case AllSuccess:
		return "AllSuccess"
	case SomeSuccess:
		return "SomeSuccess"
	default:
		return "Unknown"
	}
}

// Capture is applied to every freshly acquired clone before it starts,
// the fan-out equivalent of WireBase.ApplyCaptures.
type Capture func(clone *wire.Wire)

// Runner drives a fixed doppelganger pool through one fan-out
// activation. A Runner is owned by a single control-flow shard instance
// and reused across activations; it holds no per-run state itself.
type Runner struct {
	Pool      *pool.Pool
	Composer  *compose.Composer
	Policy    Policy
	Threads   int // T; <1 behaves as 1
	PerThread int // K; advisory batch size within a worker's mesh, see runWorker
}

// Run acquires one clone per element of inputs, applies capture to each,
// drives all of them to completion, releases every clone back to the
// pool, and returns the combined result per Policy. yield is invoked
// repeatedly while the calling coroutine waits for worker threads (T>1)
// to finish, so the caller's own mesh stays cooperative instead of the
// calling OS thread blocking outright; pass nil to block synchronously.
func (r *Runner) Run(callerMesh *mesh.Mesh, inputs []value.Value, capture Capture, yield func()) (value.Value, error) {
	n := len(inputs)
	if n == 0 {
		return value.NewSeqValue(value.SeqOf()), nil
	}

	shared := variable.NewScope(nil, callerMesh.Refs(), callerMesh.Globals())

	clones := make([]*wire.Wire, 0, n)
	for range inputs {
		c, err := r.Pool.Acquire(r.Composer, nil, shared)
		if err != nil {
			r.releaseAll(clones)
			return value.None, fmt.Errorf("parallel: acquire clone: %w", err)
		}
		if capture != nil {
			capture(c)
		}
		clones = append(clones, c)
	}

	threads := r.Threads
	if threads < 1 {
		threads = 1
	}
	if threads == 1 {
		r.runInline(clones, inputs)
	} else {
		r.runWorkers(clones, inputs, threads, yield)
	}

	out, err := r.collect(clones)
	r.releaseAll(clones)
	return out, err
}

func (r *Runner) releaseAll(clones []*wire.Wire) {
	for _, c := range clones {
		if c == nil {
			continue
		}
		if c.IsRunning() {
			_, _ = c.Stop(value.None)
		}
		_ = r.Pool.Release(c)
	}
}

// runInline schedules every clone on one private mesh and ticks it
// round-robin (§4.12 step 3), stopping the rest as soon as one succeeds
// under FirstSuccess.
func (r *Runner) runInline(clones []*wire.Wire, inputs []value.Value) {
	m := mesh.New()
	for i, c := range clones {
		_ = m.Schedule(c, inputs[i], false)
	}
	for m.Tick() {
		if r.Policy == FirstSuccess && r.stopOnFirstSuccess(clones) {
			return
		}
	}
}

func (r *Runner) stopOnFirstSuccess(clones []*wire.Wire) bool {
	for _, c := range clones {
		if c.HasEnded() && c.FinishedError() == nil {
			for _, o := range clones {
				if o != c && o.IsRunning() {
					_, _ = o.Stop(value.None)
				}
			}
			return true
		}
	}
	return false
}

// runWorkers partitions clones across threads auxiliary meshes, each
// ticked to completion by its own errgroup worker goroutine (§4.12 step
// 4). A shared flag lets any worker short-circuit every other worker's
// mesh the instant one clone succeeds under FirstSuccess, so siblings on
// other threads stop promptly instead of running to their own
// completion. PerThread (K) is advisory: within a single worker's mesh,
// Tick already advances every one of its assigned clones together each
// call, so a worker inherently ticks its whole shard of clones "K at a
// time" where K is that shard's size; Runner does not further
// sub-batch a worker's own clones, which would add bookkeeping without
// changing which clones finish when.
func (r *Runner) runWorkers(clones []*wire.Wire, inputs []value.Value, threads int, yield func()) {
	groups, groupInputs := partition(clones, inputs, threads)
	meshes := make([]*mesh.Mesh, len(groups))
	for i, g := range groups {
		m := mesh.New()
		for j, c := range g {
			_ = m.Schedule(c, groupInputs[i][j], false)
		}
		meshes[i] = m
	}

	var stop atomic.Bool
	var g errgroup.Group
	for i := range meshes {
		mi := meshes[i]
		gi := groups[i]
		g.Go(func() error {
			for mi.Tick() {
				if r.Policy == FirstSuccess {
					if stop.Load() {
						break
					}
					if r.stopOnFirstSuccess(gi) {
						stop.Store(true)
						break
					}
				}
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			if stop.Load() {
				for _, c := range clones {
					if c.IsRunning() {
						_, _ = c.Stop(value.None)
					}
				}
			}
			return
		default:
		}
		if yield != nil {
			yield()
		} else {
			runtime.Gosched()
		}
	}
}

func partition(clones []*wire.Wire, inputs []value.Value, threads int) ([][]*wire.Wire, [][]value.Value) {
	groups := make([][]*wire.Wire, threads)
	groupInputs := make([][]value.Value, threads)
	for i, c := range clones {
		t := i % threads
		groups[t] = append(groups[t], c)
		groupInputs[t] = append(groupInputs[t], inputs[i])
	}
	return groups, groupInputs
}

// collect combines clone outcomes per Policy (§4.12 step 5).
func (r *Runner) collect(clones []*wire.Wire) (value.Value, error) {
	switch r.Policy {
	case FirstSuccess:
		for _, c := range clones {
			if c.HasEnded() && c.FinishedError() == nil {
				return c.FinishedOutput(), nil
			}
		}
		return value.None, &shard.ActivationError{Shard: "TryMany", Err: fmt.Errorf("no clone succeeded")}
	case AllSuccess:
		outs := make([]value.Value, 0, len(clones))
		for _, c := range clones {
			if c.FinishedError() != nil {
				return value.None, &shard.ActivationError{Shard: "TryMany", Err: c.FinishedError()}
			}
			outs = append(outs, c.FinishedOutput())
		}
		return value.NewSeqValue(value.SeqOf(outs...)), nil
	case SomeSuccess:
		outs := make([]value.Value, 0, len(clones))
		for _, c := range clones {
			if c.FinishedError() == nil {
				outs = append(outs, c.FinishedOutput())
			}
		}
		return value.NewSeqValue(value.SeqOf(outs...)), nil
	default:
		return value.None, fmt.Errorf("parallel: unknown policy %v", r.Policy)
	}
}

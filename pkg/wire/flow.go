package wire

import (
	"github.com/Voskan/shards/internal/coro"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// Prepare binds w to flow, building its coroutine if one does not exist
// yet, and moves it to Prepared (§4.7).
func (w *Wire) Prepare(flow *shard.Flow, refs, globals variable.Table) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.co == nil {
		w.co = coro.New(w.run, 0)
	}
	scope := variable.NewScope(w.locals, refs, globals)
	w.ctx = shard.NewContext(flow, scope)
	flow.Active = w
	w.state = StatePrepared
}

// Start sets the input Value and moves the wire to Starting; the next
// Tick warms up every shard left-to-right before activating the first
// one (§4.7).
func (w *Wire) Start(input value.Value) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.startInput = input
	w.state = StateStarting
}

// Tick drives one cooperative step of the wire's coroutine and returns
// its resulting state.
func (w *Wire) Tick() (State, error) {
	w.mu.Lock()
	co := w.co
	w.mu.Unlock()
	if co == nil {
		return w.State(), nil
	}
	err := co.Resume()
	return w.State(), err
}

// run is the coroutine body: warmup once, then the activation loop of
// §4.7's pseudocode.
func (w *Wire) run(y coro.Yielder) {
	w.ctx.Yield = y.Yield

	for _, s := range w.shards {
		if err := s.Warmup(w.ctx); err != nil {
			w.mu.Lock()
			w.finishedErr = &shard.WarmupError{Shard: s.Name(), Err: err}
			w.state = StateFailed
			w.mu.Unlock()
			return
		}
	}

	in := w.startInput
	w.mu.Lock()
	w.state = StateIterating
	w.mu.Unlock()

	for {
		for _, s := range w.shards {
			if w.ctx.Flow.State != shard.FlowContinue {
				break
			}
			w.ctx.CurrentShard = s
			out, err := s.Activate(w.ctx, in)
			if err != nil {
				w.ctx.Flow.State = shard.FlowError
				w.ctx.FinishedErr = &shard.ActivationError{Shard: s.Name(), Err: err}
				break
			}
			in = out
			if w.ctx.Flow.State != shard.FlowContinue {
				break
			}
		}

		finished := in
		switch w.ctx.Flow.State {
		case shard.FlowRestart:
			w.ctx.Flow.State = shard.FlowContinue
			in = w.startInput
			continue
		case shard.FlowRebase:
			w.ctx.Flow.State = shard.FlowContinue
			in = w.startInput
			continue
		case shard.FlowStop:
			for i := len(w.shards) - 1; i >= 0; i-- {
				w.shards[i].Cleanup()
			}
			for i := len(w.stopListeners) - 1; i >= 0; i-- {
				w.stopListeners[i](w)
			}
			w.finishWith(finished, nil, StateStopped)
			return
		case shard.FlowError:
			w.finishWith(value.None, w.ctx.FinishedErr, StateFailed)
			return
		}

		if w.Looped && w.ctx.Flow.State == shard.FlowContinue {
			w.finishedOutput = finished
			y.Yield()
			// A Stop() call that resumed us while parked here already set
			// the flow to FlowStop; honor it instead of looping again.
			if w.ctx.Flow.State == shard.FlowStop {
				for i := len(w.shards) - 1; i >= 0; i-- {
					w.shards[i].Cleanup()
				}
				for i := len(w.stopListeners) - 1; i >= 0; i-- {
					w.stopListeners[i](w)
				}
				w.finishWith(finished, nil, StateStopped)
				return
			}
			w.ctx.Flow.State = shard.FlowContinue
			in = w.startInput
			continue
		}

		w.finishWith(finished, nil, StateEnded)
		return
	}
}

func (w *Wire) finishWith(out value.Value, err error, st State) {
	w.mu.Lock()
	w.finishedOutput = out
	w.finishedErr = err
	w.state = st
	w.mu.Unlock()
}

// Stop synchronously halts the wire: flips the flow to Stop, resumes the
// coroutine once so the loop unwinds, runs cleanup right-to-left, and
// fires on-stop listeners LIFO (§5). When the coroutine is actually live,
// resuming it drives run()'s own FlowStop/looped-yield branch, which
// already performs that cleanup/listener pass; Stop must not repeat it
// itself, or every shard's Cleanup and every on-stop listener fires
// twice. Only a wire whose coroutine was never live to unwind itself
// (never started, or already finished) needs Stop to run that pass here.
func (w *Wire) Stop(out value.Value) (value.Value, error) {
	w.mu.Lock()
	runnable := w.state == StatePrepared || w.state == StateStarting || w.state == StateIterating
	running := runnable && w.co != nil && !w.co.Done()
	if w.ctx != nil {
		w.ctx.Flow.State = shard.FlowStop
	}
	w.mu.Unlock()

	if running {
		_ = w.co.Resume()
	} else {
		for i := len(w.shards) - 1; i >= 0; i-- {
			w.shards[i].Cleanup()
		}
		for i := len(w.stopListeners) - 1; i >= 0; i-- {
			w.stopListeners[i](w)
		}
	}

	w.mu.Lock()
	if w.state != StateFailed {
		w.state = StateStopped
	}
	if !out.IsNone() {
		w.finishedOutput = out
	}
	result, rerr := w.finishedOutput, w.finishedErr
	w.mu.Unlock()
	return result, rerr
}

package control

import (
	"errors"
	"testing"

	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/parallel"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// addConstShard is the same minimal test double used across the wire and
// control packages: adds n to an Int input.
type addConstShard struct{ n int64 }

func (a *addConstShard) Name() string                  { return "Test.Add" }
func (a *addConstShard) Hash() uint64                  { return 1 }
func (a *addConstShard) Help() string                  { return "" }
func (a *addConstShard) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.IntT} }
func (a *addConstShard) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.IntT} }
func (a *addConstShard) Parameters() []shard.Parameter { return nil }
func (a *addConstShard) SetParam(int, value.Value) error { return nil }
func (a *addConstShard) GetParam(int) (value.Value, error) { return value.None, nil }
func (a *addConstShard) RequiredVariables() []variable.Binding { return nil }
func (a *addConstShard) ExposedVariables() []variable.Binding  { return nil }
func (a *addConstShard) Warmup(*shard.Context) error { return nil }
func (a *addConstShard) Cleanup()                    {}
func (a *addConstShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	return value.Int(in.AsInt() + a.n), nil
}

// failShard always raises an ActivationError from Activate.
type failShard struct{ addConstShard }

func (f *failShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	return value.None, errors.New("boom")
}

func runToEnd(w *wire.Wire, input value.Value) error {
	flow := &shard.Flow{}
	w.Prepare(flow, nil, nil)
	w.Start(input)
	for w.IsRunning() {
		if _, err := w.Tick(); err != nil {
			return err
		}
	}
	return nil
}

func TestDoRunsTargetInlineAndForwardsOutput(t *testing.T) {
	target := wire.New("target")
	target.AddShard(&addConstShard{n: 5})

	m := mesh.New()
	do := NewDo(m)
	do.Ref = WireRef{Literal: target}

	caller := wire.New("caller")
	caller.AddShard(do)

	flow := &shard.Flow{}
	caller.Prepare(flow, nil, nil)
	caller.Start(value.Int(10))
	for caller.IsRunning() {
		if _, err := caller.Tick(); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	if !caller.HasEnded() || caller.FinishedError() != nil {
		t.Fatalf("caller did not end cleanly: %v", caller.FinishedError())
	}
	if out := caller.FinishedOutput(); out.AsInt() != 15 {
		t.Fatalf("expected 15, got %d", out.AsInt())
	}
}

func TestDetachSurvivesParentTick(t *testing.T) {
	target := wire.New("detached-target")
	target.AddShard(&addConstShard{n: 1})

	m := mesh.New()
	detach := NewDetach(m)
	detach.Ref = WireRef{Literal: target}

	caller := wire.New("caller")
	caller.AddShard(detach)

	if err := runToEnd(caller, value.Int(0)); err != nil {
		t.Fatalf("caller run: %v", err)
	}
	if caller.FinishedOutput().AsInt() != 0 {
		t.Fatalf("expected passthrough input 0, got %d", caller.FinishedOutput().AsInt())
	}
	if target.HasEnded() {
		t.Fatalf("detached target should not advance until its mesh is ticked")
	}

	for m.Tick() {
	}
	if !target.HasEnded() {
		t.Fatalf("expected detached target to have run to completion via mesh ticks")
	}
}

func TestStopHaltsCurrentWireWithNoReference(t *testing.T) {
	m := mesh.New()
	stop := NewStop(m)

	w := wire.New("self-stopping")
	w.AddShard(stop)

	if err := runToEnd(w, value.Int(7)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if w.State() != wire.StateStopped {
		t.Fatalf("expected StateStopped, got %v", w.State())
	}
}

// recurGuard decrements the wire-local "n" and recurses into Recur while
// n remains positive; recordFn observes n once the guard lets the wire
// proceed past it (on the way back out of each nested call).
type recurGuard struct {
	recur   *Recur
	recordFn func(int64)
}

func (g *recurGuard) Name() string                  { return "Test.RecurGuard" }
func (g *recurGuard) Hash() uint64                  { return 2 }
func (g *recurGuard) Help() string                  { return "" }
func (g *recurGuard) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.AnyT} }
func (g *recurGuard) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (g *recurGuard) Parameters() []shard.Parameter { return nil }
func (g *recurGuard) SetParam(int, value.Value) error { return nil }
func (g *recurGuard) GetParam(int) (value.Value, error) { return value.None, nil }
func (g *recurGuard) RequiredVariables() []variable.Binding { return nil }
func (g *recurGuard) ExposedVariables() []variable.Binding  { return nil }
func (g *recurGuard) Warmup(*shard.Context) error { return nil }
func (g *recurGuard) Cleanup()                    {}
func (g *recurGuard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	v, _ := ctx.Scope.Lookup("n")
	n := v.Get().AsInt() - 1
	v.Set(value.Int(n))
	if n > 0 {
		return g.recur.Activate(ctx, in)
	}
	return in, nil
}

type recordShard struct {
	recordFn func(int64)
}

func (r *recordShard) Name() string                  { return "Test.Record" }
func (r *recordShard) Hash() uint64                  { return 3 }
func (r *recordShard) Help() string                  { return "" }
func (r *recordShard) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.AnyT} }
func (r *recordShard) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (r *recordShard) Parameters() []shard.Parameter { return nil }
func (r *recordShard) SetParam(int, value.Value) error { return nil }
func (r *recordShard) GetParam(int) (value.Value, error) { return value.None, nil }
func (r *recordShard) RequiredVariables() []variable.Binding { return nil }
func (r *recordShard) ExposedVariables() []variable.Binding  { return nil }
func (r *recordShard) Warmup(*shard.Context) error { return nil }
func (r *recordShard) Cleanup()                    {}
func (r *recordShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	v, _ := ctx.Scope.Lookup("n")
	r.recordFn(v.Get().AsInt())
	return in, nil
}

func TestRecurPreservesLocalsAcrossUnwind(t *testing.T) {
	var reads []int64
	recur := NewRecur()
	w := wire.New("recursive")
	w.AddLocal("n", value.Int(5))
	w.AddShard(&recurGuard{recur: recur})
	w.AddShard(&recordShard{recordFn: func(n int64) { reads = append(reads, n) }})

	if err := runToEnd(w, value.None); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []int64{0, 1, 2, 3, 4}
	if len(reads) != len(want) {
		t.Fatalf("expected %d reads, got %v", len(want), reads)
	}
	for i, n := range want {
		if reads[i] != n {
			t.Fatalf("read %d: expected %d, got %d (%v)", i, n, reads[i], reads)
		}
	}
}

func TestBranchFailsOnFirstChildError(t *testing.T) {
	okChild := wire.New("ok-child")
	okChild.AddShard(&addConstShard{n: 42})

	failChild := wire.New("fail-child")
	failChild.AddShard(&failShard{})

	branch := NewBranch(failChild, okChild)

	caller := wire.New("branch-caller")
	caller.AddShard(branch)

	if err := runToEnd(caller, value.Int(0)); err != nil {
		t.Fatalf("unexpected tick-level error: %v", err)
	}
	if !caller.HasEnded() || caller.State() != wire.StateFailed {
		t.Fatalf("expected caller to fail, got state %v", caller.State())
	}
	if caller.FinishedError() == nil {
		t.Fatalf("expected branch to surface the failing child's error")
	}
}

// constStringShard ignores its input and always activates to s.
type constStringShard struct{ s string }

func (c *constStringShard) Name() string                  { return "Test.ConstString" }
func (c *constStringShard) Hash() uint64                  { return 4 }
func (c *constStringShard) Help() string                  { return "" }
func (c *constStringShard) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.AnyT} }
func (c *constStringShard) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.StringT} }
func (c *constStringShard) Parameters() []shard.Parameter { return nil }
func (c *constStringShard) SetParam(int, value.Value) error { return nil }
func (c *constStringShard) GetParam(int) (value.Value, error) { return value.None, nil }
func (c *constStringShard) RequiredVariables() []variable.Binding { return nil }
func (c *constStringShard) ExposedVariables() []variable.Binding  { return nil }
func (c *constStringShard) Warmup(*shard.Context) error { return nil }
func (c *constStringShard) Cleanup()                    {}
func (c *constStringShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	return value.String(c.s), nil
}

// storeLocalShard binds its input into a named wire-local variable and
// forwards it unchanged, standing in for the data-plane "Set" shard
// that would normally follow Spawn to capture its output handle.
type storeLocalShard struct{ name string }

func (s *storeLocalShard) Name() string                  { return "Test.StoreLocal" }
func (s *storeLocalShard) Hash() uint64                  { return 5 }
func (s *storeLocalShard) Help() string                  { return "" }
func (s *storeLocalShard) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.AnyT} }
func (s *storeLocalShard) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (s *storeLocalShard) Parameters() []shard.Parameter { return nil }
func (s *storeLocalShard) SetParam(int, value.Value) error { return nil }
func (s *storeLocalShard) GetParam(int) (value.Value, error) { return value.None, nil }
func (s *storeLocalShard) RequiredVariables() []variable.Binding { return nil }
func (s *storeLocalShard) ExposedVariables() []variable.Binding  { return nil }
func (s *storeLocalShard) Warmup(*shard.Context) error { return nil }
func (s *storeLocalShard) Cleanup()                    {}
func (s *storeLocalShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	ctx.Scope.Local[s.name] = variable.NewVariable(s.name, in)
	return in, nil
}

func TestSpawnThenWaitPropagatesChildOutput(t *testing.T) {
	m := mesh.New()

	factory := func() *wire.Wire {
		w := wire.New("spawned-child")
		w.AddShard(&constStringShard{s: "ok"})
		return w
	}

	spawn := NewSpawn(m, factory)

	wait := NewWait(m)
	wait.Ref = WireRef{VarName: "h"}

	parent := wire.New("parent")
	parent.AddShard(spawn)
	parent.AddShard(&storeLocalShard{name: "h"})
	parent.AddShard(wait)

	if err := m.Schedule(parent, value.None, true); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	for m.Tick() {
	}
	if !parent.HasEnded() || parent.FinishedError() != nil {
		t.Fatalf("parent did not end cleanly: %v", parent.FinishedError())
	}
	if out := parent.FinishedOutput(); out.AsString() != "ok" {
		t.Fatalf(`expected "ok", got %v`, out.AsString())
	}
}

// matchOrFailShard succeeds (returns its input unchanged) only when the
// input equals want; otherwise it raises an ActivationError.
type matchOrFailShard struct{ want int64 }

func (m *matchOrFailShard) Name() string                  { return "Test.MatchOrFail" }
func (m *matchOrFailShard) Hash() uint64                  { return 6 }
func (m *matchOrFailShard) Help() string                  { return "" }
func (m *matchOrFailShard) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.IntT} }
func (m *matchOrFailShard) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.IntT} }
func (m *matchOrFailShard) Parameters() []shard.Parameter { return nil }
func (m *matchOrFailShard) SetParam(int, value.Value) error { return nil }
func (m *matchOrFailShard) GetParam(int) (value.Value, error) { return value.None, nil }
func (m *matchOrFailShard) RequiredVariables() []variable.Binding { return nil }
func (m *matchOrFailShard) ExposedVariables() []variable.Binding  { return nil }
func (m *matchOrFailShard) Warmup(*shard.Context) error { return nil }
func (m *matchOrFailShard) Cleanup()                    {}
func (m *matchOrFailShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	if in.AsInt() != m.want {
		return value.None, errors.New("no match")
	}
	return in, nil
}

func TestTryManyFirstSuccessCancelsSiblings(t *testing.T) {
	m := mesh.New()

	tm := NewTryMany(m, func() *wire.Wire {
		w := wire.New("trymany-child")
		w.AddShard(&matchOrFailShard{want: 3})
		return w
	})
	tm.Policy = parallel.FirstSuccess

	caller := wire.New("trymany-caller")
	caller.AddShard(tm)

	seq := value.SeqOf(value.Int(1), value.Int(2), value.Int(3), value.Int(4), value.Int(5))
	if err := runToEnd(caller, value.NewSeqValue(seq)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !caller.HasEnded() || caller.FinishedError() != nil {
		t.Fatalf("caller did not end cleanly: %v", caller.FinishedError())
	}
	if out := caller.FinishedOutput(); out.AsInt() != 3 {
		t.Fatalf("expected 3, got %d", out.AsInt())
	}
}

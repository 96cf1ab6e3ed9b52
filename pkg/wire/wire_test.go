package wire

import (
	"testing"

	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// addConstShard adds a constant to its input; a minimal test double for
// shard.Shard covering only what Wire.run exercises.
type addConstShard struct {
	n int64
}

func (a *addConstShard) Name() string                 { return "Test.Add" }
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

func TestLinearWireProducesExpectedOutput(t *testing.T) {
	w := New("linear")
	w.AddShard(&addConstShard{n: 1})
	w.AddShard(&addConstShard{n: 2})

	flow := &shard.Flow{}
	w.Prepare(flow, nil, nil)
	w.Start(value.Int(10))

	for w.IsRunning() {
		if _, err := w.Tick(); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	if !w.HasEnded() {
		t.Fatalf("expected wire to end")
	}
	out := w.FinishedOutput()
	if out.AsInt() != 13 {
		t.Fatalf("expected 13, got %d", out.AsInt())
	}
}

func TestStopTransitionsToStoppedAndRunsCleanupOnce(t *testing.T) {
	cleaned := 0
	s := &cleanupCountingShard{addConstShard: addConstShard{n: 1}, cleaned: &cleaned}
	w := New("stoppable")
	w.AddShard(s)

	flow := &shard.Flow{}
	w.Prepare(flow, nil, nil)
	w.Start(value.Int(0))

	if _, err := w.Stop(value.None); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if cleaned != 1 {
		t.Fatalf("expected cleanup exactly once, got %d", cleaned)
	}
}

type cleanupCountingShard struct {
	addConstShard
	cleaned *int
}

func (s *cleanupCountingShard) Cleanup() { *s.cleaned++ }

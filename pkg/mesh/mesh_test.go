package mesh

import (
	"testing"

	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

type incShard struct{}

func (incShard) Name() string                { return "Test.Inc" }
func (incShard) Hash() uint64                 { return 2 }
func (incShard) Help() string                 { return "" }
func (incShard) InputTypes() []*typesys.Type  { return []*typesys.Type{typesys.IntT} }
func (incShard) OutputTypes() []*typesys.Type { return []*typesys.Type{typesys.IntT} }
func (incShard) Parameters() []shard.Parameter            { return nil }
func (incShard) SetParam(int, value.Value) error          { return nil }
func (incShard) GetParam(int) (value.Value, error)        { return value.None, nil }
func (incShard) RequiredVariables() []variable.Binding     { return nil }
func (incShard) ExposedVariables() []variable.Binding      { return nil }
func (incShard) Warmup(*shard.Context) error               { return nil }
func (incShard) Cleanup()                                  {}
func (incShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	return value.Int(in.AsInt() + 1), nil
}

func TestScheduleTickTerminateLeavesNoLiveWires(t *testing.T) {
	m := New()
	w := wire.New("w1")
	w.AddShard(incShard{})

	if err := m.Schedule(w, value.Int(0), false); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	for m.Tick() {
	}
	if err := m.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if len(m.scheduled) != 0 {
		t.Fatalf("expected no scheduled wires after terminate")
	}
	if len(m.refs) != 0 {
		t.Fatalf("expected refs cleared after terminate")
	}
}

func TestGlobalsRoundTrip(t *testing.T) {
	m := New()
	m.SetGlobal("x", value.Int(5))
	v, ok := m.GetGlobal("x")
	if !ok || v.AsInt() != 5 {
		t.Fatalf("expected global x=5")
	}
	m.SetGlobal("x", value.Int(6))
	v, _ = m.GetGlobal("x")
	if v.AsInt() != 6 {
		t.Fatalf("expected global x updated to 6")
	}
}

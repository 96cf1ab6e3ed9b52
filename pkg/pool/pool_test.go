package pool

import (
	"testing"
	"time"

	"github.com/Voskan/shards/pkg/compose"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// constShard is the minimal shard double reused across package tests:
// it ignores its input and always activates to n.
type constShard struct{ n int64 }

func (c *constShard) Name() string                  { return "Test.Const" }
func (c *constShard) Hash() uint64                  { return 9 }
func (c *constShard) Help() string                  { return "" }
func (c *constShard) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.AnyT} }
func (c *constShard) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.IntT} }
func (c *constShard) Parameters() []shard.Parameter { return nil }
func (c *constShard) SetParam(int, value.Value) error { return nil }
func (c *constShard) GetParam(int) (value.Value, error) { return value.None, nil }
func (c *constShard) RequiredVariables() []variable.Binding { return nil }
func (c *constShard) ExposedVariables() []variable.Binding  { return nil }
func (c *constShard) Warmup(*shard.Context) error { return nil }
func (c *constShard) Cleanup()                    {}
func (c *constShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	return value.Int(c.n), nil
}

func newTemplateFactory() func() *wire.Wire {
	return func() *wire.Wire {
		w := wire.New("doppelganger")
		w.AddShard(&constShard{n: 7})
		return w
	}
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

func TestAcquireReusesReleasedClone(t *testing.T) {
	p := New("t", newTemplateFactory())
	composer := compose.New()
	scope := variable.NewScope(nil, nil, nil)

	w1, err := p.Acquire(composer, nil, scope)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := runToEnd(w1, value.None); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := w1.Stop(value.None); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := p.Release(w1); err != nil {
		t.Fatalf("release: %v", err)
	}

	w2, err := p.Acquire(composer, nil, scope)
	if err != nil {
		t.Fatalf("acquire 2: %v", err)
	}
	if w2 != w1 {
		t.Fatalf("expected the released clone to be reused")
	}
	if err := runToEnd(w2, value.None); err != nil {
		t.Fatalf("run 2: %v", err)
	}
	if out := w2.FinishedOutput(); out.AsInt() != 7 {
		t.Fatalf("expected 7, got %d", out.AsInt())
	}

	hits, misses, released, _, idle := p.Stats()
	if hits != 1 || misses != 1 || released != 1 || idle != 0 {
		t.Fatalf("unexpected stats: hits=%d misses=%d released=%d idle=%d", hits, misses, released, idle)
	}
}

func TestReleaseRejectsRunningClone(t *testing.T) {
	p := New("t", newTemplateFactory())
	composer := compose.New()
	scope := variable.NewScope(nil, nil, nil)

	w, err := p.Acquire(composer, nil, scope)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	flow := &shard.Flow{}
	w.Prepare(flow, nil, nil)
	w.Start(value.None)

	if err := p.Release(w); err == nil {
		t.Fatalf("expected Release to reject a still-running clone")
	}
}

func TestPruneDiscardsClonesPastTTL(t *testing.T) {
	now := time.Unix(0, 0)
	p := New("t", newTemplateFactory(),
		WithIdleTTL(time.Second),
		WithClock(func() time.Time { return now }),
	)
	composer := compose.New()
	scope := variable.NewScope(nil, nil, nil)

	w, err := p.Acquire(composer, nil, scope)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := runToEnd(w, value.None); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := w.Stop(value.None); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := p.Release(w); err != nil {
		t.Fatalf("release: %v", err)
	}

	if n := p.Prune(); n != 0 {
		t.Fatalf("expected nothing pruned yet, got %d", n)
	}

	now = now.Add(2 * time.Second)
	if n := p.Prune(); n != 1 {
		t.Fatalf("expected 1 clone pruned, got %d", n)
	}

	_, _, _, pruned, idle := p.Stats()
	if pruned != 1 || idle != 0 {
		t.Fatalf("unexpected stats: pruned=%d idle=%d", pruned, idle)
	}
}

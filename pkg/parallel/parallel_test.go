package parallel

import (
	"errors"
	"testing"

	"github.com/Voskan/shards/pkg/compose"
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/pool"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// doubleShard doubles an Int input.
type doubleShard struct{}

func (doubleShard) Name() string                  { return "Test.Double" }
func (doubleShard) Hash() uint64                  { return 11 }
func (doubleShard) Help() string                  { return "" }
func (doubleShard) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.IntT} }
func (doubleShard) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.IntT} }
func (doubleShard) Parameters() []shard.Parameter { return nil }
func (doubleShard) SetParam(int, value.Value) error { return nil }
func (doubleShard) GetParam(int) (value.Value, error) { return value.None, nil }
func (doubleShard) RequiredVariables() []variable.Binding { return nil }
func (doubleShard) ExposedVariables() []variable.Binding  { return nil }
func (doubleShard) Warmup(*shard.Context) error { return nil }
func (doubleShard) Cleanup()                    {}
func (doubleShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	return value.Int(in.AsInt() * 2), nil
}

// failOddShard fails on odd inputs, doubles even ones.
type failOddShard struct{}

func (failOddShard) Name() string                  { return "Test.FailOdd" }
func (failOddShard) Hash() uint64                  { return 12 }
func (failOddShard) Help() string                  { return "" }
func (failOddShard) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.IntT} }
func (failOddShard) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.IntT} }
func (failOddShard) Parameters() []shard.Parameter { return nil }
func (failOddShard) SetParam(int, value.Value) error { return nil }
func (failOddShard) GetParam(int) (value.Value, error) { return value.None, nil }
func (failOddShard) RequiredVariables() []variable.Binding { return nil }
func (failOddShard) ExposedVariables() []variable.Binding  { return nil }
func (failOddShard) Warmup(*shard.Context) error { return nil }
func (failOddShard) Cleanup()                    {}
func (failOddShard) Activate(ctx *shard.Context, in value.Value) (value.Value, error) {
	n := in.AsInt()
	if n%2 != 0 {
		return value.None, errors.New("odd input rejected")
	}
	return value.Int(n * 2), nil
}

func newPool(name string, build func() *wire.Wire) *pool.Pool {
	return pool.New(name, build)
}

func TestRunAllSuccessCollectsInSubmissionOrder(t *testing.T) {
	m := mesh.New()
	p := newPool("double", func() *wire.Wire {
		w := wire.New("double")
		w.AddShard(doubleShard{})
		return w
	})

	r := &Runner{Pool: p, Composer: compose.New(), Policy: AllSuccess, Threads: 1}
	out, err := r.Run(m, []value.Value{value.Int(1), value.Int(2), value.Int(3)}, nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	seq := out.AsSeq()
	if seq.Len() != 3 {
		t.Fatalf("expected 3 results, got %d", seq.Len())
	}
	want := []int64{2, 4, 6}
	seq.Iterate(func(i int, v value.Value) bool {
		if v.AsInt() != want[i] {
			t.Fatalf("result %d: expected %d, got %d", i, want[i], v.AsInt())
		}
		return true
	})
}

func TestRunAllSuccessFailsOnAnyFailure(t *testing.T) {
	m := mesh.New()
	p := newPool("failodd", func() *wire.Wire {
		w := wire.New("failodd")
		w.AddShard(failOddShard{})
		return w
	})

	r := &Runner{Pool: p, Composer: compose.New(), Policy: AllSuccess, Threads: 1}
	_, err := r.Run(m, []value.Value{value.Int(2), value.Int(3), value.Int(4)}, nil, nil)
	if err == nil {
		t.Fatalf("expected AllSuccess to fail when one clone fails")
	}
}

func TestRunSomeSuccessKeepsOnlySuccesses(t *testing.T) {
	m := mesh.New()
	p := newPool("failodd", func() *wire.Wire {
		w := wire.New("failodd")
		w.AddShard(failOddShard{})
		return w
	})

	r := &Runner{Pool: p, Composer: compose.New(), Policy: SomeSuccess, Threads: 1}
	out, err := r.Run(m, []value.Value{value.Int(1), value.Int(2), value.Int(3), value.Int(4)}, nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	seq := out.AsSeq()
	if seq.Len() != 2 {
		t.Fatalf("expected 2 surviving results, got %d", seq.Len())
	}
}

func TestRunParallelWorkersFirstSuccess(t *testing.T) {
	m := mesh.New()
	p := newPool("failodd", func() *wire.Wire {
		w := wire.New("failodd")
		w.AddShard(failOddShard{})
		return w
	})

	r := &Runner{Pool: p, Composer: compose.New(), Policy: FirstSuccess, Threads: 4}
	out, err := r.Run(m, []value.Value{value.Int(1), value.Int(3), value.Int(4), value.Int(5)}, nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.AsInt() != 8 {
		t.Fatalf("expected 8 (4*2), got %d", out.AsInt())
	}

	hits, misses, released, _, idle := p.Stats()
	if released != 4 {
		t.Fatalf("expected all 4 clones released, got %d", released)
	}
	if hits+misses != 4 {
		t.Fatalf("expected 4 acquisitions total, got hits=%d misses=%d", hits, misses)
	}
	if idle != 4 {
		t.Fatalf("expected 4 idle clones after release, got %d", idle)
	}
}

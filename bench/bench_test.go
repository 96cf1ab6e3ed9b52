// Package bench provides reproducible micro-benchmarks for the Shards
// runtime. Run via:  go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// We measure:
//   1. Tick       – single-wire activation-chain throughput
//   2. Compose    – cold vs. cache-hit compose cost (a second Compose of
//                   the same wire on the same input type is served from
//                   the wire's cached result)
//   3. Pool       – Acquire/Release churn on a doppelganger pool
//   4. Parallel   – TryMany-shaped fan-out via pkg/parallel.Runner
//
// Results are printed in ns/op + alloc/op so CI can diff via benchstat.
//
// NOTE: Unit tests live alongside each package; this file is only for
// performance.
//
// © 2025 Shards authors. MIT License.
package bench

import (
	"runtime"
	"testing"

	"github.com/Voskan/shards/pkg/compose"
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/parallel"
	"github.com/Voskan/shards/pkg/pool"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// addConstShard adds n to an Int input — the same minimal test double used
// throughout pkg/wire and pkg/control's own tests.
type addConstShard struct{ n int64 }

func (a *addConstShard) Name() string                  { return "Bench.Add" }
func (a *addConstShard) Hash() uint64                  { return 0xb1 }
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

func newChainWire(name string, depth int) *wire.Wire {
	w := wire.New(name)
	for i := 0; i < depth; i++ {
		w.AddShard(&addConstShard{n: 1})
	}
	return w
}

func runToEnd(m *mesh.Mesh, w *wire.Wire, input value.Value, forceCompose bool) error {
	if err := m.Schedule(w, input, forceCompose); err != nil {
		return err
	}
	for m.Tick() {
	}
	return w.FinishedError()
}

func BenchmarkTick(b *testing.B) {
	m := mesh.New()
	w := newChainWire("bench.tick", 8)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := runToEnd(m, w, value.Int(0), i == 0); err != nil {
			b.Fatalf("run: %v", err)
		}
	}
}

func BenchmarkComposeCold(b *testing.B) {
	c := compose.New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := newChainWire("bench.compose.cold", 8)
		if _, err := c.Compose(w, typesys.IntT, nil); err != nil {
			b.Fatalf("compose: %v", err)
		}
	}
}

func BenchmarkComposeCacheHit(b *testing.B) {
	c := compose.New()
	w := newChainWire("bench.compose.hot", 8)
	if _, err := c.Compose(w, typesys.IntT, nil); err != nil {
		b.Fatalf("compose: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Compose(w, typesys.IntT, nil); err != nil {
			b.Fatalf("compose: %v", err)
		}
	}
}

func BenchmarkPoolAcquireRelease(b *testing.B) {
	composer := compose.New()
	p := pool.New("bench.pool", func() *wire.Wire {
		return newChainWire("bench.pool.clone", 4)
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clone, err := p.Acquire(composer, typesys.IntT, nil)
		if err != nil {
			b.Fatalf("acquire: %v", err)
		}
		if err := p.Release(clone); err != nil {
			b.Fatalf("release: %v", err)
		}
	}
}

func BenchmarkParallelTryManyAllSuccess(b *testing.B) {
	m := mesh.New()
	p := pool.New("bench.parallel", func() *wire.Wire {
		return newChainWire("bench.parallel.clone", 4)
	})
	r := &parallel.Runner{Pool: p, Composer: compose.New(), Policy: parallel.AllSuccess, Threads: 1}

	inputs := make([]value.Value, 16)
	for i := range inputs {
		inputs[i] = value.Int(int64(i))
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Run(m, inputs, nil, nil); err != nil {
			b.Fatalf("run: %v", err)
		}
	}
}

func init() {
	runtime.GOMAXPROCS(runtime.NumCPU())
}

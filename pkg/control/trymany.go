package control

import (
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/parallel"
	"github.com/Voskan/shards/pkg/pool"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// TryMany fans an input sequence out across one doppelganger clone per
// element, drives them under Policy, and collects the result (§4.12,
// §8 scenario 4). Factory must build a structurally identical wire on
// every call — see pkg/pool's doc comment for why a closure replaces
// the source's template-deserialize step.
type TryMany struct {
	Factory   func() *wire.Wire
	Policy    parallel.Policy
	Threads   int
	PerThread int
	Capturing bool

	Mesh *mesh.Mesh

	pool     *pool.Pool
	captures []captureDirective
}

func NewTryMany(m *mesh.Mesh, factory func() *wire.Wire) *TryMany {
	return &TryMany{Mesh: m, Factory: factory, Threads: 1, PerThread: 1}
}

func (t *TryMany) Name() string                 { return "TryMany" }
func (t *TryMany) Hash() uint64                 { return 0x54724d6e }
func (t *TryMany) Help() string                 { return "Runs one clone per input-sequence element, combined under a wait policy." }
func (t *TryMany) InputTypes() []*typesys.Type  { return []*typesys.Type{typesys.SeqOf(typesys.AnyT)} }
func (t *TryMany) OutputTypes() []*typesys.Type { return []*typesys.Type{typesys.AnyT} }
func (t *TryMany) Parameters() []shard.Parameter {
	return []shard.Parameter{
		{Name: "Policy", Help: "FirstSuccess, AllSuccess, or SomeSuccess.", Types: []*typesys.Type{typesys.IntT}},
		{Name: "Threads", Help: "Worker-thread count T; 1 runs inline on the caller's mesh.", Types: []*typesys.Type{typesys.IntT}},
		{Name: "Capturing", Help: "Share captured variables with clones as cloned snapshots.", Types: []*typesys.Type{typesys.BoolT}},
	}
}

func (t *TryMany) SetParam(i int, v value.Value) error {
	switch i {
	case 0:
		t.Policy = parallel.Policy(v.AsInt())
		return nil
	case 1:
		t.Threads = int(v.AsInt())
		return nil
	case 2:
		t.Capturing = v.AsBool()
		return nil
	}
	return &shard.InvalidParameterIndex{Shard: t.Name(), Index: i}
}

func (t *TryMany) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		return value.Int(int64(t.Policy)), nil
	case 1:
		return value.Int(int64(t.Threads)), nil
	case 2:
		return value.Bool(t.Capturing), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: t.Name(), Index: i}
}

func (t *TryMany) RequiredVariables() []variable.Binding { return nil }
func (t *TryMany) ExposedVariables() []variable.Binding  { return nil }

// Compose composes one throwaway instance of Factory's output to learn
// its output type and deep requirements, exactly as WireBase does for a
// single target (§4.10, §4.12).
func (t *TryMany) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	tmp := t.Factory()
	res, err := t.Mesh.Composer().Compose(tmp, nil, data.Shared)
	if err != nil {
		return shard.ComposeResult{}, err
	}

	var required []variable.Binding
	if t.Capturing {
		for _, req := range res.DeepRequirements {
			if data.Shared != nil {
				if _, ok := data.Shared.Lookup(req.Name); ok {
					t.captures = append(t.captures, captureDirective{name: req.Name})
					continue
				}
			}
			required = append(required, req)
		}
	}

	out := res.OutputType
	if t.Policy != parallel.FirstSuccess {
		out = typesys.SeqOf(res.OutputType)
	}
	return shard.ComposeResult{OutputType: out, Required: required}, nil
}

func (t *TryMany) Warmup(ctx *shard.Context) error {
	t.pool = pool.New(t.Name(), t.Factory)
	return nil
}

func (t *TryMany) Cleanup() {}

func (t *TryMany) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	if input.Kind != value.KindSeq {
		return value.None, &shard.InvalidVarTypeError{Variable: "input", Shard: t.Name()}
	}
	seq := input.AsSeq()
	inputs := make([]value.Value, 0, seq.Len())
	seq.Iterate(func(_ int, v value.Value) bool {
		inputs = append(inputs, v)
		return true
	})

	runner := &parallel.Runner{
		Pool:      t.pool,
		Composer:  t.Mesh.Composer(),
		Policy:    t.Policy,
		Threads:   t.Threads,
		PerThread: t.PerThread,
	}
	return runner.Run(t.Mesh, inputs, t.applyCaptures(ctx), ctx.Yield)
}

func (t *TryMany) applyCaptures(ctx *shard.Context) parallel.Capture {
	if len(t.captures) == 0 {
		return nil
	}
	return func(clone *wire.Wire) {
		for _, c := range t.captures {
			if v, ok := ctx.Scope.Lookup(c.name); ok {
				clone.AddLocal(c.name, value.Clone(v.Get()))
			}
		}
	}
}

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

// Expand is TryMany with a scalar input: N clones each receive the same
// value rather than one element of a sequence each (§4.12).
type Expand struct {
	Factory   func() *wire.Wire
	NumClones int
	Policy    parallel.Policy
	Threads   int
	PerThread int
	Capturing bool

	Mesh *mesh.Mesh

	pool     *pool.Pool
	captures []captureDirective
}

func NewExpand(m *mesh.Mesh, factory func() *wire.Wire) *Expand {
	return &Expand{Mesh: m, Factory: factory, NumClones: 1, Threads: 1, PerThread: 1}
}

func (e *Expand) Name() string                 { return "Expand" }
func (e *Expand) Hash() uint64                 { return 0x45787064 }
func (e *Expand) Help() string                 { return "Runs N clones of a wire, each receiving the same scalar input." }
func (e *Expand) InputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (e *Expand) OutputTypes() []*typesys.Type { return []*typesys.Type{typesys.AnyT} }
func (e *Expand) Parameters() []shard.Parameter {
	return []shard.Parameter{
		{Name: "NumClones", Help: "Number of clones to run.", Types: []*typesys.Type{typesys.IntT}},
		{Name: "Policy", Help: "FirstSuccess, AllSuccess, or SomeSuccess.", Types: []*typesys.Type{typesys.IntT}},
		{Name: "Threads", Help: "Worker-thread count T; 1 runs inline on the caller's mesh.", Types: []*typesys.Type{typesys.IntT}},
		{Name: "Capturing", Help: "Share captured variables with clones as cloned snapshots.", Types: []*typesys.Type{typesys.BoolT}},
	}
}

func (e *Expand) SetParam(i int, v value.Value) error {
	switch i {
	case 0:
		e.NumClones = int(v.AsInt())
		return nil
	case 1:
		e.Policy = parallel.Policy(v.AsInt())
		return nil
	case 2:
		e.Threads = int(v.AsInt())
		return nil
	case 3:
		e.Capturing = v.AsBool()
		return nil
	}
	return &shard.InvalidParameterIndex{Shard: e.Name(), Index: i}
}

func (e *Expand) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		return value.Int(int64(e.NumClones)), nil
	case 1:
		return value.Int(int64(e.Policy)), nil
	case 2:
		return value.Int(int64(e.Threads)), nil
	case 3:
		return value.Bool(e.Capturing), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: e.Name(), Index: i}
}

func (e *Expand) RequiredVariables() []variable.Binding { return nil }
func (e *Expand) ExposedVariables() []variable.Binding  { return nil }

func (e *Expand) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	tmp := e.Factory()
	res, err := e.Mesh.Composer().Compose(tmp, nil, data.Shared)
	if err != nil {
		return shard.ComposeResult{}, err
	}

	var required []variable.Binding
	if e.Capturing {
		for _, req := range res.DeepRequirements {
			if data.Shared != nil {
				if _, ok := data.Shared.Lookup(req.Name); ok {
					e.captures = append(e.captures, captureDirective{name: req.Name})
					continue
				}
			}
			required = append(required, req)
		}
	}

	out := res.OutputType
	if e.Policy != parallel.FirstSuccess {
		out = typesys.SeqOf(res.OutputType)
	}
	return shard.ComposeResult{OutputType: out, Required: required}, nil
}

func (e *Expand) Warmup(ctx *shard.Context) error {
	e.pool = pool.New(e.Name(), e.Factory)
	return nil
}

func (e *Expand) Cleanup() {}

func (e *Expand) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	n := e.NumClones
	if n < 1 {
		n = 1
	}
	inputs := make([]value.Value, n)
	for i := range inputs {
		inputs[i] = input
	}

	runner := &parallel.Runner{
		Pool:      e.pool,
		Composer:  e.Mesh.Composer(),
		Policy:    e.Policy,
		Threads:   e.Threads,
		PerThread: e.PerThread,
	}
	return runner.Run(e.Mesh, inputs, e.applyCaptures(ctx), ctx.Yield)
}

func (e *Expand) applyCaptures(ctx *shard.Context) parallel.Capture {
	if len(e.captures) == 0 {
		return nil
	}
	return func(clone *wire.Wire) {
		for _, c := range e.captures {
			if v, ok := ctx.Scope.Lookup(c.name); ok {
				clone.AddLocal(c.name, value.Clone(v.Get()))
			}
		}
	}
}

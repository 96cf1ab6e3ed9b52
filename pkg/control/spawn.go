package control

import (
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/pool"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// Spawn acquires one doppelganger clone, schedules it on the parent
// mesh, and returns immediately with a handle to it — the fire-and-
// forget case of §4.12, typically paired with a later Wait(h) (§8
// scenario 3). Unlike TryMany/Expand, Spawn never waits and never
// releases the clone itself: the spec does not say who owns that, and
// scenario 3 only exercises Spawn through Wait reaching the child's own
// Ended state, not pool reuse, so the clone is left scheduled on the
// parent mesh for the caller to Stop (and release, if desired) later.
type Spawn struct {
	Factory   func() *wire.Wire
	Capturing bool

	Mesh *mesh.Mesh

	pool     *pool.Pool
	captures []captureDirective
}

func NewSpawn(m *mesh.Mesh, factory func() *wire.Wire) *Spawn {
	return &Spawn{Mesh: m, Factory: factory}
}

func (s *Spawn) Name() string                  { return "Spawn" }
func (s *Spawn) Hash() uint64                  { return 0x5370776e }
func (s *Spawn) Help() string                  { return "Schedules one clone on the parent mesh and returns a handle to it." }
func (s *Spawn) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.AnyT} }
func (s *Spawn) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (s *Spawn) Parameters() []shard.Parameter {
	return []shard.Parameter{
		{Name: "Capturing", Help: "Share captured variables with the clone as cloned snapshots.", Types: []*typesys.Type{typesys.BoolT}},
	}
}

func (s *Spawn) SetParam(i int, v value.Value) error {
	if i == 0 {
		s.Capturing = v.AsBool()
		return nil
	}
	return &shard.InvalidParameterIndex{Shard: s.Name(), Index: i}
}

func (s *Spawn) GetParam(i int) (value.Value, error) {
	if i == 0 {
		return value.Bool(s.Capturing), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: s.Name(), Index: i}
}

func (s *Spawn) RequiredVariables() []variable.Binding { return nil }
func (s *Spawn) ExposedVariables() []variable.Binding  { return nil }

func (s *Spawn) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	tmp := s.Factory()
	res, err := s.Mesh.Composer().Compose(tmp, nil, data.Shared)
	if err != nil {
		return shard.ComposeResult{}, err
	}

	var required []variable.Binding
	if s.Capturing {
		for _, req := range res.DeepRequirements {
			if data.Shared != nil {
				if _, ok := data.Shared.Lookup(req.Name); ok {
					s.captures = append(s.captures, captureDirective{name: req.Name})
					continue
				}
			}
			required = append(required, req)
		}
	}
	return shard.ComposeResult{OutputType: typesys.AnyT, Required: required}, nil
}

func (s *Spawn) Warmup(ctx *shard.Context) error {
	s.pool = pool.New(s.Name(), s.Factory)
	return nil
}

func (s *Spawn) Cleanup() {}

func (s *Spawn) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	shared := variable.NewScope(nil, s.Mesh.Refs(), s.Mesh.Globals())
	clone, err := s.pool.Acquire(s.Mesh.Composer(), nil, shared)
	if err != nil {
		return value.None, err
	}

	for _, c := range s.captures {
		if v, ok := ctx.Scope.Lookup(c.name); ok {
			clone.AddLocal(c.name, value.Clone(v.Get()))
		}
	}

	if err := s.Mesh.Schedule(clone, input, false); err != nil {
		return value.None, err
	}

	return value.NewWire(clone.WireName(), clone), nil
}

package control

import (
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// Step drives the target as a child coroutine on a private flow: each
// activation advances the target by one cooperative step. Output is the
// target's last yielded value, or the input if Passthrough. Once the
// target terminates, re-composition is forbidden; a subsequent Step
// restarts it from the top (§4.10).
type Step struct {
	WireBase
	wireRefParams

	Mesh *mesh.Mesh

	flow     *shard.Flow
	prepared bool
}

func NewStep(m *mesh.Mesh) *Step {
	s := &Step{Mesh: m}
	s.Mode = ModeStepped
	return s
}

func (s *Step) Name() string                 { return "Step" }
func (s *Step) Hash() uint64                  { return 0x53746570 }
func (s *Step) Help() string                  { return "Advances a child wire by one cooperative step per activation." }
func (s *Step) InputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (s *Step) OutputTypes() []*typesys.Type { return []*typesys.Type{typesys.AnyT} }
func (s *Step) Parameters() []shard.Parameter { return s.parameterList() }

func (s *Step) SetParam(i int, v value.Value) error {
	if ok, err := setWireRefParam(&s.WireBase, i, v); ok {
		return err
	}
	return &shard.InvalidParameterIndex{Shard: s.Name(), Index: i}
}

func (s *Step) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		return value.String(s.Ref.Name), nil
	case 1:
		return value.Bool(s.Passthrough), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: s.Name(), Index: i}
}

func (s *Step) RequiredVariables() []variable.Binding { return nil }
func (s *Step) ExposedVariables() []variable.Binding  { return nil }

func (s *Step) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	res, err := s.WireBase.Compose(data, s.Mesh)
	if err != nil {
		return shard.ComposeResult{}, err
	}
	out := res.OutputType
	if s.Passthrough {
		out = data.InputType
	}
	return shard.ComposeResult{OutputType: out, Exposed: res.Exposed, Required: res.Required}, nil
}

func (s *Step) Warmup(ctx *shard.Context) error {
	_, err := s.Resolve(ctx)
	s.flow = &shard.Flow{}
	s.prepared = false
	return err
}

func (s *Step) Cleanup() {
	s.prepared = false
}

func (s *Step) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	target, err := s.Resolve(ctx)
	if err != nil {
		return value.None, err
	}

	if target.HasEnded() || !s.prepared {
		s.ApplyCaptures(ctx, target)
		target.Prepare(s.flow, s.refsFromCtx(ctx), s.globalsFromCtx(ctx))
		target.Start(input)
		s.prepared = true
	}

	if _, err := target.Tick(); err != nil {
		return value.None, err
	}

	out := target.FinishedOutput()
	if target.IsRunning() && out.IsNone() {
		// No iteration has completed yet, so nothing has been yielded;
		// the caller's input stands in.
		out = input
	}
	if s.Passthrough {
		out = input
	}
	return out, nil
}

func (s *Step) refsFromCtx(ctx *shard.Context) variable.Table {
	if ctx.Scope == nil {
		return nil
	}
	return ctx.Scope.Refs
}

func (s *Step) globalsFromCtx(ctx *shard.Context) variable.Table {
	if ctx.Scope == nil {
		return nil
	}
	return ctx.Scope.Globals
}

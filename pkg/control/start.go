package control

import (
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// Start behaves like Resume but always restarts the target from the
// top, stopping it first if it was already running (§4.10).
type Start struct {
	WireBase
	wireRefParams

	Mesh *mesh.Mesh
}

func NewStart(m *mesh.Mesh) *Start {
	s := &Start{Mesh: m}
	s.Capturing = true
	return s
}

func (s *Start) Name() string                 { return "Start" }
func (s *Start) Hash() uint64                  { return 0x53746172 }
func (s *Start) Help() string                  { return "Switches the active flow to a target wire, always restarting it." }
func (s *Start) InputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (s *Start) OutputTypes() []*typesys.Type { return []*typesys.Type{typesys.AnyT} }
func (s *Start) Parameters() []shard.Parameter { return s.parameterList() }

func (s *Start) SetParam(i int, v value.Value) error {
	if ok, err := setWireRefParam(&s.WireBase, i, v); ok {
		return err
	}
	return &shard.InvalidParameterIndex{Shard: s.Name(), Index: i}
}

func (s *Start) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		return value.String(s.Ref.Name), nil
	case 1:
		return value.Bool(s.Passthrough), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: s.Name(), Index: i}
}

func (s *Start) RequiredVariables() []variable.Binding { return nil }
func (s *Start) ExposedVariables() []variable.Binding  { return nil }

func (s *Start) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	res, err := s.WireBase.Compose(data, s.Mesh)
	if err != nil {
		return shard.ComposeResult{}, err
	}
	return shard.ComposeResult{OutputType: res.OutputType, Exposed: res.Exposed, Required: res.Required}, nil
}

func (s *Start) Warmup(ctx *shard.Context) error {
	_, err := s.Resolve(ctx)
	return err
}

func (s *Start) Cleanup() {}

func (s *Start) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	target, err := s.Resolve(ctx)
	if err != nil {
		return value.None, err
	}
	return switchFlowTo(ctx, s.Mesh, target, input, &s.WireBase, true)
}

package control

import (
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// Stop halts the target wire, or the currently active wire if no
// reference was given, and either passes the input through or returns
// the target's finished output (§4.10).
type Stop struct {
	WireBase
	wireRefParams

	Mesh *mesh.Mesh
}

func NewStop(m *mesh.Mesh) *Stop { return &Stop{Mesh: m} }

func (s *Stop) Name() string                  { return "Stop" }
func (s *Stop) Hash() uint64                  { return 0x53746f70 }
func (s *Stop) Help() string                  { return "Halts a wire, or the current one if none is named." }
func (s *Stop) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.AnyT} }
func (s *Stop) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (s *Stop) Parameters() []shard.Parameter { return s.parameterList() }

func (s *Stop) SetParam(i int, v value.Value) error {
	if ok, err := setWireRefParam(&s.WireBase, i, v); ok {
		return err
	}
	return &shard.InvalidParameterIndex{Shard: s.Name(), Index: i}
}

func (s *Stop) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		return value.String(s.Ref.Name), nil
	case 1:
		return value.Bool(s.Passthrough), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: s.Name(), Index: i}
}

func (s *Stop) RequiredVariables() []variable.Binding { return nil }
func (s *Stop) ExposedVariables() []variable.Binding  { return nil }

func (s *Stop) hasRef() bool {
	return s.Ref.Literal != nil || s.Ref.Name != "" || s.Ref.VarName != ""
}

// Compose leaves the output type as the input type when no reference is
// set (Stop then halts the current wire); otherwise it composes the
// referenced target normally.
func (s *Stop) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	if !s.hasRef() {
		return shard.ComposeResult{OutputType: data.InputType}, nil
	}
	res, err := s.WireBase.Compose(data, s.Mesh)
	if err != nil {
		return shard.ComposeResult{}, err
	}
	out := res.OutputType
	if s.Passthrough {
		out = data.InputType
	}
	return shard.ComposeResult{OutputType: out}, nil
}

func (s *Stop) Warmup(ctx *shard.Context) error {
	if !s.hasRef() {
		return nil
	}
	_, err := s.Resolve(ctx)
	return err
}

func (s *Stop) Cleanup() {}

// Activate halts the named target, or — when the reference is None —
// the wire currently executing this very shard. The two cases cannot
// share a code path: a named target is some other wire, stopped
// synchronously via Wire.Stop (which resumes its coroutine once to
// unwind it). The "current wire" target IS that coroutine, already
// running this call, and internal/coro rejects a resume of a coroutine
// that is already running with an error. Self-stop instead
// just raises the flow-stop signal, which the wire's own run loop
// (pkg/wire) observes before the next shard and unwinds normally,
// running Cleanup exactly as an external Stop does (§4.10, §12).
func (s *Stop) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	if !s.hasRef() {
		ctx.Flow.StopFlow()
		return input, nil
	}

	target, err := s.Resolve(ctx)
	if err != nil {
		return value.None, err
	}

	out, stopErr := target.Stop(input)

	if s.Passthrough {
		return input, nil
	}
	if stopErr != nil {
		return value.None, stopErr
	}
	return out, nil
}

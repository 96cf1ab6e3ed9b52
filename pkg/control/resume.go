package control

import (
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// Resume sets the enclosing flow's active wire to the target, captures
// variables, and yields. Because the caller's own coroutine is just a
// goroutine parked on a channel (internal/coro), yielding from inside
// Activate and resuming later re-enters this exact call: each time the
// mesh ticks the caller, this drives the target one step further, which
// is the observable effect of "the caller's flow points at the target
// until it yields or ends" (§4.8, §4.10).
type Resume struct {
	WireBase
	wireRefParams

	Mesh *mesh.Mesh
}

func NewResume(m *mesh.Mesh) *Resume {
	r := &Resume{Mesh: m}
	r.Capturing = true
	return r
}

func (r *Resume) Name() string                 { return "Resume" }
func (r *Resume) Hash() uint64                  { return 0x5265733A }
func (r *Resume) Help() string                  { return "Switches the active flow to a target wire until it yields or ends." }
func (r *Resume) InputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (r *Resume) OutputTypes() []*typesys.Type { return []*typesys.Type{typesys.AnyT} }
func (r *Resume) Parameters() []shard.Parameter { return r.parameterList() }

func (r *Resume) SetParam(i int, v value.Value) error {
	if ok, err := setWireRefParam(&r.WireBase, i, v); ok {
		return err
	}
	return &shard.InvalidParameterIndex{Shard: r.Name(), Index: i}
}

func (r *Resume) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		return value.String(r.Ref.Name), nil
	case 1:
		return value.Bool(r.Passthrough), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: r.Name(), Index: i}
}

func (r *Resume) RequiredVariables() []variable.Binding { return nil }
func (r *Resume) ExposedVariables() []variable.Binding  { return nil }

func (r *Resume) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	res, err := r.WireBase.Compose(data, r.Mesh)
	if err != nil {
		return shard.ComposeResult{}, err
	}
	return shard.ComposeResult{OutputType: res.OutputType, Exposed: res.Exposed, Required: res.Required}, nil
}

func (r *Resume) Warmup(ctx *shard.Context) error {
	_, err := r.Resolve(ctx)
	return err
}

func (r *Resume) Cleanup() {}

func (r *Resume) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	target, err := r.Resolve(ctx)
	if err != nil {
		return value.None, err
	}
	return switchFlowTo(ctx, r.Mesh, target, input, &r.WireBase, false)
}

// switchFlowTo implements the shared Resume/Start mechanics: prepare the
// target if needed (restart is true for Start), run it one step at a
// time by ticking its own coroutine, yielding the caller between steps,
// and restoring the flow's active wire once the target reaches a
// terminal state.
func switchFlowTo(ctx *shard.Context, m *mesh.Mesh, target *wire.Wire, input value.Value, base *WireBase, restart bool) (value.Value, error) {
	if restart && target.IsRunning() {
		target.Stop(value.None)
	}
	if !target.IsRunning() && !target.HasEnded() || restart {
		base.ApplyCaptures(ctx, target)
		target.Prepare(ctx.Flow, m.Refs(), m.Globals())
		target.Start(input)
	}

	prevActive := ctx.Flow.Active
	ctx.Flow.Resumer = prevActive
	ctx.Flow.Active = target
	defer func() { ctx.Flow.Active = prevActive }()

	for target.IsRunning() {
		if _, err := target.Tick(); err != nil {
			return value.None, err
		}
		if target.IsRunning() {
			ctx.Yield()
		}
	}

	if target.FinishedError() != nil {
		return value.None, target.FinishedError()
	}
	return target.FinishedOutput(), nil
}

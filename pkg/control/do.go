package control

import (
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// Do runs the target wire's shards inline, in the calling coroutine.
// Return and Restart flow-stops are forwarded to the caller; on Restart
// with a looped target, execution jumps back to the target's top.
// Output is the target's final value, or the input if Passthrough
// (§4.10). Dispatch is Do with Passthrough forced true.
type Do struct {
	WireBase
	wireRefParams

	Mesh *mesh.Mesh
}

func NewDo(m *mesh.Mesh) *Do { return &Do{Mesh: m} }

// NewDispatch builds a Do-shaped shard with Passthrough forced on, the
// Dispatch variant named in §4.10.
func NewDispatch(m *mesh.Mesh) *Do {
	d := &Do{Mesh: m}
	d.Passthrough = true
	return d
}

func (d *Do) Name() string                 { return "Do" }
func (d *Do) Hash() uint64                 { return 0x446f } // "Do"
func (d *Do) Help() string                 { return "Runs a wire inline, in the calling coroutine." }
func (d *Do) InputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (d *Do) OutputTypes() []*typesys.Type { return []*typesys.Type{typesys.AnyT} }
func (d *Do) Parameters() []shard.Parameter { return d.parameterList() }

func (d *Do) SetParam(i int, v value.Value) error {
	if ok, err := setWireRefParam(&d.WireBase, i, v); ok {
		return err
	}
	return &shard.InvalidParameterIndex{Shard: d.Name(), Index: i}
}

func (d *Do) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		return value.String(d.Ref.Name), nil
	case 1:
		return value.Bool(d.Passthrough), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: d.Name(), Index: i}
}

func (d *Do) RequiredVariables() []variable.Binding { return nil }
func (d *Do) ExposedVariables() []variable.Binding  { return nil }

func (d *Do) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	res, err := d.WireBase.Compose(data, d.Mesh)
	if err != nil {
		return shard.ComposeResult{}, err
	}
	out := res.OutputType
	if d.Passthrough {
		out = data.InputType
	}
	return shard.ComposeResult{OutputType: out, Exposed: res.Exposed, Required: res.Required}, nil
}

func (d *Do) Warmup(ctx *shard.Context) error {
	_, err := d.Resolve(ctx)
	return err
}

func (d *Do) Cleanup() {}

func (d *Do) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	target, err := d.Resolve(ctx)
	if err != nil {
		return value.None, err
	}
	d.ApplyCaptures(ctx, target)

	out, stopErr := runInline(ctx, target, input)
	if stopErr != nil {
		return value.None, stopErr
	}
	if d.Passthrough {
		return input, nil
	}
	return out, nil
}

// runInline executes target's shards directly on the caller's Context,
// pushing it onto the wire stack and forwarding Return/Restart signals
// instead of letting them escape as Stop/Error would (§4.10 Do).
func runInline(ctx *shard.Context, target *wire.Wire, input value.Value) (value.Value, error) {
	ctx.PushWire(target)
	defer ctx.PopWire()

	in := input
	for {
		for _, s := range target.Shards() {
			if ctx.Flow.State != shard.FlowContinue {
				break
			}
			ctx.CurrentShard = s
			out, err := s.Activate(ctx, in)
			if err != nil {
				ctx.Flow.State = shard.FlowError
				ctx.FinishedErr = &shard.ActivationError{Shard: s.Name(), Err: err}
				break
			}
			in = out
		}

		switch ctx.Flow.State {
		case shard.FlowRestart:
			if target.Looped {
				ctx.Flow.State = shard.FlowContinue
				in = target.StartInput()
				continue
			}
			ctx.Flow.State = shard.FlowContinue
			return in, nil
		case shard.FlowReturn:
			ctx.Flow.State = shard.FlowContinue
			return in, nil
		case shard.FlowError:
			return value.None, ctx.FinishedErr
		default:
			return in, nil
		}
	}
}

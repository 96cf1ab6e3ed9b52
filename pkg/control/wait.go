package control

import (
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// Wait suspends the caller until the target wire reaches a terminal
// state. Output is the target's finished output, or the input if
// Passthrough. If the target finished with an error, it propagates to
// the caller unless the caller wraps this shard in a recovery shard
// (§4.10 — recovery is left to a domain shard outside this core; Wait
// itself always surfaces the error to its own Activate return).
type Wait struct {
	WireBase
	wireRefParams

	Mesh *mesh.Mesh
}

func NewWait(m *mesh.Mesh) *Wait { return &Wait{Mesh: m} }

func (w *Wait) Name() string                 { return "Wait" }
func (w *Wait) Hash() uint64                  { return 0x57616974 }
func (w *Wait) Help() string                  { return "Suspends until a target wire reaches a terminal state." }
func (w *Wait) InputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (w *Wait) OutputTypes() []*typesys.Type { return []*typesys.Type{typesys.AnyT} }
func (w *Wait) Parameters() []shard.Parameter { return w.parameterList() }

func (w *Wait) SetParam(i int, v value.Value) error {
	if ok, err := setWireRefParam(&w.WireBase, i, v); ok {
		return err
	}
	return &shard.InvalidParameterIndex{Shard: w.Name(), Index: i}
}

func (w *Wait) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		return value.String(w.Ref.Name), nil
	case 1:
		return value.Bool(w.Passthrough), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: w.Name(), Index: i}
}

func (w *Wait) RequiredVariables() []variable.Binding { return nil }
func (w *Wait) ExposedVariables() []variable.Binding  { return nil }

func (w *Wait) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	res, err := w.WireBase.Compose(data, w.Mesh)
	if err != nil {
		return shard.ComposeResult{}, err
	}
	out := res.OutputType
	if w.Passthrough {
		out = data.InputType
	}
	return shard.ComposeResult{OutputType: out}, nil
}

func (w *Wait) Warmup(ctx *shard.Context) error {
	_, err := w.Resolve(ctx)
	return err
}

func (w *Wait) Cleanup() {}

// Activate yields the caller's coroutine, via the same goroutine-parked-
// on-a-channel mechanism as suspend, until the target is no longer
// running. Unlike Resume/Start, Wait never becomes the flow's active
// wire — it observes the target's progress without driving it (the
// target is expected to be independently scheduled, e.g. via Detach or
// Spawn).
func (w *Wait) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	target, err := w.Resolve(ctx)
	if err != nil {
		return value.None, err
	}
	for !target.HasEnded() {
		ctx.Yield()
	}
	if fe := target.FinishedError(); fe != nil {
		return value.None, fe
	}
	if w.Passthrough {
		return input, nil
	}
	return target.FinishedOutput(), nil
}

package control

import (
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// Detach schedules the target on the same mesh asynchronously, injects
// captured variables, and returns the input immediately. The target
// survives the caller only if the mesh keeps it scheduled (§4.10).
type Detach struct {
	WireBase
	wireRefParams

	Mesh *mesh.Mesh
}

func NewDetach(m *mesh.Mesh) *Detach {
	d := &Detach{Mesh: m}
	d.Mode = ModeDetached
	return d
}

func (d *Detach) Name() string                 { return "Detach" }
func (d *Detach) Hash() uint64                  { return 0x44740001 }
func (d *Detach) Help() string                  { return "Schedules a wire to run asynchronously on the same mesh." }
func (d *Detach) InputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (d *Detach) OutputTypes() []*typesys.Type { return []*typesys.Type{typesys.AnyT} }
func (d *Detach) Parameters() []shard.Parameter { return d.parameterList() }

func (d *Detach) SetParam(i int, v value.Value) error {
	if ok, err := setWireRefParam(&d.WireBase, i, v); ok {
		return err
	}
	return &shard.InvalidParameterIndex{Shard: d.Name(), Index: i}
}

func (d *Detach) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		return value.String(d.Ref.Name), nil
	case 1:
		return value.Bool(d.Passthrough), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: d.Name(), Index: i}
}

func (d *Detach) RequiredVariables() []variable.Binding { return nil }
func (d *Detach) ExposedVariables() []variable.Binding  { return nil }

func (d *Detach) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	_, err := d.WireBase.Compose(data, d.Mesh)
	if err != nil {
		return shard.ComposeResult{}, err
	}
	// Detach always passes the input through; the target's own output is
	// never observed by the caller (§4.10).
	return shard.ComposeResult{OutputType: data.InputType}, nil
}

func (d *Detach) Warmup(ctx *shard.Context) error {
	_, err := d.Resolve(ctx)
	return err
}

func (d *Detach) Cleanup() {}

func (d *Detach) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	target, err := d.Resolve(ctx)
	if err != nil {
		return value.None, err
	}
	d.ApplyCaptures(ctx, target)
	if err := d.Mesh.Schedule(target, input, false); err != nil {
		return value.None, err
	}
	return input, nil
}

package control

import (
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// localSnapshot records one wire-local variable's value at the point
// Recur was entered, so it can be restored verbatim once the recursive
// call unwinds (§4.10, §12 "variable snapshot/restore").
type localSnapshot struct {
	name string
	val  value.Value
}

// Recur re-enters the current wire from its first shard, preserving
// wire-local variables across the nested activation: their values are
// snapshotted on entry and restored on return, so a shard that reads a
// local after Recur sees the value this level left it at, not whatever
// the deeper recursion mutated it to (§4.10, §12, §8 scenario 6).
type Recur struct {
	stack [][]localSnapshot
}

func NewRecur() *Recur { return &Recur{} }

func (r *Recur) Name() string                  { return "Recur" }
func (r *Recur) Hash() uint64                  { return 0x52656375 }
func (r *Recur) Help() string                  { return "Re-enters the current wire from its first shard." }
func (r *Recur) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.AnyT} }
func (r *Recur) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (r *Recur) Parameters() []shard.Parameter { return nil }

func (r *Recur) SetParam(i int, v value.Value) error {
	return &shard.InvalidParameterIndex{Shard: r.Name(), Index: i}
}

func (r *Recur) GetParam(i int) (value.Value, error) {
	return value.None, &shard.InvalidParameterIndex{Shard: r.Name(), Index: i}
}

func (r *Recur) RequiredVariables() []variable.Binding { return nil }
func (r *Recur) ExposedVariables() []variable.Binding  { return nil }

// Compose leaves the output type as the input type: the wire is already
// on the compose stack (it is composing *this* shard), so there is no
// sub-wire to recurse into at compose time — only the runtime activation
// re-enters it.
func (r *Recur) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	return shard.ComposeResult{OutputType: data.InputType}, nil
}

func (r *Recur) Warmup(ctx *shard.Context) error { return nil }
func (r *Recur) Cleanup()                         {}

func (r *Recur) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	cur, err := r.currentWire(ctx)
	if err != nil {
		return value.None, err
	}

	snap := r.snapshot(ctx.Scope)
	r.stack = append(r.stack, snap)
	defer func() {
		n := len(r.stack)
		last := r.stack[n-1]
		r.stack = r.stack[:n-1]
		r.restore(ctx.Scope, last)
	}()

	return runInline(ctx, cur, input)
}

func (r *Recur) currentWire(ctx *shard.Context) (*wire.Wire, error) {
	if h := ctx.CurrentWire(); h != nil {
		if w, ok := h.(*wire.Wire); ok {
			return w, nil
		}
	}
	if ctx.Flow != nil {
		if w, ok := ctx.Flow.Active.(*wire.Wire); ok {
			return w, nil
		}
	}
	return nil, &shard.WireNotFound{Reference: "<current>"}
}

func (r *Recur) snapshot(scope *variable.Scope) []localSnapshot {
	if scope == nil || scope.Local == nil {
		return nil
	}
	snap := make([]localSnapshot, 0, len(scope.Local))
	for name, v := range scope.Local {
		snap = append(snap, localSnapshot{name: name, val: value.Clone(v.Get())})
	}
	return snap
}

func (r *Recur) restore(scope *variable.Scope, snap []localSnapshot) {
	if scope == nil {
		return
	}
	for _, s := range snap {
		if v, ok := scope.Local[s.name]; ok {
			v.Set(s.val)
		}
	}
}

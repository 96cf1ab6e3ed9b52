// Package control implements the control-flow shards that cross wire
// boundaries: Do, Dispatch, Detach, Step, Resume, Start, Wait, Stop,
// Recur, Branch (§4.10), and the parallel-runner entry points TryMany,
// Expand, Spawn (§4.12, implemented in pkg/parallel and driven from
// here).
package control

import (
	"github.com/Voskan/shards/pkg/compose"
	"github.com/Voskan/shards/pkg/mesh"
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
	"github.com/Voskan/shards/pkg/wire"
)

// Mode is how a control-flow shard runs its target wire.
type Mode uint8

const (
	ModeInline Mode = iota
	ModeDetached
	ModeStepped
)

// WireRef is a compose-time-resolved reference to a target wire: a
// literal wire, a name looked up in the mesh globals table, or the name
// of a variable expected to hold a wire Value (§4.10).
type WireRef struct {
	Literal  *wire.Wire
	Name     string
	VarName  string
}

// captureDirective names one binding to capture, computed at compose
// time (§4.10 "when capturing"); ApplyCaptures looks the name up in the
// caller's scope and clones its value into the target's variable table.
// The binding's type is not recorded.
type captureDirective struct {
	name string
}

// WireBase is the shared contract every control-flow shard embeds: a
// target reference, a Mode, and the passthrough/capturing flags.
type WireBase struct {
	Ref         WireRef
	Mode        Mode
	Passthrough bool
	Capturing   bool

	target   *wire.Wire
	captures []captureDirective
}

// Resolve looks up the target wire: literal, named global, or a
// variable holding a WireHandle (§4.10).
func (b *WireBase) Resolve(ctx *shard.Context) (*wire.Wire, error) {
	if b.target != nil {
		return b.target, nil
	}
	if b.Ref.Literal != nil {
		b.target = b.Ref.Literal
		return b.target, nil
	}
	if b.Ref.VarName != "" {
		v, ok := ctx.Scope.Lookup(b.Ref.VarName)
		if !ok {
			return nil, &shard.WireNotFound{Reference: b.Ref.VarName}
		}
		wh := v.Get()
		if wh.Kind != value.KindWire {
			return nil, &shard.WireNotFound{Reference: b.Ref.VarName}
		}
		w, ok := wh.AsWire().Ptr.(*wire.Wire)
		if !ok {
			return nil, &shard.WireNotFound{Reference: b.Ref.VarName}
		}
		b.target = w
		return w, nil
	}
	if b.Ref.Name != "" {
		if ctx.Scope != nil {
			if v, ok := ctx.Scope.Globals[b.Ref.Name]; ok {
				wh := v.Get()
				if wh.Kind == value.KindWire {
					if w, ok := wh.AsWire().Ptr.(*wire.Wire); ok {
						b.target = w
						return w, nil
					}
				}
			}
		}
		return nil, &shard.WireNotFound{Reference: b.Ref.Name}
	}
	return nil, &shard.WireNotFound{Reference: "<none>"}
}

// Compose resolves and composes the target wire with the current input
// type and the descendant-visible portion of shared (§4.10). In Detached
// mode without Capturing that portion is a fresh scope holding a copy of
// every exposed declaration of shared, Global or not, and none of its
// variable tables; other modes pass shared itself. The target is
// recorded in m's visited-wires map before
// recursing, to prevent infinite regress on mutually-referencing wires.
func (b *WireBase) Compose(data shard.InstanceData, m *mesh.Mesh) (compose.Result, error) {
	target, err := b.resolveFromInstanceData(data)
	if err != nil {
		return compose.Result{}, err
	}

	if m.VisitedWires(target.Key()) {
		return compose.Result{OutputType: typesys.AnyT}, nil
	}
	m.MarkVisited(target.Key())

	descendantScope := b.descendantVisibleScope(data.Shared)

	res, err := m.Composer().Compose(target, data.InputType, descendantScope)
	if err != nil {
		return compose.Result{}, err
	}

	if b.Capturing {
		for _, req := range res.DeepRequirements {
			if _, isGlobal := descendantScope.Exposed[req.Name]; isGlobal {
				continue
			}
			if data.Shared != nil {
				if _, ok := data.Shared.Lookup(req.Name); ok {
					b.captures = append(b.captures, captureDirective{name: req.Name})
				}
			}
		}
	}

	return res, nil
}

// resolveFromInstanceData mirrors Resolve but for the compose-time path,
// which has no live Context yet — only the shared scope.
func (b *WireBase) resolveFromInstanceData(data shard.InstanceData) (*wire.Wire, error) {
	if b.target != nil {
		return b.target, nil
	}
	if b.Ref.Literal != nil {
		b.target = b.Ref.Literal
		return b.target, nil
	}
	if data.Shared != nil {
		name := b.Ref.VarName
		if name == "" {
			name = b.Ref.Name
		}
		if name != "" {
			if v, ok := data.Shared.Lookup(name); ok {
				wh := v.Get()
				if wh.Kind == value.KindWire {
					if w, ok := wh.AsWire().Ptr.(*wire.Wire); ok {
						b.target = w
						return w, nil
					}
				}
			}
		}
	}
	return nil, &shard.WireNotFound{Reference: b.Ref.Name + b.Ref.VarName}
}

func (b *WireBase) descendantVisibleScope(shared *variable.Scope) *variable.Scope {
	if shared == nil {
		return variable.NewScope(nil, nil, nil)
	}
	if b.Mode != ModeDetached || b.Capturing {
		return shared
	}
	globalOnly := variable.NewScope(nil, nil, nil)
	globalOnly.Exposed = make(map[string]*typesys.Type)
	for name, t := range shared.Exposed {
		globalOnly.Exposed[name] = t
	}
	return globalOnly
}

// ApplyCaptures clones each captured variable's current Value into the
// target wire's local table, immediately before an activation (§4.10).
func (b *WireBase) ApplyCaptures(ctx *shard.Context, target *wire.Wire) {
	for _, c := range b.captures {
		v, ok := ctx.Scope.Lookup(c.name)
		if !ok {
			continue
		}
		target.AddLocal(c.name, value.Clone(v.Get()))
	}
}

// Target returns the already-resolved target wire, if any.
func (b *WireBase) Target() *wire.Wire { return b.target }

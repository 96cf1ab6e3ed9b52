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

// Branch owns a private child mesh and a fixed list of wires. Each
// parent activation schedules the children on first use, then drives
// one child-mesh tick. Children see the parent's captured variables as
// refs — the same underlying *variable.Variable, not a clone — so
// mutations on either side are visible to both (§4.10, §12). The parent
// fails on the first tick in which any child mesh error appears,
// without waiting for the rest to settle (§8 scenario 5).
type Branch struct {
	Children  []*wire.Wire
	Capturing bool

	child     *mesh.Mesh
	composer  *compose.Composer
	started   bool
	lastErr   int
	captures  []captureDirective
}

func NewBranch(children ...*wire.Wire) *Branch {
	return &Branch{Children: children}
}

func (b *Branch) Name() string                  { return "Branch" }
func (b *Branch) Hash() uint64                  { return 0x42726e63 }
func (b *Branch) Help() string                  { return "Ticks a fixed set of child wires on a private mesh, one step per parent tick." }
func (b *Branch) InputTypes() []*typesys.Type   { return []*typesys.Type{typesys.AnyT} }
func (b *Branch) OutputTypes() []*typesys.Type  { return []*typesys.Type{typesys.AnyT} }
func (b *Branch) Parameters() []shard.Parameter {
	return []shard.Parameter{
		{Name: "Wires", Help: "The child wires to run in the branch mesh.", Types: []*typesys.Type{typesys.SeqOf(typesys.AnyT)}},
		{Name: "Capturing", Help: "Share captured variables with children as refs.", Types: []*typesys.Type{typesys.BoolT}},
	}
}

func (b *Branch) SetParam(i int, v value.Value) error {
	switch i {
	case 0:
		if v.Kind != value.KindSeq {
			return &shard.InvalidVarTypeError{Variable: "Wires", Shard: b.Name()}
		}
		seq := v.AsSeq()
		children := make([]*wire.Wire, 0, seq.Len())
		var badEntry bool
		seq.Iterate(func(_ int, elem value.Value) bool {
			if elem.Kind != value.KindWire {
				badEntry = true
				return false
			}
			w, ok := elem.AsWire().Ptr.(*wire.Wire)
			if !ok {
				badEntry = true
				return false
			}
			children = append(children, w)
			return true
		})
		if badEntry {
			return &shard.InvalidVarTypeError{Variable: "Wires", Shard: b.Name()}
		}
		b.Children = children
		return nil
	case 1:
		b.Capturing = v.AsBool()
		return nil
	}
	return &shard.InvalidParameterIndex{Shard: b.Name(), Index: i}
}

func (b *Branch) GetParam(i int) (value.Value, error) {
	switch i {
	case 0:
		elems := make([]value.Value, 0, len(b.Children))
		for _, c := range b.Children {
			elems = append(elems, value.NewWire(c.WireName(), c))
		}
		return value.NewSeqValue(value.SeqOf(elems...)), nil
	case 1:
		return value.Bool(b.Capturing), nil
	}
	return value.None, &shard.InvalidParameterIndex{Shard: b.Name(), Index: i}
}

func (b *Branch) RequiredVariables() []variable.Binding { return nil }
func (b *Branch) ExposedVariables() []variable.Binding  { return nil }

// Compose records every child's deep requirements so the composer can
// propagate them to whatever encloses this Branch, mirroring WireBase's
// capturing behavior for a single target (§4.10).
func (b *Branch) Compose(data shard.InstanceData) (shard.ComposeResult, error) {
	if b.composer == nil {
		b.composer = compose.New()
	}
	var required []variable.Binding
	for _, c := range b.Children {
		res, err := b.composer.Compose(c, nil, data.Shared)
		if err != nil {
			return shard.ComposeResult{}, err
		}
		if b.Capturing {
			for _, req := range res.DeepRequirements {
				if data.Shared != nil {
					if _, ok := data.Shared.Lookup(req.Name); ok {
						b.captures = append(b.captures, captureDirective{name: req.Name})
						continue
					}
				}
				required = append(required, req)
			}
		}
	}
	return shard.ComposeResult{OutputType: data.InputType, Required: required}, nil
}

func (b *Branch) Warmup(ctx *shard.Context) error {
	b.child = mesh.New()
	b.started = false
	b.lastErr = 0
	return nil
}

func (b *Branch) Cleanup() {
	if b.child != nil {
		_ = b.child.Terminate()
	}
}

func (b *Branch) Activate(ctx *shard.Context, input value.Value) (value.Value, error) {
	if !b.started {
		for _, c := range b.Children {
			if b.Capturing {
				b.applyCapturesAsRefs(ctx, c)
			}
			if err := b.child.Schedule(c, input, true); err != nil {
				return value.None, err
			}
		}
		b.started = true
	}

	b.child.Tick()

	if errs := b.child.Errors(); len(errs) > b.lastErr {
		err := errs[b.lastErr]
		b.lastErr = len(errs)
		return value.None, &shard.ActivationError{Shard: b.Name(), Err: err}
	}

	return input, nil
}

// applyCapturesAsRefs binds the parent's own Variable into target's
// locals, without cloning it or taking a reference, so writes on either side
// stay visible to the other — the "non-owning ref" sharing mode that
// distinguishes Branch from Do/Detach's clone-based capture (§4.10).
func (b *Branch) applyCapturesAsRefs(ctx *shard.Context, target *wire.Wire) {
	for _, c := range b.captures {
		v, ok := ctx.Scope.Lookup(c.name)
		if !ok {
			continue
		}
		target.Locals()[c.name] = v
	}
}

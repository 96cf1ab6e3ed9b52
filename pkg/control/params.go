package control

import (
	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/wire"
)

// wireRefParams is the {Wire, Passthrough} parameter pair shared by most
// control-flow shards; each shard embeds it alongside WireBase.
type wireRefParams struct{}

func (wireRefParams) parameterList(extra ...shard.Parameter) []shard.Parameter {
	base := []shard.Parameter{
		{Name: "Wire", Help: "The wire to run.", Types: []*typesys.Type{typesys.StringT, typesys.WireT}},
		{Name: "Passthrough", Help: "Output equals input regardless of the target's output.", Types: []*typesys.Type{typesys.BoolT}, Default: value.Bool(false)},
	}
	return append(base, extra...)
}

// setWireRefParam applies index 0/1 of the shared parameter pair onto b.
// Shards with additional parameters handle indices >= 2 themselves.
func setWireRefParam(b *WireBase, index int, v value.Value) (handled bool, err error) {
	switch index {
	case 0:
		switch v.Kind {
		case value.KindString:
			b.Ref = WireRef{Name: v.AsString()}
		case value.KindContextVar:
			b.Ref = WireRef{VarName: v.AsString()}
		case value.KindWire:
			if w, ok := v.AsWire().Ptr.(*wire.Wire); ok {
				b.Ref = WireRef{Literal: w}
			}
		}
		return true, nil
	case 1:
		b.Passthrough = v.AsBool()
		return true, nil
	}
	return false, nil
}

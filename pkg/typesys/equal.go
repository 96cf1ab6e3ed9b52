package typesys

import "github.com/Voskan/shards/pkg/value"

// Equal is structural: same Kind, recursively same payload. A Seq
// compares the *set* of allowed element types (order-insensitive); a
// keyed Table compares keys in order with parallel types; an unkeyed
// Table compares its type set the same way Seq does.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case value.KindSeq:
		return typeSetEqual(a.Elements, b.Elements)
	case value.KindTable:
		return tableShapeEqual(a.Table, b.Table)
	case value.KindObject, value.KindEnum:
		return a.Vendor == b.Vendor
	case value.KindPath:
		return pathEqual(a.Path, b.Path)
	case value.KindInt, value.KindFloat:
		return boundsEqual(a.Bounds, b.Bounds)
	case value.KindContextVar:
		return typeSetEqual(a.ContextVarTypes, b.ContextVarTypes)
	default:
		return true
	}
}

func typeSetEqual(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ta := range a {
		found := false
		for i, tb := range b {
			if used[i] {
				continue
			}
			if Equal(ta, tb) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func tableShapeEqual(a, b *TableShape) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Keys) > 0 || len(b.Keys) > 0 {
		if len(a.Keys) != len(b.Keys) {
			return false
		}
		for i := range a.Keys {
			if a.Keys[i] != b.Keys[i] {
				return false
			}
			if !Equal(a.Types[i], b.Types[i]) {
				return false
			}
		}
		return true
	}
	return typeSetEqual(a.Types, b.Types)
}

func pathEqual(a, b *PathConstraint) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.IsFile != b.IsFile || a.MustExist != b.MustExist || a.IsRelative != b.IsRelative {
		return false
	}
	if len(a.Extensions) != len(b.Extensions) {
		return false
	}
	for i := range a.Extensions {
		if a.Extensions[i] != b.Extensions[i] {
			return false
		}
	}
	return true
}

func boundsEqual(a, b *NumericBounds) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Min == b.Min && a.Max == b.Max
}

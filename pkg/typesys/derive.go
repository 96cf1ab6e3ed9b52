package typesys

import "github.com/Voskan/shards/pkg/value"

// VariableScope is the minimal capability Derive needs to resolve a
// ContextVar Value against the exposed set visible at compose time. It is
// satisfied by pkg/variable.Scope without typesys importing that package
// (which would otherwise cycle back through Binding.Type).
type VariableScope interface {
	LookupType(name string) (*Type, bool)
}

// Derive builds the minimal Type that accepts v in the given scope. A
// ContextVar Value resolves against scope and becomes a context-var Type
// recording the acceptable variable types.
func Derive(v value.Value, scope VariableScope) *Type {
	switch v.Kind {
	case value.KindSeq:
		s := v.AsSeq()
		elems := make([]*Type, 0, s.Len())
		s.Iterate(func(_ int, e value.Value) bool {
			elems = appendUnique(elems, Derive(e, scope))
			return true
		})
		return &Type{Kind: value.KindSeq, Elements: elems}
	case value.KindTable:
		tb := v.AsTable()
		keys := make([]string, 0, tb.Len())
		types := make([]*Type, 0, tb.Len())
		tb.Iterate(func(k string, e value.Value) bool {
			keys = append(keys, k)
			types = append(types, Derive(e, scope))
			return true
		})
		return KeyedTable(keys, types)
	case value.KindSet:
		st := v.AsSet()
		elems := make([]*Type, 0, st.Len())
		st.Iterate(func(e value.Value) bool {
			elems = appendUnique(elems, Derive(e, scope))
			return true
		})
		return &Type{Kind: value.KindSet, Elements: elems}
	case value.KindArray:
		a := v.AsArray()
		return &Type{Kind: value.KindArray, Elements: []*Type{{Kind: a.Elem}}}
	case value.KindObject:
		o := v.AsObject()
		return &Type{Kind: value.KindObject, Vendor: o.Type}
	case value.KindEnum:
		e := v.AsEnum()
		return &Type{Kind: value.KindEnum, Vendor: e.Vendor}
	case value.KindContextVar:
		name := v.AsString()
		if scope != nil {
			if t, ok := scope.LookupType(name); ok {
				return &Type{Kind: value.KindContextVar, ContextVarTypes: []*Type{t}}
			}
		}
		return &Type{Kind: value.KindContextVar, ContextVarTypes: []*Type{AnyT}}
	default:
		return &Type{Kind: v.Kind}
	}
}

func appendUnique(types []*Type, t *Type) []*Type {
	for _, existing := range types {
		if Equal(existing, t) {
			return types
		}
	}
	return append(types, t)
}

package typesys

import "github.com/Voskan/shards/pkg/value"

// Matches reports whether a Value typed `have` is acceptable wherever
// `want` is declared (§4.2). Any on either side always matches. A Seq
// matches if every have-element type is acceptable to some want-element
// type; a keyed Table matches if every key want requires is present in
// have with an acceptable type (have may carry extra keys); an unkeyed
// Table matches like Seq over its type set.
func Matches(have, want *Type) bool {
	if have == nil || want == nil {
		return have == want
	}
	if want.Kind == value.KindAny || have.Kind == value.KindAny {
		return true
	}
	if have.Kind != want.Kind {
		return false
	}
	switch want.Kind {
	case value.KindSeq:
		return everyAcceptedBy(have.Elements, want.Elements)
	case value.KindTable:
		return tableMatches(have.Table, want.Table)
	case value.KindObject, value.KindEnum:
		return have.Vendor == want.Vendor
	case value.KindPath:
		return pathMatches(have.Path, want.Path)
	case value.KindInt, value.KindFloat:
		return boundsMatch(have.Bounds, want.Bounds)
	case value.KindContextVar:
		return everyAcceptedBy(have.ContextVarTypes, want.ContextVarTypes)
	default:
		return true
	}
}

// everyAcceptedBy reports whether each type in have is Matches-compatible
// with at least one type in want. An empty have (nothing produced, e.g. an
// empty Seq literal) trivially matches.
func everyAcceptedBy(have, want []*Type) bool {
	for _, h := range have {
		ok := false
		for _, w := range want {
			if Matches(h, w) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func tableMatches(have, want *TableShape) bool {
	if want == nil {
		return true
	}
	if have == nil {
		return len(want.Keys) == 0 && len(want.Types) == 0
	}
	if len(want.Keys) > 0 {
		for i, wantKey := range want.Keys {
			idx := indexOf(have.Keys, wantKey)
			if idx < 0 {
				return false
			}
			if !Matches(have.Types[idx], want.Types[i]) {
				return false
			}
		}
		return true
	}
	return everyAcceptedBy(have.Types, want.Types)
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func pathMatches(have, want *PathConstraint) bool {
	if want == nil {
		return true
	}
	if have == nil {
		return false
	}
	if want.IsFile && !have.IsFile {
		return false
	}
	if want.MustExist && !have.MustExist {
		return false
	}
	if len(want.Extensions) == 0 {
		return true
	}
	for _, ext := range want.Extensions {
		if !contains(have.Extensions, ext) {
			return false
		}
	}
	return true
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func boundsMatch(have, want *NumericBounds) bool {
	if want == nil {
		return true
	}
	if have == nil {
		return false
	}
	return have.Min >= want.Min && have.Max <= want.Max
}

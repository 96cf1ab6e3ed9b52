// Package typesys implements the structural type model: type descriptors,
// derivation from concrete Values, structural equality/hashing and the
// `matches` compatibility check the composer relies on (§4.2).
package typesys

import (
	"github.com/Voskan/shards/internal/slab"
	"github.com/Voskan/shards/pkg/value"
)

// PathConstraint restricts a Path Value.
type PathConstraint struct {
	Extensions []string
	IsFile     bool
	MustExist  bool
	IsRelative bool
}

// NumericBounds optionally validates an Int/Float Value's range.
type NumericBounds struct {
	Min, Max float64
}

// TableShape describes a Table type either as a keyed record (Keys and
// Types are parallel, ordered) or as an unkeyed bag of acceptable value
// types.
type TableShape struct {
	Keys  []string
	Types []*Type
}

// Type is the structural description of the values a shard slot accepts.
// A Seq that may contain itself (a recursive type, e.g. a JSON-like Any
// tree) is represented with SelfRef set on one of the Elements entries;
// since Type is an ordinary Go pointer type, that self-reference is just
// a cycle in the pointer graph and the GC reclaims it the same as any
// other cyclic structure — no arena indices are needed to make the cycle
// safe, only to avoid an expensive deep-copy when a Type is reused across
// many composes (see Arena below).
type Type struct {
	Kind value.Kind

	// Seq: elements accepted.
	Elements []*Type

	// Table.
	Table *TableShape

	// Object / Enum.
	Vendor value.VendorType

	// Path.
	Path *PathConstraint

	// Int / Float.
	Bounds *NumericBounds

	// Forces a container to a known length at compose time.
	FixedSize *int

	// ContextVar: which variable types are acceptable.
	ContextVarTypes []*Type

	// SelfRef marks the recursive-self sentinel inside Elements/Table.Types.
	SelfRef bool
}

var (
	AnyT    = &Type{Kind: value.KindAny}
	NoneT   = &Type{Kind: value.KindNone}
	BoolT   = &Type{Kind: value.KindBool}
	IntT    = &Type{Kind: value.KindInt}
	FloatT  = &Type{Kind: value.KindFloat}
	StringT = &Type{Kind: value.KindString}
	BytesT  = &Type{Kind: value.KindBytes}
	WireT   = &Type{Kind: value.KindWire}
)

// SeqOf builds a Seq type accepting any of elems.
func SeqOf(elems ...*Type) *Type { return &Type{Kind: value.KindSeq, Elements: elems} }

// KeyedTable builds a Table type with an ordered, required key set.
func KeyedTable(keys []string, types []*Type) *Type {
	return &Type{Kind: value.KindTable, Table: &TableShape{Keys: keys, Types: types}}
}

// UnkeyedTable builds a Table type accepting any of the given value types.
func UnkeyedTable(types ...*Type) *Type {
	return &Type{Kind: value.KindTable, Table: &TableShape{Types: types}}
}

// Arena interns Types produced during a single compose pass so that
// structurally identical slots (the common case — most shards in a wire
// reuse Any, Int, String, ...) share one pointer rather than allocating a
// fresh Type per shard. This is the direct descendant of arena-cache's
// internal/arena bump allocator: Reset() bulk-discards an entire compose
// pass in O(1), exactly like a generation rotation.
type Arena struct {
	slab     *slab.Slab[*Type]
	interned map[uint64]*Type
}

func NewArena() *Arena {
	return &Arena{slab: slab.New[*Type](), interned: make(map[uint64]*Type)}
}

// Intern returns a canonical pointer for t: if a structurally-equal Type
// was already interned in this Arena, that pointer is returned and t is
// discarded; otherwise t is recorded and returned as-is.
func (a *Arena) Intern(t *Type) *Type {
	h := Hash(t)
	if existing, ok := a.interned[h]; ok && Equal(existing, t) {
		return existing
	}
	a.slab.Alloc(t)
	a.interned[h] = t
	return t
}

// Reset discards every Type interned in this Arena.
func (a *Arena) Reset() {
	a.slab.Reset()
	a.interned = make(map[uint64]*Type)
}

package variable

import "github.com/Voskan/shards/pkg/typesys"

// Table is a plain name -> *Variable map, the storage shape shared by a
// wire's local variables, a mesh's refs table, and a mesh's globals table.
type Table map[string]*Variable

// Scope chains the three lookup levels named in §4.3: wire-local, then
// mesh-refs, then mesh-globals. A Scope is rebuilt (cheaply — it only
// holds three map references) whenever a wire starts executing under a
// given mesh.
type Scope struct {
	Local   Table
	Refs    Table
	Globals Table

	// Exposed additionally records the compose-time declared type of each
	// name visible in this scope (possibly before any Variable exists),
	// consulted by typesys.Derive when resolving a ContextVar payload.
	Exposed map[string]*typesys.Type
}

// NewScope builds a Scope over the given tables. Any of them may be nil,
// treated as empty.
func NewScope(local, refs, globals Table) *Scope {
	return &Scope{Local: local, Refs: refs, Globals: globals}
}

// Lookup searches wire-local, then mesh-refs, then mesh-globals, in that
// order, and returns the first hit.
func (s *Scope) Lookup(name string) (*Variable, bool) {
	if s == nil {
		return nil, false
	}
	if v, ok := s.Local[name]; ok {
		return v, true
	}
	if v, ok := s.Refs[name]; ok {
		return v, true
	}
	if v, ok := s.Globals[name]; ok {
		return v, true
	}
	return nil, false
}

// LookupType satisfies typesys.VariableScope: it resolves a ContextVar
// Value's name to the type the composer has recorded as exposed, falling
// back to an existing live Variable's derived type if the name was never
// declared as exposed (e.g. a compose-time-only probe).
func (s *Scope) LookupType(name string) (*typesys.Type, bool) {
	if s == nil {
		return nil, false
	}
	if t, ok := s.Exposed[name]; ok {
		return t, true
	}
	if v, ok := s.Lookup(name); ok {
		return typesys.Derive(v.Get(), s), true
	}
	return nil, false
}

// Declare records name's exposed type for later ContextVar resolution
// without allocating a live Variable (used while composing, before
// warmup creates the actual slot).
func (s *Scope) Declare(name string, t *typesys.Type) {
	if s.Exposed == nil {
		s.Exposed = make(map[string]*typesys.Type)
	}
	s.Exposed[name] = t
}

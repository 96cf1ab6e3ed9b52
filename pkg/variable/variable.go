// Package variable implements named, reference-counted variable bindings
// and the three-level scoped lookup (wire-local, mesh-refs, mesh-globals)
// described in §4.3.
package variable

import (
	"sync"

	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
)

// Binding is the compose-time declaration a shard makes about a variable it
// touches: required_variables()/exposed_variables() entries are Bindings.
type Binding struct {
	Name         string
	Type         *typesys.Type
	Mutable      bool
	Protected    bool
	IsTableEntry bool
	// Global marks an exposed binding as global. No compose or scope code
	// reads it: Detach without capturing forwards every exposed
	// declaration, Global or not.
	Global bool
}

// Variable is a heap-allocated, reference-counted Value slot. It is never
// copied; all holders share the same *Variable.
type Variable struct {
	mu       sync.Mutex
	name     string
	val      value.Value
	refs     int32
	external bool
}

// NewVariable allocates a Variable holding v with a single reference held
// by the caller.
func NewVariable(name string, v value.Value) *Variable {
	return &Variable{name: name, val: v, refs: 1}
}

// NewExternal allocates a Variable injected by the host: release never
// frees it (§4.3 "External variables ... are never freed by release").
func NewExternal(name string, v value.Value) *Variable {
	return &Variable{name: name, val: v.WithExternal(), refs: 1, external: true}
}

func (v *Variable) Name() string { return v.name }

// Reference increments the refcount and returns v itself, mirroring the
// pointer-returning reference(name, ctx) operation in §4.3.
func (v *Variable) Reference() *Variable {
	v.mu.Lock()
	v.refs++
	v.mu.Unlock()
	return v
}

// Release decrements the refcount; at zero the held Value is destroyed and
// the slot is considered freed (callers must drop all pointers to it).
// External variables ignore this and are never destroyed by Release.
func (v *Variable) Release() {
	if v.external {
		return
	}
	v.mu.Lock()
	v.refs--
	dead := v.refs <= 0
	v.mu.Unlock()
	if dead {
		value.Destroy(v.val)
	}
}

// Get returns the current Value under the variable's lock.
func (v *Variable) Get() value.Value {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val
}

// Set replaces the held Value. The previous Value is destroyed unless
// external.
func (v *Variable) Set(nv value.Value) {
	v.mu.Lock()
	old := v.val
	v.val = nv
	ext := v.external
	v.mu.Unlock()
	if !ext {
		value.Destroy(old)
	}
}

// External reports whether this slot was injected by the host.
func (v *Variable) External() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.external
}

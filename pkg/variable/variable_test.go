package variable

import "testing"

import "github.com/Voskan/shards/pkg/value"

func TestReferenceReleaseFreesAtZero(t *testing.T) {
	v := NewVariable("x", value.Int(42))
	v.Reference()
	v.Release()
	if v.Get().AsInt() != 42 {
		t.Fatalf("value should survive while refs remain")
	}
	v.Release()
}

func TestExternalNeverFreedByRelease(t *testing.T) {
	v := NewExternal("host_x", value.Int(7))
	v.Release()
	v.Release()
	if !v.External() {
		t.Fatalf("expected external flag to stick")
	}
	if got := v.Get().AsInt(); got != 7 {
		t.Fatalf("external value should still be readable after release, got %d", got)
	}
}

func TestScopeLookupOrder(t *testing.T) {
	local := Table{"x": NewVariable("x", value.Int(1))}
	refs := Table{"x": NewVariable("x", value.Int(2)), "y": NewVariable("y", value.Int(3))}
	globals := Table{"y": NewVariable("y", value.Int(4)), "z": NewVariable("z", value.Int(5))}
	s := NewScope(local, refs, globals)

	if v, ok := s.Lookup("x"); !ok || v.Get().AsInt() != 1 {
		t.Fatalf("expected local x to win")
	}
	if v, ok := s.Lookup("y"); !ok || v.Get().AsInt() != 3 {
		t.Fatalf("expected refs y to win over globals")
	}
	if v, ok := s.Lookup("z"); !ok || v.Get().AsInt() != 5 {
		t.Fatalf("expected globals fallback for z")
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Fatalf("expected miss for undeclared name")
	}
}

func TestScopeLookupTypePrefersDeclaredExposedType(t *testing.T) {
	s := NewScope(nil, nil, nil)
	s.Declare("x", nil)
	if _, ok := s.LookupType("x"); !ok {
		t.Fatalf("expected declared exposed type to be found")
	}
}

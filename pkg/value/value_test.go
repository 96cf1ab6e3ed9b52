package value

import "testing"

func TestCloneDestroyLeavesOriginalUnchanged(t *testing.T) {
	seq := NewSeq(2)
	seq.Push(Int(1))
	seq.Push(String("a"))
	v := NewSeqValue(seq)

	clone := Clone(v)
	Destroy(clone)

	if v.AsSeq().Len() != 2 {
		t.Fatalf("original seq mutated by clone/destroy of its clone")
	}
	if !Equal(v.AsSeq().At(0), Int(1)) || !Equal(v.AsSeq().At(1), String("a")) {
		t.Fatalf("original seq contents changed")
	}
}

func TestExternalCloneIsShallowAndDestroyIsNoop(t *testing.T) {
	seq := NewSeq(1)
	seq.Push(Int(42))
	v := NewSeqValue(seq).WithExternal()

	clone := Clone(v)
	if clone.AsSeq() != v.AsSeq() {
		t.Fatalf("external clone should share the same backing Seq")
	}
	Destroy(clone)
	Destroy(v)
	if v.AsSeq().Len() != 1 {
		t.Fatalf("destroy must be a no-op on external values")
	}
}

func TestEqualImpliesHashEqual(t *testing.T) {
	cases := []struct {
		a, b Value
	}{
		{Int(5), Int(5)},
		{Float(1.5), Float(1.5 + epsilon/2)},
		{String("hello"), String("hello")},
		{SeqValueOf(Int(1), Int(2)), SeqValueOf(Int(1), Int(2))},
		{tableOf(map[string]Value{"a": Int(1), "b": Int(2)}), tableOf(map[string]Value{"b": Int(2), "a": Int(1)})},
	}
	for i, c := range cases {
		if !Equal(c.a, c.b) {
			t.Fatalf("case %d: expected equal", i)
		}
		if Hash128(c.a) != Hash128(c.b) {
			t.Fatalf("case %d: equal values hashed differently", i)
		}
	}
}

func TestHashDiffersAcrossKind(t *testing.T) {
	if Hash128(Int(0)) == Hash128(Bool(false)) {
		t.Fatalf("distinct kinds should not collide trivially")
	}
}

func TestCmpTotalOrderForNumerics(t *testing.T) {
	if Cmp(Int(1), Int(2)) != Lt {
		t.Fatalf("expected Lt")
	}
	if Cmp(Int(2), Int(1)) != Gt {
		t.Fatalf("expected Gt")
	}
	if Cmp(Int(1), Int(1)) != Eq {
		t.Fatalf("expected Eq")
	}
}

func TestCmpUndefinedAcrossKindAndForContainers(t *testing.T) {
	if Cmp(Int(1), Bool(true)) != Undefined {
		t.Fatalf("cross-kind compare must be Undefined")
	}
	if Cmp(SeqValueOf(Int(1)), SeqValueOf(Int(1))) != Undefined {
		t.Fatalf("Seq has no default order, only LexCompare")
	}
	if LexCompare(SeqValueOf(Int(1), Int(2)), SeqValueOf(Int(1), Int(3))) != Lt {
		t.Fatalf("expected lexicographic Lt")
	}
}

func TestCrossKindNeverEqual(t *testing.T) {
	if Equal(Int(0), Bool(false)) {
		t.Fatalf("Int and Bool must never compare equal even with same bit pattern")
	}
}

func SeqValueOf(items ...Value) Value { return NewSeqValue(SeqOf(items...)) }

func tableOf(m map[string]Value) Value {
	tb := NewTable()
	for k, v := range m {
		tb.Set(k, v)
	}
	return NewTableValue(tb)
}

package value

import "math"

// epsilon is the single-precision machine epsilon used for float
// comparisons, applied componentwise for vectors (§3).
const epsilon = 1.1920929e-7

func floatEq(a, b float64) bool { return math.Abs(a-b) <= epsilon }
func float32Eq(a, b float32) bool { return math.Abs(float64(a-b)) <= epsilon }

// Equal implements value-semantic equality, total over variants of the
// same Kind; values of differing Kind are always unequal.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNone, KindAny:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindInt:
		return a.AsInt() == b.AsInt()
	case KindInt2:
		return a.AsInt2() == b.AsInt2()
	case KindInt3:
		return a.AsInt3() == b.AsInt3()
	case KindInt4:
		return a.AsInt4() == b.AsInt4()
	case KindInt8:
		return a.AsInt8() == b.AsInt8()
	case KindInt16:
		return a.AsInt16() == b.AsInt16()
	case KindFloat:
		return floatEq(a.AsFloat(), b.AsFloat())
	case KindFloat2:
		x, y := a.AsFloat2(), b.AsFloat2()
		return floatEq(x[0], y[0]) && floatEq(x[1], y[1])
	case KindFloat3:
		x, y := a.AsFloat3(), b.AsFloat3()
		return float32Eq(x[0], y[0]) && float32Eq(x[1], y[1]) && float32Eq(x[2], y[2])
	case KindFloat4:
		x, y := a.AsFloat4(), b.AsFloat4()
		return float32Eq(x[0], y[0]) && float32Eq(x[1], y[1]) && float32Eq(x[2], y[2]) && float32Eq(x[3], y[3])
	case KindColor:
		return a.AsColor() == b.AsColor()
	case KindString, KindPath, KindContextVar:
		return a.payload.(string) == b.payload.(string)
	case KindBytes:
		return bytesEqual(a.AsBytes(), b.AsBytes())
	case KindSeq:
		return seqEqual(a.AsSeq(), b.AsSeq())
	case KindTable:
		return tableEqual(a.AsTable(), b.AsTable())
	case KindSet:
		return setEqual(a.AsSet(), b.AsSet())
	case KindArray:
		return arrayEqual(a.AsArray(), b.AsArray())
	case KindEnum:
		return a.AsEnum() == b.AsEnum()
	case KindImage, KindAudio, KindObject:
		// No structural equality is defined for these (§3); identity is the
		// only meaningful comparison.
		return a.payload == b.payload
	case KindWire:
		return a.AsWire().Ptr == b.AsWire().Ptr
	case KindShardRef:
		return a.AsShardRef().Ptr == b.AsShardRef().Ptr
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func seqEqual(a, b *Seq) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !Equal(a.At(i), b.At(i)) {
			return false
		}
	}
	return true
}

func tableEqual(a, b *Table) bool {
	if a.Len() != b.Len() {
		return false
	}
	for k, v := range a.entries {
		bv, ok := b.entries[k]
		if !ok || !Equal(v, bv) {
			return false
		}
	}
	return true
}

func setEqual(a, b *Set) bool {
	if a.Len() != b.Len() {
		return false
	}
	ok := true
	a.Iterate(func(v Value) bool {
		if !b.Contains(v) {
			ok = false
			return false
		}
		return true
	})
	return ok
}

func arrayEqual(a, b *Array) bool {
	if a.Elem != b.Elem || a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !Equal(a.At(i), b.At(i)) {
			return false
		}
	}
	return true
}

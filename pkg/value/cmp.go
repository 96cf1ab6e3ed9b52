package value

import "bytes"

// Ordering is the three-way (plus undefined) comparison result.
type Ordering int

const (
	Lt Ordering = iota - 1
	Eq
	Gt
	Undefined
)

// Cmp orders two Values of the same Kind. Callers building a total order
// must filter Undefined themselves (§4.1). Cross-Kind comparison is always
// Undefined.
func Cmp(a, b Value) Ordering {
	if a.Kind != b.Kind {
		return Undefined
	}
	switch a.Kind {
	case KindBool:
		return cmpBool(a.AsBool(), b.AsBool())
	case KindInt:
		return cmpOrdered(a.AsInt(), b.AsInt())
	case KindFloat:
		return cmpOrdered(a.AsFloat(), b.AsFloat())
	case KindInt2:
		x, y := a.AsInt2(), b.AsInt2()
		return cmpLexInt64(x[:], y[:])
	case KindInt3:
		x, y := a.AsInt3(), b.AsInt3()
		return cmpLexInt32(x[:], y[:])
	case KindInt4:
		x, y := a.AsInt4(), b.AsInt4()
		return cmpLexInt32(x[:], y[:])
	case KindInt8:
		x, y := a.AsInt8(), b.AsInt8()
		return cmpLexInt16(x[:], y[:])
	case KindInt16:
		x, y := a.AsInt16(), b.AsInt16()
		return cmpLexInt8(x[:], y[:])
	case KindFloat2:
		x, y := a.AsFloat2(), b.AsFloat2()
		return cmpLexFloat64(x[:], y[:])
	case KindFloat3:
		x, y := a.AsFloat3(), b.AsFloat3()
		return cmpLexFloat32(x[:], y[:])
	case KindFloat4:
		x, y := a.AsFloat4(), b.AsFloat4()
		return cmpLexFloat32(x[:], y[:])
	case KindString, KindPath, KindContextVar:
		return cmpBytewise(a.payload.(string), b.payload.(string))
	case KindBytes:
		switch bytes.Compare(a.AsBytes(), b.AsBytes()) {
		case -1:
			return Lt
		case 0:
			return Eq
		default:
			return Gt
		}
	case KindArray:
		return cmpArray(a.AsArray(), b.AsArray())
	default:
		// Object, Image, Audio, Seq, Table, Color, Enum, Wire, ShardRef,
		// None, Any: no general order defined.
		return Undefined
	}
}

func cmpBool(a, b bool) Ordering {
	if a == b {
		return Eq
	}
	if !a && b {
		return Lt
	}
	return Gt
}

type ordered interface {
	~int64 | ~int32 | ~int16 | ~int8 | ~float64 | ~float32
}

func cmpOrdered[T ordered](a, b T) Ordering {
	switch {
	case a < b:
		return Lt
	case a > b:
		return Gt
	default:
		return Eq
	}
}

func cmpLexInt64(a, b []int64) Ordering { return cmpLex(a, b) }
func cmpLexInt32(a, b []int32) Ordering { return cmpLex(a, b) }
func cmpLexInt16(a, b []int16) Ordering { return cmpLex(a, b) }
func cmpLexInt8(a, b []int8) Ordering   { return cmpLex(a, b) }
func cmpLexFloat64(a, b []float64) Ordering { return cmpLex(a, b) }
func cmpLexFloat32(a, b []float32) Ordering { return cmpLex(a, b) }

func cmpLex[T ordered](a, b []T) Ordering {
	for i := range a {
		if o := cmpOrdered(a[i], b[i]); o != Eq {
			return o
		}
	}
	return Eq
}

func cmpBytewise(a, b string) Ordering {
	switch {
	case a < b:
		return Lt
	case a > b:
		return Gt
	default:
		return Eq
	}
}

func cmpArray(a, b *Array) Ordering {
	if a.Elem != b.Elem {
		return Undefined
	}
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := 0; i < n; i++ {
		if o := Cmp(a.At(i), b.At(i)); o != Eq {
			return o
		}
	}
	return cmpOrdered(int64(a.Len()), int64(b.Len()))
}

// LexCompare gives Seq/Table an explicit, opt-in recursive lexicographic
// order. It is never used by Cmp's default path — it exists for callers
// that specifically need to sort sequences of sequences or tables and
// accept that heterogeneous shapes compare as Undefined rather than
// panicking.
func LexCompare(a, b Value) Ordering {
	if a.Kind != b.Kind {
		return Undefined
	}
	switch a.Kind {
	case KindSeq:
		sa, sb := a.AsSeq(), b.AsSeq()
		n := sa.Len()
		if sb.Len() < n {
			n = sb.Len()
		}
		for i := 0; i < n; i++ {
			if o := LexCompare(sa.At(i), sb.At(i)); o != Eq {
				return o
			}
		}
		return cmpOrdered(int64(sa.Len()), int64(sb.Len()))
	case KindTable:
		ta, tb := a.AsTable(), b.AsTable()
		ka, kb := ta.sortedKeys(), tb.sortedKeys()
		n := len(ka)
		if len(kb) < n {
			n = len(kb)
		}
		for i := 0; i < n; i++ {
			if o := cmpBytewise(ka[i], kb[i]); o != Eq {
				return o
			}
			va, _ := ta.At(ka[i])
			vb, _ := tb.At(kb[i])
			if o := LexCompare(va, vb); o != Eq {
				return o
			}
		}
		return cmpOrdered(int64(len(ka)), int64(len(kb)))
	default:
		return Cmp(a, b)
	}
}

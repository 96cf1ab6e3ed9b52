package value

// Destroy recursively releases v's owned substructure. It is a no-op on a
// Value flagged External (§4.1). Go's garbage collector reclaims the
// backing memory of Seq/Table/Set/Array/Bytes/Image/Audio on its own;
// Destroy's remaining job is to run the release side of any registered
// Object vtable so foreign-owned handles are not leaked.
func Destroy(v Value) {
	if v.Flags.External() {
		return
	}
	switch v.Kind {
	case KindSeq:
		v.AsSeq().Iterate(func(_ int, e Value) bool { Destroy(e); return true })
	case KindTable:
		v.AsTable().Iterate(func(_ string, e Value) bool { Destroy(e); return true })
	case KindSet:
		v.AsSet().Iterate(func(e Value) bool { Destroy(e); return true })
	case KindArray:
		a := v.AsArray()
		for i := 0; i < a.Len(); i++ {
			Destroy(a.At(i))
		}
	case KindObject:
		o := v.AsObject()
		if o.VTable == nil || o.VTable.Release == nil || o.refs == nil {
			return
		}
		*o.refs = *o.refs - 1
		if *o.refs <= 0 {
			o.VTable.Release(o.Ptr)
		}
	}
}

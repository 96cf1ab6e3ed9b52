package value

// Clone deep-copies v's owned substructure. A Value flagged External is
// never deep-copied — its memory is owned by the host, so Clone returns a
// shallow copy that keeps the External flag set, ensuring the copy's
// eventual Destroy is also a no-op (§4.1).
func Clone(v Value) Value {
	if v.Flags.External() {
		return v
	}
	switch v.Kind {
	case KindSeq:
		return Value{Kind: KindSeq, Flags: v.Flags, payload: v.AsSeq().clone()}
	case KindTable:
		return Value{Kind: KindTable, Flags: v.Flags, payload: v.AsTable().clone()}
	case KindSet:
		return Value{Kind: KindSet, Flags: v.Flags, payload: v.AsSet().clone()}
	case KindArray:
		return Value{Kind: KindArray, Flags: v.Flags, payload: v.AsArray().clone()}
	case KindImage:
		return Value{Kind: KindImage, Flags: v.Flags, payload: v.AsImage().clone()}
	case KindAudio:
		return Value{Kind: KindAudio, Flags: v.Flags, payload: v.AsAudio().clone()}
	case KindBytes:
		return Value{Kind: KindBytes, Flags: v.Flags, payload: append([]byte(nil), v.AsBytes()...)}
	case KindObject:
		o := v.AsObject()
		if o.VTable != nil && o.VTable.Reference != nil {
			o.VTable.Reference(o.Ptr)
		}
		return Value{Kind: KindObject, Flags: v.Flags, payload: o}
	default:
		// Scalars, vectors, strings, enums, wire/shard handles: value
		// semantics already give an independent copy.
		return v
	}
}

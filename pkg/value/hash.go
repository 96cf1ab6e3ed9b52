package value

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/Voskan/shards/internal/unsafehelpers"
)

// Hash128 returns a 128-bit content hash, built from two independently
// seeded 64-bit xxhash digests. It recurses into containers: order-
// sensitive for Seq, order-insensitive for Set/Table (elements/keys are
// visited in a canonical sorted order first, per §4.1). Equal values
// always hash equal.
func Hash128(v Value) [16]byte {
	var lo, hi xxhash.Digest
	lo.Reset()
	hi.Reset()
	// Give the two digests distinct starting state so the pair isn't just
	// the same 64 bits duplicated.
	hi.Write([]byte{0x9e, 0x37, 0x79, 0xb9})

	writeValue(&lo, &hi, v)

	var out [16]byte
	binary.LittleEndian.PutUint64(out[0:8], lo.Sum64())
	binary.LittleEndian.PutUint64(out[8:16], hi.Sum64())
	return out
}

func writeBoth(lo, hi *xxhash.Digest, b []byte) {
	lo.Write(b)
	hi.Write(b)
}

func writeValue(lo, hi *xxhash.Digest, v Value) {
	writeBoth(lo, hi, []byte{byte(v.Kind)})
	switch v.Kind {
	case KindNone, KindAny:
	case KindBool:
		b := byte(0)
		if v.AsBool() {
			b = 1
		}
		writeBoth(lo, hi, []byte{b})
	case KindInt:
		writeBoth(lo, hi, u64bytes(uint64(v.AsInt())))
	case KindInt2:
		x := v.AsInt2()
		for _, n := range x {
			writeBoth(lo, hi, u64bytes(uint64(n)))
		}
	case KindInt3:
		for _, n := range v.AsInt3() {
			writeBoth(lo, hi, u32bytes(uint32(n)))
		}
	case KindInt4:
		for _, n := range v.AsInt4() {
			writeBoth(lo, hi, u32bytes(uint32(n)))
		}
	case KindInt8:
		for _, n := range v.AsInt8() {
			writeBoth(lo, hi, u16bytes(uint16(n)))
		}
	case KindInt16:
		for _, n := range v.AsInt16() {
			writeBoth(lo, hi, []byte{byte(n)})
		}
	case KindFloat:
		// Quantize to the comparison epsilon so Equal values (which may
		// differ by < epsilon) still hash equal.
		writeBoth(lo, hi, u64bytes(quantizeFloat(v.AsFloat())))
	case KindFloat2:
		for _, f := range v.AsFloat2() {
			writeBoth(lo, hi, u64bytes(quantizeFloat(f)))
		}
	case KindFloat3:
		for _, f := range v.AsFloat3() {
			writeBoth(lo, hi, u64bytes(quantizeFloat(float64(f))))
		}
	case KindFloat4:
		for _, f := range v.AsFloat4() {
			writeBoth(lo, hi, u64bytes(quantizeFloat(float64(f))))
		}
	case KindColor:
		c := v.AsColor()
		writeBoth(lo, hi, []byte{c.R, c.G, c.B, c.A})
	case KindString, KindPath, KindContextVar:
		writeBoth(lo, hi, unsafehelpers.StringToBytes(v.payload.(string)))
	case KindBytes:
		writeBoth(lo, hi, v.AsBytes())
	case KindSeq:
		s := v.AsSeq()
		s.Iterate(func(_ int, e Value) bool {
			eh := Hash128(e)
			writeBoth(lo, hi, eh[:])
			return true
		})
	case KindTable:
		t := v.AsTable()
		for _, k := range t.sortedKeys() {
			writeBoth(lo, hi, []byte(k))
			ev, _ := t.At(k)
			eh := Hash128(ev)
			writeBoth(lo, hi, eh[:])
		}
	case KindSet:
		st := v.AsSet()
		st.Iterate(func(e Value) bool {
			eh := Hash128(e)
			writeBoth(lo, hi, eh[:])
			return true
		})
	case KindArray:
		a := v.AsArray()
		writeBoth(lo, hi, []byte{byte(a.Elem)})
		for i := 0; i < a.Len(); i++ {
			eh := Hash128(a.At(i))
			writeBoth(lo, hi, eh[:])
		}
	case KindEnum:
		e := v.AsEnum()
		writeBoth(lo, hi, u32bytes(e.Vendor.VendorID))
		writeBoth(lo, hi, u32bytes(e.Vendor.TypeID))
		writeBoth(lo, hi, u32bytes(uint32(e.Value)))
	case KindImage:
		img := v.AsImage()
		writeBoth(lo, hi, u32bytes(uint32(img.Width)))
		writeBoth(lo, hi, u32bytes(uint32(img.Height)))
		writeBoth(lo, hi, img.Pixels)
	case KindAudio:
		au := v.AsAudio()
		writeBoth(lo, hi, u32bytes(uint32(au.SampleRate)))
		for _, s := range au.Samples {
			writeBoth(lo, hi, u32bytes(math.Float32bits(s)))
		}
	case KindObject:
		o := v.AsObject()
		writeBoth(lo, hi, u32bytes(o.Type.VendorID))
		writeBoth(lo, hi, u32bytes(o.Type.TypeID))
		if o.VTable != nil && o.VTable.Hash != nil {
			writeBoth(lo, hi, u64bytes(o.VTable.Hash(o.Ptr)))
		}
	case KindWire:
		writeBoth(lo, hi, []byte(v.AsWire().Name))
	case KindShardRef:
		writeBoth(lo, hi, []byte(v.AsShardRef().Name))
	}
}

// quantizeFloat rounds to the single-precision epsilon grid so that two
// Values considered Equal (|a-b| <= epsilon) produce the same hash input.
func quantizeFloat(f float64) uint64 {
	q := math.Round(f/epsilon) * epsilon
	return math.Float64bits(q)
}

func u64bytes(n uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return b[:]
}

func u32bytes(n uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], n)
	return b[:]
}

func u16bytes(n uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], n)
	return b[:]
}

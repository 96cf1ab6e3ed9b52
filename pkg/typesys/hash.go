package typesys

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/Voskan/shards/pkg/value"
)

// Hash is structural and ignores FixedSize and the SelfRef marker bit —
// two Types differing only in a fixed-size constraint or in which node
// carries the recursive-self sentinel still hash equal (§4.2).
func Hash(t *Type) uint64 {
	var d xxhash.Digest
	d.Reset()
	hashInto(&d, t, map[*Type]bool{})
	return d.Sum64()
}

func hashInto(d *xxhash.Digest, t *Type, visiting map[*Type]bool) {
	if t == nil {
		d.Write([]byte{0xff})
		return
	}
	if visiting[t] {
		// Closing a cycle: write a constant so the recursive-self marker
		// itself never perturbs the hash, per §4.2.
		d.Write([]byte{0xfe})
		return
	}
	visiting[t] = true
	defer delete(visiting, t)

	d.Write([]byte{byte(t.Kind)})
	switch t.Kind {
	case value.KindSeq:
		hashUnordered(d, t.Elements, visiting)
	case value.KindTable:
		if t.Table != nil {
			if len(t.Table.Keys) == 0 {
				hashUnordered(d, t.Table.Types, visiting)
				break
			}
			for _, k := range t.Table.Keys {
				d.Write([]byte(k))
			}
			for _, ty := range t.Table.Types {
				hashInto(d, ty, visiting)
			}
		}
	case value.KindObject, value.KindEnum:
		d.Write(u32(t.Vendor.VendorID))
		d.Write(u32(t.Vendor.TypeID))
	case value.KindPath:
		if t.Path != nil {
			for _, e := range t.Path.Extensions {
				d.Write([]byte(e))
			}
		}
	case value.KindInt, value.KindFloat:
		// Bounds affect hash (validation semantics); FixedSize does not.
		if t.Bounds != nil {
			d.Write(u64(uint64(t.Bounds.Min)))
			d.Write(u64(uint64(t.Bounds.Max)))
		}
	case value.KindContextVar:
		hashUnordered(d, t.ContextVarTypes, visiting)
	}
}

// hashUnordered hashes each of ts on its own and writes the sorted
// digests into d, so type sets that Equal compares without regard to
// order also hash without regard to order.
func hashUnordered(d *xxhash.Digest, ts []*Type, visiting map[*Type]bool) {
	sums := make([]uint64, len(ts))
	for i, ty := range ts {
		var sub xxhash.Digest
		sub.Reset()
		hashInto(&sub, ty, visiting)
		sums[i] = sub.Sum64()
	}
	sort.Slice(sums, func(i, j int) bool { return sums[i] < sums[j] })
	for _, s := range sums {
		d.Write(u64(s))
	}
}

func u32(n uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], n)
	return b[:]
}

func u64(n uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return b[:]
}

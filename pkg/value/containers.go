package value

// Seq is an ordered, growable sequence of Value. It backs the container
// operations exposed to embedders: seqPush/Pop/Insert/Resize/Delete (§6).
type Seq struct {
	items []Value
}

func NewSeq(cap int) *Seq { return &Seq{items: make([]Value, 0, cap)} }

func SeqOf(items ...Value) *Seq { return &Seq{items: append([]Value(nil), items...)} }

func (s *Seq) Len() int { return len(s.items) }

func (s *Seq) At(i int) Value { return s.items[i] }

func (s *Seq) Push(v Value) { s.items = append(s.items, v) }

func (s *Seq) Pop() (Value, bool) {
	if len(s.items) == 0 {
		return None, false
	}
	last := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return last, true
}

func (s *Seq) Insert(i int, v Value) {
	s.items = append(s.items, None)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = v
}

func (s *Seq) Delete(i int) {
	s.items = append(s.items[:i], s.items[i+1:]...)
}

func (s *Seq) Resize(n int) {
	switch {
	case n == len(s.items):
		return
	case n < len(s.items):
		s.items = s.items[:n]
	default:
		grown := make([]Value, n)
		copy(grown, s.items)
		s.items = grown
	}
}

func (s *Seq) Iterate(fn func(i int, v Value) bool) {
	for i, v := range s.items {
		if !fn(i, v) {
			return
		}
	}
}

func (s *Seq) Clear() { s.items = s.items[:0] }

func (s *Seq) clone() *Seq {
	out := &Seq{items: make([]Value, len(s.items))}
	for i, v := range s.items {
		out.items[i] = Clone(v)
	}
	return out
}

// Seq builds a Value wrapping s.
func NewSeqValue(s *Seq) Value { return Value{Kind: KindSeq, payload: s} }

// Table maps string keys to Value. Insertion order is not guaranteed to
// embedders but Iterate walks a stable snapshot taken at call time.
type Table struct {
	entries map[string]Value
}

func NewTable() *Table { return &Table{entries: make(map[string]Value)} }

func (t *Table) Len() int { return len(t.entries) }

func (t *Table) At(key string) (Value, bool) {
	v, ok := t.entries[key]
	return v, ok
}

func (t *Table) Set(key string, v Value) { t.entries[key] = v }

func (t *Table) Contains(key string) bool {
	_, ok := t.entries[key]
	return ok
}

func (t *Table) Remove(key string) { delete(t.entries, key) }

func (t *Table) Clear() { t.entries = make(map[string]Value) }

// Iterate visits every key in a stable, sorted-by-key order so that
// dependent code (hashing, equality) never depends on map iteration order.
func (t *Table) Iterate(fn func(key string, v Value) bool) {
	for _, k := range t.sortedKeys() {
		if !fn(k, t.entries[k]) {
			return
		}
	}
}

func (t *Table) sortedKeys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys
}

func (t *Table) clone() *Table {
	out := NewTable()
	for k, v := range t.entries {
		out.entries[k] = Clone(v)
	}
	return out
}

func NewTableValue(t *Table) Value { return Value{Kind: KindTable, payload: t} }

// Set is an unordered collection of distinct Values, keyed by content hash
// to support arbitrary (including container) element types.
type Set struct {
	buckets map[[16]byte][]Value
	size    int
}

func NewSet() *Set { return &Set{buckets: make(map[[16]byte][]Value)} }

func (s *Set) Len() int { return s.size }

func (s *Set) Include(v Value) bool {
	h := Hash128(v)
	bucket := s.buckets[h]
	for _, existing := range bucket {
		if Equal(existing, v) {
			return false
		}
	}
	s.buckets[h] = append(bucket, v)
	s.size++
	return true
}

func (s *Set) Exclude(v Value) bool {
	h := Hash128(v)
	bucket := s.buckets[h]
	for i, existing := range bucket {
		if Equal(existing, v) {
			s.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			s.size--
			return true
		}
	}
	return false
}

func (s *Set) Contains(v Value) bool {
	h := Hash128(v)
	for _, existing := range s.buckets[h] {
		if Equal(existing, v) {
			return true
		}
	}
	return false
}

func (s *Set) Clear() {
	s.buckets = make(map[[16]byte][]Value)
	s.size = 0
}

// Iterate visits elements ordered by content hash so iteration is
// deterministic across calls and across clones.
func (s *Set) Iterate(fn func(v Value) bool) {
	hashes := make([][16]byte, 0, len(s.buckets))
	for h := range s.buckets {
		hashes = append(hashes, h)
	}
	sortHashes(hashes)
	for _, h := range hashes {
		for _, v := range s.buckets[h] {
			if !fn(v) {
				return
			}
		}
	}
}

func (s *Set) clone() *Set {
	out := NewSet()
	s.Iterate(func(v Value) bool {
		out.Include(Clone(v))
		return true
	})
	return out
}

func NewSetValue(s *Set) Value { return Value{Kind: KindSet, payload: s} }

// Array is a homogeneous, blittable array of a single inner Kind. It is
// used for tightly-packed numeric buffers where a Seq's per-element
// boxing would be wasteful.
type Array struct {
	Elem  Kind
	items []Value
}

func NewArray(elem Kind, items ...Value) *Array {
	return &Array{Elem: elem, items: append([]Value(nil), items...)}
}

func (a *Array) Len() int      { return len(a.items) }
func (a *Array) At(i int) Value { return a.items[i] }

func (a *Array) clone() *Array {
	// A blittable buffer is copied as a single span; element Values are
	// scalars by construction so no recursive clone is needed.
	out := &Array{Elem: a.Elem, items: make([]Value, len(a.items))}
	copy(out.items, a.items)
	return out
}

func NewArrayValue(a *Array) Value { return Value{Kind: KindArray, payload: a} }

// Image flag bits: bit depth and layout.
type ImageFlags uint8

const (
	ImageDepth8 ImageFlags = 1 << iota
	ImageDepth16
	ImageDepth32
	ImageBGRA
	ImagePremultiplied
)

type Image struct {
	Width, Height, Channels int
	Flags                   ImageFlags
	Pixels                  []byte
}

func NewImage(w, h, channels int, flags ImageFlags, pixels []byte) *Image {
	return &Image{Width: w, Height: h, Channels: channels, Flags: flags, Pixels: pixels}
}

func (img *Image) clone() *Image {
	out := *img
	out.Pixels = append([]byte(nil), img.Pixels...)
	return &out
}

func NewImageValue(img *Image) Value { return Value{Kind: KindImage, payload: img} }

type Audio struct {
	SampleRate int
	Frames     int
	Channels   int
	Samples    []float32
}

func NewAudio(sampleRate, frames, channels int, samples []float32) *Audio {
	return &Audio{SampleRate: sampleRate, Frames: frames, Channels: channels, Samples: samples}
}

func (a *Audio) clone() *Audio {
	out := *a
	out.Samples = append([]float32(nil), a.Samples...)
	return &out
}

func NewAudioValue(a *Audio) Value { return Value{Kind: KindAudio, payload: a} }

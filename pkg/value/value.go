package value

import "github.com/Voskan/shards/internal/unsafehelpers"

// VendorType identifies a foreign-registered Enum or Object type: the
// vendor that registered it plus the type id within that vendor's space.
type VendorType struct {
	VendorID uint32
	TypeID   uint32
}

// Enum is a (vendor, type, ordinal) triple.
type Enum struct {
	Vendor VendorType
	Value  int32
}

// ObjectVTable lets a registered Object type participate in reference
// counting, (de)serialization and hashing without the value package
// knowing its concrete Go type.
type ObjectVTable struct {
	Reference   func(ptr any)
	Release     func(ptr any)
	Serialize   func(ptr any) ([]byte, error)
	Deserialize func([]byte) (any, error)
	Hash        func(ptr any) uint64
}

// Object is an opaque vendor-owned handle.
type Object struct {
	Type   VendorType
	Ptr    any
	VTable *ObjectVTable
	refs   *int32
}

// WireHandle is an opaque reference to a wire. The value package never
// dereferences Ptr; pkg/wire supplies it and type-asserts it back.
type WireHandle struct {
	Name string
	Ptr  any
}

// ShardHandle is an opaque reference to a single shard instance.
type ShardHandle struct {
	Name string
	Ptr  any
}

// Value is the tagged union at the heart of the runtime. All shard
// activations consume and produce a Value.
type Value struct {
	Kind    Kind
	Flags   Flags
	payload any
}

// None is the zero Value.
var None = Value{Kind: KindNone}

// Any is the "any type accepted" sentinel value, distinct from None.
var Any = Value{Kind: KindAny}

func Bool(b bool) Value { return Value{Kind: KindBool, payload: b} }

func Int(i int64) Value { return Value{Kind: KindInt, payload: i} }

func Int2(v [2]int64) Value { return Value{Kind: KindInt2, payload: v} }
func Int3(v [3]int32) Value { return Value{Kind: KindInt3, payload: v} }
func Int4(v [4]int32) Value { return Value{Kind: KindInt4, payload: v} }
func Int8(v [8]int16) Value { return Value{Kind: KindInt8, payload: v} }
func Int16(v [16]int8) Value { return Value{Kind: KindInt16, payload: v} }

func Float(f float64) Value  { return Value{Kind: KindFloat, payload: f} }
func Float2(v [2]float64) Value { return Value{Kind: KindFloat2, payload: v} }
func Float3(v [3]float32) Value { return Value{Kind: KindFloat3, payload: v} }
func Float4(v [4]float32) Value { return Value{Kind: KindFloat4, payload: v} }

// Color is four 8-bit channels (r,g,b,a).
type Color struct{ R, G, B, A uint8 }

func NewColor(r, g, b, a uint8) Value {
	return Value{Kind: KindColor, payload: Color{r, g, b, a}}
}

// String builds a String Value. A zero-length, non-empty-pointer string is
// never produced by this constructor (Go strings always carry their own
// length); the "use C-string termination" rule in the spec is an artifact
// of the source's C ABI and does not apply to the safe Go surface.
func String(s string) Value { return Value{Kind: KindString, payload: s} }

// StringFromBytes builds a String Value without copying b. The caller must
// not mutate b afterwards.
func StringFromBytes(b []byte) Value {
	return Value{Kind: KindString, payload: unsafehelpers.BytesToString(b)}
}

func Path(s string) Value { return Value{Kind: KindPath, payload: s} }

// ContextVar is a Value that names a variable to be resolved against a
// scope rather than carrying data directly.
func ContextVar(name string) Value { return Value{Kind: KindContextVar, payload: name} }

func Bytes(b []byte) Value { return Value{Kind: KindBytes, payload: b} }

// AsBool, AsInt, ... are the narrow accessors. They type-assert the
// payload and panic when it is not of the accessor's Go type (so
// AsString also reads Path and ContextVar payloads); callers that are
// unsure should check Kind first.
func (v Value) AsBool() bool       { return v.payload.(bool) }
func (v Value) AsInt() int64       { return v.payload.(int64) }
func (v Value) AsInt2() [2]int64   { return v.payload.([2]int64) }
func (v Value) AsInt3() [3]int32   { return v.payload.([3]int32) }
func (v Value) AsInt4() [4]int32   { return v.payload.([4]int32) }
func (v Value) AsInt8() [8]int16   { return v.payload.([8]int16) }
func (v Value) AsInt16() [16]int8  { return v.payload.([16]int8) }
func (v Value) AsFloat() float64   { return v.payload.(float64) }
func (v Value) AsFloat2() [2]float64 { return v.payload.([2]float64) }
func (v Value) AsFloat3() [3]float32 { return v.payload.([3]float32) }
func (v Value) AsFloat4() [4]float32 { return v.payload.([4]float32) }
func (v Value) AsColor() Color     { return v.payload.(Color) }
func (v Value) AsString() string   { return v.payload.(string) }
func (v Value) AsBytes() []byte    { return v.payload.([]byte) }
func (v Value) AsEnum() Enum       { return v.payload.(Enum) }
func (v Value) AsObject() Object   { return v.payload.(Object) }
func (v Value) AsWire() WireHandle { return v.payload.(WireHandle) }
func (v Value) AsShardRef() ShardHandle { return v.payload.(ShardHandle) }
func (v Value) AsSeq() *Seq        { return v.payload.(*Seq) }
func (v Value) AsTable() *Table    { return v.payload.(*Table) }
func (v Value) AsSet() *Set        { return v.payload.(*Set) }
func (v Value) AsArray() *Array    { return v.payload.(*Array) }
func (v Value) AsImage() *Image    { return v.payload.(*Image) }
func (v Value) AsAudio() *Audio    { return v.payload.(*Audio) }

// IsNone reports whether v carries no data.
func (v Value) IsNone() bool { return v.Kind == KindNone }

func NewEnum(vendor VendorType, ordinal int32) Value {
	return Value{Kind: KindEnum, payload: Enum{Vendor: vendor, Value: ordinal}}
}

func NewObject(t VendorType, ptr any, vt *ObjectVTable) Value {
	o := Object{Type: t, Ptr: ptr, VTable: vt}
	if vt != nil && vt.Reference != nil {
		var n int32 = 1
		o.refs = &n
	}
	return Value{Kind: KindObject, payload: o}
}

func NewWire(name string, ptr any) Value {
	return Value{Kind: KindWire, payload: WireHandle{Name: name, Ptr: ptr}}
}

func NewShardRef(name string, ptr any) Value {
	return Value{Kind: KindShardRef, payload: ShardHandle{Name: name, Ptr: ptr}}
}

// WithExternal returns a copy of v flagged external: its backing memory is
// owned by the host and must never be freed by Destroy.
func (v Value) WithExternal() Value {
	v.Flags |= FlagExternal
	return v
}

// Package value implements the polymorphic value system: a tagged union
// that every shard input/output is an instance of.
//
// © 2025 Shards authors. MIT License.
package value

// Kind tags the variant a Value carries. It mirrors the variant list from
// the data model: scalars, fixed-width vector lanes, containers and
// runtime-managed handles (Wire, ShardRef, Object).
type Kind uint8

const (
	KindNone Kind = iota
	KindAny
	KindBool
	KindInt
	KindInt2
	KindInt3
	KindInt4
	KindInt8
	KindInt16
	KindFloat
	KindFloat2
	KindFloat3
	KindFloat4
	KindColor
	KindString
	KindPath
	KindContextVar
	KindBytes
	KindSeq
	KindTable
	KindSet
	KindArray
	KindImage
	KindAudio
	KindEnum
	KindObject
	KindWire
	KindShardRef
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindAny:
		return "Any"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindInt2:
		return "Int2"
	case KindInt3:
		return "Int3"
	case KindInt4:
		return "Int4"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindFloat:
		return "Float"
	case KindFloat2:
		return "Float2"
	case KindFloat3:
		return "Float3"
	case KindFloat4:
		return "Float4"
	case KindColor:
		return "Color"
	case KindString:
		return "String"
	case KindPath:
		return "Path"
	case KindContextVar:
		return "ContextVar"
	case KindBytes:
		return "Bytes"
	case KindSeq:
		return "Seq"
	case KindTable:
		return "Table"
	case KindSet:
		return "Set"
	case KindArray:
		return "Array"
	case KindImage:
		return "Image"
	case KindAudio:
		return "Audio"
	case KindEnum:
		return "Enum"
	case KindObject:
		return "Object"
	case KindWire:
		return "Wire"
	case KindShardRef:
		return "ShardRef"
	default:
		return "Unknown"
	}
}

// IsVector reports whether the kind carries fixed-width numeric lanes.
func (k Kind) IsVector() bool {
	switch k {
	case KindInt2, KindInt3, KindInt4, KindInt8, KindInt16, KindFloat2, KindFloat3, KindFloat4:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether the kind is an Int/Float scalar or vector.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt, KindFloat:
		return true
	default:
		return k.IsVector()
	}
}

// IsContainer reports whether the kind holds nested Values.
func (k Kind) IsContainer() bool {
	switch k {
	case KindSeq, KindTable, KindSet:
		return true
	default:
		return false
	}
}

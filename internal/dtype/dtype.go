// Package dtype provides the element types and shapes shared by all
// column backends in the Tabular framework.
package dtype

// Element is a constraint for supported element types.
// Uint16 carries the raw bits of half-precision floats (see half.go).
type Element interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~bool
}

// DataType represents runtime type information for column values.
type DataType int

// Supported element types for column values.
const (
	Float16 DataType = iota
	BFloat16
	Float32
	Float64
	Int32
	Int64
	Uint8
	Bool
)

// OffsetsType is the fixed-width integer type used for ragged-column
// offsets, regardless of the value element type.
const OffsetsType = Int32

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float16, BFloat16:
		return 2
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// IsInteger reports whether the data type is an integer type.
func (dt DataType) IsInteger() bool {
	return dt == Int32 || dt == Int64 || dt == Uint8
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Parse returns the DataType named by s. The second return value is
// false if s names no known type.
func Parse(s string) (DataType, bool) {
	for dt := Float16; dt <= Bool; dt++ {
		if dt.String() == s {
			return dt, true
		}
	}
	return 0, false
}

// Of infers the DataType for a generic element type T.
// Uint16 maps to Float16; use explicit constructors for raw uint16 data.
func Of[T Element]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Float16
	case bool:
		return Bool
	default:
		panic("unsupported element type")
	}
}

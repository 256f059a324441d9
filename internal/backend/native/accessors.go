package native

import (
	"fmt"
	"unsafe"

	"github.com/tabular-ml/tabular/internal/dtype"
)

// Typed accessors reinterpret the backing buffer without copying. Each
// panics if the array's dtype does not match, mirroring the contract of
// the raw buffer they wrap.

// AsFloat32 interprets the data as []float32.
func (a *Array) AsFloat32() []float32 {
	a.mustBe(dtype.Float32)
	return sliceOf[float32](a)
}

// AsFloat64 interprets the data as []float64.
func (a *Array) AsFloat64() []float64 {
	a.mustBe(dtype.Float64)
	return sliceOf[float64](a)
}

// AsInt32 interprets the data as []int32.
func (a *Array) AsInt32() []int32 {
	a.mustBe(dtype.Int32)
	return sliceOf[int32](a)
}

// AsInt64 interprets the data as []int64.
func (a *Array) AsInt64() []int64 {
	a.mustBe(dtype.Int64)
	return sliceOf[int64](a)
}

// AsUint8 interprets the data as []uint8.
func (a *Array) AsUint8() []uint8 {
	a.mustBe(dtype.Uint8)
	return a.data
}

// AsFloat16Bits interprets the data as raw half-precision bit patterns.
func (a *Array) AsFloat16Bits() []uint16 {
	a.mustBe(dtype.Float16)
	return sliceOf[uint16](a)
}

// Float16Values decodes a float16 array into float32 values (copies).
func (a *Array) Float16Values() []float32 {
	return dtype.Float16ToFloat32(a.AsFloat16Bits())
}

// BFloat16Values decodes a bfloat16 array into float32 values (copies).
func (a *Array) BFloat16Values() []float32 {
	a.mustBe(dtype.BFloat16)
	return dtype.BFloat16ToFloat32(a.data)
}

// Ints reads integer offsets/indices as int, regardless of width.
func (a *Array) Ints() ([]int, error) {
	switch a.dt {
	case dtype.Int32:
		vals := a.AsInt32()
		out := make([]int, len(vals))
		for i, v := range vals {
			out[i] = int(v)
		}
		return out, nil
	case dtype.Int64:
		vals := a.AsInt64()
		out := make([]int, len(vals))
		for i, v := range vals {
			out[i] = int(v)
		}
		return out, nil
	case dtype.Uint8:
		vals := a.AsUint8()
		out := make([]int, len(vals))
		for i, v := range vals {
			out[i] = int(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("array dtype %s is not an integer type", a.dt)
	}
}

func (a *Array) mustBe(dt dtype.DataType) {
	if a.dt != dt {
		panic(fmt.Sprintf("array dtype is %s, not %s", a.dt, dt))
	}
}

func sliceOf[T dtype.Element](a *Array) []T {
	if len(a.data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// Package native implements the host-memory array backend. It is the
// default backend for tables built from dataframes and the destination
// of every device-to-host transfer.
package native

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/dtype"
)

// Array is a contiguous row-major host array. It either exclusively owns
// its buffer (freshly allocated) or is a zero-copy view whose true owner
// is the array supplied at construction; views must not outlive their
// owner.
type Array struct {
	data  []byte
	shape dtype.Shape
	dt    dtype.DataType
	owner any // non-nil for views over foreign memory
}

// New creates a zero-initialized Array with the given shape and type.
func New(shape dtype.Shape, dt dtype.DataType) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Array{
		data:  make([]byte, shape.NumElements()*dt.Size()),
		shape: shape.Clone(),
		dt:    dt,
	}, nil
}

// FromSlice creates an Array by copying a Go slice.
func FromSlice[T dtype.Element](data []T, shape dtype.Shape) (*Array, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	a, err := New(shape, dtype.Of[T]())
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		src := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(a.data))
		copy(a.data, src)
	}
	return a, nil
}

// Of creates a 1-D Array by copying a Go slice.
func Of[T dtype.Element](data []T) *Array {
	a, err := FromSlice(data, dtype.Shape{len(data)})
	if err != nil {
		panic(err) // unreachable: the shape always matches
	}
	return a
}

// FromBytes creates an Array by copying raw bytes.
func FromBytes(data []byte, shape dtype.Shape, dt dtype.DataType) (*Array, error) {
	want := shape.NumElements() * dt.Size()
	if len(data) != want {
		return nil, fmt.Errorf("shape %v with dtype %s requires %d bytes, but got %d", shape, dt, want, len(data))
	}
	a, err := New(shape, dt)
	if err != nil {
		return nil, err
	}
	copy(a.data, data)
	return a, nil
}

// View creates a zero-copy Array over foreign memory. owner is retained
// to keep the true owner reachable for the view's lifetime; the view
// must not be used after the owner releases the memory.
func View(ptr unsafe.Pointer, shape dtype.Shape, dt dtype.DataType, owner any) *Array {
	size := shape.NumElements() * dt.Size()
	return &Array{
		data:  unsafe.Slice((*byte)(ptr), size),
		shape: shape.Clone(),
		dt:    dt,
		owner: owner,
	}
}

// Shape returns the array's shape.
func (a *Array) Shape() dtype.Shape { return a.shape }

// DType returns the array's element type.
func (a *Array) DType() dtype.DataType { return a.dt }

// Device reports host residency. Native arrays are host-only.
func (a *Array) Device() device.Device { return device.CPU }

// Len returns the length of the first dimension.
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 0
	}
	return a.shape[0]
}

// NumElements returns the total number of elements.
func (a *Array) NumElements() int { return a.shape.NumElements() }

// ByteSize returns the total memory size in bytes.
func (a *Array) ByteSize() int { return len(a.data) }

// Data returns the raw byte slice backing the array.
func (a *Array) Data() []byte { return a.data }

// Ptr returns a pointer to the first byte, or nil for empty arrays.
func (a *Array) Ptr() unsafe.Pointer {
	if len(a.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&a.data[0])
}

// IsView reports whether the array borrows memory owned elsewhere.
func (a *Array) IsView() bool { return a.owner != nil }

// Slice returns a zero-copy view of rows [i, j) along the first
// dimension.
func (a *Array) Slice(i, j int) (*Array, error) {
	if len(a.shape) == 0 {
		return nil, fmt.Errorf("cannot slice a scalar array")
	}
	if i < 0 || j < i || j > a.shape[0] {
		return nil, fmt.Errorf("slice [%d:%d] out of range for first dimension %d", i, j, a.shape[0])
	}
	rowBytes := a.shape.RowElements() * a.dt.Size()
	shape := a.shape.Clone()
	shape[0] = j - i
	owner := a.owner
	if owner == nil {
		owner = a
	}
	return &Array{
		data:  a.data[i*rowBytes : j*rowBytes],
		shape: shape,
		dt:    a.dt,
		owner: owner,
	}, nil
}

// Row returns a zero-copy view of row i. For a 1-D array the result is a
// single-element array; for N-D arrays it drops the row dimension.
func (a *Array) Row(i int) (*Array, error) {
	row, err := a.Slice(i, i+1)
	if err != nil {
		return nil, err
	}
	if len(row.shape) > 1 {
		row.shape = row.shape[1:].Clone()
	}
	return row, nil
}

// Clone returns a deep copy that owns its buffer.
func (a *Array) Clone() *Array {
	data := make([]byte, len(a.data))
	copy(data, a.data)
	return &Array{data: data, shape: a.shape.Clone(), dt: a.dt}
}

// Equal reports element-wise equality of two arrays.
func (a *Array) Equal(other *Array) bool {
	return a.dt == other.dt && a.shape.Equal(other.shape) && bytes.Equal(a.data, other.data)
}

func (a *Array) String() string {
	return fmt.Sprintf("native.Array(shape=%v, dtype=%s)", a.shape, a.dt)
}

// Package table implements the tensor table: an ordered mapping of
// column name to a backend-specific column adapter, homogeneous in
// backend and device across all columns.
package table

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/dtype"
	"github.com/tabular-ml/tabular/internal/exchange"
)

// Column adapts one backend's array (or values+offsets pair) to the
// shared capability set. A ragged column stores its rows flattened
// row-major in values with offsets[i] marking the start of row i and the
// final offset equal to the values length; a fixed column stores one
// fixed-shape row per table row and has no offsets.
type Column interface {
	// Values returns the backing backend-native array.
	Values() any
	// Offsets returns the offsets array, or nil for fixed columns.
	Offsets() any
	// DType returns the element type of the values.
	DType() dtype.DataType
	// Device returns the residency of the backing buffers.
	Device() device.Device
	// IsRagged reports whether rows have per-row varying length.
	IsRagged() bool
	// Len returns the number of rows.
	Len() int
	// Row returns row i: values[offsets[i]:offsets[i+1]] for a ragged
	// column, values[i] for a fixed one. The result is a zero-copy view
	// of the backend's native array type.
	Row(i int) (any, error)
	// Type returns the column's type descriptor.
	Type() ColumnType
}

// ColumnType describes a column variant: the backend array type it
// wraps, the devices that backend can represent, and how to construct a
// column from backend-native arrays.
type ColumnType interface {
	fmt.Stringer
	// ArrayType returns the concrete backend array type.
	ArrayType() reflect.Type
	// SupportedDevices reports which devices this backend represents.
	SupportedDevices() []device.Device
	// New constructs a column from a backend-native values array and an
	// optional offsets array. Construction fails if the two arrays are
	// detected on different devices.
	New(values, offsets any) (Column, error)
}

// deviceTagged is implemented by every backend array; residency is read
// from the array itself, never asserted by the caller.
type deviceTagged interface {
	Device() device.Device
}

var (
	columnTypesMu sync.RWMutex
	columnTypes   []ColumnType
)

// RegisterColumnType admits a column variant. Registration order is
// stable and determines lookup order.
func RegisterColumnType(ct ColumnType) {
	columnTypesMu.Lock()
	defer columnTypesMu.Unlock()
	columnTypes = append(columnTypes, ct)
}

// ColumnTypes returns the registered column variants.
func ColumnTypes() []ColumnType {
	columnTypesMu.RLock()
	defer columnTypesMu.RUnlock()
	out := make([]ColumnType, len(columnTypes))
	copy(out, columnTypes)
	return out
}

// columnTypeOf finds the registered variant whose array type matches the
// runtime type of values.
func columnTypeOf(values any) (ColumnType, bool) {
	typ := reflect.TypeOf(values)
	columnTypesMu.RLock()
	defer columnTypesMu.RUnlock()
	for _, ct := range columnTypes {
		if typ == ct.ArrayType() {
			return ct, true
		}
	}
	return nil, false
}

// isRegistered reports whether ct is an admitted column variant.
func isRegistered(ct ColumnType) bool {
	columnTypesMu.RLock()
	defer columnTypesMu.RUnlock()
	for _, reg := range columnTypes {
		if reg == ct {
			return true
		}
	}
	return false
}

// NewColumn constructs a column from a backend-native values array,
// selecting the variant by the array's runtime type.
func NewColumn(values, offsets any) (Column, error) {
	ct, ok := columnTypeOf(values)
	if !ok {
		return nil, fmt.Errorf("%w: no registered column type for array type %T",
			exchange.ErrUnsupportedBackend, values)
	}
	return ct.New(values, offsets)
}

// checkArrayDevices validates values/offsets device agreement for column
// constructors. offsets may be nil.
func checkArrayDevices(values, offsets any) error {
	if offsets == nil {
		return nil
	}
	vd, vok := values.(deviceTagged)
	od, ook := offsets.(deviceTagged)
	if !vok || !ook {
		return fmt.Errorf("%w: arrays do not report a device", ErrInvalidArgument)
	}
	if vd.Device() != od.Device() {
		return &DeviceMismatchError{Values: vd.Device(), Offsets: od.Device()}
	}
	return nil
}

// isNilArray reports whether v is nil or a typed nil pointer.
func isNilArray(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

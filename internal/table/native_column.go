package table

import (
	"fmt"
	"reflect"

	"github.com/tabular-ml/tabular/internal/backend/native"
	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/dtype"
	"github.com/tabular-ml/tabular/internal/exchange"
)

// NativeType is the column variant backed by host-memory arrays. It is
// the default for tables built from dataframes and the destination of
// every device-to-host transfer.
var NativeType ColumnType = nativeType{}

type nativeType struct{}

func (nativeType) String() string { return "NativeColumn" }

func (nativeType) ArrayType() reflect.Type { return reflect.TypeOf(&native.Array{}) }

func (nativeType) SupportedDevices() []device.Device { return []device.Device{device.CPU} }

func (nt nativeType) New(values, offsets any) (Column, error) {
	vals, ok := values.(*native.Array)
	if !ok {
		return nil, fmt.Errorf("%w: NativeColumn values must be *native.Array, got %T", ErrInvalidArgument, values)
	}

	var offs *native.Array
	if !isNilArray(offsets) {
		if err := checkArrayDevices(values, offsets); err != nil {
			return nil, err
		}
		offs, ok = offsets.(*native.Array)
		if !ok {
			return nil, fmt.Errorf("%w: NativeColumn offsets must be *native.Array, got %T", ErrInvalidArgument, offsets)
		}
		if err := validateHostOffsets(offs, vals.Len()); err != nil {
			return nil, err
		}
	}

	return &NativeColumn{values: vals, offsets: offs}, nil
}

// validateHostOffsets enforces the ragged encoding invariant: a 1-D
// integer array whose final entry equals the flattened values length.
func validateHostOffsets(offs *native.Array, valuesLen int) error {
	if len(offs.Shape()) != 1 {
		return fmt.Errorf("%w: offsets must be 1-D, got shape %v", ErrInvalidArgument, offs.Shape())
	}
	ints, err := offs.Ints()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if len(ints) == 0 {
		return fmt.Errorf("%w: offsets must hold at least one entry", ErrInvalidArgument)
	}
	if last := ints[len(ints)-1]; last != valuesLen {
		return fmt.Errorf("%w: final offset %d does not match values length %d", ErrInvalidArgument, last, valuesLen)
	}
	return nil
}

// NativeColumn is a column backed by host-memory arrays.
type NativeColumn struct {
	values  *native.Array
	offsets *native.Array
}

// Values returns the backing values array.
func (c *NativeColumn) Values() any { return c.values }

// Offsets returns the offsets array, or nil for fixed columns.
func (c *NativeColumn) Offsets() any {
	if c.offsets == nil {
		return nil
	}
	return c.offsets
}

// ValuesArray returns the typed values array.
func (c *NativeColumn) ValuesArray() *native.Array { return c.values }

// OffsetsArray returns the typed offsets array, or nil.
func (c *NativeColumn) OffsetsArray() *native.Array { return c.offsets }

// DType returns the element type of the values.
func (c *NativeColumn) DType() dtype.DataType { return c.values.DType() }

// Device reports host residency.
func (c *NativeColumn) Device() device.Device { return device.CPU }

// IsRagged reports whether the column has per-row varying lengths.
func (c *NativeColumn) IsRagged() bool { return c.offsets != nil }

// Len returns the number of rows.
func (c *NativeColumn) Len() int {
	if c.offsets != nil {
		return c.offsets.Len() - 1
	}
	return c.values.Len()
}

// Row returns a zero-copy view of row i.
func (c *NativeColumn) Row(i int) (any, error) {
	if c.offsets != nil {
		ints, err := c.offsets.Ints()
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(ints)-1 {
			return nil, fmt.Errorf("row %d out of range for column with %d rows", i, len(ints)-1)
		}
		return c.values.Slice(ints[i], ints[i+1])
	}
	return c.values.Row(i)
}

// Type returns the native column type descriptor.
func (c *NativeColumn) Type() ColumnType { return NativeType }

func init() {
	RegisterColumnType(NativeType)

	// The host backend is always present, so its exchange handlers are
	// registered immediately rather than lazily.
	exchange.ToCapsule.Register(&native.Array{}, func(v any) (any, error) {
		a := v.(*native.Array)
		return exchange.NewHost(a.Ptr(), a.Shape(), a.DType(), a), nil
	})

	exchange.FromCapsuleCPU.Register(reflect.TypeOf(&native.Array{}), func(v any) (any, error) {
		c := v.(*exchange.Capsule)
		if c.Pointer() == nil {
			return native.New(c.Shape(), c.DType())
		}
		return native.View(c.Pointer(), c.Shape(), c.DType(), c.Owner()), nil
	})
}

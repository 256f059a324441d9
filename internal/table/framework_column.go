package table

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/pdevine/tensor"

	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/dtype"
	"github.com/tabular-ml/tabular/internal/exchange"
)

// FrameworkType is the column variant backed by deep-learning framework
// tensors (gorgonia-style *tensor.Dense). Dense tensors are host-only.
var FrameworkType ColumnType = frameworkType{}

type frameworkType struct{}

func (frameworkType) String() string { return "FrameworkColumn" }

func (frameworkType) ArrayType() reflect.Type { return reflect.TypeOf(&tensor.Dense{}) }

func (frameworkType) SupportedDevices() []device.Device { return []device.Device{device.CPU} }

func (ft frameworkType) New(values, offsets any) (Column, error) {
	vals, ok := values.(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("%w: FrameworkColumn values must be *tensor.Dense, got %T", ErrInvalidArgument, values)
	}
	dt, err := denseDType(vals)
	if err != nil {
		return nil, err
	}

	var offs *tensor.Dense
	if !isNilArray(offsets) {
		offs, ok = offsets.(*tensor.Dense)
		if !ok {
			if tagged, isTagged := offsets.(deviceTagged); isTagged && tagged.Device() != device.CPU {
				return nil, &DeviceMismatchError{Values: device.CPU, Offsets: tagged.Device()}
			}
			return nil, fmt.Errorf("%w: FrameworkColumn offsets must be *tensor.Dense, got %T", ErrInvalidArgument, offsets)
		}
		ints, err := denseInts(offs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		if len(ints) == 0 {
			return nil, fmt.Errorf("%w: offsets must hold at least one entry", ErrInvalidArgument)
		}
		if last := ints[len(ints)-1]; last != vals.Shape()[0] {
			return nil, fmt.Errorf("%w: final offset %d does not match values length %d", ErrInvalidArgument, last, vals.Shape()[0])
		}
	}

	return &FrameworkColumn{values: vals, offsets: offs, dt: dt}, nil
}

// FrameworkColumn is a column backed by framework tensors.
type FrameworkColumn struct {
	values  *tensor.Dense
	offsets *tensor.Dense
	dt      dtype.DataType
}

// Values returns the backing values tensor.
func (c *FrameworkColumn) Values() any { return c.values }

// Offsets returns the offsets tensor, or nil for fixed columns.
func (c *FrameworkColumn) Offsets() any {
	if c.offsets == nil {
		return nil
	}
	return c.offsets
}

// DType returns the element type of the values.
func (c *FrameworkColumn) DType() dtype.DataType { return c.dt }

// Device reports host residency.
func (c *FrameworkColumn) Device() device.Device { return device.CPU }

// IsRagged reports whether the column has per-row varying lengths.
func (c *FrameworkColumn) IsRagged() bool { return c.offsets != nil }

// Len returns the number of rows.
func (c *FrameworkColumn) Len() int {
	if c.offsets != nil {
		return c.offsets.Shape()[0] - 1
	}
	return c.values.Shape()[0]
}

// Row returns a zero-copy view of row i, sharing the values backing.
func (c *FrameworkColumn) Row(i int) (any, error) {
	if c.offsets != nil {
		ints, err := denseInts(c.offsets)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(ints)-1 {
			return nil, fmt.Errorf("row %d out of range for column with %d rows", i, len(ints)-1)
		}
		return denseRange(c.values, ints[i], ints[i+1], nil)
	}

	shape := c.values.Shape()
	if i < 0 || i >= shape[0] {
		return nil, fmt.Errorf("row %d out of range for column with %d rows", i, shape[0])
	}
	rowElems := 1
	for _, dim := range shape[1:] {
		rowElems *= dim
	}
	var rowShape []int
	if len(shape) > 1 {
		rowShape = append(rowShape, shape[1:]...)
	}
	return denseRange(c.values, i*rowElems, (i+1)*rowElems, rowShape)
}

// Type returns the framework column type descriptor.
func (c *FrameworkColumn) Type() ColumnType { return FrameworkType }

// denseDType maps a Dense tensor's element kind to a DataType.
func denseDType(d *tensor.Dense) (dtype.DataType, error) {
	switch d.Dtype().Kind() {
	case reflect.Float32:
		return dtype.Float32, nil
	case reflect.Float64:
		return dtype.Float64, nil
	case reflect.Int32:
		return dtype.Int32, nil
	case reflect.Int64:
		return dtype.Int64, nil
	case reflect.Uint8:
		return dtype.Uint8, nil
	case reflect.Uint16:
		return dtype.Float16, nil
	default:
		return 0, fmt.Errorf("%w: unsupported framework tensor dtype %s", ErrInvalidArgument, d.Dtype())
	}
}

// denseShape converts a Dense tensor shape.
func denseShape(d *tensor.Dense) dtype.Shape {
	src := d.Shape()
	out := make(dtype.Shape, len(src))
	copy(out, src)
	return out
}

// denseInts reads an integer offsets tensor as []int.
func denseInts(d *tensor.Dense) ([]int, error) {
	switch data := d.Data().(type) {
	case []int32:
		out := make([]int, len(data))
		for i, v := range data {
			out[i] = int(v)
		}
		return out, nil
	case []int64:
		out := make([]int, len(data))
		for i, v := range data {
			out[i] = int(v)
		}
		return out, nil
	case []int:
		out := make([]int, len(data))
		copy(out, data)
		return out, nil
	default:
		return nil, fmt.Errorf("offsets tensor dtype %s is not an integer type", d.Dtype())
	}
}

// densePointer returns a pointer to the tensor's first element.
func densePointer(d *tensor.Dense) (unsafe.Pointer, error) {
	switch data := d.Data().(type) {
	case []float32:
		if len(data) == 0 {
			return nil, nil
		}
		return unsafe.Pointer(&data[0]), nil
	case []float64:
		if len(data) == 0 {
			return nil, nil
		}
		return unsafe.Pointer(&data[0]), nil
	case []int32:
		if len(data) == 0 {
			return nil, nil
		}
		return unsafe.Pointer(&data[0]), nil
	case []int64:
		if len(data) == 0 {
			return nil, nil
		}
		return unsafe.Pointer(&data[0]), nil
	case []uint8:
		if len(data) == 0 {
			return nil, nil
		}
		return unsafe.Pointer(&data[0]), nil
	case []uint16:
		if len(data) == 0 {
			return nil, nil
		}
		return unsafe.Pointer(&data[0]), nil
	default:
		return nil, fmt.Errorf("unsupported framework tensor backing %T", d.Data())
	}
}

// denseRange returns a Dense view over elements [start, end) of the
// flat backing, reshaped to shape (1-D when shape is nil).
func denseRange(d *tensor.Dense, start, end int, shape []int) (*tensor.Dense, error) {
	rv := reflect.ValueOf(d.Data())
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("unsupported framework tensor backing %T", d.Data())
	}
	if start < 0 || end < start || end > rv.Len() {
		return nil, fmt.Errorf("range [%d:%d] out of bounds for %d elements", start, end, rv.Len())
	}
	sub := rv.Slice(start, end).Interface()
	if shape == nil {
		shape = []int{end - start}
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(sub)), nil
}

// denseFromCapsule builds a zero-copy Dense view over a host capsule.
func denseFromCapsule(c *exchange.Capsule) (*tensor.Dense, error) {
	n := c.Shape().NumElements()
	shape := make([]int, len(c.Shape()))
	copy(shape, c.Shape())

	ptr := c.Pointer()
	var backing any
	switch c.DType() {
	case dtype.Float32:
		backing = unsafe.Slice((*float32)(ptr), n)
	case dtype.Float64:
		backing = unsafe.Slice((*float64)(ptr), n)
	case dtype.Int32:
		backing = unsafe.Slice((*int32)(ptr), n)
	case dtype.Int64:
		backing = unsafe.Slice((*int64)(ptr), n)
	case dtype.Uint8:
		backing = unsafe.Slice((*uint8)(ptr), n)
	case dtype.Float16:
		backing = unsafe.Slice((*uint16)(ptr), n)
	default:
		return nil, fmt.Errorf("%w: framework tensors cannot represent dtype %s",
			exchange.ErrUnsupportedBackend, c.DType())
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)), nil
}

var frameworkExchangeOnce sync.Once

// registerFrameworkExchange installs the framework tensor's capsule
// handlers. It is shared between the export and import dispatchers and
// runs at most once.
func registerFrameworkExchange() error {
	frameworkExchangeOnce.Do(func() {
		exchange.ToCapsule.Register(&tensor.Dense{}, func(v any) (any, error) {
			d := v.(*tensor.Dense)
			dt, err := denseDType(d)
			if err != nil {
				return nil, err
			}
			ptr, err := densePointer(d)
			if err != nil {
				return nil, err
			}
			return exchange.NewHost(ptr, denseShape(d), dt, d), nil
		})

		exchange.FromCapsuleCPU.Register(reflect.TypeOf(&tensor.Dense{}), func(v any) (any, error) {
			return denseFromCapsule(v.(*exchange.Capsule))
		})
	})
	return nil
}

func init() {
	RegisterColumnType(FrameworkType)

	// Framework tensors are an optional backend: their exchange handlers
	// activate on first use of a value from the tensor package.
	exchange.ToCapsule.RegisterLazy("pdevine/tensor", registerFrameworkExchange)
	exchange.FromCapsuleCPU.RegisterLazy("pdevine/tensor", registerFrameworkExchange)
}

package table

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/tabular-ml/tabular/internal/backend/native"
	"github.com/tabular-ml/tabular/internal/backend/webgpu"
	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/dtype"
	"github.com/tabular-ml/tabular/internal/exchange"
)

// WebGPUType is the column variant backed by GPU buffers.
var WebGPUType ColumnType = webgpuType{}

type webgpuType struct{}

func (webgpuType) String() string { return "WebGPUColumn" }

func (webgpuType) ArrayType() reflect.Type { return reflect.TypeOf(&webgpu.Array{}) }

func (webgpuType) SupportedDevices() []device.Device { return []device.Device{device.GPU} }

func (wt webgpuType) New(values, offsets any) (Column, error) {
	vals, ok := values.(*webgpu.Array)
	if !ok {
		return nil, fmt.Errorf("%w: WebGPUColumn values must be *webgpu.Array, got %T", ErrInvalidArgument, values)
	}

	var offs *webgpu.Array
	if !isNilArray(offsets) {
		if err := checkArrayDevices(values, offsets); err != nil {
			return nil, err
		}
		offs, ok = offsets.(*webgpu.Array)
		if !ok {
			return nil, fmt.Errorf("%w: WebGPUColumn offsets must be *webgpu.Array, got %T", ErrInvalidArgument, offsets)
		}
		if !offs.DType().IsInteger() {
			return nil, fmt.Errorf("%w: offsets dtype %s is not an integer type", ErrInvalidArgument, offs.DType())
		}
		if len(offs.Shape()) != 1 || offs.Shape()[0] < 1 {
			return nil, fmt.Errorf("%w: offsets must be a 1-D array with at least one entry", ErrInvalidArgument)
		}
	}

	return &WebGPUColumn{values: vals, offsets: offs}, nil
}

// WebGPUColumn is a column whose values and offsets live in GPU buffers.
// Row access reads the offsets back to the host once and memoizes them.
type WebGPUColumn struct {
	values  *webgpu.Array
	offsets *webgpu.Array

	offsetsOnce sync.Once
	hostOffsets []int
	offsetsErr  error
}

// Values returns the backing GPU values array.
func (c *WebGPUColumn) Values() any { return c.values }

// Offsets returns the GPU offsets array, or nil for fixed columns.
func (c *WebGPUColumn) Offsets() any {
	if c.offsets == nil {
		return nil
	}
	return c.offsets
}

// DType returns the element type of the values.
func (c *WebGPUColumn) DType() dtype.DataType { return c.values.DType() }

// Device reports GPU residency.
func (c *WebGPUColumn) Device() device.Device { return device.GPU }

// IsRagged reports whether the column has per-row varying lengths.
func (c *WebGPUColumn) IsRagged() bool { return c.offsets != nil }

// Len returns the number of rows.
func (c *WebGPUColumn) Len() int {
	if c.offsets != nil {
		return c.offsets.Shape()[0] - 1
	}
	return c.values.Shape()[0]
}

// readOffsets copies the offsets buffer to the host. The readback runs
// once per column; subsequent rows reuse the memoized result.
func (c *WebGPUColumn) readOffsets() ([]int, error) {
	c.offsetsOnce.Do(func() {
		data, err := c.offsets.ToHost()
		if err != nil {
			c.offsetsErr = err
			return
		}
		host, err := native.FromBytes(data, c.offsets.Shape(), c.offsets.DType())
		if err != nil {
			c.offsetsErr = err
			return
		}
		c.hostOffsets, c.offsetsErr = host.Ints()
	})
	return c.hostOffsets, c.offsetsErr
}

// Row returns a view of row i. The returned value is a *webgpu.Array
// sub-view sharing the column's buffer.
func (c *WebGPUColumn) Row(i int) (any, error) {
	if c.offsets != nil {
		ints, err := c.readOffsets()
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

// Type returns the WebGPU column type descriptor.
func (c *WebGPUColumn) Type() ColumnType { return WebGPUType }

var webgpuExchangeOnce sync.Once

// registerWebGPUExchange installs capsule handlers for GPU arrays.
func registerWebGPUExchange() error {
	webgpuExchangeOnce.Do(func() {
		exchange.ToCapsule.Register(&webgpu.Array{}, func(v any) (any, error) {
			a := v.(*webgpu.Array)
			return exchange.NewDevice(a, 0, a.Shape(), a.DType(), a), nil
		})

		exchange.FromCapsuleGPU.Register(reflect.TypeOf(&webgpu.Array{}), func(v any) (any, error) {
			c := v.(*exchange.Capsule)
			src, ok := c.Handle().(*webgpu.Array)
			if !ok {
				return nil, fmt.Errorf("%w: device capsule handle is %T, not a WebGPU buffer",
					exchange.ErrUnsupportedBackend, c.Handle())
			}
			return src.Backend().Wrap(src.Buffer(), src.BufferSize(), src.ByteOffset(), c.Shape(), c.DType()), nil
		})
	})
	return nil
}

func init() {
	RegisterColumnType(WebGPUType)

	// GPU arrays are an optional backend: their exchange handlers
	// activate on first use of a value from the webgpu package.
	exchange.ToCapsule.RegisterLazy("backend/webgpu", registerWebGPUExchange)
	exchange.FromCapsuleGPU.RegisterLazy("backend/webgpu", registerWebGPUExchange)
}

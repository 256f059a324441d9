package table

import (
	"fmt"

	"github.com/tabular-ml/tabular/internal/backend/native"
	"github.com/tabular-ml/tabular/internal/backend/webgpu"
	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/exchange"
)

// convertColumn rebuilds col as an instance of target. Values and
// offsets travel through the buffer exchange protocol, so same-device
// conversions are zero-copy whenever both backends support it.
func convertColumn(col Column, target ColumnType) (Column, error) {
	if col.Type() == target {
		return col, nil
	}
	if !isRegistered(target) {
		return nil, fmt.Errorf("%w: unsupported tensor type %s", ErrInvalidArgument, target)
	}

	values, err := convertArray(col.Values(), target)
	if err != nil {
		return nil, err
	}
	var offsets any
	if o := col.Offsets(); o != nil {
		offsets, err = convertArray(o, target)
		if err != nil {
			return nil, err
		}
	}
	return target.New(values, offsets)
}

// convertArray moves a single array between backends via capsules.
func convertArray(array any, target ColumnType) (any, error) {
	capsule, err := exchange.Export(array)
	if err != nil {
		return nil, err
	}
	return exchange.Import(capsule, target.ArrayType())
}

// columnToCPU copies a column's buffers to host memory as a NativeColumn.
// Host-resident columns convert through the exchange protocol instead.
func columnToCPU(col Column) (Column, error) {
	if col.Device() == device.CPU {
		return convertColumn(col, NativeType)
	}

	gpuCol, ok := col.(*WebGPUColumn)
	if !ok {
		return nil, fmt.Errorf("%w: cannot read %s back to host", exchange.ErrUnsupportedBackend, col.Type())
	}

	values, err := downloadArray(gpuCol.values)
	if err != nil {
		return nil, err
	}
	var offsets any
	if gpuCol.offsets != nil {
		offsets, err = downloadArray(gpuCol.offsets)
		if err != nil {
			return nil, err
		}
	}
	return NativeType.New(values, offsets)
}

func downloadArray(a *webgpu.Array) (*native.Array, error) {
	data, err := a.ToHost()
	if err != nil {
		return nil, err
	}
	return native.FromBytes(data, a.Shape(), a.DType())
}

// columnToGPU uploads a column's buffers to the default GPU backend.
func columnToGPU(col Column) (Column, error) {
	if col.Device() == device.GPU {
		return convertColumn(col, WebGPUType)
	}

	backend, err := webgpu.Default()
	if err != nil {
		return nil, err
	}

	values, err := uploadArray(backend, col.Values())
	if err != nil {
		return nil, err
	}
	var offsets any
	if o := col.Offsets(); o != nil {
		offsets, err = uploadArray(backend, o)
		if err != nil {
			return nil, err
		}
	}
	return WebGPUType.New(values, offsets)
}

func uploadArray(backend *webgpu.Backend, array any) (*webgpu.Array, error) {
	capsule, err := exchange.Export(array)
	if err != nil {
		return nil, err
	}
	data, err := capsule.Bytes()
	if err != nil {
		return nil, err
	}
	return backend.Upload(data, capsule.Shape(), capsule.DType())
}

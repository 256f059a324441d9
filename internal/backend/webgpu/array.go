package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/dtype"
)

// Array is a contiguous row-major array resident in GPU memory. Sub-row
// views share the owner's buffer with a byte offset; views must not
// outlive the array they were sliced from.
type Array struct {
	backend *Backend
	buffer  *wgpu.Buffer
	bufSize uint64 // allocated buffer size in bytes
	offset  uint64 // byte offset into buffer for views
	shape   dtype.Shape
	dt      dtype.DataType
	owner   *Array // non-nil for views
}

// Upload allocates a GPU buffer and copies host data into it.
func (b *Backend) Upload(data []byte, shape dtype.Shape, dt dtype.DataType) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	want := shape.NumElements() * dt.Size()
	if len(data) != want {
		return nil, fmt.Errorf("shape %v with dtype %s requires %d bytes, but got %d", shape, dt, want, len(data))
	}

	// WebGPU buffer sizes must be 4-byte aligned.
	size := uint64(len(data))
	alignedSize := (size + 3) &^ 3
	if alignedSize == 0 {
		alignedSize = 4
	}

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return &Array{
		backend: b,
		buffer:  buffer,
		bufSize: alignedSize,
		shape:   shape.Clone(),
		dt:      dt,
	}, nil
}

// Wrap adopts an existing GPU buffer as an Array without copying.
// bufSize is the buffer's allocated size; the buffer must hold at least
// the bytes the shape and dtype describe starting at offset.
func (b *Backend) Wrap(buffer *wgpu.Buffer, bufSize, offset uint64, shape dtype.Shape, dt dtype.DataType) *Array {
	return &Array{
		backend: b,
		buffer:  buffer,
		bufSize: bufSize,
		offset:  offset,
		shape:   shape.Clone(),
		dt:      dt,
	}
}

// Shape returns the array's shape.
func (a *Array) Shape() dtype.Shape { return a.shape }

// DType returns the array's element type.
func (a *Array) DType() dtype.DataType { return a.dt }

// Device reports accelerator residency.
func (a *Array) Device() device.Device { return device.GPU }

// Len returns the length of the first dimension.
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 0
	}
	return a.shape[0]
}

// NumElements returns the total number of elements.
func (a *Array) NumElements() int { return a.shape.NumElements() }

// ByteSize returns the size of the described data in bytes.
func (a *Array) ByteSize() int { return a.NumElements() * a.dt.Size() }

// Buffer returns the underlying GPU buffer handle.
func (a *Array) Buffer() *wgpu.Buffer { return a.buffer }

// ByteOffset returns the view's byte offset into the buffer.
func (a *Array) ByteOffset() uint64 { return a.offset }

// BufferSize returns the allocated size of the underlying buffer.
func (a *Array) BufferSize() uint64 { return a.bufSize }

// Backend returns the backend that owns the array's buffer.
func (a *Array) Backend() *Backend { return a.backend }

// IsView reports whether the array shares a buffer sliced from another.
func (a *Array) IsView() bool { return a.owner != nil }

// ToHost reads the array's data back into host memory. Reads go through
// a staging buffer since storage buffers cannot be mapped directly.
//
// CopyBufferToBuffer requires 4-byte aligned offsets and sizes, but views
// over sub-word dtypes (uint8, bool, float16) can start mid-word. The
// copy therefore starts at the aligned word below the view and is clamped
// to the buffer's allocated size; the view's bytes are carved out of the
// mapped staging data.
func (a *Array) ToHost() ([]byte, error) {
	b := a.backend
	size := uint64(a.ByteSize())
	if size == 0 {
		return []byte{}, nil
	}

	srcOffset := a.offset &^ 3
	skew := a.offset - srcOffset
	copySize := (size + skew + 3) &^ 3
	if a.bufSize > 0 && srcOffset+copySize > a.bufSize {
		copySize = a.bufSize - srcOffset
	}

	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  copySize,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(a.buffer, srcOffset, stagingBuffer, 0, copySize)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	if err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, copySize); err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, copySize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), copySize)
	result := make([]byte, size)
	copy(result, mappedSlice[skew:skew+size])

	stagingBuffer.Unmap()

	return result, nil
}

// Slice returns a zero-copy view of rows [i, j) along the first
// dimension. The view shares the owner's buffer at a byte offset.
func (a *Array) Slice(i, j int) (*Array, error) {
	if len(a.shape) == 0 {
		return nil, fmt.Errorf("cannot slice a scalar array")
	}
	if i < 0 || j < i || j > a.shape[0] {
		return nil, fmt.Errorf("slice [%d:%d] out of range for first dimension %d", i, j, a.shape[0])
	}
	rowBytes := uint64(a.shape.RowElements() * a.dt.Size())
	shape := a.shape.Clone()
	shape[0] = j - i
	owner := a.owner
	if owner == nil {
		owner = a
	}
	return &Array{
		backend: a.backend,
		buffer:  a.buffer,
		bufSize: a.bufSize,
		offset:  a.offset + uint64(i)*rowBytes,
		shape:   shape,
		dt:      a.dt,
		owner:   owner,
	}, nil
}

// Row returns a zero-copy view of row i.
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

// Release frees the GPU buffer. Views must not release their owner's
// buffer; releasing a view is a no-op.
func (a *Array) Release() {
	if a.owner != nil {
		return
	}
	if a.buffer != nil {
		a.buffer.Release()
		a.buffer = nil
	}
}

func (a *Array) String() string {
	return fmt.Sprintf("webgpu.Array(shape=%v, dtype=%s)", a.shape, a.dt)
}

package exchange

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/dtype"
)

func TestHostCapsuleZeroCopy(t *testing.T) {
	data := []float32{1, 2, 3, 4}
	c := NewHost(unsafe.Pointer(&data[0]), dtype.Shape{4}, dtype.Float32, data)

	assert.Equal(t, device.CPU, c.Device())
	assert.Equal(t, dtype.Float32, c.DType())
	assert.Equal(t, 16, c.ByteSize())

	view := unsafe.Slice((*float32)(c.Pointer()), 4)
	view[0] = 99
	assert.Equal(t, float32(99), data[0])

	raw, err := c.Bytes()
	require.NoError(t, err)
	assert.Len(t, raw, 16)
}

func TestDeviceCapsuleHasNoHostBytes(t *testing.T) {
	handle := struct{ id int }{id: 7}
	c := NewDevice(handle, 0, dtype.Shape{2}, dtype.Int32, nil)

	assert.Equal(t, device.GPU, c.Device())
	assert.Equal(t, handle, c.Handle())
	assert.Nil(t, c.Pointer())

	_, err := c.Bytes()
	assert.Error(t, err)
}

func TestExportWithoutHandler(t *testing.T) {
	type unknownArray struct{ data []int }

	_, err := Export(&unknownArray{data: []int{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestCopyBytes(t *testing.T) {
	data := []int32{5, 6}
	c := NewHost(unsafe.Pointer(&data[0]), dtype.Shape{2}, dtype.Int32, data)

	cp, err := c.CopyBytes()
	require.NoError(t, err)

	data[0] = 100
	first := *(*int32)(unsafe.Pointer(&cp[0]))
	assert.Equal(t, int32(5), first)
}

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/dtype"
)

func TestFromSlice(t *testing.T) {
	a, err := FromSlice([]int64{1, 2, 3, 4, 5, 6}, dtype.Shape{2, 3})
	require.NoError(t, err)

	assert.Equal(t, dtype.Int64, a.DType())
	assert.Equal(t, device.CPU, a.Device())
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 6, a.NumElements())
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, a.AsInt64())
}

func TestFromSliceShapeMismatch(t *testing.T) {
	_, err := FromSlice([]float32{1, 2, 3}, dtype.Shape{2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires 6 elements")
}

func TestRowView(t *testing.T) {
	a, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, dtype.Shape{3, 2})
	require.NoError(t, err)

	row, err := a.Row(1)
	require.NoError(t, err)
	assert.Equal(t, dtype.Shape{2}, row.Shape())
	assert.Equal(t, []float32{3, 4}, row.AsFloat32())
	assert.True(t, row.IsView())

	// Views share memory with the owner.
	a.AsFloat32()[2] = 99
	assert.Equal(t, []float32{99, 4}, row.AsFloat32())
}

func TestSliceRange(t *testing.T) {
	a := Of([]int32{10, 20, 30, 40, 50})

	s, err := a.Slice(1, 4)
	require.NoError(t, err)
	assert.Equal(t, []int32{20, 30, 40}, s.AsInt32())

	_, err = a.Slice(3, 6)
	assert.Error(t, err)
}

func TestCloneOwnsData(t *testing.T) {
	a := Of([]int64{1, 2, 3})
	b := a.Clone()
	a.AsInt64()[0] = 42

	assert.Equal(t, []int64{42, 2, 3}, a.AsInt64())
	assert.Equal(t, []int64{1, 2, 3}, b.AsInt64())
	assert.False(t, b.IsView())
}

func TestViewZeroCopy(t *testing.T) {
	a := Of([]float64{1.5, 2.5})
	v := View(a.Ptr(), a.Shape(), a.DType(), a)

	assert.True(t, v.IsView())
	assert.Equal(t, a.AsFloat64(), v.AsFloat64())

	// Same backing memory, not a copy.
	a.AsFloat64()[0] = -1
	assert.Equal(t, -1.0, v.AsFloat64()[0])
}

func TestFloat16Roundtrip(t *testing.T) {
	vals := []float32{0, 0.5, 1, -2, 65504}
	bits := dtype.Float32ToFloat16(vals)

	a, err := FromSlice(bits, dtype.Shape{len(bits)})
	require.NoError(t, err)
	assert.Equal(t, dtype.Float16, a.DType())
	assert.Equal(t, vals, a.Float16Values())
}

func TestIntsWidths(t *testing.T) {
	a32 := Of([]int32{0, 2, 5})
	got, err := a32.Ints()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, got)

	a64 := Of([]int64{0, 3, 7})
	got, err = a64.Ints()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 7}, got)

	f := Of([]float32{1})
	_, err = f.Ints()
	assert.Error(t, err)
}

func TestWrongDTypeAccessorPanics(t *testing.T) {
	a := Of([]int32{1})
	assert.Panics(t, func() { a.AsFloat32() })
}

package table

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabular-ml/tabular/internal/backend/native"
	"github.com/tabular-ml/tabular/internal/schema"
)

func buildTestRecord(t *testing.T) arrow.Record {
	t.Helper()
	mem := memory.NewGoAllocator()

	lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Float32)
	defer lb.Release()
	vb := lb.ValueBuilder().(*array.Float32Builder)
	for _, row := range [][]float32{{1, 2, 3}, {4, 5, 6, 7}} {
		lb.Append(true)
		vb.AppendValues(row, nil)
	}
	listArr := lb.NewArray()
	defer listArr.Release()

	ib := array.NewInt64Builder(mem)
	defer ib.Release()
	ib.AppendValues([]int64{1, 2}, nil)
	intArr := ib.NewArray()
	defer intArr.Release()

	sch := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32)},
		{Name: "b", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	return array.NewRecord(sch, []arrow.Array{listArr, intArr}, 2)
}

func TestFromDataFrame(t *testing.T) {
	rec := buildTestRecord(t)
	defer rec.Release()

	tbl, err := FromDataFrame(rec, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, tbl.Names())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, NativeType, tbl.ColumnType())

	a, err := tbl.Column("a")
	require.NoError(t, err)
	require.True(t, a.IsRagged())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7}, a.Values().(*native.Array).AsFloat32())
	assert.Equal(t, []int32{0, 3, 7}, a.Offsets().(*native.Array).AsInt32())

	b, err := tbl.Column("b")
	require.NoError(t, err)
	assert.False(t, b.IsRagged())
	assert.Equal(t, []int64{1, 2}, b.Values().(*native.Array).AsInt64())
}

func TestDataFrameRoundTrip(t *testing.T) {
	rec := buildTestRecord(t)
	defer rec.Release()

	tbl, err := FromDataFrame(rec, nil)
	require.NoError(t, err)

	back, err := tbl.ToDataFrame()
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, int64(2), back.NumRows())
	assert.Equal(t, "a", back.ColumnName(0))
	assert.Equal(t, "b", back.ColumnName(1))

	again, err := FromDataFrame(back, nil)
	require.NoError(t, err)

	a, err := again.Column("a")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7}, a.Values().(*native.Array).AsFloat32())
	assert.Equal(t, []int32{0, 3, 7}, a.Offsets().(*native.Array).AsInt32())
}

func TestFromDataFrameFixedSchema(t *testing.T) {
	mem := memory.NewGoAllocator()

	lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Float32)
	defer lb.Release()
	vb := lb.ValueBuilder().(*array.Float32Builder)
	for _, row := range [][]float32{{1, 2}, {3, 4}} {
		lb.Append(true)
		vb.AppendValues(row, nil)
	}
	listArr := lb.NewArray()
	defer listArr.Release()

	asch := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32)},
	}, nil)
	rec := array.NewRecord(asch, []arrow.Array{listArr}, 2)
	defer rec.Release()

	tbl, err := FromDataFrame(rec, schema.New(schema.ColumnSchema{Name: "a", Dims: []int{2}}))
	require.NoError(t, err)

	a, err := tbl.Column("a")
	require.NoError(t, err)
	assert.False(t, a.IsRagged())
	assert.Equal(t, 2, a.Len())

	// ToDataFrame re-expands the fixed 2-D column into per-row lists.
	back, err := tbl.ToDataFrame()
	require.NoError(t, err)
	defer back.Release()
	_, ok := back.Column(0).(*array.List)
	assert.True(t, ok)
}

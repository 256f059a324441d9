package frame

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabular-ml/tabular/internal/backend/native"
	"github.com/tabular-ml/tabular/internal/dtype"
	"github.com/tabular-ml/tabular/internal/schema"
)

// buildRecord assembles a two-column record: a list column "a" with the
// given rows and a plain int64 column "b".
func buildRecord(t *testing.T, listRows [][]float32, fixed []int64) arrow.Record {
	t.Helper()
	mem := memory.NewGoAllocator()

	lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Float32)
	defer lb.Release()
	vb := lb.ValueBuilder().(*array.Float32Builder)
	for _, row := range listRows {
		lb.Append(true)
		vb.AppendValues(row, nil)
	}
	listArr := lb.NewArray()
	defer listArr.Release()

	ib := array.NewInt64Builder(mem)
	defer ib.Release()
	ib.AppendValues(fixed, nil)
	intArr := ib.NewArray()
	defer intArr.Release()

	sch := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32)},
		{Name: "b", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	return array.NewRecord(sch, []arrow.Array{listArr, intArr}, int64(len(fixed)))
}

func TestFromRecordRaggedAndFixed(t *testing.T) {
	rec := buildRecord(t, [][]float32{{1, 2, 3}, {4, 5, 6, 7}}, []int64{1, 2})
	defer rec.Release()

	data, err := FromRecord(rec, nil)
	require.NoError(t, err)
	require.Len(t, data, 2)

	a := data[0]
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7}, a.Values.AsFloat32())
	require.NotNil(t, a.Offsets)
	assert.Equal(t, dtype.Int32, a.Offsets.DType())
	offs := a.Offsets.AsInt32()
	assert.Equal(t, []int32{0, 3, 7}, offs)
	assert.Equal(t, a.Values.Len(), int(offs[len(offs)-1]))

	b := data[1]
	assert.Equal(t, "b", b.Name)
	assert.Nil(t, b.Offsets)
	assert.Equal(t, []int64{1, 2}, b.Values.AsInt64())
}

func TestEqualLengthListsStayRagged(t *testing.T) {
	rec := buildRecord(t, [][]float32{{1, 2}, {3, 4}}, []int64{1, 2})
	defer rec.Release()

	data, err := FromRecord(rec, nil)
	require.NoError(t, err)

	a := data[0]
	require.NotNil(t, a.Offsets)
	assert.Equal(t, []int32{0, 2, 4}, a.Offsets.AsInt32())
	assert.Equal(t, dtype.Shape{4}, a.Values.Shape())
}

func TestFixedSchemaPacksValues(t *testing.T) {
	rec := buildRecord(t, [][]float32{{1, 2}, {3, 4}}, []int64{1, 2})
	defer rec.Release()

	sch := schema.New(schema.ColumnSchema{Name: "a", Dims: []int{2}})
	data, err := FromRecord(rec, sch)
	require.NoError(t, err)

	a := data[0]
	assert.Nil(t, a.Offsets)
	assert.Equal(t, dtype.Shape{2, 2}, a.Values.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, a.Values.AsFloat32())
}

func TestFixedSchemaRejectsRaggedRows(t *testing.T) {
	rec := buildRecord(t, [][]float32{{1, 2}, {3}}, []int64{1, 2})
	defer rec.Release()

	sch := schema.New(schema.ColumnSchema{Name: "a", Dims: []int{2}})
	_, err := FromRecord(rec, sch)
	require.Error(t, err)

	var se *ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "a", se.Column)
	assert.Equal(t, 2, se.Declared)
	assert.Equal(t, 1, se.Row)
	assert.Equal(t, 1, se.Observed)
}

func TestNullsRejected(t *testing.T) {
	mem := memory.NewGoAllocator()
	ib := array.NewInt64Builder(mem)
	defer ib.Release()
	ib.Append(1)
	ib.AppendNull()
	arr := ib.NewArray()
	defer arr.Release()

	sch := arrow.NewSchema([]arrow.Field{{Name: "b", Type: arrow.PrimitiveTypes.Int64, Nullable: true}}, nil)
	rec := array.NewRecord(sch, []arrow.Array{arr}, 2)
	defer rec.Release()

	_, err := FromRecord(rec, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedColumn)
	assert.Contains(t, err.Error(), "nulls")
}

func TestToRecordRoundTrip(t *testing.T) {
	values, err := native.FromSlice([]float32{1, 2, 3, 4, 5}, dtype.Shape{5})
	require.NoError(t, err)
	offsets, err := native.FromSlice([]int32{0, 2, 5}, dtype.Shape{3})
	require.NoError(t, err)
	fixed, err := native.FromSlice([]int64{7, 8}, dtype.Shape{2})
	require.NoError(t, err)

	rec, err := ToRecord([]ColumnData{
		{Name: "a", Values: values, Offsets: offsets},
		{Name: "b", Values: fixed},
	})
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, "a", rec.ColumnName(0))
	assert.Equal(t, "b", rec.ColumnName(1))

	back, err := FromRecord(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, back[0].Values.AsFloat32())
	assert.Equal(t, []int32{0, 2, 5}, back[0].Offsets.AsInt32())
	assert.Equal(t, []int64{7, 8}, back[1].Values.AsInt64())
}

func TestToRecordFixedListColumn(t *testing.T) {
	values, err := native.FromSlice([]float32{1, 2, 3, 4}, dtype.Shape{2, 2})
	require.NoError(t, err)

	rec, err := ToRecord([]ColumnData{{Name: "a", Values: values}})
	require.NoError(t, err)
	defer rec.Release()

	list, ok := rec.Column(0).(*array.List)
	require.True(t, ok)
	assert.Equal(t, []int32{0, 2, 4}, list.Offsets())
}

func TestToRecordSlicedOffsetsRebase(t *testing.T) {
	rec := buildRecord(t, [][]float32{{1}, {2, 3}, {4, 5, 6}}, []int64{1, 2, 3})
	defer rec.Release()

	sliced := rec.NewSlice(1, 3)
	defer sliced.Release()

	data, err := FromRecord(sliced, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3, 4, 5, 6}, data[0].Values.AsFloat32())
	assert.Equal(t, []int32{0, 2, 5}, data[0].Offsets.AsInt32())
}

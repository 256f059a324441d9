// Package frame converts between Arrow record batches and host-native
// arrays. List columns map to ragged values/offsets pairs, primitive
// columns to fixed arrays.
package frame

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/float16"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tabular-ml/tabular/internal/backend/native"
	"github.com/tabular-ml/tabular/internal/dtype"
	"github.com/tabular-ml/tabular/internal/parallel"
	"github.com/tabular-ml/tabular/internal/schema"
)

// ErrUnsupportedColumn is reported for Arrow columns with no host
// array representation.
var ErrUnsupportedColumn = errors.New("unsupported dataframe column")

// ShapeError indicates a list column whose rows do not match the fixed
// inner dimension its schema declares.
type ShapeError struct {
	Column   string
	Declared int
	Row      int
	Observed int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("schema for list column %q declares a fixed row length of %d, but row %d has length %d",
		e.Column, e.Declared, e.Row, e.Observed)
}

// ColumnData is one dataframe column decoded to host arrays. Offsets is
// nil for fixed columns.
type ColumnData struct {
	Name    string
	Values  *native.Array
	Offsets *native.Array
}

// FromRecord decodes an Arrow record batch into host column data,
// preserving the record's field order. List columns decode to ragged
// values/offsets pairs unless sch declares a fixed inner dimension, in
// which case rows are checked against it and packed into a 2-D values
// array with no offsets. Columns with nulls are rejected.
func FromRecord(rec arrow.Record, sch *schema.Schema) ([]ColumnData, error) {
	out := make([]ColumnData, 0, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		name := rec.ColumnName(i)
		col := rec.Column(i)
		if col.NullN() > 0 {
			return nil, fmt.Errorf("%w: column %q contains nulls", ErrUnsupportedColumn, name)
		}

		if list, ok := col.(*array.List); ok {
			cd, err := fromListColumn(name, list, sch)
			if err != nil {
				return nil, err
			}
			out = append(out, cd)
			continue
		}

		values, err := nativeFromArrow(col, 0, col.Len(), dtype.Shape{col.Len()})
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out = append(out, ColumnData{Name: name, Values: values})
	}
	return out, nil
}

func fromListColumn(name string, list *array.List, sch *schema.Schema) (ColumnData, error) {
	if list.ListValues().NullN() > 0 {
		return ColumnData{}, fmt.Errorf("%w: column %q contains nulls", ErrUnsupportedColumn, name)
	}

	// Offsets of a sliced record are not rebased; shift them so the
	// first row starts at zero and flatten only the covered values.
	raw := list.Offsets()
	base := raw[0]
	offsets := make([]int32, len(raw))
	for i, o := range raw {
		offsets[i] = o - base
	}
	rows := len(offsets) - 1
	total := int(offsets[rows])

	cs, declared := sch.Lookup(name)
	if declared {
		if dim, fixed := cs.FixedInnerDim(); fixed {
			for r := 0; r < rows; r++ {
				if got := int(offsets[r+1] - offsets[r]); got != dim {
					return ColumnData{}, &ShapeError{Column: name, Declared: dim, Row: r, Observed: got}
				}
			}
			values, err := nativeFromArrow(list.ListValues(), int(base), int(base)+total, dtype.Shape{rows, dim})
			if err != nil {
				return ColumnData{}, fmt.Errorf("column %q: %w", name, err)
			}
			return ColumnData{Name: name, Values: values}, nil
		}
	}

	values, err := nativeFromArrow(list.ListValues(), int(base), int(base)+total, dtype.Shape{total})
	if err != nil {
		return ColumnData{}, fmt.Errorf("column %q: %w", name, err)
	}
	offs, err := native.FromSlice(offsets, dtype.Shape{rows + 1})
	if err != nil {
		return ColumnData{}, fmt.Errorf("column %q: %w", name, err)
	}
	return ColumnData{Name: name, Values: values, Offsets: offs}, nil
}

// nativeFromArrow copies elements [start, end) of an Arrow array into a
// host array of the given shape.
func nativeFromArrow(arr arrow.Array, start, end int, shape dtype.Shape) (*native.Array, error) {
	switch a := arr.(type) {
	case *array.Float32:
		return native.FromSlice(a.Float32Values()[start:end], shape)
	case *array.Float64:
		return native.FromSlice(a.Float64Values()[start:end], shape)
	case *array.Int32:
		return native.FromSlice(a.Int32Values()[start:end], shape)
	case *array.Int64:
		return native.FromSlice(a.Int64Values()[start:end], shape)
	case *array.Uint8:
		return native.FromSlice(a.Uint8Values()[start:end], shape)
	case *array.Float16:
		nums := a.Values()[start:end]
		f32 := make([]float32, len(nums))
		parallel.For(len(nums), func(i int) {
			f32[i] = nums[i].Float32()
		}, parallel.DefaultConfig())
		return native.FromSlice(dtype.Float32ToFloat16(f32), shape)
	case *array.Boolean:
		data := make([]byte, end-start)
		parallel.For(len(data), func(i int) {
			if a.Value(start + i) {
				data[i] = 1
			}
		}, parallel.DefaultConfig())
		return native.FromBytes(data, shape, dtype.Bool)
	default:
		return nil, fmt.Errorf("%w: arrow type %s", ErrUnsupportedColumn, arr.DataType())
	}
}

// ToRecord encodes host column data back into an Arrow record batch.
// Ragged columns and 2-D fixed columns become list columns; 1-D columns
// become primitive columns. The caller releases the record.
func ToRecord(data []ColumnData) (arrow.Record, error) {
	mem := memory.NewGoAllocator()

	fields := make([]arrow.Field, 0, len(data))
	arrays := make([]arrow.Array, 0, len(data))
	rows := 0

	for _, cd := range data {
		elemType, err := arrowType(cd.Values.DType())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", cd.Name, err)
		}

		var arr arrow.Array
		switch {
		case cd.Offsets != nil:
			offs, err := cd.Offsets.Ints()
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", cd.Name, err)
			}
			arr, err = buildList(mem, elemType, cd.Values, offs)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", cd.Name, err)
			}
			fields = append(fields, arrow.Field{Name: cd.Name, Type: arrow.ListOf(elemType)})

		case len(cd.Values.Shape()) == 2:
			n, dim := cd.Values.Shape()[0], cd.Values.Shape()[1]
			offs := make([]int, n+1)
			for i := range offs {
				offs[i] = i * dim
			}
			arr, err = buildList(mem, elemType, cd.Values, offs)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", cd.Name, err)
			}
			fields = append(fields, arrow.Field{Name: cd.Name, Type: arrow.ListOf(elemType)})

		case len(cd.Values.Shape()) == 1:
			b := array.NewBuilder(mem, elemType)
			if err := appendRange(b, cd.Values, 0, cd.Values.Shape()[0]); err != nil {
				b.Release()
				return nil, fmt.Errorf("column %q: %w", cd.Name, err)
			}
			arr = b.NewArray()
			b.Release()
			fields = append(fields, arrow.Field{Name: cd.Name, Type: elemType})

		default:
			return nil, fmt.Errorf("%w: column %q has %d dimensions",
				ErrUnsupportedColumn, cd.Name, len(cd.Values.Shape()))
		}

		arrays = append(arrays, arr)
		rows = arr.Len()
	}

	sch := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(sch, arrays, int64(rows))
	for _, arr := range arrays {
		arr.Release()
	}
	return rec, nil
}

func buildList(mem memory.Allocator, elemType arrow.DataType, values *native.Array, offs []int) (arrow.Array, error) {
	lb := array.NewListBuilder(mem, elemType)
	defer lb.Release()
	for r := 0; r < len(offs)-1; r++ {
		lb.Append(true)
		if err := appendRange(lb.ValueBuilder(), values, offs[r], offs[r+1]); err != nil {
			return nil, err
		}
	}
	return lb.NewArray(), nil
}

func appendRange(b array.Builder, values *native.Array, start, end int) error {
	switch vb := b.(type) {
	case *array.Float32Builder:
		vb.AppendValues(values.AsFloat32()[start:end], nil)
	case *array.Float64Builder:
		vb.AppendValues(values.AsFloat64()[start:end], nil)
	case *array.Int32Builder:
		vb.AppendValues(values.AsInt32()[start:end], nil)
	case *array.Int64Builder:
		vb.AppendValues(values.AsInt64()[start:end], nil)
	case *array.Uint8Builder:
		vb.AppendValues(values.AsUint8()[start:end], nil)
	case *array.Float16Builder:
		f32 := dtype.Float16ToFloat32(values.AsFloat16Bits()[start:end])
		nums := make([]float16.Num, len(f32))
		parallel.For(len(f32), func(i int) {
			nums[i] = float16.New(f32[i])
		}, parallel.DefaultConfig())
		vb.AppendValues(nums, nil)
	case *array.BooleanBuilder:
		bools := make([]bool, end-start)
		for i, byteVal := range values.Data()[start:end] {
			bools[i] = byteVal != 0
		}
		vb.AppendValues(bools, nil)
	default:
		return fmt.Errorf("%w: builder %T", ErrUnsupportedColumn, b)
	}
	return nil
}

// arrowType maps a host dtype to its Arrow element type.
func arrowType(dt dtype.DataType) (arrow.DataType, error) {
	switch dt {
	case dtype.Float16:
		return arrow.FixedWidthTypes.Float16, nil
	case dtype.Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case dtype.Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case dtype.Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case dtype.Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case dtype.Uint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case dtype.Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	default:
		return nil, fmt.Errorf("%w: dtype %s", ErrUnsupportedColumn, dt)
	}
}

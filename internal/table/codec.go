package table

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/tabular-ml/tabular/internal/backend/native"
	"github.com/tabular-ml/tabular/internal/dtype"
)

// Wire layout for serialized tables. Only host buffers are encoded, so
// tables are brought to native host columns before marshalling.
type wireArray struct {
	DType string `cbor:"dtype"`
	Shape []int  `cbor:"shape"`
	Data  []byte `cbor:"data"`
}

type wireColumn struct {
	Values  wireArray  `cbor:"values"`
	Offsets *wireArray `cbor:"offsets,omitempty"`
}

type wireTable struct {
	Names   []string              `cbor:"names"`
	Columns map[string]wireColumn `cbor:"columns"`
}

// Marshal encodes the table as CBOR. GPU and framework tables are
// converted to host native columns first.
func Marshal(t *Table) ([]byte, error) {
	host, err := t.CPU()
	if err != nil {
		return nil, err
	}

	wire := wireTable{
		Names:   host.Names(),
		Columns: make(map[string]wireColumn, host.NumColumns()),
	}
	for _, name := range wire.Names {
		col, err := host.Column(name)
		if err != nil {
			return nil, err
		}
		nc := col.(*NativeColumn)
		wc := wireColumn{Values: encodeArray(nc.ValuesArray())}
		if offs := nc.OffsetsArray(); offs != nil {
			wa := encodeArray(offs)
			wc.Offsets = &wa
		}
		wire.Columns[name] = wc
	}
	return cbor.Marshal(wire)
}

// Unmarshal decodes a CBOR-encoded table into host native columns.
func Unmarshal(data []byte) (*Table, error) {
	var wire wireTable
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding table: %w", err)
	}

	names := make([]string, 0, len(wire.Names))
	cols := make([]Column, 0, len(wire.Names))
	for _, name := range wire.Names {
		wc, ok := wire.Columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: column %q named but not encoded", ErrInvalidArgument, name)
		}
		values, err := decodeArray(wc.Values)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		var offsets any
		if wc.Offsets != nil {
			offs, err := decodeArray(*wc.Offsets)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			offsets = offs
		}
		col, err := NativeType.New(values, offsets)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		names = append(names, name)
		cols = append(cols, col)
	}
	return FromColumns(names, cols)
}

func encodeArray(a *native.Array) wireArray {
	return wireArray{
		DType: a.DType().String(),
		Shape: a.Shape().Clone(),
		Data:  a.Data(),
	}
}

func decodeArray(w wireArray) (*native.Array, error) {
	dt, ok := dtype.Parse(w.DType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown dtype %q", ErrInvalidArgument, w.DType)
	}
	return native.FromBytes(w.Data, w.Shape, dt)
}

package table

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/frame"
	"github.com/tabular-ml/tabular/internal/schema"
)

const (
	valuesSuffix  = "__values"
	offsetsSuffix = "__offsets"
)

// Table is an ordered mapping of column name to column. All columns in a
// table come from the same framework, live on the same device, and have
// the same number of rows.
type Table struct {
	cols *linkedhashmap.Map
}

// FromColumns builds a table from parallel name and column slices,
// preserving the given order.
func FromColumns(names []string, cols []Column) (*Table, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrInvalidArgument, len(names), len(cols))
	}
	if err := validateColumns(names, cols); err != nil {
		return nil, err
	}
	m := linkedhashmap.New()
	for i, name := range names {
		if _, dup := m.Get(name); dup {
			return nil, fmt.Errorf("%w: duplicate column name %q", ErrInvalidArgument, name)
		}
		m.Put(name, cols[i])
	}
	return &Table{cols: m}, nil
}

// FromMapping builds a table from a flat mapping of backend-native
// arrays. A key "name__values" pairs with "name__offsets" to form a
// ragged column; a bare key is a fixed column. Columns are ordered by
// sorted base name.
func FromMapping(mapping map[string]any) (*Table, error) {
	type pair struct {
		values  any
		offsets any
	}
	pairs := make(map[string]*pair)
	at := func(base string) *pair {
		p, ok := pairs[base]
		if !ok {
			p = &pair{}
			pairs[base] = p
		}
		return p
	}

	for key, array := range mapping {
		switch {
		case strings.HasSuffix(key, valuesSuffix):
			at(strings.TrimSuffix(key, valuesSuffix)).values = array
		case strings.HasSuffix(key, offsetsSuffix):
			at(strings.TrimSuffix(key, offsetsSuffix)).offsets = array
		default:
			at(key).values = array
		}
	}

	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]Column, 0, len(names))
	for _, name := range names {
		p := pairs[name]
		if p.values == nil {
			return nil, fmt.Errorf("%w: column %q has offsets but no values", ErrInvalidArgument, name)
		}
		col, err := NewColumn(p.values, p.offsets)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		cols = append(cols, col)
	}
	return FromColumns(names, cols)
}

// validateColumns enforces framework, device, and row-count homogeneity.
// The majority column type and device define the expectation; the first
// column deviating from it is named in the error.
func validateColumns(names []string, cols []Column) error {
	if len(cols) == 0 {
		return nil
	}

	wantType := majorityType(cols)
	wantDevice := cols[0].Device()
	rows := cols[0].Len()
	for i, col := range cols {
		if col.Device() != wantDevice {
			return &CrossDeviceError{Column: names[i], Got: col.Device(), Want: wantDevice}
		}
		if col.Type() != wantType {
			return &CrossFrameworkError{Column: names[i], Got: col.Type(), Want: wantType}
		}
		if col.Len() != rows {
			return fmt.Errorf("%w: column %q has %d rows, expected %d",
				ErrInvalidArgument, names[i], col.Len(), rows)
		}
	}
	return nil
}

func majorityType(cols []Column) ColumnType {
	counts := make(map[ColumnType]int)
	var best ColumnType
	for _, col := range cols {
		counts[col.Type()]++
		if best == nil || counts[col.Type()] > counts[best] {
			best = col.Type()
		}
	}
	return best
}

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, 0, t.cols.Size())
	for _, key := range t.cols.Keys() {
		names = append(names, key.(string))
	}
	return names
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return t.cols.Size() }

// Len returns the number of rows. An empty table has zero rows.
func (t *Table) Len() int {
	if col, ok := t.first(); ok {
		return col.Len()
	}
	return 0
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, error) {
	v, ok := t.cols.Get(name)
	if !ok {
		return nil, &KeyNotFoundError{Column: name}
	}
	return v.(Column), nil
}

// Set adds or replaces a column, keeping the table homogeneous.
func (t *Table) Set(name string, col Column) error {
	if existing, ok := t.first(); ok {
		if col.Device() != existing.Device() {
			return &CrossDeviceError{Column: name, Got: col.Device(), Want: existing.Device()}
		}
		if col.Type() != existing.Type() {
			return &CrossFrameworkError{Column: name, Got: col.Type(), Want: existing.Type()}
		}
		if col.Len() != existing.Len() {
			return fmt.Errorf("%w: column %q has %d rows, expected %d",
				ErrInvalidArgument, name, col.Len(), existing.Len())
		}
	}
	t.cols.Put(name, col)
	return nil
}

// Device returns the device all columns live on. Empty tables report CPU.
func (t *Table) Device() device.Device {
	if col, ok := t.first(); ok {
		return col.Device()
	}
	return device.CPU
}

// ColumnType returns the column variant shared by all columns, or nil
// for an empty table.
func (t *Table) ColumnType() ColumnType {
	if col, ok := t.first(); ok {
		return col.Type()
	}
	return nil
}

func (t *Table) first() (Column, bool) {
	it := t.cols.Iterator()
	if !it.First() {
		return nil, false
	}
	return it.Value().(Column), true
}

// ToDict flattens the table back to a mapping of backend-native arrays,
// the inverse of FromMapping.
func (t *Table) ToDict() map[string]any {
	out := make(map[string]any, t.cols.Size())
	it := t.cols.Iterator()
	for it.Next() {
		name := it.Key().(string)
		col := it.Value().(Column)
		if col.IsRagged() {
			out[name+valuesSuffix] = col.Values()
			out[name+offsetsSuffix] = col.Offsets()
		} else {
			out[name] = col.Values()
		}
	}
	return out
}

// AsTensorType converts every column to the target column type. The
// target must be a registered ColumnType able to represent the table's
// current device; conversion is a no-op when the table already has the
// target type.
func (t *Table) AsTensorType(target any) (*Table, error) {
	ct, ok := target.(ColumnType)
	if !ok {
		return nil, fmt.Errorf("%w: tensor type argument must be a column type, got %T",
			ErrInvalidArgument, target)
	}
	if !isRegistered(ct) {
		return nil, fmt.Errorf("%w: unsupported tensor type %s", ErrInvalidArgument, ct)
	}
	if t.ColumnType() == ct || t.NumColumns() == 0 {
		return t, nil
	}
	if !supportsDevice(ct, t.Device()) {
		return nil, &UnsupportedDeviceError{Type: ct, Device: t.Device()}
	}

	slog.Debug("converting table", "from", t.ColumnType().String(), "to", ct.String())
	return t.mapColumns(func(col Column) (Column, error) {
		return convertColumn(col, ct)
	})
}

// CPU returns a host-resident copy of the table as native columns.
// Already-host tables convert in place without copying buffers.
func (t *Table) CPU() (*Table, error) {
	if t.Device() == device.CPU && t.ColumnType() == NativeType {
		return t, nil
	}
	return t.mapColumns(columnToCPU)
}

// GPU returns a GPU-resident copy of the table as WebGPU columns,
// uploading host buffers to the default backend.
func (t *Table) GPU() (*Table, error) {
	if t.ColumnType() == WebGPUType {
		return t, nil
	}
	return t.mapColumns(columnToGPU)
}

func (t *Table) mapColumns(fn func(Column) (Column, error)) (*Table, error) {
	names := t.Names()
	cols := make([]Column, 0, len(names))
	it := t.cols.Iterator()
	for it.Next() {
		col, err := fn(it.Value().(Column))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", it.Key().(string), err)
		}
		cols = append(cols, col)
	}
	return FromColumns(names, cols)
}

func supportsDevice(ct ColumnType, dev device.Device) bool {
	for _, d := range ct.SupportedDevices() {
		if d == dev {
			return true
		}
	}
	return false
}

// FromDataFrame builds a host table from an Arrow record batch. List
// columns become ragged columns unless sch declares a fixed inner
// dimension for them. Column order follows the record's fields.
func FromDataFrame(rec arrow.Record, sch *schema.Schema) (*Table, error) {
	data, err := frame.FromRecord(rec, sch)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(data))
	cols := make([]Column, 0, len(data))
	for _, cd := range data {
		var offsets any
		if cd.Offsets != nil {
			offsets = cd.Offsets
		}
		col, err := NativeType.New(cd.Values, offsets)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", cd.Name, err)
		}
		names = append(names, cd.Name)
		cols = append(cols, col)
	}
	return FromColumns(names, cols)
}

// ToDataFrame converts the table to an Arrow record batch. The table is
// brought to host native columns first, so GPU tables round-trip through
// a device-to-host copy. The caller releases the record.
func (t *Table) ToDataFrame() (arrow.Record, error) {
	host, err := t.CPU()
	if err != nil {
		return nil, err
	}
	data := make([]frame.ColumnData, 0, host.NumColumns())
	it := host.cols.Iterator()
	for it.Next() {
		col := it.Value().(*NativeColumn)
		data = append(data, frame.ColumnData{
			Name:    it.Key().(string),
			Values:  col.ValuesArray(),
			Offsets: col.OffsetsArray(),
		})
	}
	return frame.ToRecord(data)
}

// Package schema carries per-column dimension hints used to decide
// ragged vs. fixed encoding when building tables from dataframes.
package schema

// Ragged marks a dimension of unknown, per-row varying length.
const Ragged = -1

// ColumnSchema describes one column. Dims lists the inner dimensions of
// a single row, excluding the row dimension itself: an empty Dims means
// scalar rows, []int{Ragged} a variable-length list, and []int{n} a
// fixed-size list of n.
type ColumnSchema struct {
	Name string
	Dims []int
}

// FixedInnerDim returns the declared fixed length of list rows, if any.
func (cs ColumnSchema) FixedInnerDim() (int, bool) {
	if len(cs.Dims) != 1 || cs.Dims[0] == Ragged {
		return 0, false
	}
	return cs.Dims[0], true
}

// IsList reports whether rows are list-valued (fixed or ragged).
func (cs ColumnSchema) IsList() bool { return len(cs.Dims) > 0 }

// Schema is a collection of column schemas keyed by column name.
type Schema struct {
	cols map[string]ColumnSchema
}

// New creates a Schema from column schemas.
func New(cols ...ColumnSchema) *Schema {
	s := &Schema{cols: make(map[string]ColumnSchema, len(cols))}
	for _, cs := range cols {
		s.cols[cs.Name] = cs
	}
	return s
}

// Lookup returns the schema for a column name, if declared.
func (s *Schema) Lookup(name string) (ColumnSchema, bool) {
	if s == nil {
		return ColumnSchema{}, false
	}
	cs, ok := s.cols[name]
	return cs, ok
}

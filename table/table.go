// Copyright 2025 Tabular ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package table provides the public API for tensor tables in the
// Tabular framework.
//
// A tensor table is an ordered mapping of column name to column, where
// every column comes from the same array backend and lives on the same
// device. Columns are either fixed (one fixed-shape row per table row)
// or ragged (flattened values plus row offsets).
//
// Example:
//
//	tbl, err := table.FromMapping(map[string]any{
//	    "a__values":  native.Of([]float32{1, 2, 3}),
//	    "a__offsets": native.Of([]int32{0, 1, 3}),
//	    "b":          native.Of([]float32{10, 20}),
//	})
//	gpuTbl, err := tbl.GPU()
package table

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tabular-ml/tabular/internal/device"
	internalschema "github.com/tabular-ml/tabular/internal/schema"
	internaltable "github.com/tabular-ml/tabular/internal/table"
)

// Table is an ordered, backend- and device-homogeneous column mapping.
type Table = internaltable.Table

// Column adapts one backend's array pair to the shared column interface.
type Column = internaltable.Column

// ColumnType describes a column variant and constructs its columns.
type ColumnType = internaltable.ColumnType

// Registered column variants.
var (
	// NativeType backs columns with host-memory arrays.
	NativeType = internaltable.NativeType
	// FrameworkType backs columns with framework tensors (host only).
	FrameworkType = internaltable.FrameworkType
	// WebGPUType backs columns with GPU buffers.
	WebGPUType = internaltable.WebGPUType
)

// Device identifies where column buffers live.
type Device = device.Device

// Devices columns can live on.
const (
	CPU = device.CPU
	GPU = device.GPU
)

// Error values and types reported by table operations.
var (
	ErrInvalidArgument = internaltable.ErrInvalidArgument
	ErrKeyNotFound     = internaltable.ErrKeyNotFound
)

// KeyNotFoundError names a missing column.
type KeyNotFoundError = internaltable.KeyNotFoundError

// CrossFrameworkError reports columns from more than one backend.
type CrossFrameworkError = internaltable.CrossFrameworkError

// CrossDeviceError reports columns on more than one device.
type CrossDeviceError = internaltable.CrossDeviceError

// DeviceMismatchError reports a column whose values and offsets live on
// different devices.
type DeviceMismatchError = internaltable.DeviceMismatchError

// UnsupportedDeviceError reports a conversion target that cannot
// represent the table's device.
type UnsupportedDeviceError = internaltable.UnsupportedDeviceError

// FromColumns builds a table from parallel name and column slices.
func FromColumns(names []string, cols []Column) (*Table, error) {
	return internaltable.FromColumns(names, cols)
}

// FromMapping builds a table from a flat mapping of backend-native
// arrays, pairing "name__values" with "name__offsets" keys.
func FromMapping(mapping map[string]any) (*Table, error) {
	return internaltable.FromMapping(mapping)
}

// NewColumn constructs a column, selecting the variant by the values
// array's runtime type.
func NewColumn(values, offsets any) (Column, error) {
	return internaltable.NewColumn(values, offsets)
}

// ColumnTypes returns the registered column variants.
func ColumnTypes() []ColumnType {
	return internaltable.ColumnTypes()
}

// FromDataFrame builds a host table from an Arrow record batch.
func FromDataFrame(rec arrow.Record, sch *internalschema.Schema) (*Table, error) {
	return internaltable.FromDataFrame(rec, sch)
}

// Marshal encodes a table as CBOR, bringing it to host memory first.
func Marshal(t *Table) ([]byte, error) {
	return internaltable.Marshal(t)
}

// Unmarshal decodes a CBOR-encoded table into host native columns.
func Unmarshal(data []byte) (*Table, error) {
	return internaltable.Unmarshal(data)
}

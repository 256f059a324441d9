// Copyright 2025 Tabular ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package native provides the host-memory array backend.
//
// A native array is a flat, contiguous byte buffer with a shape and an
// element type, living in ordinary Go memory. It is the default column
// backend and the landing zone for device-to-host copies.
//
// Example:
//
//	values := native.Of([]float32{1, 2, 3, 4})
//	offsets := native.Of([]int32{0, 1, 4})
//	col, err := table.NewColumn(values, offsets)
package native

import (
	internalnative "github.com/tabular-ml/tabular/internal/backend/native"
	"github.com/tabular-ml/tabular/internal/dtype"
)

// Array is a host-memory array: a contiguous buffer plus shape and dtype.
type Array = internalnative.Array

// New allocates a zeroed host array.
func New(shape Shape, dt DataType) (*Array, error) {
	return internalnative.New(shape, dt)
}

// FromSlice builds a host array from a typed slice and shape. The slice
// contents are copied.
func FromSlice[T dtype.Element](data []T, shape Shape) (*Array, error) {
	return internalnative.FromSlice(data, shape)
}

// Of builds a 1-D host array from a typed slice.
func Of[T dtype.Element](data []T) *Array {
	return internalnative.Of(data)
}

// FromBytes builds a host array from raw bytes. The bytes are copied.
func FromBytes(data []byte, shape Shape, dt DataType) (*Array, error) {
	return internalnative.FromBytes(data, shape, dt)
}

// Shape is the dimensions of an array, outermost first.
type Shape = dtype.Shape

// DataType identifies an element type.
type DataType = dtype.DataType

// Element types supported by host arrays.
const (
	Float16  = dtype.Float16
	BFloat16 = dtype.BFloat16
	Float32  = dtype.Float32
	Float64  = dtype.Float64
	Int32    = dtype.Int32
	Int64    = dtype.Int64
	Uint8    = dtype.Uint8
	Bool     = dtype.Bool
)

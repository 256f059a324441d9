// Copyright 2025 Tabular ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package schema declares per-column dimension hints used when building
// tables from dataframes.
//
// Example:
//
//	sch := schema.New(
//	    schema.Column("embedding", 128), // fixed-size lists of 128
//	    schema.Column("categories", schema.Ragged),
//	)
//	tbl, err := table.FromDataFrame(rec, sch)
package schema

import (
	internalschema "github.com/tabular-ml/tabular/internal/schema"
)

// Ragged marks a dimension of per-row varying length.
const Ragged = internalschema.Ragged

// ColumnSchema describes the inner dimensions of one column's rows.
type ColumnSchema = internalschema.ColumnSchema

// Schema is a collection of column schemas keyed by name.
type Schema = internalschema.Schema

// New creates a Schema from column schemas.
func New(cols ...ColumnSchema) *Schema {
	return internalschema.New(cols...)
}

// Column is shorthand for a ColumnSchema with the given inner dims.
func Column(name string, dims ...int) ColumnSchema {
	return ColumnSchema{Name: name, Dims: dims}
}

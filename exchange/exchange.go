// Copyright 2025 Tabular ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package exchange provides the buffer exchange protocol: a backend-
// neutral capsule describing one array's buffer, used to move columns
// between backends without copying when both sides share a device.
package exchange

import (
	"reflect"

	internalexchange "github.com/tabular-ml/tabular/internal/exchange"
)

// Capsule describes one array buffer: residency, dtype, shape, and
// either a host pointer or a device handle.
type Capsule = internalexchange.Capsule

// ErrUnsupportedBackend is reported when no exchange handler exists for
// an array or target type.
var ErrUnsupportedBackend = internalexchange.ErrUnsupportedBackend

// Export produces a capsule from a backend-native array without copying.
func Export(array any) (*Capsule, error) {
	return internalexchange.Export(array)
}

// Import reconstructs an array of the target type from a capsule.
func Import(c *Capsule, target reflect.Type) (any, error) {
	return internalexchange.Import(c, target)
}

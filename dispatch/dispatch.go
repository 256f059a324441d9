// Copyright 2025 Tabular ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dispatch provides type-keyed dispatch with lazy handler
// registration, the extension mechanism behind the buffer exchange
// protocol.
//
// A dispatcher routes a value to the handler registered for its runtime
// type. Optional backends register lazily: they supply an initializer
// keyed by a package-path fragment, and the initializer runs the first
// time a dispatched type comes from a matching package.
//
// Example:
//
//	d := dispatch.New("to_capsule")
//	d.RegisterLazy("pdevine/tensor", registerTensorHandlers)
//	out, err := d.Dispatch(dense) // triggers registerTensorHandlers
package dispatch

import (
	internaldispatch "github.com/tabular-ml/tabular/internal/dispatch"
)

// Dispatcher routes values to handlers by runtime type.
type Dispatcher = internaldispatch.Dispatcher

// Handler processes one dispatched value.
type Handler = internaldispatch.Handler

// ErrNotImplemented is reported when no handler matches a dispatched
// type.
var ErrNotImplemented = internaldispatch.ErrNotImplemented

// NotImplementedError carries the dispatcher and offending type.
type NotImplementedError = internaldispatch.NotImplementedError

// New creates a named dispatcher.
func New(name string) *Dispatcher {
	return internaldispatch.New(name)
}

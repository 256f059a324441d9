// Package dispatch provides single-argument runtime type dispatch with
// deferred handler registration.
//
// A Dispatcher maps the concrete type of an argument to a handler
// function. Handlers may be registered immediately, or lazily under the
// name of an optional dependency: a lazy initializer runs at most once,
// triggered by the first dispatch whose argument type belongs to that
// dependency's package namespace. This keeps optional backends out of the
// hot path until a value of theirs actually shows up.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
)

// ErrNotImplemented is reported when no handler is registered for the
// dispatched type. Use errors.Is to test for it.
var ErrNotImplemented = errors.New("no registered implementation")

// NotImplementedError names the dispatcher and the unregistered type.
type NotImplementedError struct {
	Dispatcher string
	Type       reflect.Type
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%q doesn't have a registered implementation for type %s", e.Dispatcher, e.Type)
}

func (e *NotImplementedError) Unwrap() error { return ErrNotImplemented }

// Handler processes a dispatched value.
type Handler func(value any) (any, error)

type lazyEntry struct {
	dep  string
	init func() error
	once sync.Once
	err  error
}

// activate runs the initializer exactly once, memoizing its error.
func (le *lazyEntry) activate() error {
	le.once.Do(func() {
		le.err = le.init()
	})
	return le.err
}

// Dispatcher selects a handler by the runtime type of its argument.
//
// Resolution order: exact type match, then registered interface types the
// argument implements, then the default fallback. The handler table is
// guarded for concurrent dispatch; lazy activation is append-only and
// fires at most once per dependency.
type Dispatcher struct {
	name string

	mu       sync.RWMutex
	handlers map[reflect.Type]Handler
	fallback Handler

	lazyMu sync.Mutex
	lazy   []*lazyEntry
}

// New creates a named Dispatcher. The name appears in dispatch-miss
// errors and debug logs.
func New(name string) *Dispatcher {
	return &Dispatcher{
		name:     name,
		handlers: make(map[reflect.Type]Handler),
	}
}

// Name returns the dispatcher's name.
func (d *Dispatcher) Name() string { return d.name }

// Register adds an immediate mapping for the type of sample. A
// reflect.Type may be passed directly instead of a sample value.
func (d *Dispatcher) Register(sample any, h Handler) {
	typ, ok := sample.(reflect.Type)
	if !ok {
		typ = reflect.TypeOf(sample)
	}
	d.mu.Lock()
	d.handlers[typ] = h
	d.mu.Unlock()
}

// RegisterDefault sets the fallback handler used when no type matches.
func (d *Dispatcher) RegisterDefault(h Handler) {
	d.mu.Lock()
	d.fallback = h
	d.mu.Unlock()
}

// RegisterLazy defers registration until a type whose package import
// path contains dep is first dispatched. The initializer must
// call Register itself; it runs at most once per dependency, and its
// error (if any) propagates to the dispatch call that triggered it.
func (d *Dispatcher) RegisterLazy(dep string, init func() error) {
	d.lazyMu.Lock()
	d.lazy = append(d.lazy, &lazyEntry{dep: dep, init: init})
	d.lazyMu.Unlock()
}

// Supports reports whether a handler is registered for typ, without
// triggering lazy registration.
func (d *Dispatcher) Supports(typ reflect.Type) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookupLocked(typ) != nil
}

// Dispatch invokes the handler registered for value's runtime type.
func (d *Dispatcher) Dispatch(value any) (any, error) {
	return d.DispatchFor(reflect.TypeOf(value), value)
}

// DispatchFor invokes the handler registered for typ, passing value.
// This is used where the handler is selected by a target type rather
// than by the type of the argument itself.
func (d *Dispatcher) DispatchFor(typ reflect.Type, value any) (any, error) {
	if typ == nil {
		return nil, &NotImplementedError{Dispatcher: d.name, Type: typ}
	}

	d.mu.RLock()
	h := d.lookupLocked(typ)
	d.mu.RUnlock()

	if h == nil {
		triggered, err := d.triggerLazy(typ)
		if err != nil {
			return nil, fmt.Errorf("%s: lazy registration failed: %w", d.name, err)
		}
		if triggered {
			d.mu.RLock()
			h = d.lookupLocked(typ)
			d.mu.RUnlock()
		}
	}

	if h == nil {
		return nil, &NotImplementedError{Dispatcher: d.name, Type: typ}
	}
	return h(value)
}

// lookupLocked resolves a handler for typ. Callers hold at least a read
// lock.
func (d *Dispatcher) lookupLocked(typ reflect.Type) Handler {
	if h, ok := d.handlers[typ]; ok {
		return h
	}
	for regType, h := range d.handlers {
		if regType.Kind() == reflect.Interface && typ.Implements(regType) {
			return h
		}
	}
	return d.fallback
}

// triggerLazy activates every pending lazy entry whose dependency name
// appears in typ's package path. Returns whether anything activated.
func (d *Dispatcher) triggerLazy(typ reflect.Type) (bool, error) {
	path := packagePathOf(typ)

	d.lazyMu.Lock()
	var matched []*lazyEntry
	for _, le := range d.lazy {
		if strings.Contains(path, le.dep) {
			matched = append(matched, le)
		}
	}
	d.lazyMu.Unlock()

	triggered := false
	for _, le := range matched {
		if err := le.activate(); err != nil {
			return triggered, err
		}
		triggered = true
		slog.Debug("lazy dispatch registration activated",
			"dispatcher", d.name, "dependency", le.dep)
	}
	return triggered, nil
}

// packagePathOf returns the import path of the package defining a type,
// with pointer/slice wrappers stripped. Matching lazy dependencies on
// the package path alone keeps a fragment like "tensor" from firing on
// an unrelated type that merely has "tensor" in its name.
func packagePathOf(typ reflect.Type) string {
	for typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array {
		typ = typ.Elem()
	}
	return typ.PkgPath()
}

// Package exchange implements the backend-neutral buffer exchange
// protocol. A Capsule describes one contiguous memory region — pointer or
// device handle, shape, dtype, residency — so a target backend can
// reconstruct an array without copying host-resident data through an
// intermediate serialization.
//
// Each backend registers its export/import handlers on the package-level
// dispatchers, keyed by its own array type, so admitting a new backend is
// pure registration with no change to table or column logic.
package exchange

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/tabular-ml/tabular/internal/device"
	"github.com/tabular-ml/tabular/internal/dispatch"
	"github.com/tabular-ml/tabular/internal/dtype"
)

// ErrUnsupportedBackend is reported when no export or import handler is
// registered for an array type.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// Capsule is a non-owning, device-tagged view of a buffer. It never owns
// the underlying memory: the producing backend's array must outlive every
// consumer of the capsule, which is a transient hand-off value and must
// not be persisted.
type Capsule struct {
	ptr     unsafe.Pointer // host buffers only
	handle  any            // backend-specific device buffer handle
	dev     device.Device
	ordinal int
	dt      dtype.DataType
	shape   dtype.Shape
	owner   any // keeps the producing array reachable
}

// NewHost creates a capsule over host memory.
func NewHost(ptr unsafe.Pointer, shape dtype.Shape, dt dtype.DataType, owner any) *Capsule {
	return &Capsule{
		ptr:   ptr,
		dev:   device.CPU,
		dt:    dt,
		shape: shape.Clone(),
		owner: owner,
	}
}

// NewDevice creates a capsule over accelerator memory. handle is the
// producing backend's buffer object; ordinal identifies the device.
func NewDevice(handle any, ordinal int, shape dtype.Shape, dt dtype.DataType, owner any) *Capsule {
	return &Capsule{
		handle:  handle,
		dev:     device.GPU,
		ordinal: ordinal,
		dt:      dt,
		shape:   shape.Clone(),
		owner:   owner,
	}
}

// Device returns the residency of the described buffer.
func (c *Capsule) Device() device.Device { return c.dev }

// Ordinal returns the device ordinal (0 for host buffers).
func (c *Capsule) Ordinal() int { return c.ordinal }

// DType returns the element type of the described buffer.
func (c *Capsule) DType() dtype.DataType { return c.dt }

// Shape returns the row-major shape of the described buffer.
func (c *Capsule) Shape() dtype.Shape { return c.shape }

// Pointer returns the host pointer, or nil for device buffers.
func (c *Capsule) Pointer() unsafe.Pointer { return c.ptr }

// Handle returns the backend-specific device buffer handle, or nil for
// host buffers.
func (c *Capsule) Handle() any { return c.handle }

// ByteSize returns the size of the described region in bytes.
func (c *Capsule) ByteSize() int { return c.shape.NumElements() * c.dt.Size() }

// Bytes returns a zero-copy view of a host capsule's memory. It fails
// for device capsules: a device buffer needs an explicit host copy first.
func (c *Capsule) Bytes() ([]byte, error) {
	if c.dev != device.CPU {
		return nil, fmt.Errorf("capsule is on %s; device buffers require an explicit host copy", c.dev)
	}
	if c.ptr == nil {
		return nil, nil
	}
	return unsafe.Slice((*byte)(c.ptr), c.ByteSize()), nil
}

// CopyBytes is the always-copy fallback for host capsules, used when the
// zero-copy precondition cannot be guaranteed.
func (c *Capsule) CopyBytes() ([]byte, error) {
	view, err := c.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}

// Owner returns the producing array. Import handlers propagate it so
// zero-copy views keep their true owner reachable.
func (c *Capsule) Owner() any { return c.owner }

// Package-level dispatchers. ToCapsule is keyed by the exporting array's
// type; the import dispatchers are keyed by the *target* array type and
// receive the capsule as argument, one per destination residency.
var (
	ToCapsule      = dispatch.New("to_capsule")
	FromCapsuleCPU = dispatch.New("from_capsule_cpu")
	FromCapsuleGPU = dispatch.New("from_capsule_gpu")
)

// Export produces a capsule from a backend-native array without copying.
func Export(array any) (*Capsule, error) {
	out, err := ToCapsule.Dispatch(array)
	if err != nil {
		if errors.Is(err, dispatch.ErrNotImplemented) {
			return nil, fmt.Errorf("%w: no export handler for %T", ErrUnsupportedBackend, array)
		}
		return nil, err
	}
	return out.(*Capsule), nil
}

// Import reconstructs an array of the target type from a capsule. The
// capsule's residency selects the handler table: host capsules import
// zero-copy on the host; device capsules import zero-copy on the device.
// Cross-device movement never happens here — callers transfer explicitly
// before exchanging.
func Import(c *Capsule, target reflect.Type) (any, error) {
	var d *dispatch.Dispatcher
	switch c.dev {
	case device.CPU:
		d = FromCapsuleCPU
	case device.GPU:
		d = FromCapsuleGPU
	default:
		return nil, fmt.Errorf("capsule has unknown device %d", c.dev)
	}

	out, err := d.DispatchFor(target, c)
	if err != nil {
		if errors.Is(err, dispatch.ErrNotImplemented) {
			return nil, fmt.Errorf("%w: no %s import handler for %s", ErrUnsupportedBackend, c.dev, target)
		}
		return nil, err
	}
	return out, nil
}

// Package device defines the memory residency tag shared by all column
// backends. A buffer lives either in host memory or on an accelerator;
// residency is always read from the underlying array, never asserted by
// the caller.
package device

// Device represents the memory residency of a buffer.
type Device int

// Supported devices.
const (
	CPU Device = iota // Host memory
	GPU               // Accelerator memory
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	default:
		return "unknown"
	}
}

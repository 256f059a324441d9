package table

import (
	"errors"
	"fmt"

	"github.com/tabular-ml/tabular/internal/device"
)

var (
	// ErrInvalidArgument is reported for malformed conversion targets
	// and construction inputs.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrKeyNotFound is reported when a column name is not in the table.
	ErrKeyNotFound = errors.New("column not found")
)

// KeyNotFoundError names the missing column.
type KeyNotFoundError struct {
	Column string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in table", e.Column)
}

func (e *KeyNotFoundError) Unwrap() error { return ErrKeyNotFound }

// CrossFrameworkError indicates a table constructed from columns of more
// than one backend framework.
type CrossFrameworkError struct {
	Column string
	Got    ColumnType
	Want   ColumnType
}

func (e *CrossFrameworkError) Error() string {
	return fmt.Sprintf("column %q has type %s; all columns must come from the same framework (%s)",
		e.Column, e.Got, e.Want)
}

// CrossDeviceError indicates a table constructed from columns on more
// than one device.
type CrossDeviceError struct {
	Column string
	Got    device.Device
	Want   device.Device
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("column %q was detected on device %s; all columns must be on the same device (%s)",
		e.Column, e.Got, e.Want)
}

// DeviceMismatchError indicates a column whose values and offsets were
// detected on different devices.
type DeviceMismatchError struct {
	Values  device.Device
	Offsets device.Device
}

func (e *DeviceMismatchError) Error() string {
	return fmt.Sprintf("values and offsets were detected on different devices: values (%s) and offsets (%s)",
		e.Values, e.Offsets)
}

// UnsupportedDeviceError indicates a conversion target that cannot
// represent data on the table's current device.
type UnsupportedDeviceError struct {
	Type   ColumnType
	Device device.Device
}

func (e *UnsupportedDeviceError) Error() string {
	return fmt.Sprintf("column type %s does not support device %s", e.Type, e.Device)
}

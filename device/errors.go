package device

import "fmt"

// UnknownDeviceError reports a reference to a device that is not registered.
type UnknownDeviceError struct {
	Device string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("device %q is not registered", e.Device)
}

// DuplicateDeviceError reports two devices registered under the same name.
type DuplicateDeviceError struct {
	Device string
}

func (e *DuplicateDeviceError) Error() string {
	return fmt.Sprintf("device %q is registered twice", e.Device)
}

// MissingProfileEntryError reports a layer that has no execution time on a
// device.
type MissingProfileEntryError struct {
	Device string
	Layer  string
}

func (e *MissingProfileEntryError) Error() string {
	return fmt.Sprintf("device %q has no profile entry for layer %q",
		e.Device, e.Layer)
}

package timing

import (
	"errors"
	"fmt"
)

// ErrNoDevices is returned when a simulator is built without devices.
var ErrNoDevices = errors.New("timing: at least one device is required")

// InvalidBandwidthError reports a transfer bandwidth that cannot be divided
// by.
type InvalidBandwidthError struct {
	Bandwidth float64
}

func (e *InvalidBandwidthError) Error() string {
	return fmt.Sprintf("bandwidth must be positive, got %g", e.Bandwidth)
}

// IncompleteAssignmentError reports a layer that is not mapped to any device.
type IncompleteAssignmentError struct {
	Layer string
}

func (e *IncompleteAssignmentError) Error() string {
	return fmt.Sprintf("layer %q is not assigned to a device", e.Layer)
}

// Package sim provides the primitives shared by the timing model: virtual
// time, hooks and ID generation.
package sim

import "math"

// VTimeInSec is the virtual time in seconds.
type VTimeInSec float64

// Max returns the later of two times.
func Max(a, b VTimeInSec) VTimeInSec {
	return VTimeInSec(math.Max(float64(a), float64(b)))
}

// TimeTeller can tell the current virtual time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// Named describes an object that has a name.
type Named interface {
	Name() string
}

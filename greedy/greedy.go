// Package greedy assigns layers to devices one at a time, choosing for each
// layer the device on which it would finish earliest.
package greedy

import (
	"github.com/go-logr/logr"
	"github.com/sarchlab/partsim/device"
	"github.com/sarchlab/partsim/graph"
	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
)

// A Strategy makes one irrevocable device decision per layer. It does not
// backtrack and gives no optimality guarantee.
type Strategy struct {
	log logr.Logger
}

// NewStrategy creates a Strategy.
func NewStrategy() *Strategy {
	return &Strategy{log: logr.Discard()}
}

// WithLogger sets the logger that receives every decision at V(1).
func (s *Strategy) WithLogger(l logr.Logger) *Strategy {
	s.log = l
	return s
}

// Assign runs the simulator, deciding the device of each layer when all of
// its dependencies have completed. The chosen assignment is left on the
// simulator's layers.
func (s *Strategy) Assign(simulator *timing.Simulator) timing.Result {
	return simulator.Run(func(l *graph.Layer) *device.Device {
		d, end := s.decide(simulator, l)

		s.log.V(1).Info("layer placed",
			"layer", l.Name, "device", d.Name(), "end", float64(end))

		return d
	})
}

// decide returns the device on which l finishes earliest. Devices are tried
// from the earliest available one; the first minimum wins.
func (s *Strategy) decide(
	simulator *timing.Simulator,
	l *graph.Layer,
) (*device.Device, sim.VTimeInSec) {
	var (
		best    *device.Device
		bestEnd sim.VTimeInSec
	)

	for _, d := range simulator.Devices().ByAvailableTime() {
		end := simulator.Finish(l, d)
		if best == nil || end < bestEnd {
			best = d
			bestEnd = end
		}
	}

	return best, bestEnd
}

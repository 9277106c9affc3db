package timing

import (
	"strconv"
	"strings"

	"github.com/sarchlab/partsim/device"
	"github.com/sarchlab/partsim/graph"
	"github.com/sarchlab/partsim/sim"
)

// An Assignment maps every layer ID to a device ID. Entries of the source and
// the sink are ignored by the simulator.
type Assignment []int

// NewAssignment creates an assignment with every layer unassigned.
func NewAssignment(numLayers int) Assignment {
	a := make(Assignment, numLayers)
	for i := range a {
		a[i] = graph.Unassigned
	}

	return a
}

// Clone returns a copy of the assignment.
func (a Assignment) Clone() Assignment {
	return append(Assignment(nil), a...)
}

// String formats the device IDs like (0, 1, 1).
func (a Assignment) String() string {
	parts := make([]string, len(a))
	for i, d := range a {
		parts[i] = strconv.Itoa(d)
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// Describe maps layer names to device names.
func (a Assignment) Describe(
	g *graph.Graph,
	r *device.Registry,
) map[string]string {
	out := make(map[string]string, len(a))
	for id, d := range a {
		if d == graph.Unassigned {
			continue
		}

		out[g.Layer(id).Name] = r.Device(d).Name()
	}

	return out
}

// Result is the outcome of one simulation run.
type Result struct {
	Assignment Assignment

	// EndTimes holds the end time of every layer that feeds the sink.
	EndTimes map[string]sim.VTimeInSec

	// Makespan is when the last layer feeding the sink finishes.
	Makespan sim.VTimeInSec
}

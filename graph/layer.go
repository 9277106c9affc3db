package graph

import "github.com/sarchlab/partsim/sim"

// Names of the sentinel layers every graph must contain.
const (
	SourceName = "input"
	SinkName   = "output"
)

// Unassigned marks a layer that has no device yet.
const Unassigned = -1

// A Layer is a unit of computation with data dependencies on other layers.
type Layer struct {
	ID   int
	Name string

	// Dependencies and Next hold layer IDs in the order the edges were
	// declared.
	Dependencies []int
	Next         []int

	// Size is the number of bytes the layer outputs.
	Size     float64
	MACs     float64
	Priority float64

	AssignedDevice int
	Completed      bool
	EndTime        sim.VTimeInSec
}

func newLayer(id int, name string) *Layer {
	return &Layer{
		ID:             id,
		Name:           name,
		Priority:       1,
		AssignedDevice: Unassigned,
	}
}

// Complete marks the layer as finished at the given time. A layer can only
// complete once per run.
func (l *Layer) Complete(endTime sim.VTimeInSec) {
	if l.Completed {
		panic("layer " + l.Name + " completed twice in one run")
	}

	l.EndTime = endTime
	l.Completed = true
}

func (l *Layer) reset() {
	l.Completed = false
	l.EndTime = 0
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}

	return false
}

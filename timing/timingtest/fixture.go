// Package timingtest builds small graphs and device sets for tests.
package timingtest

import (
	"strconv"

	"github.com/sarchlab/partsim/device"
	"github.com/sarchlab/partsim/graph"
	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
)

// A Fixture describes a graph, per-device execution times and simulator
// parameters. Layers without an explicit time take 0 on every device.
type Fixture struct {
	numDevices int
	edges      [][2]string
	times      map[string][]float64
	sizes      map[string]float64
	priorities map[string]float64
	builder    timing.Builder
}

// New creates a fixture with numDevices devices named "0".."N-1".
func New(numDevices int) *Fixture {
	return &Fixture{
		numDevices: numDevices,
		times:      make(map[string][]float64),
		sizes:      make(map[string]float64),
		priorities: make(map[string]float64),
		builder:    timing.MakeBuilder(),
	}
}

// Edge adds a dependency edge.
func (f *Fixture) Edge(src, dst string) *Fixture {
	f.edges = append(f.edges, [2]string{src, dst})
	return f
}

// Chain adds edges between consecutive layers.
func (f *Fixture) Chain(layers ...string) *Fixture {
	for i := 1; i < len(layers); i++ {
		f.Edge(layers[i-1], layers[i])
	}

	return f
}

// Time sets the execution time of a layer. A single value applies to all
// devices; otherwise one value per device is expected.
func (f *Fixture) Time(layer string, perDevice ...float64) *Fixture {
	f.times[layer] = perDevice
	return f
}

// Size sets the output size of a layer.
func (f *Fixture) Size(layer string, size float64) *Fixture {
	f.sizes[layer] = size
	return f
}

// Priority sets the priority of a layer.
func (f *Fixture) Priority(layer string, p float64) *Fixture {
	f.priorities[layer] = p
	return f
}

// Bandwidth sets the transfer bandwidth.
func (f *Fixture) Bandwidth(bw float64) *Fixture {
	f.builder = f.builder.WithBandwidth(bw)
	return f
}

// IgnoreLatency forces transfer latencies to zero.
func (f *Fixture) IgnoreLatency() *Fixture {
	f.builder = f.builder.WithIgnoreLatency(true)
	return f
}

// Build creates the simulator.
func (f *Fixture) Build() (*timing.Simulator, error) {
	b := graph.NewBuilder()
	for _, e := range f.edges {
		b.AddEdge(e[0], e[1])
	}

	for name, size := range f.sizes {
		if err := b.SetSizeAndMACs(name, size, 0); err != nil {
			return nil, err
		}
	}

	for name, p := range f.priorities {
		if err := b.SetPriority(name, p); err != nil {
			return nil, err
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, err
	}

	devices := make([]*device.Device, 0, f.numDevices)
	for i := 0; i < f.numDevices; i++ {
		p := device.NewProfile("fixture")
		for _, l := range g.Layers() {
			p.Set(l.Name, device.ProfileEntry{
				Time: sim.VTimeInSec(f.timeOf(l.Name, i)),
				Size: l.Size,
			})
		}

		devices = append(devices, device.NewDevice(strconv.Itoa(i), p))
	}

	r, err := device.NewRegistry(devices...)
	if err != nil {
		return nil, err
	}

	return f.builder.Build(g, r)
}

// MustBuild is Build that panics on error.
func (f *Fixture) MustBuild() *timing.Simulator {
	s, err := f.Build()
	if err != nil {
		panic(err)
	}

	return s
}

func (f *Fixture) timeOf(layer string, deviceID int) float64 {
	t, ok := f.times[layer]
	switch {
	case !ok:
		return 0
	case len(t) == 1:
		return t[0]
	default:
		return t[deviceID]
	}
}

// AssignByName builds an assignment from layer names to device IDs. Layers
// not listed stay unassigned.
func AssignByName(s *timing.Simulator, m map[string]int) timing.Assignment {
	g := s.Graph()
	a := timing.NewAssignment(g.Len())

	for name, d := range m {
		l, err := g.LayerByName(name)
		if err != nil {
			panic(err)
		}

		a[l.ID] = d
	}

	return a
}

// AllOn assigns every placeable layer to one device.
func AllOn(s *timing.Simulator, deviceID int) timing.Assignment {
	g := s.Graph()
	a := timing.NewAssignment(g.Len())

	for _, id := range g.Placeable() {
		a[id] = deviceID
	}

	return a
}

package timing

import (
	"github.com/sarchlab/partsim/device"
	"github.com/sarchlab/partsim/graph"
	"github.com/sarchlab/partsim/sim"
)

// Builder can build Simulators.
type Builder struct {
	bandwidth     float64
	ignoreLatency bool
}

// MakeBuilder creates a Builder with the default bandwidth.
func MakeBuilder() Builder {
	return Builder{bandwidth: DefaultBandwidth}
}

// WithBandwidth sets the transfer bandwidth in bytes per second.
func (b Builder) WithBandwidth(bandwidth float64) Builder {
	b.bandwidth = bandwidth
	return b
}

// WithIgnoreLatency forces all transfer latencies to zero.
func (b Builder) WithIgnoreLatency(ignore bool) Builder {
	b.ignoreLatency = ignore
	return b
}

// Build validates the parameters against the models and creates a Simulator.
func (b Builder) Build(g *graph.Graph, r *device.Registry) (*Simulator, error) {
	if !validBandwidth(b.bandwidth) {
		return nil, &InvalidBandwidthError{Bandwidth: b.bandwidth}
	}

	if r.Len() == 0 {
		return nil, ErrNoDevices
	}

	executed := make([]string, 0, g.Len())
	for _, id := range g.ExecutionOrder() {
		executed = append(executed, g.Layer(id).Name)
	}

	err := r.CheckCoverage(executed)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		HookableBase:  sim.NewHookableBase(),
		graph:         g,
		devices:       r,
		bandwidth:     b.bandwidth,
		ignoreLatency: b.ignoreLatency,
	}, nil
}

// Package timing predicts when each layer of a partitioned graph finishes.
package timing

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sarchlab/partsim/device"
	"github.com/sarchlab/partsim/graph"
	"github.com/sarchlab/partsim/sim"
)

// DefaultBandwidth is the transfer bandwidth in bytes per second used when
// none is configured.
const DefaultBandwidth = 200.0

// Hook positions raised by the Simulator.
var (
	// HookPosLayerExecuted fires after a layer is committed to a device. The
	// item is a LayerExecution.
	HookPosLayerExecuted = &sim.HookPos{Name: "LayerExecuted"}

	// HookPosRunEnd fires when a run completes. The item is a Result.
	HookPosRunEnd = &sim.HookPos{Name: "RunEnd"}
)

// LayerExecution describes where and when a layer ran.
type LayerExecution struct {
	Layer  *graph.Layer
	Device *device.Device
	Start  sim.VTimeInSec
	End    sim.VTimeInSec
}

// DecideFunc chooses the device of a layer whose dependencies have all
// completed.
type DecideFunc func(l *graph.Layer) *device.Device

// A Simulator propagates completion times through a graph for a device
// assignment. It mutates the layers and devices it is built with and is not
// safe for concurrent use; use Fork to get an independent simulator.
type Simulator struct {
	*sim.HookableBase

	graph         *graph.Graph
	devices       *device.Registry
	bandwidth     float64
	ignoreLatency bool
}

// Graph returns the graph being simulated.
func (s *Simulator) Graph() *graph.Graph {
	return s.graph
}

// Devices returns the devices being simulated.
func (s *Simulator) Devices() *device.Registry {
	return s.devices
}

// Bandwidth returns the transfer bandwidth in bytes per second.
func (s *Simulator) Bandwidth() float64 {
	return s.bandwidth
}

// IgnoreLatency tells if transfer latencies are forced to zero.
func (s *Simulator) IgnoreLatency() bool {
	return s.ignoreLatency
}

// Fork returns a simulator with private copies of the layer and device state.
// Hooks are not carried over.
func (s *Simulator) Fork() *Simulator {
	return &Simulator{
		HookableBase:  sim.NewHookableBase(),
		graph:         s.graph.Clone(),
		devices:       s.devices.Clone(),
		bandwidth:     s.bandwidth,
		ignoreLatency: s.ignoreLatency,
	}
}

// CleanUp resets the layers and devices so that a new run can start.
func (s *Simulator) CleanUp() {
	s.graph.CleanUp()
	s.devices.CleanUp()
}

// TransferLatency returns how long the output of dep takes to reach d.
func (s *Simulator) TransferLatency(
	dep *graph.Layer,
	d *device.Device,
) sim.VTimeInSec {
	if s.ignoreLatency || dep.AssignedDevice == d.ID {
		return 0
	}

	return sim.VTimeInSec(dep.Size / s.bandwidth)
}

// ReadyTime returns the earliest time l could start on d: when d is free and
// all inputs have arrived.
func (s *Simulator) ReadyTime(l *graph.Layer, d *device.Device) sim.VTimeInSec {
	ready := d.AvailableTime

	for _, depID := range l.Dependencies {
		dep := s.graph.Layer(depID)
		ready = sim.Max(ready, dep.EndTime+s.TransferLatency(dep, d))
	}

	return ready
}

// Finish returns when l would finish on d, without committing anything.
func (s *Simulator) Finish(l *graph.Layer, d *device.Device) sim.VTimeInSec {
	return s.ReadyTime(l, d) + d.MustExecTime(l.Name)
}

// Commit places l on d, finishing at endTime.
func (s *Simulator) Commit(l *graph.Layer, d *device.Device, endTime sim.VTimeInSec) {
	l.AssignedDevice = d.ID
	l.Complete(endTime)
	d.Occupy(l.Name, endTime)

	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosLayerExecuted,
		Now:    endTime,
		Item: LayerExecution{
			Layer:  l,
			Device: d,
			Start:  endTime - d.MustExecTime(l.Name),
			End:    endTime,
		},
	})
}

// Apply validates an assignment and stores it on the layers.
func (s *Simulator) Apply(a Assignment) error {
	if len(a) != s.graph.Len() {
		return fmt.Errorf("timing: assignment covers %d of %d layers",
			len(a), s.graph.Len())
	}

	for _, id := range s.graph.Placeable() {
		l := s.graph.Layer(id)

		switch d := a[id]; {
		case d == graph.Unassigned:
			return &IncompleteAssignmentError{Layer: l.Name}
		case d < 0 || d >= s.devices.Len():
			return &device.UnknownDeviceError{Device: strconv.Itoa(d)}
		}
	}

	for id, d := range a {
		s.graph.Layer(id).AssignedDevice = d
	}

	s.graph.Source().AssignedDevice = s.devices.Baseline().ID
	s.graph.Sink().AssignedDevice = graph.Unassigned

	return nil
}

// Simulate runs the graph under a complete assignment. It cleans up the
// state of the previous run first, so repeated calls are deterministic.
func (s *Simulator) Simulate(a Assignment) (Result, error) {
	err := s.Apply(a)
	if err != nil {
		return Result{}, err
	}

	return s.Run(func(l *graph.Layer) *device.Device {
		return s.devices.Device(l.AssignedDevice)
	}), nil
}

// Run propagates completion times in execution order, asking decide for the
// device of every layer except the source, which always runs on the baseline
// device starting at time 0.
func (s *Simulator) Run(decide DecideFunc) Result {
	s.CleanUp()

	result := Result{EndTimes: make(map[string]sim.VTimeInSec)}
	source := s.graph.Source()

	for _, id := range s.graph.ExecutionOrder() {
		l := s.graph.Layer(id)

		d := s.devices.Baseline()
		if id != source.ID {
			d = decide(l)
		}

		s.Commit(l, d, s.Finish(l, d))

		for _, next := range s.graph.Successors(id) {
			if s.graph.IsSink(next) {
				result.EndTimes[l.Name] = l.EndTime
				result.Makespan = sim.Max(result.Makespan, l.EndTime)
			}
		}
	}

	result.Assignment = s.CurrentAssignment()

	if s.NumHooks() > 0 {
		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosRunEnd,
			Now:    result.Makespan,
			Item:   result,
		})
	}

	return result
}

// CurrentAssignment reads the device of every layer.
func (s *Simulator) CurrentAssignment() Assignment {
	a := NewAssignment(s.graph.Len())
	for _, l := range s.graph.Layers() {
		a[l.ID] = l.AssignedDevice
	}

	return a
}

func validBandwidth(bw float64) bool {
	return !math.IsNaN(bw) && bw > 0
}

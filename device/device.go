// Package device models the compute devices a graph is partitioned across.
package device

import (
	"fmt"

	"github.com/sarchlab/partsim/sim"
)

// A Device is a compute resource with its own execution-time profile and a
// single serial execution clock.
type Device struct {
	ID      int
	name    string
	Profile *Profile

	// AvailableTime is when the device can start its next layer. It never
	// decreases within a run.
	AvailableTime  sim.VTimeInSec
	AssignedLayers []string
}

// NewDevice creates a device. The ID is assigned on registration.
func NewDevice(name string, profile *Profile) *Device {
	return &Device{
		ID:      -1,
		name:    name,
		Profile: profile,
	}
}

// Name returns the name of the device.
func (d *Device) Name() string {
	return d.name
}

// ExecTime returns how long the layer takes on this device.
func (d *Device) ExecTime(layer string) (sim.VTimeInSec, error) {
	e, ok := d.Profile.Entry(layer)
	if !ok {
		return 0, &MissingProfileEntryError{Device: d.name, Layer: layer}
	}

	return e.Time, nil
}

// MustExecTime is ExecTime for layers already validated against the profile.
func (d *Device) MustExecTime(layer string) sim.VTimeInSec {
	t, err := d.ExecTime(layer)
	if err != nil {
		panic(err)
	}

	return t
}

// Occupy advances the device clock to endTime and records the layer.
func (d *Device) Occupy(layer string, endTime sim.VTimeInSec) {
	if endTime < d.AvailableTime {
		panic(fmt.Sprintf(
			"device %s: clock moving backwards from %.10f to %.10f",
			d.name, d.AvailableTime, endTime))
	}

	d.AvailableTime = endTime
	d.AssignedLayers = append(d.AssignedLayers, layer)
}

// Reset brings the device back to time 0 with nothing assigned.
func (d *Device) Reset() {
	d.AvailableTime = 0
	d.AssignedLayers = d.AssignedLayers[:0]
}

// MemoryStats summarizes the memory demand of the layers on a device.
type MemoryStats struct {
	CPUSum   float64
	CPUPeak  float64
	CUDASum  float64
	CUDAPeak float64
}

// MACsStats summarizes the compute demand of the layers on a device.
type MACsStats struct {
	Sum  float64
	Peak float64
}

// MemoryConsumption sums and peaks the profiled memory of the assigned
// layers.
func (d *Device) MemoryConsumption() MemoryStats {
	var s MemoryStats

	for _, name := range d.AssignedLayers {
		e, _ := d.Profile.Entry(name)

		s.CPUSum += e.CPUMem
		s.CUDASum += e.CUDAMem

		if e.CPUMem > s.CPUPeak {
			s.CPUPeak = e.CPUMem
		}

		if e.CUDAMem > s.CUDAPeak {
			s.CUDAPeak = e.CUDAMem
		}
	}

	return s
}

// MACs sums and peaks the profiled MACs of the assigned layers.
func (d *Device) MACs() MACsStats {
	var s MACsStats

	for _, name := range d.AssignedLayers {
		e, _ := d.Profile.Entry(name)

		s.Sum += e.MACs
		if e.MACs > s.Peak {
			s.Peak = e.MACs
		}
	}

	return s
}

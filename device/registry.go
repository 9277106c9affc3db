package device

import "sort"

// A Registry owns the devices of a run. Device IDs are registration indices;
// the first registered device is the baseline that runs the source layer.
type Registry struct {
	devices []*Device
	index   map[string]int
}

// NewRegistry registers the given devices in order.
func NewRegistry(devices ...*Device) (*Registry, error) {
	r := &Registry{index: make(map[string]int)}

	for _, d := range devices {
		if _, dup := r.index[d.Name()]; dup {
			return nil, &DuplicateDeviceError{Device: d.Name()}
		}

		d.ID = len(r.devices)
		r.index[d.Name()] = d.ID
		r.devices = append(r.devices, d)
	}

	return r, nil
}

// Len returns the number of devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// Device returns the device with the given ID.
func (r *Registry) Device(id int) *Device {
	return r.devices[id]
}

// Devices returns all devices in registration order.
func (r *Registry) Devices() []*Device {
	return r.devices
}

// Baseline returns the device that runs the source layer.
func (r *Registry) Baseline() *Device {
	return r.devices[0]
}

// Lookup finds a device by name.
func (r *Registry) Lookup(name string) (*Device, error) {
	id, ok := r.index[name]
	if !ok {
		return nil, &UnknownDeviceError{Device: name}
	}

	return r.devices[id], nil
}

// ByAvailableTime returns the devices ordered by ascending available time.
// Devices that become free at the same time keep registration order.
func (r *Registry) ByAvailableTime() []*Device {
	sorted := make([]*Device, len(r.devices))
	copy(sorted, r.devices)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AvailableTime < sorted[j].AvailableTime
	})

	return sorted
}

// CheckCoverage makes sure every device can execute every given layer.
func (r *Registry) CheckCoverage(layers []string) error {
	for _, d := range r.devices {
		for _, l := range layers {
			if _, err := d.ExecTime(l); err != nil {
				return err
			}
		}
	}

	return nil
}

// CleanUp resets every device clock.
func (r *Registry) CleanUp() {
	for _, d := range r.devices {
		d.Reset()
	}
}

// Clone returns a registry with private device clocks. Profiles are shared.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		devices: make([]*Device, len(r.devices)),
		index:   r.index,
	}

	for i, d := range r.devices {
		copied := *d
		copied.AssignedLayers = append([]string(nil), d.AssignedLayers...)
		c.devices[i] = &copied
	}

	return c
}

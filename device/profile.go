package device

import "github.com/sarchlab/partsim/sim"

// A ProfileEntry is the measured behavior of one layer on one device.
type ProfileEntry struct {
	Time    sim.VTimeInSec
	CPUMem  float64
	CUDAMem float64
	Size    float64
	MACs    float64
}

// A Profile maps layer names to their measured behavior on a device. It is
// read-only once loaded and can be shared.
type Profile struct {
	Source  string
	entries map[string]ProfileEntry
	names   []string
}

// NewProfile creates an empty profile. Source names where it was loaded from
// and is only used in messages.
func NewProfile(source string) *Profile {
	return &Profile{
		Source:  source,
		entries: make(map[string]ProfileEntry),
	}
}

// Set records the entry of a layer. Later entries replace earlier ones.
func (p *Profile) Set(layer string, e ProfileEntry) {
	if _, ok := p.entries[layer]; !ok {
		p.names = append(p.names, layer)
	}

	p.entries[layer] = e
}

// Entry returns the entry of a layer.
func (p *Profile) Entry(layer string) (ProfileEntry, bool) {
	e, ok := p.entries[layer]
	return e, ok
}

// Layers returns the profiled layer names in the order they were added.
func (p *Profile) Layers() []string {
	return p.names
}

// Package loader reads graphs, device profiles, priorities and partitions
// from CSV files.
//
// Every file starts with a header row. The formats are:
//
//	dependencies: source, destination[, size]
//	profile:      layer, time, cpu_mem, cuda_mem, size, macs
//	priorities:   layer, priority
//	partition:    layer, device
package loader

import (
	"errors"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/sarchlab/partsim/device"
	"github.com/sarchlab/partsim/graph"
	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
	"github.com/spf13/afero"
)

// Sources names the files that describe one problem.
type Sources struct {
	Dependencies string

	// Profiles holds one profile per device. The first one also provides
	// the size and MACs of every layer.
	Profiles []string

	// DeviceNames defaults to "0".."N-1".
	DeviceNames []string

	// Priorities is optional. Layers without a priority get 1.
	Priorities string
}

// A Loader reads input files from a filesystem.
type Loader struct {
	fs  afero.Fs
	log logr.Logger
}

// New creates a Loader that reads from fs.
func New(fs afero.Fs) *Loader {
	return &Loader{fs: fs, log: logr.Discard()}
}

// NewOsLoader creates a Loader that reads from the operating system.
func NewOsLoader() *Loader {
	return New(afero.NewOsFs())
}

// WithLogger sets the logger.
func (l *Loader) WithLogger(log logr.Logger) *Loader {
	l.log = log
	return l
}

// Load builds the graph and the device registry.
func (l *Loader) Load(src Sources) (*graph.Graph, *device.Registry, error) {
	if len(src.Profiles) == 0 {
		return nil, nil, errors.New("loader: no profile given")
	}

	names := src.DeviceNames
	if len(names) == 0 {
		for i := range src.Profiles {
			names = append(names, strconv.Itoa(i))
		}
	}

	if len(names) != len(src.Profiles) {
		return nil, nil, errors.New(
			"loader: number of device names does not match number of profiles")
	}

	b, err := l.loadDependencies(src.Dependencies)
	if err != nil {
		return nil, nil, err
	}

	profiles := make([]*device.Profile, 0, len(src.Profiles))
	for _, path := range src.Profiles {
		p, err := l.LoadProfile(path, b)
		if err != nil {
			return nil, nil, err
		}

		profiles = append(profiles, p)
	}

	if err := applySizeAndMACs(b, profiles[0]); err != nil {
		return nil, nil, err
	}

	if src.Priorities != "" {
		if err := l.loadPriorities(src.Priorities, b); err != nil {
			return nil, nil, err
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, nil, err
	}

	devices := make([]*device.Device, len(profiles))
	for i, p := range profiles {
		devices[i] = device.NewDevice(names[i], p)
	}

	r, err := device.NewRegistry(devices...)
	if err != nil {
		return nil, nil, err
	}

	l.log.V(1).Info("inputs loaded", "layers", g.Len(), "devices", r.Len())

	return g, r, nil
}

func (l *Loader) loadDependencies(path string) (*graph.Builder, error) {
	records, err := l.readCSV(path, 2, 3)
	if err != nil {
		return nil, err
	}

	b := graph.NewBuilder()
	for _, rec := range records {
		b.AddEdge(rec.fields[0], rec.fields[1])
	}

	return b, nil
}

// LoadProfile reads a device profile. Rows for layers the builder does not
// know are rejected, as are negative or non-finite values.
func (l *Loader) LoadProfile(path string, b *graph.Builder) (*device.Profile, error) {
	records, err := l.readCSV(path, 6, 6)
	if err != nil {
		return nil, err
	}

	p := device.NewProfile(path)
	for _, rec := range records {
		name := rec.fields[0]
		if !b.HasLayer(name) {
			return nil, &RowError{
				File: path,
				Row:  rec.row,
				Err:  &graph.UnknownLayerError{Layer: name},
			}
		}

		var values [5]float64
		for i, what := range []string{"time", "cpu_mem", "cuda_mem", "size", "macs"} {
			values[i], err = parseAmount(path, rec, i+1, what)
			if err != nil {
				return nil, err
			}
		}

		p.Set(name, device.ProfileEntry{
			Time:    sim.VTimeInSec(values[0]),
			CPUMem:  values[1],
			CUDAMem: values[2],
			Size:    values[3],
			MACs:    values[4],
		})
	}

	return p, nil
}

func applySizeAndMACs(b *graph.Builder, reference *device.Profile) error {
	for _, name := range reference.Layers() {
		e, _ := reference.Entry(name)
		if err := b.SetSizeAndMACs(name, e.Size, e.MACs); err != nil {
			return err
		}
	}

	return nil
}

func (l *Loader) loadPriorities(path string, b *graph.Builder) error {
	records, err := l.readCSV(path, 2, 2)
	if err != nil {
		return err
	}

	for _, rec := range records {
		priority, err := parseFinite(path, rec, 1, "priority")
		if err != nil {
			return err
		}

		if err := b.SetPriority(rec.fields[0], priority); err != nil {
			return &RowError{File: path, Row: rec.row, Err: err}
		}
	}

	return nil
}

// LoadPartition reads a device assignment. The device column holds either a
// device name or a device index. Layers missing from the file stay
// unassigned, which the simulator rejects if they execute.
func (l *Loader) LoadPartition(
	path string,
	g *graph.Graph,
	r *device.Registry,
) (timing.Assignment, error) {
	records, err := l.readCSV(path, 2, 2)
	if err != nil {
		return nil, err
	}

	a := timing.NewAssignment(g.Len())
	for _, rec := range records {
		layer, err := g.LayerByName(rec.fields[0])
		if err != nil {
			return nil, &RowError{File: path, Row: rec.row, Err: err}
		}

		d, err := lookupDevice(r, rec.fields[1])
		if err != nil {
			return nil, &RowError{File: path, Row: rec.row, Err: err}
		}

		a[layer.ID] = d.ID
	}

	return a, nil
}

func lookupDevice(r *device.Registry, key string) (*device.Device, error) {
	d, err := r.Lookup(key)
	if err == nil {
		return d, nil
	}

	id, convErr := strconv.Atoi(key)
	if convErr != nil || id < 0 || id >= r.Len() {
		return nil, err
	}

	return r.Device(id), nil
}

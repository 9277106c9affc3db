package simulation

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/rs/xid"
	"github.com/sarchlab/partsim/config"
	"github.com/sarchlab/partsim/datarecording"
	"github.com/sarchlab/partsim/loader"
	"github.com/sarchlab/partsim/monitoring"
	"github.com/sarchlab/partsim/report"
	"github.com/sarchlab/partsim/timing"
	"github.com/sarchlab/partsim/tracing"
	"github.com/spf13/afero"
)

// Builder can be used to build a simulation.
type Builder struct {
	cfg      *config.Config
	fs       afero.Fs
	log      logr.Logger
	out      io.Writer
	recorder datarecording.DataRecorder
}

// MakeBuilder creates a new builder that reads inputs from the operating
// system and prints to stdout.
func MakeBuilder() Builder {
	return Builder{
		fs:  afero.NewOsFs(),
		log: logr.Discard(),
		out: os.Stdout,
	}
}

// WithConfig sets the run parameters.
func (b Builder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithFs sets the filesystem inputs and traces live on.
func (b Builder) WithFs(fs afero.Fs) Builder {
	b.fs = fs
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l logr.Logger) Builder {
	b.log = l
	return b
}

// WithOutput sets where reports are printed.
func (b Builder) WithOutput(w io.Writer) Builder {
	b.out = w
	return b
}

// WithRecorder records into the given recorder instead of creating a
// database file.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// Build loads the inputs and prepares everything a run needs. Invalid
// configurations and inputs are reported before anything is simulated.
func (b Builder) Build() (*Simulation, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("simulation: no configuration given")
	}

	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:     xid.New().String(),
		cfg:    b.cfg,
		log:    b.log,
		loader: loader.New(b.fs).WithLogger(b.log),
		out:    report.NewPrinter(b.out),
	}

	g, r, err := s.loader.Load(loader.Sources{
		Dependencies: b.cfg.DependencySource,
		Profiles:     b.cfg.ProfileSources,
		DeviceNames:  b.cfg.DeviceNames,
		Priorities:   b.cfg.PrioritySource,
	})
	if err != nil {
		return nil, err
	}

	s.simulator, err = timing.MakeBuilder().
		WithBandwidth(b.cfg.Bandwidth).
		WithIgnoreLatency(b.cfg.IgnoreLatency).
		Build(g, r)
	if err != nil {
		return nil, err
	}

	s.busyTime = tracing.NewBusyTimeTracer(nil)
	tracing.CollectTrace(s.simulator, s.busyTime)

	if err := b.buildTraceWriter(s); err != nil {
		return nil, err
	}

	if err := b.buildRecorder(s); err != nil {
		return nil, err
	}

	if err := b.buildMonitor(s); err != nil {
		return nil, err
	}

	return s, nil
}

func (b Builder) buildTraceWriter(s *Simulation) error {
	if b.cfg.TraceFile == "" {
		return nil
	}

	s.traceWriter = tracing.NewCSVTraceWriter(b.fs, b.cfg.TraceFile)
	if err := s.traceWriter.Init(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Trace is collected in %s\n", s.traceWriter.Path())
	tracing.CollectTrace(s.simulator, s.traceWriter)

	return nil
}

func (b Builder) buildRecorder(s *Simulation) error {
	switch {
	case b.recorder != nil:
		s.recorder = b.recorder
	case b.cfg.Record:
		path := b.cfg.RecordFile
		if path == "" {
			path = "partsim_" + s.id
		}

		r, err := datarecording.New(path)
		if err != nil {
			return err
		}

		s.recorder = r
	default:
		return nil
	}

	tracing.CollectTrace(s.simulator, tracing.NewDBTracer(s.recorder))

	return nil
}

func (b Builder) buildMonitor(s *Simulation) error {
	if !b.cfg.Monitor {
		return nil
	}

	s.monitor = monitoring.NewMonitor().
		WithPortNumber(b.cfg.MonitorPort).
		WithBrowser(b.cfg.OpenBrowser)
	s.monitor.RegisterInspectable(s)

	url, err := s.monitor.StartServer()
	if err != nil {
		return err
	}

	s.monitorURL = url
	s.log.Info("monitor started", "url", url)

	return nil
}

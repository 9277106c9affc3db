// Package simulation wires inputs, the timing model, strategies and outputs
// into one run.
package simulation

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/sarchlab/partsim/config"
	"github.com/sarchlab/partsim/datarecording"
	"github.com/sarchlab/partsim/exhaustive"
	"github.com/sarchlab/partsim/greedy"
	"github.com/sarchlab/partsim/loader"
	"github.com/sarchlab/partsim/monitoring"
	"github.com/sarchlab/partsim/report"
	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
	"github.com/sarchlab/partsim/tracing"
)

// A Simulation holds the loaded problem and the outputs of one run.
type Simulation struct {
	id  string
	cfg *config.Config
	log logr.Logger

	loader    *loader.Loader
	simulator *timing.Simulator
	out       *report.Printer

	busyTime    *tracing.BusyTimeTracer
	traceWriter *tracing.CSVTraceWriter
	recorder    datarecording.DataRecorder
	monitor     *monitoring.Monitor
	monitorURL  string
	searcher    *exhaustive.Searcher
}

// Status is what the monitor shows about the loaded problem.
type Status struct {
	ID            string
	Layers        int
	Devices       []string
	Bandwidth     float64
	IgnoreLatency bool
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Name returns the name the simulation is monitored under.
func (s *Simulation) Name() string {
	return "Simulation"
}

// Snapshot returns the Status of the simulation.
func (s *Simulation) Snapshot() any {
	st := &Status{
		ID:            s.id,
		Layers:        s.simulator.Graph().Len(),
		Bandwidth:     s.simulator.Bandwidth(),
		IgnoreLatency: s.simulator.IgnoreLatency(),
	}

	for _, d := range s.simulator.Devices().Devices() {
		st.Devices = append(st.Devices, d.Name())
	}

	return st
}

// Simulator returns the timing simulator of the loaded problem.
func (s *Simulation) Simulator() *timing.Simulator {
	return s.simulator
}

// Recorder returns the data recorder, if recording is enabled.
func (s *Simulation) Recorder() datarecording.DataRecorder {
	return s.recorder
}

// Monitor returns the monitor, if monitoring is enabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitor, if monitoring is enabled.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// BusyTime returns the tracer that measures device busy time.
func (s *Simulation) BusyTime() *tracing.BusyTimeTracer {
	return s.busyTime
}

// RunSimulate times the partition named in the configuration.
func (s *Simulation) RunSimulate() (timing.Result, error) {
	a, err := s.loader.LoadPartition(
		s.cfg.PartitionSource, s.simulator.Graph(), s.simulator.Devices())
	if err != nil {
		return timing.Result{}, err
	}

	res, err := s.simulator.Simulate(a)
	if err != nil {
		return timing.Result{}, err
	}

	s.log.Info("simulation finished", "makespan", float64(res.Makespan))
	s.printResult(res)

	return res, nil
}

// RunGreedy builds and times a greedy assignment.
func (s *Simulation) RunGreedy() timing.Result {
	res := greedy.NewStrategy().
		WithLogger(s.log.WithName("greedy")).
		Assign(s.simulator)

	s.log.Info("greedy assignment finished", "makespan", float64(res.Makespan))
	s.printResult(res)

	return res
}

// RunSearch times every assignment and reports the best one.
func (s *Simulation) RunSearch(ctx context.Context) (exhaustive.Best, error) {
	if s.searcher == nil {
		s.searcher = s.buildSearcher()
	}

	best, err := s.searcher.Search(ctx, s.simulator)
	if err != nil {
		return exhaustive.Best{}, err
	}

	s.out.SearchResult(float64(best.Makespan), best.Evaluated, best.Total)
	s.printResult(best.Result)

	return best, nil
}

func (s *Simulation) buildSearcher() *exhaustive.Searcher {
	searcher := exhaustive.MakeBuilder().
		WithNumWorkers(s.cfg.NumWorkers).
		WithFeedbackInterval(s.cfg.FeedbackInterval).
		WithDetailed(s.cfg.Detailed).
		WithLogger(s.log.WithName("search")).
		WithMonitor(s.monitor).
		WithRecorder(s.recorder).
		Build()

	searcher.AcceptHook(sim.HookFunc(s.printSearchProgress))

	return searcher
}

func (s *Simulation) printSearchProgress(ctx sim.HookCtx) {
	switch ctx.Pos {
	case exhaustive.HookPosCandidate:
		c := ctx.Item.(exhaustive.Candidate)
		s.out.Candidate(c.Assignment, float64(c.Makespan))
	case exhaustive.HookPosProgress:
		if !s.cfg.Detailed {
			s.out.Progress(ctx.Item.(float64))
		}
	}
}

func (s *Simulation) printResult(res timing.Result) {
	r := s.simulator.Devices()

	s.out.TimeResult(res)
	s.out.Assignment(s.simulator.Graph(), r, res.Assignment)
	s.out.Memory(r)
	s.out.MACs(r)
	s.out.BusyTime(s.busyTime)
}

// Terminate flushes and closes the outputs of the simulation.
func (s *Simulation) Terminate() error {
	var firstErr error

	if s.traceWriter != nil {
		firstErr = s.traceWriter.Close()
	}

	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := s.monitor.StopServer(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

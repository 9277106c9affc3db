package exhaustive

import (
	"runtime"

	"github.com/go-logr/logr"
	"github.com/sarchlab/partsim/datarecording"
	"github.com/sarchlab/partsim/monitoring"
	"github.com/sarchlab/partsim/sim"
)

// Builder can build Searchers.
type Builder struct {
	numWorkers       int
	chunkSize        uint64
	feedbackInterval float64
	detailed         bool
	log              logr.Logger
	monitor          *monitoring.Monitor
	recorder         datarecording.DataRecorder
}

// MakeBuilder creates a Builder with one worker per CPU and progress
// feedback every 10% of the search space.
func MakeBuilder() Builder {
	return Builder{
		numWorkers:       runtime.GOMAXPROCS(0),
		feedbackInterval: 0.1,
		log:              logr.Discard(),
	}
}

// WithNumWorkers sets how many assignments are simulated concurrently.
func (b Builder) WithNumWorkers(n int) Builder {
	b.numWorkers = n
	return b
}

// WithChunkSize sets how many consecutive assignments a worker takes at a
// time. Zero picks a size from the search space and worker count.
func (b Builder) WithChunkSize(n uint64) Builder {
	b.chunkSize = n
	return b
}

// WithFeedbackInterval sets the fraction of the search space between two
// progress reports. Zero disables progress reports.
func (b Builder) WithFeedbackInterval(f float64) Builder {
	b.feedbackInterval = f
	return b
}

// WithDetailed makes the searcher report every candidate.
func (b Builder) WithDetailed(detailed bool) Builder {
	b.detailed = detailed
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l logr.Logger) Builder {
	b.log = l
	return b
}

// WithMonitor shows the search progress on a monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithRecorder records every candidate.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.numWorkers < 1 {
		panic("number of workers must be at least 1")
	}

	if b.feedbackInterval < 0 || b.feedbackInterval > 1 {
		panic("feedback interval must be within [0, 1]")
	}
}

// Build creates the Searcher.
func (b Builder) Build() *Searcher {
	b.parametersMustBeValid()

	s := &Searcher{
		HookableBase:     sim.NewHookableBase(),
		numWorkers:       b.numWorkers,
		chunkSize:        b.chunkSize,
		feedbackInterval: b.feedbackInterval,
		detailed:         b.detailed,
		log:              b.log,
		monitor:          b.monitor,
		recorder:         b.recorder,
	}

	if b.monitor != nil {
		b.monitor.RegisterInspectable(s)
	}

	return s
}

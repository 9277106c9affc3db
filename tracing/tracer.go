package tracing

import "github.com/sarchlab/partsim/timing"

// A Tracer can collect task traces.
type Tracer interface {
	// RecordTask receives a finished task.
	RecordTask(task Task)

	// EndRun is called once a run completes.
	EndRun(result timing.Result)
}

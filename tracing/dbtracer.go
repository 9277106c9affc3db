package tracing

import (
	"sync"

	"github.com/sarchlab/partsim/datarecording"
	"github.com/sarchlab/partsim/timing"
)

// Tables written by the DBTracer.
const (
	LayerTimesTable     = "layer_times"
	BestAssignmentTable = "best_assignment"
)

type layerTimeEntry struct {
	Run       int
	TaskID    string
	Layer     string
	Device    string
	StartTime float64
	EndTime   float64
}

type assignmentEntry struct {
	Run      int
	Layer    string
	Device   string
	Makespan float64
}

// DBTracer stores the layer timings of every run into a data recorder. The
// assignment of the last run is stored as well, since that is the one the
// simulator ends in.
type DBTracer struct {
	mu       sync.Mutex
	recorder datarecording.DataRecorder
	filter   TaskFilter
	run      int
	devices  map[string]string
}

// NewDBTracer creates a new DBTracer and its tables.
func NewDBTracer(recorder datarecording.DataRecorder) *DBTracer {
	recorder.CreateTable(LayerTimesTable, layerTimeEntry{})
	recorder.CreateTable(BestAssignmentTable, assignmentEntry{})

	return &DBTracer{
		recorder: recorder,
		devices:  make(map[string]string),
	}
}

// WithFilter only records the tasks the filter accepts.
func (t *DBTracer) WithFilter(f TaskFilter) *DBTracer {
	t.filter = f
	return t
}

// RecordTask records a task of the current run.
func (t *DBTracer) RecordTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.devices[task.What] = task.Where

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.recorder.InsertData(LayerTimesTable, layerTimeEntry{
		Run:       t.run,
		TaskID:    task.ID,
		Layer:     task.What,
		Device:    task.Where,
		StartTime: float64(task.StartTime),
		EndTime:   float64(task.EndTime),
	})
}

// EndRun records the assignment of the run and starts a new run.
func (t *DBTracer) EndRun(result timing.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for layer, dev := range t.devices {
		t.recorder.InsertData(BestAssignmentTable, assignmentEntry{
			Run:      t.run,
			Layer:    layer,
			Device:   dev,
			Makespan: float64(result.Makespan),
		})
	}

	t.recorder.Flush()

	t.run++
	t.devices = make(map[string]string)
}

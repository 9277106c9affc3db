package tracing

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/partsim/timing"
	"github.com/spf13/afero"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter is a task tracer that can store the tasks into a CSV file.
type CSVTraceWriter struct {
	fs   afero.Fs
	path string
	file afero.File

	tasks      []Task
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter. The ".csv" extension is
// added to path. An empty path picks a unique name.
func NewCSVTraceWriter(fs afero.Fs, path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		fs:         fs,
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the name of the trace file.
func (t *CSVTraceWriter) Path() string {
	return t.path + ".csv"
}

// Init creates the trace file. It refuses to overwrite an existing file.
func (t *CSVTraceWriter) Init() error {
	if t.path == "" {
		t.path = "partsim_trace_" + xid.New().String()
	}

	filename := t.Path()

	exists, err := afero.Exists(t.fs, filename)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := t.fs.Create(filename)
	if err != nil {
		return err
	}

	t.file = file

	fmt.Fprintf(file, "ID, Kind, What, Where, Start, End\n")

	atexit.Register(func() {
		_ = t.Close()
	})

	return nil
}

// RecordTask buffers a task.
func (t *CSVTraceWriter) RecordTask(task Task) {
	t.tasks = append(t.tasks, task)
	if len(t.tasks) >= t.bufferSize {
		t.Flush()
	}
}

// EndRun flushes the tasks of the run.
func (t *CSVTraceWriter) EndRun(_ timing.Result) {
	t.Flush()
}

// Flush writes the buffered tasks to the CSV file.
func (t *CSVTraceWriter) Flush() {
	if t.file == nil {
		return
	}

	for _, task := range t.tasks {
		fmt.Fprintf(t.file, "%s, %s, %s, %s, %.10f, %.10f\n",
			task.ID,
			task.Kind,
			task.What,
			task.Where,
			task.StartTime,
			task.EndTime,
		)
	}

	t.tasks = nil
}

// Close flushes and closes the file. Closing twice is a no-op.
func (t *CSVTraceWriter) Close() error {
	if t.file == nil {
		return nil
	}

	t.Flush()

	err := t.file.Close()
	t.file = nil

	return err
}

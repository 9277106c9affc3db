package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
)

type interval struct {
	start, end sim.VTimeInSec
}

// BusyTimeTracer measures how long each device spends executing layers. If
// task times overlap on a device, the overlapped time is only counted once.
// Each run starts from zero.
type BusyTimeTracer struct {
	mu        sync.Mutex
	filter    TaskFilter
	intervals map[string][]interval
	makespan  sim.VTimeInSec
	runEnded  bool
}

// NewBusyTimeTracer creates a new BusyTimeTracer.
func NewBusyTimeTracer(filter TaskFilter) *BusyTimeTracer {
	return &BusyTimeTracer{
		filter:    filter,
		intervals: make(map[string][]interval),
	}
}

// RecordTask records the time a task occupies its device.
func (t *BusyTimeTracer) RecordTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runEnded {
		t.intervals = make(map[string][]interval)
		t.makespan = 0
		t.runEnded = false
	}

	t.intervals[task.Where] = append(t.intervals[task.Where],
		interval{start: task.StartTime, end: task.EndTime})
}

// EndRun remembers the makespan of the run.
func (t *BusyTimeTracer) EndRun(result timing.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.makespan = result.Makespan
	t.runEnded = true
}

// Devices returns the names of the devices that executed tasks, sorted.
func (t *BusyTimeTracer) Devices() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.intervals))
	for name := range t.intervals {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// BusyTime returns the time a device has spent on tasks.
func (t *BusyTimeTracer) BusyTime(device string) sim.VTimeInSec {
	t.mu.Lock()
	defer t.mu.Unlock()

	return mergedLength(t.intervals[device])
}

// Utilization returns the busy time of a device relative to the makespan of
// the last completed run.
func (t *BusyTimeTracer) Utilization(device string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.makespan <= 0 {
		return 0
	}

	return float64(mergedLength(t.intervals[device]) / t.makespan)
}

func mergedLength(intervals []interval) sim.VTimeInSec {
	if len(intervals) == 0 {
		return 0
	}

	sorted := make([]interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].start < sorted[j].start
	})

	var total sim.VTimeInSec

	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.start <= cur.end {
			cur.end = sim.Max(cur.end, next.end)
			continue
		}

		total += cur.end - cur.start
		cur = next
	}

	total += cur.end - cur.start

	return total
}

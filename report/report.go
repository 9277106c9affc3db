// Package report prints the outcome of a run for people to read.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sarchlab/partsim/device"
	"github.com/sarchlab/partsim/graph"
	"github.com/sarchlab/partsim/timing"
	"github.com/sarchlab/partsim/tracing"
)

const ruleWidth = 47

// A Printer writes reports to a writer.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) header(title string) {
	pad := ruleWidth - len(title)
	if pad < 2 {
		pad = 2
	}

	left := pad / 2
	fmt.Fprintf(p.w, "\n%s%s%s\n",
		strings.Repeat("=", left), title, strings.Repeat("=", pad-left))
}

func (p *Printer) footer() {
	fmt.Fprintf(p.w, "%s\n\n", strings.Repeat("=", ruleWidth))
}

// TimeResult prints the end time of every layer that feeds the sink and the
// makespan.
func (p *Printer) TimeResult(res timing.Result) {
	p.header("TIME RESULT")
	fmt.Fprintf(p.w, "%-15s %-15s\n", "layer name", "end time (s)")

	names := make([]string, 0, len(res.EndTimes))
	for name := range res.EndTimes {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(p.w, "%-15s %-15.6f\n", name, float64(res.EndTimes[name]))
	}

	fmt.Fprintf(p.w, "%-15s %-15.6f\n", "makespan", float64(res.Makespan))
	p.footer()
}

// Assignment prints the device of every layer in layer order.
func (p *Printer) Assignment(g *graph.Graph, r *device.Registry, a timing.Assignment) {
	p.header("DEVICE ASSIGNMENT")
	fmt.Fprintf(p.w, "%-15s %-15s\n", "layer name", "device")

	for _, l := range g.Layers() {
		name := "-"
		if id := a[l.ID]; id >= 0 && id < r.Len() {
			name = r.Device(id).Name()
		}

		fmt.Fprintf(p.w, "%-15s %-15s\n", l.Name, name)
	}

	p.footer()
}

// Memory prints the memory consumption of every device.
func (p *Printer) Memory(r *device.Registry) {
	p.header("MEMORY CONSUMPTION")
	fmt.Fprintf(p.w, "%-10s %-12s %-12s %-12s %-12s\n",
		"device", "cpu sum", "cpu peak", "cuda sum", "cuda peak")

	for _, d := range r.Devices() {
		m := d.MemoryConsumption()
		fmt.Fprintf(p.w, "%-10s %-12.2f %-12.2f %-12.2f %-12.2f\n",
			d.Name(), m.CPUSum, m.CPUPeak, m.CUDASum, m.CUDAPeak)
	}

	p.footer()
}

// MACs prints the multiply-accumulate operations of every device.
func (p *Printer) MACs(r *device.Registry) {
	p.header("MACS")
	fmt.Fprintf(p.w, "%-10s %-15s %-15s\n", "device", "sum", "peak")

	for _, d := range r.Devices() {
		m := d.MACs()
		fmt.Fprintf(p.w, "%-10s %-15.0f %-15.0f\n", d.Name(), m.Sum, m.Peak)
	}

	p.footer()
}

// BusyTime prints how long each device was busy in the last run.
func (p *Printer) BusyTime(t *tracing.BusyTimeTracer) {
	p.header("DEVICE BUSY TIME")
	fmt.Fprintf(p.w, "%-10s %-15s %-15s\n", "device", "busy (s)", "utilization")

	for _, name := range t.Devices() {
		fmt.Fprintf(p.w, "%-10s %-15.6f %-15.2f\n",
			name, float64(t.BusyTime(name)), t.Utilization(name)*100)
	}

	p.footer()
}

// SearchResult prints the outcome of an exhaustive search.
func (p *Printer) SearchResult(makespan float64, evaluated, total uint64) {
	fmt.Fprintf(p.w, "\n==>>Best result: %.6f s (%d of %d assignments)\n",
		makespan, evaluated, total)
}

// Candidate prints one evaluated assignment.
func (p *Printer) Candidate(a timing.Assignment, makespan float64) {
	fmt.Fprintf(p.w, "%s, %.6f\n", a, makespan)
}

// Progress prints the finished fraction of a search.
func (p *Printer) Progress(fraction float64) {
	fmt.Fprintf(p.w, "==>>%.4f%%\n", fraction*100)
}

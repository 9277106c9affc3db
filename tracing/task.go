// Package tracing turns layer executions into tasks and hands them to
// tracers that write them out or summarize them.
package tracing

import "github.com/sarchlab/partsim/sim"

// A Task is one layer executed on one device.
type Task struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	What      string         `json:"what"`
	Where     string         `json:"where"`
	StartTime sim.VTimeInSec `json:"start_time"`
	EndTime   sim.VTimeInSec `json:"end_time"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

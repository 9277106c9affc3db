package graph

import (
	"fmt"
	"strings"
)

// UnknownLayerError reports a reference to a layer that is not part of the
// dependency graph.
type UnknownLayerError struct {
	Layer string
}

func (e *UnknownLayerError) Error() string {
	return fmt.Sprintf("layer %q is not in the dependency graph", e.Layer)
}

// CycleDetectedError reports a dependency graph that is not acyclic. Layers
// lists the layers that could not be ordered.
type CycleDetectedError struct {
	Layers []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency cycle among layers [%s]",
		strings.Join(e.Layers, ", "))
}

// MissingSourceOrSinkError reports a graph without a unique source named
// "input" or a unique sink named "output".
type MissingSourceOrSinkError struct {
	Reason string
}

func (e *MissingSourceOrSinkError) Error() string {
	return "invalid graph endpoints: " + e.Reason
}

package graph

import (
	"fmt"
	"sort"
	"strings"
)

// A Builder collects edges and layer metadata and produces a validated Graph.
type Builder struct {
	layers []*Layer
	index  map[string]int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// AddEdge declares that dst depends on the output of src. Layers are created
// on first mention. Repeated edges are ignored.
func (b *Builder) AddEdge(src, dst string) {
	s := b.layerOrCreate(src)
	d := b.layerOrCreate(dst)

	if containsID(s.Next, d.ID) {
		return
	}

	s.Next = append(s.Next, d.ID)
	d.Dependencies = append(d.Dependencies, s.ID)
}

func (b *Builder) layerOrCreate(name string) *Layer {
	if id, ok := b.index[name]; ok {
		return b.layers[id]
	}

	l := newLayer(len(b.layers), name)
	b.layers = append(b.layers, l)
	b.index[name] = l.ID

	return l
}

// HasLayer tells if a layer has been declared.
func (b *Builder) HasLayer(name string) bool {
	_, ok := b.index[name]
	return ok
}

// SetPriority sets the dispatch priority of a declared layer.
func (b *Builder) SetPriority(name string, priority float64) error {
	id, ok := b.index[name]
	if !ok {
		return &UnknownLayerError{Layer: name}
	}

	b.layers[id].Priority = priority

	return nil
}

// SetSizeAndMACs sets the output size and MACs of a declared layer.
func (b *Builder) SetSizeAndMACs(name string, size, macs float64) error {
	id, ok := b.index[name]
	if !ok {
		return &UnknownLayerError{Layer: name}
	}

	b.layers[id].Size = size
	b.layers[id].MACs = macs

	return nil
}

// Build validates the collected layers and returns the graph. The Builder
// must not be used afterwards.
func (b *Builder) Build() (*Graph, error) {
	g := &Graph{
		layers: b.layers,
		index:  b.index,
	}

	err := g.findEndpoints()
	if err != nil {
		return nil, err
	}

	g.successors = g.prioritySortedSuccessors()

	err = g.computeExecutionOrder()
	if err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Graph) findEndpoints() error {
	var sources, sinks []string

	for _, l := range g.layers {
		if len(l.Dependencies) == 0 {
			sources = append(sources, l.Name)
		}

		if len(l.Next) == 0 {
			sinks = append(sinks, l.Name)
		}
	}

	if len(sources) != 1 || sources[0] != SourceName {
		return &MissingSourceOrSinkError{Reason: fmt.Sprintf(
			"want exactly one layer without dependencies named %q, got [%s]",
			SourceName, strings.Join(sources, ", "))}
	}

	if len(sinks) != 1 || sinks[0] != SinkName {
		return &MissingSourceOrSinkError{Reason: fmt.Sprintf(
			"want exactly one layer without successors named %q, got [%s]",
			SinkName, strings.Join(sinks, ", "))}
	}

	g.source = g.index[SourceName]
	g.sink = g.index[SinkName]

	return nil
}

func (g *Graph) prioritySortedSuccessors() [][]int {
	successors := make([][]int, len(g.layers))

	for i, l := range g.layers {
		next := make([]int, len(l.Next))
		copy(next, l.Next)

		sort.SliceStable(next, func(a, b int) bool {
			return g.layers[next[a]].Priority > g.layers[next[b]].Priority
		})

		successors[i] = next
	}

	return successors
}

// computeExecutionOrder runs Kahn's algorithm with a LIFO ready stack. Ready
// successors are pushed in reverse priority order, so the highest-priority
// one and everything it unlocks run before its siblings. The sink is counted
// but never scheduled.
func (g *Graph) computeExecutionOrder() error {
	inDegree := make([]int, len(g.layers))
	for _, l := range g.layers {
		inDegree[l.ID] = len(l.Dependencies)
	}

	order := make([]int, 0, len(g.layers))
	stack := []int{g.source}
	resolved := 0

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		resolved++

		if id == g.sink {
			continue
		}

		order = append(order, id)

		succ := g.successors[id]
		for i := len(succ) - 1; i >= 0; i-- {
			s := succ[i]

			inDegree[s]--
			if inDegree[s] == 0 {
				stack = append(stack, s)
			}
		}
	}

	if resolved != len(g.layers) {
		var stuck []string
		for _, l := range g.layers {
			if inDegree[l.ID] > 0 {
				stuck = append(stuck, l.Name)
			}
		}

		return &CycleDetectedError{Layers: stuck}
	}

	g.order = order

	return nil
}

// Package graph holds the layered computation graph: layers, their dependency
// edges, priorities and the per-run completion state.
package graph

// A Graph owns all the layers of a computation. Layers are addressed by their
// stable ID, which is also their index.
type Graph struct {
	layers []*Layer
	index  map[string]int

	source, sink int

	// successors and order are derived once at build time and shared by
	// clones.
	successors [][]int
	order      []int
}

// Len returns the number of layers, including the source and the sink.
func (g *Graph) Len() int {
	return len(g.layers)
}

// Layer returns the layer with the given ID.
func (g *Graph) Layer(id int) *Layer {
	return g.layers[id]
}

// Layers returns all layers in ID order.
func (g *Graph) Layers() []*Layer {
	return g.layers
}

// LayerByName looks up a layer.
func (g *Graph) LayerByName(name string) (*Layer, error) {
	id, ok := g.index[name]
	if !ok {
		return nil, &UnknownLayerError{Layer: name}
	}

	return g.layers[id], nil
}

// Source returns the "input" layer.
func (g *Graph) Source() *Layer {
	return g.layers[g.source]
}

// Sink returns the "output" layer.
func (g *Graph) Sink() *Layer {
	return g.layers[g.sink]
}

// IsSink tells if the ID belongs to the sink.
func (g *Graph) IsSink(id int) bool {
	return id == g.sink
}

// Successors returns the downstream layer IDs of a layer, ordered by
// descending priority. Layers with equal priority keep their declaration
// order.
func (g *Graph) Successors(id int) []int {
	return g.successors[id]
}

// ExecutionOrder returns the IDs of all executed layers (every layer except
// the sink) in dispatch order. Every layer appears after all of its
// dependencies.
func (g *Graph) ExecutionOrder() []int {
	return g.order
}

// Placeable returns, in ID order, the layers whose device is free to choose.
// The source is pinned and the sink never executes, so both are excluded.
func (g *Graph) Placeable() []int {
	ids := make([]int, 0, len(g.layers))
	for _, l := range g.layers {
		if l.ID == g.source || l.ID == g.sink {
			continue
		}

		ids = append(ids, l.ID)
	}

	return ids
}

// CleanUp resets the completion state of all layers. Device assignments are
// kept.
func (g *Graph) CleanUp() {
	for _, l := range g.layers {
		l.reset()
	}
}

// Clone returns a graph with private copies of the layers' mutable state. The
// topology and derived orders are shared with the original.
func (g *Graph) Clone() *Graph {
	c := *g
	c.layers = make([]*Layer, len(g.layers))

	for i, l := range g.layers {
		copied := *l
		c.layers[i] = &copied
	}

	return &c
}

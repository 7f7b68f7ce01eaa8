package domain

import (
	"fmt"
	"sort"
)

// Graph is the immutable road network.
//
// Nodes are held in a fixed order (sorted by ID) so that every per-node buffer
// built from the graph shares the same indexing. A Graph is safe for concurrent
// reads once constructed; nothing mutates it afterwards.
type Graph struct {
	nodes  []Node
	edges  []Edge
	index  map[string]int
	bounds Bounds
}

// NewGraph validates a fragment and builds the immutable graph.
//
// Duplicate edges (in either direction) are merged and self-loops are dropped,
// since neither contributes anything to drawing.
func NewGraph(fragment *GraphFragment) (*Graph, error) {
	if fragment == nil || len(fragment.Nodes) == 0 {
		return nil, ErrEmptyGraph
	}

	nodes := make([]Node, len(fragment.Nodes))
	copy(nodes, fragment.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if err := n.Validate(); err != nil {
			return nil, err
		}
		if _, exists := index[n.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		index[n.ID] = i
	}

	seen := make(map[[2]string]struct{}, len(fragment.Edges))
	edges := make([]Edge, 0, len(fragment.Edges))
	for _, e := range fragment.Edges {
		if _, ok := index[e.FromID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, e.FromID)
		}
		if _, ok := index[e.ToID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, e.ToID)
		}
		if e.IsLoop() {
			continue
		}
		key := e.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		edge := NewEdge(e.FromID, e.ToID)
		if e.ID != "" {
			edge.ID = e.ID
		}
		edges = append(edges, edge)
	}

	return &Graph{
		nodes:  nodes,
		edges:  edges,
		index:  index,
		bounds: BoundsOf(nodes),
	}, nil
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns the nodes in their fixed order. The slice must not be modified.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Edges returns the de-duplicated edges. The slice must not be modified.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NodeIDs returns a fresh copy of all node identities in the fixed order
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Index returns the position of a node in the fixed order
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Has reports whether the node exists
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Position returns the coordinates of a node
func (g *Graph) Position(id string) (x, y float64, ok bool) {
	i, ok := g.index[id]
	if !ok {
		return 0, 0, false
	}
	return g.nodes[i].X, g.nodes[i].Y, true
}

// Bounds returns the bounding box of all node positions
func (g *Graph) Bounds() Bounds {
	return g.bounds
}

// Fragment returns a mutable copy suitable for export or persistence
func (g *Graph) Fragment() *GraphFragment {
	f := &GraphFragment{
		Nodes: make([]Node, len(g.nodes)),
		Edges: make([]Edge, len(g.edges)),
	}
	copy(f.Nodes, g.nodes)
	copy(f.Edges, g.edges)
	return f
}

package graph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateID is returned by [Graph.AddNode] when a node with the same
	// ID already exists. Node IDs must be unique across the graph.
	ErrDuplicateID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an operation references a node ID that
	// is not present in the graph.
	ErrUnknownNode = errors.New("unknown node")
)

// DefaultNodeSize is assigned to nodes added with a non-positive size.
const DefaultNodeSize = 10.0

// DefaultEdgeWeight is assigned to edges added with a zero weight.
const DefaultEdgeWeight = 1.0

// MetaFixed marks a node whose position layouts must not change.
const MetaFixed = "fixed"

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
type Metadata map[string]any

// Node is a vertex with its spatial state.
type Node struct {
	ID    string   // Unique identifier
	Label string   // Display label, also the ego output key
	X     float64  // Horizontal position
	Y     float64  // Vertical position
	Size  float64  // Footprint radius, always > 0 once added
	Color string   // Opaque color passed through to exporters
	Meta  Metadata // Never nil after AddNode
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Fixed reports whether layouts must leave the node in place.
func (n *Node) Fixed() bool {
	v, _ := n.Meta[MetaFixed].(bool)
	return v
}

// Edge is an undirected, weighted connection between two nodes.
type Edge struct {
	From   string
	To     string
	Weight float64
}

// IsSelfLoop reports whether both endpoints are the same node.
func (e Edge) IsSelfLoop() bool { return e.From == e.To }

// Other returns the endpoint opposite id.
func (e Edge) Other(id string) string {
	if e.From == id {
		return e.To
	}
	return e.From
}

// Layoutable is the read surface shared by [Graph] and [View].
// Nodes returns pointers to live node records so positions can be updated.
type Layoutable interface {
	Nodes() []*Node
	Edges() []Edge
	Degree(id string) int
	NodeCount() int
	EdgeCount() int
}

// Graph is an undirected graph with positioned nodes.
//
// The zero value is not usable; create graphs with [New].
type Graph struct {
	nodes    map[string]*Node
	order    []*Node
	edges    []Edge
	incident map[string][]int               // nodeID -> indexes into edges
	adj      map[string]map[string]struct{} // nodeID -> neighbor set
	nbrs     map[string][]string            // nodeID -> neighbors in first-link order
	degree   map[string]int
	meta     Metadata
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		incident: make(map[string][]int),
		adj:      make(map[string]map[string]struct{}),
		nbrs:     make(map[string][]string),
		degree:   make(map[string]int),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateID if the ID is already taken. A non-positive Size is replaced
// by DefaultNodeSize and a nil Meta by an empty map.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateID
	}
	if n.Size <= 0 {
		n.Size = DefaultNodeSize
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[n.ID] = node
	g.order = append(g.order, node)
	g.adj[n.ID] = make(map[string]struct{})
	return nil
}

// AddEdge adds an undirected edge between two existing nodes and updates the
// adjacency index. Returns ErrUnknownNode if either endpoint is missing.
// A zero Weight is replaced by DefaultEdgeWeight. Self-loops and parallel
// edges are accepted.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownNode
	}
	if e.Weight == 0 {
		e.Weight = DefaultEdgeWeight
	}

	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.degree[e.From]++
	g.degree[e.To]++

	g.incident[e.From] = append(g.incident[e.From], idx)
	if e.IsSelfLoop() {
		return nil
	}
	g.incident[e.To] = append(g.incident[e.To], idx)
	g.link(e.From, e.To)
	g.link(e.To, e.From)
	return nil
}

func (g *Graph) link(a, b string) {
	if _, ok := g.adj[a][b]; ok {
		return
	}
	g.adj[a][b] = struct{}{}
	g.nbrs[a] = append(g.nbrs[a], b)
}

// Node returns the node with the given ID. The pointer refers to the live
// record, so position changes affect the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether a node with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.order) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Degree returns the number of edge endpoints attached to the node.
// A self-loop counts twice. Returns 0 for unknown IDs.
func (g *Graph) Degree(id string) int { return g.degree[id] }

// Neighbors returns the IDs adjacent to id in the order they were first
// linked. Self-loops do not make a node its own neighbor.
// Returns ErrUnknownNode if id is absent.
func (g *Graph) Neighbors(id string) ([]string, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, ErrUnknownNode
	}
	return slices.Clone(g.nbrs[id]), nil
}

// Adjacent reports whether an edge connects a and b.
func (g *Graph) Adjacent(a, b string) bool {
	_, ok := g.adj[a][b]
	return ok
}

// Induced returns a view over ids containing exactly the edges whose
// endpoints are both in ids. Duplicate IDs are ignored; node order follows
// the first occurrence in ids. Returns ErrUnknownNode if any ID is absent.
// The graph is not modified.
func (g *Graph) Induced(ids []string) (*View, error) {
	v := &View{
		parent: g,
		index:  make(map[string]int, len(ids)),
		degree: make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			return nil, ErrUnknownNode
		}
		if _, dup := v.index[id]; dup {
			continue
		}
		v.index[id] = len(v.nodes)
		v.nodes = append(v.nodes, n)
	}

	seen := make(map[int]struct{})
	for id := range v.index {
		for _, idx := range g.incident[id] {
			if _, ok := v.index[g.edges[idx].Other(id)]; ok {
				seen[idx] = struct{}{}
			}
		}
	}
	for _, idx := range slices.Sorted(maps.Keys(seen)) {
		e := g.edges[idx]
		v.edges = append(v.edges, e)
		v.degree[e.From]++
		v.degree[e.To]++
	}
	return v, nil
}

// View returns a view over the whole graph.
func (g *Graph) View() *View {
	v := &View{
		parent: g,
		nodes:  slices.Clone(g.order),
		edges:  slices.Clone(g.edges),
		index:  make(map[string]int, len(g.order)),
		degree: maps.Clone(g.degree),
	}
	for i, n := range v.nodes {
		v.index[n.ID] = i
	}
	return v
}

var (
	_ Layoutable = (*Graph)(nil)
	_ Layoutable = (*View)(nil)
)

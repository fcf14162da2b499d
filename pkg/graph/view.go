package graph

import (
	"errors"
	"maps"
	"slices"
)

// ErrNotDetached is returned by [View.Commit] on a view that aliases its
// parent's nodes; such views have nothing to write back.
var ErrNotDetached = errors.New("view is not detached")

// View is a read-only induced subgraph of a parent [Graph].
//
// A view never changes topology. Unless detached, its node pointers are the
// parent's own records.
type View struct {
	parent   *Graph
	nodes    []*Node
	index    map[string]int
	edges    []Edge
	degree   map[string]int
	detached bool
}

// Parent returns the graph the view was taken from.
func (v *View) Parent() *Graph { return v.parent }

// Nodes returns the view's nodes. For an attached view these are the
// parent's records.
func (v *View) Nodes() []*Node { return slices.Clone(v.nodes) }

// Edges returns a copy of the view's edges in parent insertion order.
func (v *View) Edges() []Edge { return slices.Clone(v.edges) }

// NodeCount returns the number of nodes in the view.
func (v *View) NodeCount() int { return len(v.nodes) }

// EdgeCount returns the number of edges in the view.
func (v *View) EdgeCount() int { return len(v.edges) }

// Degree returns the node's degree counting only edges inside the view.
func (v *View) Degree(id string) int { return v.degree[id] }

// Contains reports whether id belongs to the view.
func (v *View) Contains(id string) bool {
	_, ok := v.index[id]
	return ok
}

// Node returns the view's record for id.
func (v *View) Node(id string) (*Node, bool) {
	i, ok := v.index[id]
	if !ok {
		return nil, false
	}
	return v.nodes[i], true
}

// IDs returns the node IDs in view order.
func (v *View) IDs() []string {
	ids := make([]string, len(v.nodes))
	for i, n := range v.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Detached reports whether the view owns copies of its node records.
func (v *View) Detached() bool { return v.detached }

// Detach returns a view with the same topology whose node records are
// copies. Layouts run on the copy do not touch the parent until Commit.
func (v *View) Detach() *View {
	d := &View{
		parent:   v.parent,
		nodes:    make([]*Node, len(v.nodes)),
		index:    maps.Clone(v.index),
		edges:    slices.Clone(v.edges),
		degree:   maps.Clone(v.degree),
		detached: true,
	}
	for i, n := range v.nodes {
		cp := *n
		cp.Meta = maps.Clone(n.Meta)
		d.nodes[i] = &cp
	}
	return d
}

// Commit writes positions and sizes of a detached view back to the parent.
// Returns ErrNotDetached for aliasing views.
func (v *View) Commit() error {
	if !v.detached {
		return ErrNotDetached
	}
	for _, n := range v.nodes {
		p, ok := v.parent.nodes[n.ID]
		if !ok {
			return ErrUnknownNode
		}
		p.X, p.Y, p.Size = n.X, n.Y, n.Size
	}
	return nil
}

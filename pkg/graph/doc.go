// Package graph provides the undirected graph store used by graphgen layouts.
//
// # Overview
//
// A [Graph] owns node records, a weighted edge list and an adjacency index
// that is updated together with every edge insertion. Each [Node] carries its
// current 2-D position and a size (the radius of its footprint), which the
// layout packages mutate in place.
//
// Create a graph with [New], add nodes with [Graph.AddNode] and edges with
// [Graph.AddEdge]:
//
//	g := graph.New(nil)
//	g.AddNode(graph.Node{ID: "a", Label: "alpha"})
//	g.AddNode(graph.Node{ID: "b", Label: "beta"})
//	g.AddEdge(graph.Edge{From: "a", To: "b"})
//
// # Views
//
// A [View] is an induced subgraph over a parent graph: a subset of node IDs
// plus every parent edge whose endpoints both lie in the subset. Views are
// created with [Graph.Induced] or [Graph.View] and alias the parent's node
// records, so a layout computed on a view moves the same nodes in the parent.
//
// When views are processed concurrently, aliasing races on shared nodes.
// [View.Detach] copies node records into a view-owned arena; [View.Commit]
// writes the arena positions back to the parent explicitly.
//
// # Layoutable
//
// Layout, scaling and export code accepts the [Layoutable] interface, which
// both *Graph and *View implement. Degrees reported by a view count only the
// view's own edges.
//
// # Concurrency
//
// Graph and View are not safe for concurrent mutation. Concurrent readers of a
// graph whose topology no longer changes are fine.
package graph

// Package forceatlas2 implements the ForceAtlas2 force-directed layout.
//
// # Model
//
// Every round computes a net force on each node from three sources:
//
//   - Repulsion between all pairs, proportional to the product of the node
//     masses (1 + degree) and inversely proportional to distance.
//   - Attraction along edges, linear in distance (or logarithmic in LinLog
//     mode) and scaled by edge weight.
//   - Gravity toward the centroid of the laid-out nodes, which keeps
//     disconnected components from drifting apart.
//
// With AdjustSizes the distances are measured between node footprints
// instead of centers: overlapping nodes repel with a strong constant force and
// do not attract, which removes visual overlap.
//
// Nodes are then displaced by their force times a global speed. The speed is
// adapted every round from the ratio of swinging (a node's force changing
// direction between rounds) to traction (force pointing the same way), so the
// layout accelerates while it converges and brakes when it oscillates.
//
// # Usage
//
// The layout follows an initialize/step/finalize lifecycle:
//
//	fa := forceatlas2.New(forceatlas2.DefaultOptions(view.NodeCount()))
//	fa.Initialize(view)
//	for i := 0; i < rounds && fa.Step(); i++ {
//	}
//	fa.Finalize()
//
// [Run] wraps this loop and checks a context between rounds.
//
// Positions are only changed by Step. Nodes that start on exactly the same
// point are spread apart at the beginning of the first round using a seeded
// generator, so results are reproducible.
//
// # Large graphs
//
// Pairwise repulsion is O(n²) per round. With BarnesHut enabled, repulsion is
// approximated through a quadtree of mass centers, O(n log n) per round.
package forceatlas2

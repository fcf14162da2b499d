// Package scale expands or contracts a laid-out graph around its centroid.
//
// Scaling is applied after a force-directed layout to add breathing room
// between nodes before export. It is a pure geometric transform: every
// pairwise distance within the target is multiplied by the factor and the
// centroid stays where it is. Repeated application compounds.
package scale

import "github.com/Traubert/nlp-tools/pkg/graph"

// DefaultEgoFactor is the expansion applied to ego subgraphs after layout.
const DefaultEgoFactor = 3.0

// Apply multiplies every node's offset from the centroid of l by factor.
// Fixed nodes are scaled too. Empty targets and a factor of 1 are no-ops.
func Apply(l graph.Layoutable, factor float64) {
	nodes := l.Nodes()
	if len(nodes) == 0 || factor == 1 {
		return
	}
	c := graph.Centroid(l)
	for _, n := range nodes {
		n.X = c.X + (n.X-c.X)*factor
		n.Y = c.Y + (n.Y-c.Y)*factor
	}
}

package graph

import "math"

// Point is a 2-D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Pos returns the node's position as a Point.
func (n *Node) Pos() Point { return Point{X: n.X, Y: n.Y} }

// Centroid returns the mean position of the nodes in l.
// An empty graph has its centroid at the origin.
func Centroid(l Layoutable) Point {
	nodes := l.Nodes()
	if len(nodes) == 0 {
		return Point{}
	}
	var c Point
	for _, n := range nodes {
		c.X += n.X
		c.Y += n.Y
	}
	c.X /= float64(len(nodes))
	c.Y /= float64(len(nodes))
	return c
}

// Positions snapshots node positions keyed by ID.
func Positions(l Layoutable) map[string]Point {
	nodes := l.Nodes()
	out := make(map[string]Point, len(nodes))
	for _, n := range nodes {
		out[n.ID] = n.Pos()
	}
	return out
}

// ApplyPositions moves nodes of l to the positions in pos.
// Nodes missing from pos keep their position. Returns the number of nodes moved.
func ApplyPositions(l Layoutable, pos map[string]Point) int {
	moved := 0
	for _, n := range l.Nodes() {
		if p, ok := pos[n.ID]; ok {
			n.X, n.Y = p.X, p.Y
			moved++
		}
	}
	return moved
}

// Bounds returns the bounding box of node footprints in l.
// An empty graph yields a zero box.
func Bounds(l Layoutable) (minP, maxP Point) {
	nodes := l.Nodes()
	if len(nodes) == 0 {
		return Point{}, Point{}
	}
	minP = Point{X: math.Inf(1), Y: math.Inf(1)}
	maxP = Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, n := range nodes {
		minP.X = min(minP.X, n.X-n.Size)
		minP.Y = min(minP.Y, n.Y-n.Size)
		maxP.X = max(maxP.X, n.X+n.Size)
		maxP.Y = max(maxP.Y, n.Y+n.Size)
	}
	return minP, maxP
}

package forceatlas2

import "math"

// overlapRepulsion multiplies repulsion between overlapping footprints.
const overlapRepulsion = 100.0

// body is the per-node simulation state.
type body struct {
	x, y         float64 // working copy of the position
	size         float64
	mass         float64
	dx, dy       float64
	oldDx, oldDy float64
	fixed        bool
}

type link struct {
	a, b   int
	weight float64
}

// repulsion applies the pairwise repulsive force.
type repulsion struct {
	coef        float64
	adjustSizes bool
}

// factor returns the repulsion between two bodies, scaled so that
// multiplying by their offset gives the force.
func (r repulsion) factor(n1, n2 *body) (xd, yd, f float64) {
	xd, yd = n1.x-n2.x, n1.y-n2.y
	d := math.Hypot(xd, yd)
	if d == 0 {
		return xd, yd, 0
	}
	if !r.adjustSizes {
		return xd, yd, r.coef * n1.mass * n2.mass / (d * d)
	}
	gap := d - n1.size - n2.size
	switch {
	case gap > 0:
		f = r.coef * n1.mass * n2.mass / (gap * gap)
	case gap < 0:
		f = overlapRepulsion * r.coef * n1.mass * n2.mass
	}
	return xd, yd, f
}

// pair pushes two bodies apart, updating both.
func (r repulsion) pair(n1, n2 *body) {
	xd, yd, f := r.factor(n1, n2)
	n1.dx += xd * f
	n1.dy += yd * f
	n2.dx -= xd * f
	n2.dy -= yd * f
}

// single pushes n away from b, updating n only. Sizes are honoured as in
// pair.
func (r repulsion) single(n, b *body) {
	xd, yd, f := r.factor(n, b)
	n.dx += xd * f
	n.dy += yd * f
}

// point pushes n away from a mass concentrated at (x, y), updating n only.
// Region masses have no footprint, so sizes are ignored.
func (r repulsion) point(n *body, x, y, mass float64) {
	xd, yd := n.x-x, n.y-y
	d := math.Hypot(xd, yd)
	if d == 0 {
		return
	}
	f := r.coef * n.mass * mass / (d * d)
	n.dx += xd * f
	n.dy += yd * f
}

// gravity pulls n toward (cx, cy).
func gravity(n *body, cx, cy, g float64, strong bool) {
	xd, yd := n.x-cx, n.y-cy
	d := math.Hypot(xd, yd)
	if d == 0 || g == 0 {
		return
	}
	f := g * n.mass
	if !strong {
		f /= d
	}
	n.dx -= xd * f
	n.dy -= yd * f
}

// attraction pulls the endpoints of an edge together.
type attraction struct {
	coef        float64
	linLog      bool
	distributed bool // divide by source mass
	adjustSizes bool
}

func (a attraction) pair(n1, n2 *body, weight float64) {
	xd, yd := n1.x-n2.x, n1.y-n2.y
	d := math.Hypot(xd, yd)
	if a.adjustSizes {
		d -= n1.size + n2.size
		if d <= 0 {
			return
		}
	}

	f := -a.coef * weight
	if a.linLog {
		if d <= 0 {
			return
		}
		f *= math.Log1p(d) / d
	}
	if a.distributed {
		f /= n1.mass
	}

	n1.dx += xd * f
	n1.dy += yd * f
	n2.dx -= xd * f
	n2.dy -= yd * f
}

// edgeWeight applies the weight influence exponent.
func edgeWeight(w, influence float64) float64 {
	switch influence {
	case 0:
		return 1
	case 1:
		return w
	default:
		return math.Pow(w, influence)
	}
}

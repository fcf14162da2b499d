package forceatlas2

import "math"

// maxRegionDepth bounds quadtree recursion for nearly coincident bodies.
const maxRegionDepth = 32

// region is a Barnes-Hut quadtree cell summarizing its bodies by total mass
// and mass center.
type region struct {
	bodies []*body
	mass   float64
	cx, cy float64
	size   float64 // diameter around the mass center
	reach  float64 // largest body size in the region
	sub    []*region
}

func newRegion(bodies []*body, depth int) *region {
	r := &region{bodies: bodies}
	for _, b := range bodies {
		r.mass += b.mass
		r.cx += b.x * b.mass
		r.cy += b.y * b.mass
	}
	if r.mass > 0 {
		r.cx /= r.mass
		r.cy /= r.mass
	}
	for _, b := range bodies {
		r.size = max(r.size, 2*math.Hypot(b.x-r.cx, b.y-r.cy))
		r.reach = max(r.reach, b.size)
	}
	if len(bodies) > 1 && depth < maxRegionDepth {
		r.split(depth)
	}
	return r
}

func (r *region) split(depth int) {
	var quads [4][]*body
	for _, b := range r.bodies {
		q := 0
		if b.x >= r.cx {
			q |= 1
		}
		if b.y >= r.cy {
			q |= 2
		}
		quads[q] = append(quads[q], b)
	}
	for _, q := range quads {
		if len(q) == len(r.bodies) {
			// All bodies share the mass center; no split possible.
			return
		}
	}
	for _, q := range quads {
		if len(q) > 0 {
			r.sub = append(r.sub, newRegion(q, depth+1))
		}
	}
}

// apply accumulates on n the repulsion from every body in the region,
// treating distant regions as a single mass. With adjusted sizes a region
// is only summarized when none of its bodies can overlap n, and leaves
// repel body to body, so footprints always count.
func (r *region) apply(n *body, rep repulsion, theta float64) {
	d := math.Hypot(n.x-r.cx, n.y-r.cy)
	switch {
	case len(r.bodies) == 1:
		if r.bodies[0] != n {
			rep.single(n, r.bodies[0])
		}
	case d*theta > r.size && (!rep.adjustSizes || d-r.size/2 > n.size+r.reach):
		rep.point(n, r.cx, r.cy, r.mass)
	case len(r.sub) == 0:
		for _, b := range r.bodies {
			if b != n {
				rep.single(n, b)
			}
		}
	default:
		for _, s := range r.sub {
			s.apply(n, rep, theta)
		}
	}
}

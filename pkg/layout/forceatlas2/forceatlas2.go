package forceatlas2

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Traubert/nlp-tools/pkg/graph"
)

// Speed control constants.
const (
	minSpeedEfficiency = 0.05
	maxSpeedRise       = 0.5
	maxSpeed           = 1000.0
	minSpeed           = 1e-4 // floor so a fully oscillating round cannot stall the layout
	erraticRatio       = 2.0  // swinging/traction ratio considered erratic
	maxJitter          = 10.0 // upper bound for the adaptive jitter tolerance
	jitterScale        = 0.05
	adjustedSpeedScale = 0.1  // displacement damping with AdjustSizes
	maxAdjustedStep    = 10.0 // displacement cap with AdjustSizes
)

// Layout runs ForceAtlas2 on a graph or view. The zero value is not usable;
// create one with New. A Layout is not safe for concurrent use.
type Layout struct {
	opts Options

	nodes  []*graph.Node
	bodies []*body
	links  []link

	speed           float64
	speedEfficiency float64
	rounds          int
	dispersed       bool
}

// New creates a layout with the given options.
func New(opts Options) *Layout {
	return &Layout{opts: opts.normalize()}
}

// Options returns the effective options.
func (l *Layout) Options() Options { return l.opts }

// Rounds returns the number of rounds applied since Initialize.
func (l *Layout) Rounds() int { return l.rounds }

// Initialize binds the layout to g and resets the adaptive speed.
// Node masses are derived from degrees within g. Positions are not changed.
func (l *Layout) Initialize(g graph.Layoutable) {
	l.nodes = g.Nodes()
	l.bodies = make([]*body, len(l.nodes))
	index := make(map[string]int, len(l.nodes))
	for i, n := range l.nodes {
		index[n.ID] = i
		l.bodies[i] = &body{
			size:  n.Size,
			mass:  1 + float64(g.Degree(n.ID)),
			fixed: n.Fixed(),
		}
	}

	l.links = l.links[:0]
	for _, e := range g.Edges() {
		a, okA := index[e.From]
		b, okB := index[e.To]
		if !okA || !okB || a == b {
			continue
		}
		l.links = append(l.links, link{a: a, b: b, weight: edgeWeight(e.Weight, l.opts.EdgeWeightInfluence)})
	}

	l.speed = 1
	l.speedEfficiency = 1
	l.rounds = 0
	l.dispersed = false
}

// Finalize releases the per-round state. The layout can be initialized again.
func (l *Layout) Finalize() {
	l.nodes = nil
	l.bodies = nil
	l.links = nil
}

// Step applies exactly one round and reports whether further rounds can
// still change the layout. It returns false without moving anything when
// fewer than two nodes are bound or when the forces have vanished.
func (l *Layout) Step() bool {
	if len(l.bodies) < 2 {
		return false
	}
	l.load()
	if !l.dispersed {
		l.disperse()
		l.dispersed = true
	}

	for _, b := range l.bodies {
		b.oldDx, b.oldDy = b.dx, b.dy
		b.dx, b.dy = 0, 0
	}

	l.repel()
	l.pull()
	l.attract()

	totalSwinging, totalTraction := l.swingAndTraction()
	if totalSwinging == 0 && totalTraction == 0 {
		return false
	}
	l.adjustSpeed(totalSwinging, totalTraction)
	l.move()
	l.store()
	l.rounds++
	return true
}

// load copies node positions into the bodies.
func (l *Layout) load() {
	for i, n := range l.nodes {
		l.bodies[i].x, l.bodies[i].y = n.X, n.Y
	}
}

// store writes body positions back to the nodes.
func (l *Layout) store() {
	for i, n := range l.nodes {
		if !l.bodies[i].fixed {
			n.X, n.Y = l.bodies[i].x, l.bodies[i].y
		}
	}
}

// disperse moves every body that shares its exact position with an earlier
// body onto a random point around it, at about its own size.
func (l *Layout) disperse() {
	rng := rand.New(rand.NewPCG(l.opts.Seed, l.opts.Seed^0x9e3779b97f4a7c15))
	taken := make(map[graph.Point]struct{}, len(l.bodies))
	for _, b := range l.bodies {
		p := graph.Point{X: b.x, Y: b.y}
		if _, clash := taken[p]; clash && !b.fixed {
			angle := rng.Float64() * 2 * math.Pi
			radius := b.size * (0.5 + rng.Float64())
			b.x += radius * math.Cos(angle)
			b.y += radius * math.Sin(angle)
			p = graph.Point{X: b.x, Y: b.y}
		}
		taken[p] = struct{}{}
	}
}

func (l *Layout) repel() {
	rep := repulsion{coef: l.opts.ScalingRatio, adjustSizes: l.opts.AdjustSizes}
	if l.opts.BarnesHut {
		root := newRegion(l.bodies, 0)
		for _, b := range l.bodies {
			root.apply(b, rep, l.opts.BarnesHutTheta)
		}
	} else {
		for i := range l.bodies {
			for j := i + 1; j < len(l.bodies); j++ {
				rep.pair(l.bodies[i], l.bodies[j])
			}
		}
	}
}

// pull applies gravity toward the centroid of the bodies.
func (l *Layout) pull() {
	var cx, cy float64
	for _, b := range l.bodies {
		cx += b.x
		cy += b.y
	}
	cx /= float64(len(l.bodies))
	cy /= float64(len(l.bodies))
	for _, b := range l.bodies {
		gravity(b, cx, cy, l.opts.Gravity, l.opts.StrongGravity)
	}
}

func (l *Layout) attract() {
	att := attraction{
		coef:        1,
		linLog:      l.opts.LinLog,
		distributed: l.opts.OutboundAttractionDistribution,
		adjustSizes: l.opts.AdjustSizes,
	}
	if att.distributed {
		// Compensate with the mean mass so total attraction stays comparable.
		var total float64
		for _, b := range l.bodies {
			total += b.mass
		}
		att.coef = total / float64(len(l.bodies))
	}
	for _, e := range l.links {
		att.pair(l.bodies[e.a], l.bodies[e.b], e.weight)
	}
}

func (l *Layout) swingAndTraction() (swinging, traction float64) {
	for _, b := range l.bodies {
		if b.fixed {
			continue
		}
		swinging += b.mass * math.Hypot(b.oldDx-b.dx, b.oldDy-b.dy)
		traction += b.mass * 0.5 * math.Hypot(b.oldDx+b.dx, b.oldDy+b.dy)
	}
	return swinging, traction
}

// adjustSpeed updates the global speed from this round's swinging and
// traction totals.
func (l *Layout) adjustSpeed(totalSwinging, totalTraction float64) {
	n := float64(len(l.bodies))
	estimated := jitterScale * math.Sqrt(n)
	minJT := math.Sqrt(estimated)
	jt := l.opts.JitterTolerance * max(minJT, min(maxJitter, estimated*totalTraction/(n*n)))

	if totalTraction > 0 && totalSwinging/totalTraction > erraticRatio {
		if l.speedEfficiency > minSpeedEfficiency {
			l.speedEfficiency *= 0.5
		}
		jt = max(jt, l.opts.JitterTolerance)
	}

	var target float64
	if totalSwinging == 0 {
		target = math.Inf(1)
	} else {
		target = jt * l.speedEfficiency * totalTraction / totalSwinging
	}

	if totalSwinging > jt*totalTraction {
		if l.speedEfficiency > minSpeedEfficiency {
			l.speedEfficiency *= 0.7
		}
	} else if l.speed < maxSpeed {
		l.speedEfficiency *= 1.3
	}

	l.speed += min(target-l.speed, maxSpeedRise*l.speed)
	l.speed = max(l.speed, minSpeed)
}

func (l *Layout) move() {
	for _, b := range l.bodies {
		if b.fixed {
			continue
		}
		swinging := b.mass * math.Hypot(b.oldDx-b.dx, b.oldDy-b.dy)
		factor := l.speed / (1 + math.Sqrt(l.speed*swinging))

		if l.opts.AdjustSizes {
			factor *= adjustedSpeedScale
			df := math.Hypot(b.dx, b.dy)
			if df == 0 {
				continue
			}
			factor = min(factor*df, maxAdjustedStep) / df
		}

		b.x += b.dx * factor
		b.y += b.dy * factor
	}
}

// ErrNonFinitePosition is returned by Run when a node starts at NaN or an
// infinite coordinate.
var ErrNonFinitePosition = errors.New("non-finite node position")

// Run lays out g for at most rounds rounds, stopping early when Step reports
// that nothing more can change. The context is checked before every round.
// Returns the number of rounds attempted.
func Run(ctx context.Context, g graph.Layoutable, opts Options, rounds int) (int, error) {
	for _, n := range g.Nodes() {
		if !finite(n.X) || !finite(n.Y) {
			return 0, fmt.Errorf("node %q at (%v, %v): %w", n.ID, n.X, n.Y, ErrNonFinitePosition)
		}
	}

	fa := New(opts)
	fa.Initialize(g)
	defer fa.Finalize()

	done := 0
	for done < rounds {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		done++
		if !fa.Step() {
			break
		}
	}
	return done, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

package forceatlas2

// Default parameter values.
const (
	DefaultScalingRatio      = 10.0
	DefaultLargeScalingRatio = 2.0 // used from LargeGraphNodes upwards
	DefaultGravity           = 1.0
	DefaultJitterTolerance   = 1.0
	DefaultBarnesHutTheta    = 1.2
	DefaultSeed              = uint64(42)

	// LargeGraphNodes is the node count from which the smaller scaling
	// ratio applies.
	LargeGraphNodes = 100

	// BarnesHutNodes is the node count from which the quadtree
	// approximation is enabled by default.
	BarnesHutNodes = 1000
)

// Options configures a ForceAtlas2 run.
type Options struct {
	// ScalingRatio multiplies repulsion; larger values spread the graph.
	ScalingRatio float64
	// Gravity pulls nodes toward the centroid.
	Gravity float64
	// StrongGravity makes gravity grow linearly with distance.
	StrongGravity bool
	// AdjustSizes measures distances between node footprints.
	AdjustSizes bool
	// LinLog uses logarithmic attraction, which tightens clusters.
	LinLog bool
	// OutboundAttractionDistribution divides attraction by the source mass,
	// pushing hubs to the periphery.
	OutboundAttractionDistribution bool
	// EdgeWeightInfluence is the exponent applied to edge weights.
	// 0 ignores weights, 1 uses them as-is.
	EdgeWeightInfluence float64
	// JitterTolerance trades speed for precision.
	JitterTolerance float64
	// BarnesHut approximates repulsion with a quadtree.
	BarnesHut bool
	// BarnesHutTheta is the approximation threshold; larger is coarser.
	BarnesHutTheta float64
	// Seed drives the dispersal of coincident nodes.
	Seed uint64
}

// DefaultOptions returns the standard parameters for a graph of nodeCount
// nodes.
func DefaultOptions(nodeCount int) Options {
	opts := Options{
		ScalingRatio:        DefaultScalingRatio,
		Gravity:             DefaultGravity,
		EdgeWeightInfluence: 1.0,
		JitterTolerance:     DefaultJitterTolerance,
		BarnesHut:           nodeCount >= BarnesHutNodes,
		BarnesHutTheta:      DefaultBarnesHutTheta,
		Seed:                DefaultSeed,
	}
	if nodeCount >= LargeGraphNodes {
		opts.ScalingRatio = DefaultLargeScalingRatio
	}
	return opts
}

// normalize replaces values that would break the simulation.
func (o Options) normalize() Options {
	if o.ScalingRatio <= 0 {
		o.ScalingRatio = DefaultScalingRatio
	}
	if o.JitterTolerance <= 0 {
		o.JitterTolerance = DefaultJitterTolerance
	}
	if o.BarnesHutTheta <= 0 {
		o.BarnesHutTheta = DefaultBarnesHutTheta
	}
	if o.Gravity < 0 {
		o.Gravity = 0
	}
	return o
}

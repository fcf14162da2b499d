// Package dot renders laid-out graphs through Graphviz.
//
// # Overview
//
// Positions computed by the force-directed layout are written into DOT with
// neato pins (pos="x,y!"), so Graphviz only draws the graph and never moves a
// node. This gives SVG output for whole graphs and ego subgraphs alike.
//
// # Usage
//
//	src := dot.ToDOT(view, dot.Options{Color: "orange"})
//	svg, err := dot.RenderSVG(ctx, src)
//
// # Options
//
//   - Detailed: node labels include all metadata
//   - Color: one fill color for every node, overriding per-node colors
//   - Weights: edge pen widths follow edge weights
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering,
// so no Graphviz installation is needed.
package dot

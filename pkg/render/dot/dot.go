package dot

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/Traubert/nlp-tools/pkg/graph"
)

// PointsPerInch converts layout units to the inches neato reads from pos,
// width and height. One layout unit is rendered as one point.
const PointsPerInch = 72.0

// DefaultColor fills nodes that carry no color of their own.
const DefaultColor = "white"

// Options configures DOT generation.
type Options struct {
	// Detailed includes node metadata in labels.
	// When false, only the display label is shown.
	Detailed bool
	// Color overrides the fill color of every node. Empty keeps per-node
	// colors, falling back to DefaultColor.
	Color string
	// Weights scales edge pen widths by edge weight.
	Weights bool
}

// ToDOT converts a laid-out graph or view to Graphviz DOT.
//
// Node positions are pinned with pos="x,y!" so that neato keeps the computed
// layout instead of running its own. Node sizes become circle diameters.
// Edges are undirected.
func ToDOT(l graph.Layoutable, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, fontsize=10];\n")
	buf.WriteString("  edge [color=\"#999999\"];\n")
	buf.WriteString("\n")

	for _, n := range l.Nodes() {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label, opts.Color)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges() {
		if opts.Weights && e.Weight != graph.DefaultEdgeWeight {
			fmt.Fprintf(&buf, "  %q -- %q [penwidth=%s];\n", e.From, e.To, fmtFloat(e.Weight))
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *graph.Node, detailed bool) string {
	if !detailed || len(n.Meta) == 0 {
		return n.DisplayLabel()
	}

	var parts []string
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return n.DisplayLabel() + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *graph.Node, label, color string) []string {
	if color == "" {
		color = n.Color
	}
	if color == "" {
		color = DefaultColor
	}
	diameter := 2 * n.Size / PointsPerInch
	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(n.X/PointsPerInch), fmtFloat(n.Y/PointsPerInch)),
		fmt.Sprintf("width=%s", fmtFloat(diameter)),
		fmt.Sprintf("height=%s", fmtFloat(diameter)),
		fmt.Sprintf("fillcolor=%q", color),
	}
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT produced by [ToDOT] to SVG using the neato engine,
// which honours the pinned positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

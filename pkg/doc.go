// Package pkg provides the core libraries for graphgen, a force-directed
// graph layout and ego-graph export tool.
//
// # Overview
//
// graphgen reads a graph, computes 2-D positions with ForceAtlas2 and writes
// the result out, either once for the whole graph or once per node for its
// ego network. The pkg directory is organized into these areas:
//
//  1. [graph] - Graph store, views and ego extraction
//  2. [layout] - ForceAtlas2 and the post-layout scale transform
//  3. [pipeline] - Orchestration (extract → layout → scale → export)
//  4. [io], [sink], [render] - Import and export collaborators
//  5. [cache], [config], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	JSON graph document
//	         ↓
//	    [io] package (decode into a graph.Graph)
//	         ↓
//	    [graph/ego] package (optional: one view per center)
//	         ↓
//	    [layout/forceatlas2] + [layout/scale] (positions)
//	         ↓
//	    [sink] package (JSON, DOT, SVG files or MongoDB)
//
// # Quick Start
//
//	g, _ := io.ImportJSON("graph.json")
//	out, _ := sink.NewFileSink("out", []string{sink.FormatJSON, sink.FormatSVG}, dot.Options{})
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	opts := pipeline.DefaultOptions()
//	opts.Ego = true
//	res, err := runner.Run(ctx, g, out, opts)
//
// [graph]: github.com/Traubert/nlp-tools/pkg/graph
// [layout]: github.com/Traubert/nlp-tools/pkg/layout/forceatlas2
// [pipeline]: github.com/Traubert/nlp-tools/pkg/pipeline
// [io]: github.com/Traubert/nlp-tools/pkg/io
// [sink]: github.com/Traubert/nlp-tools/pkg/sink
// [render]: github.com/Traubert/nlp-tools/pkg/render
// [cache]: github.com/Traubert/nlp-tools/pkg/cache
// [config]: github.com/Traubert/nlp-tools/pkg/config
// [observability]: github.com/Traubert/nlp-tools/pkg/observability
package pkg

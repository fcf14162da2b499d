// Package io provides JSON import and export for laid-out graphs.
//
// # Overview
//
// This package is the import/export collaborator of the layout pipeline. It
// reads the graph a run operates on and writes graphs (whole or ego views)
// with their computed positions. The format is designed for:
//
//   - Feeding graphs produced by other tools into the layout pipeline
//   - Handing computed positions to external renderers
//   - Round-trip preservation: import, lay out, export, and re-import
//
// # JSON Format
//
// The format has two top-level arrays:
//
//	{
//	  "nodes": [
//	    {"id": "alice", "label": "Alice", "x": 0, "y": 0, "size": 10},
//	    {"id": "bob"}
//	  ],
//	  "edges": [
//	    {"from": "alice", "to": "bob", "weight": 2}
//	  ]
//	}
//
// # Node Fields
//
// Required:
//   - id: Unique string identifier
//
// Optional:
//   - label: Display string, also the key for ego output names (defaults to id)
//   - x, y: Position (defaults to the origin)
//   - size: Footprint radius used by anti-overlap layout (defaults to 10)
//   - color: Opaque display color, passed through untouched
//   - meta: Freeform object; "fixed": true pins the node during layout
//
// # Edge Fields
//
// Edges need "from" and "to" referencing node ids. "weight" defaults to 1.
// Edges are undirected for layout purposes.
//
// # Import
//
// Use [ImportJSON] to read a graph from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	g, err := io.ImportJSON("graph.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Import failures carry the IMPORT error code and wrap the underlying cause,
// so graph.ErrDuplicateID and graph.ErrUnknownNode remain matchable with
// errors.Is.
//
// # Export
//
// Use [ExportJSON] to write a graph or view to a file, or [WriteJSON] to write
// to any io.Writer. Views export only their own nodes and induced edges.
//
// # Concurrency
//
// All functions in this package are safe to call concurrently with other
// readers of the same graph, but not with a layout running on it.
package io

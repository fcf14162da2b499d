package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
)

// Document is the serialized form of a graph or view. It carries both json
// and bson tags so the same value can be stored in MongoDB.
type Document struct {
	Meta  graph.Metadata `json:"meta,omitempty" bson:"meta,omitempty"`
	Nodes []Node         `json:"nodes" bson:"nodes"`
	Edges []Edge         `json:"edges" bson:"edges"`
}

// Node is the serialized form of a graph node.
type Node struct {
	ID    string         `json:"id" bson:"id"`
	Label string         `json:"label,omitempty" bson:"label,omitempty"`
	X     float64        `json:"x" bson:"x"`
	Y     float64        `json:"y" bson:"y"`
	Size  float64        `json:"size,omitempty" bson:"size,omitempty"`
	Color string         `json:"color,omitempty" bson:"color,omitempty"`
	Meta  graph.Metadata `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Edge is the serialized form of a graph edge. A zero weight means the
// default weight.
type Edge struct {
	From   string  `json:"from" bson:"from"`
	To     string  `json:"to" bson:"to"`
	Weight float64 `json:"weight,omitempty" bson:"weight,omitempty"`
}

// Encode converts a graph or view into a Document.
func Encode(l graph.Layoutable) Document {
	nodes, edges := l.Nodes(), l.Edges()
	out := Document{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, len(edges)),
	}
	if g, ok := l.(*graph.Graph); ok && len(g.Meta()) > 0 {
		out.Meta = g.Meta()
	}

	for i, n := range nodes {
		nd := Node{ID: n.ID, X: n.X, Y: n.Y, Size: n.Size, Color: n.Color}
		if n.Label != n.ID {
			nd.Label = n.Label
		}
		if len(n.Meta) > 0 {
			nd.Meta = n.Meta
		}
		out.Nodes[i] = nd
	}
	for i, e := range edges {
		ed := Edge{From: e.From, To: e.To}
		if e.Weight != graph.DefaultEdgeWeight {
			ed.Weight = e.Weight
		}
		out.Edges[i] = ed
	}
	return out
}

// Decode builds a graph from a Document. See [ReadJSON] for the errors.
func Decode(doc Document) (*graph.Graph, error) {
	g := graph.New(doc.Meta)
	for _, n := range doc.Nodes {
		nd := graph.Node{
			ID:    n.ID,
			Label: n.Label,
			X:     n.X,
			Y:     n.Y,
			Size:  n.Size,
			Color: n.Color,
			Meta:  n.Meta,
		}
		if err := g.AddNode(nd); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeImport, err, "node %q", n.ID)
		}
	}
	for _, e := range doc.Edges {
		if err := g.AddEdge(graph.Edge{From: e.From, To: e.To, Weight: e.Weight}); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeImport, err, "edge %s-%s", e.From, e.To)
		}
	}
	return g, nil
}

// WriteJSON encodes a graph or view as JSON and writes it to w.
// The output includes positions, sizes, colors and metadata of every node and
// the weights of every edge. It can be re-imported with [ReadJSON].
func WriteJSON(l graph.Layoutable, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Encode(l)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a graph or view to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(l graph.Layoutable, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return WriteJSON(l, f)
}

package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
)

func TestNewDocument(t *testing.T) {
	g := graph.New(nil)
	_ = g.AddNode(graph.Node{ID: "a", X: 1, Y: 2})
	_ = g.AddNode(graph.Node{ID: "b"})
	_ = g.AddEdge(graph.Edge{From: "a", To: "b"})
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	doc := newDocument("egograph_a", "run-1", g, now)
	if doc.Name != "egograph_a" || doc.RunID != "run-1" || !doc.UpdatedAt.Equal(now) {
		t.Errorf("document header = %+v", doc)
	}
	if doc.NodeCount != 2 || doc.EdgeCount != 1 || len(doc.Graph.Nodes) != 2 {
		t.Errorf("counts = %d nodes, %d edges, %d encoded nodes", doc.NodeCount, doc.EdgeCount, len(doc.Graph.Nodes))
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("bson.Marshal: %v", err)
	}
	var back bson.M
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("bson.Unmarshal: %v", err)
	}
	if back["_id"] != "egograph_a" {
		t.Errorf("_id = %v, want egograph_a", back["_id"])
	}
	if _, ok := back["graph"]; !ok {
		t.Error("graph field missing")
	}
}

func TestConnectRequiresURI(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("Connect without uri = %v, want INVALID_INPUT", err)
	}
}

func TestConnectInvalidURI(t *testing.T) {
	if _, err := Connect(context.Background(), Config{URI: "notmongo://host"}); err == nil {
		t.Error("Connect should reject a non-mongodb scheme")
	}
}

func TestWithRunID(t *testing.T) {
	s := New(nil)
	tagged := s.WithRunID("abc")
	if tagged.runID != "abc" || s.runID != "" {
		t.Errorf("WithRunID should copy: original %q, copy %q", s.runID, tagged.runID)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("Close on caller-owned sink: %v", err)
	}
}

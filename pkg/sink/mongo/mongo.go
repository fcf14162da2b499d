// Package mongo exports laid-out graphs as MongoDB documents.
//
// Every export upserts one document keyed by the export name, so re-running a
// sweep replaces the previous results instead of duplicating them:
//
//	{
//	  "_id": "egograph_alice",
//	  "run_id": "5f1c...",
//	  "updated_at": ISODate(...),
//	  "node_count": 3,
//	  "edge_count": 2,
//	  "graph": {"nodes": [...], "edges": [...]}
//	}
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
	"github.com/Traubert/nlp-tools/pkg/io"
	"github.com/Traubert/nlp-tools/pkg/sink"
)

// Defaults for Config.
const (
	DefaultDatabase   = "graphgen"
	DefaultCollection = "layouts"
	DefaultTimeout    = 10 * time.Second
	retryAttempts     = 3
	retryDelay        = 200 * time.Millisecond
)

// Config configures the MongoDB connection.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration // per-operation timeout
}

// Document is the stored form of one export.
type Document struct {
	Name      string      `bson:"_id"`
	RunID     string      `bson:"run_id,omitempty"`
	UpdatedAt time.Time   `bson:"updated_at"`
	NodeCount int         `bson:"node_count"`
	EdgeCount int         `bson:"edge_count"`
	Graph     io.Document `bson:"graph"`
}

// Sink upserts one document per export name. It is safe for concurrent use.
type Sink struct {
	client  *mongo.Client // nil when the collection was supplied by the caller
	coll    *mongo.Collection
	timeout time.Duration
	runID   string
}

// Connect opens a client and returns a sink writing to the configured
// collection. Close disconnects the client.
func Connect(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.URI == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s := New(client.Database(cfg.Database).Collection(cfg.Collection))
	s.client = client
	s.timeout = cfg.Timeout
	return s, nil
}

// New returns a sink writing to coll. The caller keeps ownership of the
// client behind coll.
func New(coll *mongo.Collection) *Sink {
	return &Sink{coll: coll, timeout: DefaultTimeout}
}

// WithRunID returns a copy of the sink that tags documents with runID.
func (s *Sink) WithRunID(runID string) *Sink {
	cp := *s
	cp.runID = runID
	return &cp
}

// Export implements sink.Exporter.
func (s *Sink) Export(ctx context.Context, g graph.Layoutable, name string) error {
	if err := apperrors.ValidateName(name); err != nil {
		return err
	}
	doc := newDocument(name, s.runID, g, time.Now().UTC())

	return sink.Retry(ctx, retryAttempts, retryDelay, func() error {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		_, err := s.coll.ReplaceOne(opCtx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
		if err != nil && (mongo.IsNetworkError(err) || mongo.IsTimeout(err)) {
			return &sink.RetryableError{Err: err}
		}
		return err
	})
}

// Close disconnects the client opened by Connect. It is a no-op for sinks
// created with New.
func (s *Sink) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func newDocument(name, runID string, g graph.Layoutable, now time.Time) Document {
	return Document{
		Name:      name,
		RunID:     runID,
		UpdatedAt: now,
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
		Graph:     io.Encode(g),
	}
}

var _ sink.Exporter = (*Sink)(nil)

// Package sink provides the export collaborators of the layout pipeline.
//
// # Overview
//
// The pipeline hands every laid-out target (the whole graph, or one ego view
// per node) to an [Exporter] together with an output name. Exporters decide
// where and how the result is written:
//
//   - [FileSink]: one file per name and format in a directory (json, dot, svg)
//   - [MultiSink]: fans out to several exporters
//   - [mongo.Sink]: one MongoDB document per name
//
// Exporters must not mutate the graph they receive. An exporter used by a
// parallel ego sweep is called from several goroutines at once.
//
// [mongo.Sink]: github.com/Traubert/nlp-tools/pkg/sink/mongo
package sink

import (
	"context"
	"errors"

	"github.com/Traubert/nlp-tools/pkg/graph"
)

// Exporter writes one laid-out graph or view under name.
type Exporter interface {
	Export(ctx context.Context, g graph.Layoutable, name string) error
}

// ExporterFunc adapts a function to the Exporter interface.
type ExporterFunc func(ctx context.Context, g graph.Layoutable, name string) error

// Export calls f.
func (f ExporterFunc) Export(ctx context.Context, g graph.Layoutable, name string) error {
	return f(ctx, g, name)
}

// MultiSink exports to every exporter in order. All exporters are called
// even if one fails; the errors are joined.
type MultiSink []Exporter

// Export implements Exporter.
func (m MultiSink) Export(ctx context.Context, g graph.Layoutable, name string) error {
	var errs []error
	for _, e := range m {
		if err := e.Export(ctx, g, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is an exporter that writes nothing.
var Discard Exporter = ExporterFunc(func(context.Context, graph.Layoutable, string) error { return nil })

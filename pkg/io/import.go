package io

import (
	"encoding/json"
	"io"
	"os"

	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
)

// ReadJSON decodes a JSON graph from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays. See the
// package documentation for the optional fields.
//
// ReadJSON returns an IMPORT error if:
//   - The JSON is malformed or invalid
//   - A node has an empty or duplicate ID
//   - An edge references an unknown node ID
//
// The cause is preserved, so errors.Is(err, graph.ErrDuplicateID) and
// errors.Is(err, graph.ErrUnknownNode) work on the result.
//
// The returned graph is independent of r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeImport, err, "decode graph")
	}
	return Decode(doc)
}

// ImportJSON reads a JSON file at path and returns the decoded graph.
//
// ImportJSON returns the same errors as [ReadJSON], plus an IMPORT error
// wrapping the open failure when the file cannot be read.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeImport, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}

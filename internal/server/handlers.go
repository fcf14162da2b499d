package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
	"github.com/Traubert/nlp-tools/pkg/graph/ego"
	"github.com/Traubert/nlp-tools/pkg/io"
	"github.com/Traubert/nlp-tools/pkg/layout/forceatlas2"
	"github.com/Traubert/nlp-tools/pkg/pipeline"
	"github.com/Traubert/nlp-tools/pkg/sink"
)

// LayoutRequest is the body of both layout endpoints. Zero values select
// the pipeline defaults. Rounds and Gravity are pointers: nil selects the
// default, while 0 means no layout or no gravity.
type LayoutRequest struct {
	Graph       io.Document          `json:"graph"`
	Rounds      *int                 `json:"rounds,omitempty"`
	Gravity     *float64             `json:"gravity,omitempty"`
	Depth       int                  `json:"depth,omitempty"`
	Layout      *bool                `json:"layout,omitempty"` // ego only, defaults to true
	ScaleFactor float64              `json:"scale_factor,omitempty"`
	Params      *forceatlas2.Options `json:"params,omitempty"`
	Name        string               `json:"name,omitempty"`
	Refresh     bool                 `json:"refresh,omitempty"`
}

// Stats summarizes the run behind a response.
type Stats struct {
	Exported   int   `json:"exported"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	CacheHits  int   `json:"cache_hits"`
	Rounds     int   `json:"rounds"`
	DurationMS int64 `json:"duration_ms"`
}

// LayoutResponse is returned by POST /v1/layout.
type LayoutResponse struct {
	RunID string      `json:"run_id"`
	Name  string      `json:"name"`
	Graph io.Document `json:"graph"`
	Stats Stats       `json:"stats"`
}

// EgoGraph is one ego result.
type EgoGraph struct {
	Name   string      `json:"name"`
	Center string      `json:"center"`
	Graph  io.Document `json:"graph"`
}

// EgoResponse is returned by POST /v1/ego. Graphs follow the sweep order.
type EgoResponse struct {
	RunID  string     `json:"run_id"`
	Graphs []EgoGraph `json:"graphs"`
	Stats  Stats      `json:"stats"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	req, g, err := s.decode(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := s.options(req, false)

	var doc io.Document
	exp := sink.ExporterFunc(func(_ context.Context, l graph.Layoutable, _ string) error {
		doc = io.Encode(l)
		return nil
	})
	res, err := s.runner.Run(r.Context(), g, exp, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{
		RunID: res.RunID,
		Name:  opts.Name,
		Graph: doc,
		Stats: stats(res),
	})
}

func (s *Server) ego(w http.ResponseWriter, r *http.Request) {
	req, g, err := s.decode(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := s.options(req, true)

	var mu sync.Mutex
	docs := make(map[string]io.Document, g.NodeCount())
	exp := sink.ExporterFunc(func(_ context.Context, l graph.Layoutable, name string) error {
		doc := io.Encode(l)
		mu.Lock()
		docs[name] = doc
		mu.Unlock()
		return nil
	})
	res, err := s.runner.Run(r.Context(), g, exp, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := EgoResponse{RunID: res.RunID, Graphs: make([]EgoGraph, 0, len(docs)), Stats: stats(res)}
	for _, c := range ego.Centers(g) {
		name := ego.OutputName(c)
		if doc, ok := docs[name]; ok {
			resp.Graphs = append(resp.Graphs, EgoGraph{Name: name, Center: c.ID, Graph: doc})
			delete(docs, name)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads and checks the request body and builds the graph.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (LayoutRequest, *graph.Graph, error) {
	var req LayoutRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, nil, errBodyTooLarge
		}
		return req, nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request")
	}
	if req.Rounds != nil {
		if err := apperrors.ValidateRounds(*req.Rounds); err != nil {
			return req, nil, err
		}
		if *req.Rounds > s.cfg.MaxRounds {
			return req, nil, apperrors.New(apperrors.ErrCodeInvalidInput, "rounds must be <= %d, got %d", s.cfg.MaxRounds, *req.Rounds)
		}
	}
	g, err := io.Decode(req.Graph)
	if err != nil {
		return req, nil, err
	}
	return req, g, nil
}

// options maps a request onto pipeline options.
func (s *Server) options(req LayoutRequest, egoMode bool) pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Ego = egoMode
	opts.DoLayout = req.Layout == nil || *req.Layout
	if req.Rounds != nil {
		opts.Rounds = *req.Rounds
	}
	if req.Gravity != nil {
		opts.Gravity = *req.Gravity
	}
	opts.Depth = req.Depth
	opts.ScaleFactor = req.ScaleFactor
	opts.Layout = req.Params
	opts.Refresh = req.Refresh
	if req.Name != "" {
		opts.Name = req.Name
	}
	if s.cfg.Workers > 0 {
		opts.Workers = s.cfg.Workers
	}
	return opts
}

func stats(res *pipeline.Result) Stats {
	return Stats{
		Exported:   res.Exported,
		Skipped:    res.Skipped,
		Failed:     res.Failed,
		CacheHits:  res.CacheHits,
		Rounds:     res.Rounds,
		DurationMS: res.Duration.Milliseconds(),
	}
}

// errBodyTooLarge is reported as 413.
var errBodyTooLarge = errors.New("request body too large")

// status maps an error onto an HTTP status code.
func status(err error) int {
	if errors.Is(err, errBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch apperrors.Classify(err) {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeImport,
		apperrors.ErrCodeUnknownNode, apperrors.ErrCodeDuplicateID:
		return http.StatusBadRequest
	case apperrors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := status(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	resp := ErrorResponse{
		Error:     apperrors.UserMessage(err),
		Code:      string(apperrors.Classify(err)),
		RequestID: middleware.GetReqID(r.Context()),
	}
	if errors.Is(err, errBodyTooLarge) {
		resp.Code = string(apperrors.ErrCodeInvalidInput)
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}


// Package pipeline orchestrates layout runs for graphgen.
//
// This package implements the extract → layout → scale → export pipeline
// shared by the CLI and the HTTP API. By centralizing this logic, both entry
// points apply the same defaults, caching and failure policy.
//
// # Modes
//
// A run works in one of two modes:
//
//  1. Whole: the entire graph is laid out once and exported once.
//  2. Ego: for every node, in insertion order, the induced neighborhood up to
//     Depth hops is extracted, optionally laid out and scaled, and exported
//     under "egograph_<label>". A graph with N nodes produces N exports.
//
// # Stages
//
// Each stage is a separate step with explicit hand-off through a [Target]:
//
//   - [ExtractEgo] builds the target for one center node
//   - [Runner.Layout] runs ForceAtlas2 (and the scale transform) with caching
//   - [Runner.Export] hands the target to a [sink.Exporter]
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Ego = true
//	opts.DoLayout = true
//	result, err := runner.Run(ctx, g, exporter, opts)
//
// # Concurrency
//
// With Workers <= 1 the ego sweep runs sequentially on views that alias the
// graph, so every ego layout starts from the positions left by the previous
// one and the graph holds the last computed positions afterwards. With
// Workers > 1 each ego view is detached first: egos are laid out
// independently, the source graph is never modified and exports may happen
// in any order.
//
// [sink.Exporter]: github.com/Traubert/nlp-tools/pkg/sink.Exporter
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Traubert/nlp-tools/pkg/cache"
	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph/ego"
	"github.com/Traubert/nlp-tools/pkg/layout/forceatlas2"
	"github.com/Traubert/nlp-tools/pkg/layout/scale"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultRounds is the round budget per layout invocation.
	DefaultRounds = 450

	// DefaultWholeGravity is the gravity used when laying out the whole graph.
	DefaultWholeGravity = 300.0

	// DefaultScaleFactor is the expansion applied to ego views after layout.
	DefaultScaleFactor = scale.DefaultEgoFactor

	// DefaultDepth is the ego radius in hops.
	DefaultDepth = ego.DefaultDepth

	// DefaultName is the export name of whole-graph runs.
	DefaultName = "graph"

	// DefaultWorkers runs the ego sweep sequentially.
	DefaultWorkers = 1

	// MaxWorkers bounds the parallel ego sweep.
	MaxWorkers = 64
)

// Mode selects whole-graph or ego layout.
type Mode string

// Run modes.
const (
	ModeWhole Mode = "whole"
	ModeEgo   Mode = "ego"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
//
// Zero values of Depth, ScaleFactor, Name and Workers select their
// defaults. Rounds and Gravity are taken as-is: zero rounds is a no-layout
// passthrough and zero gravity turns gravity off, so start from
// [DefaultOptions] to get the default budget and whole-mode gravity.
type Options struct {
	// Mode options
	Ego      bool `json:"ego,omitempty"`
	DoLayout bool `json:"do_layout,omitempty"` // ego mode: lay out and scale each view
	Depth    int  `json:"depth,omitempty"`

	// Layout options
	Rounds      int                  `json:"rounds"`
	Gravity     float64              `json:"gravity"` // whole mode gravity
	ScaleFactor float64              `json:"scale_factor,omitempty"`
	Layout      *forceatlas2.Options `json:"layout,omitempty"` // base ForceAtlas2 parameters
	Refresh     bool                 `json:"refresh,omitempty"` // ignore cached layouts

	// Export options
	Name                  string `json:"name,omitempty"`       // whole mode export name
	NodeColor             string `json:"node_color,omitempty"` // overrides every node's color before export
	ContinueOnExportError bool   `json:"continue_on_export_error,omitempty"`

	// Runtime options (not serialized)
	RunID    string             `json:"-"` // generated when empty
	Workers  int                `json:"-"`
	Logger   *log.Logger        `json:"-"`
	OnTarget func(TargetResult) `json:"-"` // called after every target, serialized

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns whole-mode options with the default round budget.
func DefaultOptions() Options {
	return Options{
		Rounds:      DefaultRounds,
		Depth:       DefaultDepth,
		Gravity:     DefaultWholeGravity,
		ScaleFactor: DefaultScaleFactor,
		Name:        DefaultName,
		Workers:     DefaultWorkers,
	}
}

// Mode returns the run mode selected by the options.
func (o *Options) Mode() Mode {
	if o.Ego {
		return ModeEgo
	}
	return ModeWhole
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := apperrors.ValidateRounds(o.Rounds); err != nil {
		return err
	}
	if o.Depth < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "ego depth must be >= 0, got %d", o.Depth)
	}
	if o.Gravity < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "gravity must be >= 0, got %v", o.Gravity)
	}
	if o.ScaleFactor < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "scale factor must be >= 0, got %v", o.ScaleFactor)
	}
	if o.Workers < 0 || o.Workers > MaxWorkers {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "workers must be between 0 and %d (0 selects %d), got %d", MaxWorkers, DefaultWorkers, o.Workers)
	}
	if !o.Ego && o.Name != "" {
		if err := apperrors.ValidateName(o.Name); err != nil {
			return err
		}
	}

	if o.Depth == 0 {
		o.Depth = DefaultDepth
	}
	if o.ScaleFactor == 0 {
		o.ScaleFactor = DefaultScaleFactor
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// layoutParams returns the ForceAtlas2 parameters for a target of nodeCount
// nodes in the given mode. Anti-overlap is always on; whole mode replaces
// the gravity.
func (o *Options) layoutParams(mode Mode, nodeCount int) forceatlas2.Options {
	params := forceatlas2.DefaultOptions(nodeCount)
	if o.Layout != nil {
		params = *o.Layout
	}
	params.AdjustSizes = true
	if mode == ModeWhole {
		params.Gravity = o.Gravity
	}
	return params
}

// LayoutKeyOpts returns cache key options for a layout of nodeCount nodes.
func (o *Options) LayoutKeyOpts(mode Mode, nodeCount int) cache.LayoutKeyOpts {
	factor := 0.0
	if mode == ModeEgo {
		factor = o.ScaleFactor
	}
	return cache.LayoutKeyOpts{
		Mode:        string(mode),
		Rounds:      o.Rounds,
		ScaleFactor: factor,
		Params:      o.layoutParams(mode, nodeCount),
	}
}

// =============================================================================
// Results
// =============================================================================

// Status is the outcome of one target.
type Status string

// Target outcomes.
const (
	StatusExported Status = "exported"
	StatusSkipped  Status = "skipped" // extraction or layout failed
	StatusFailed   Status = "failed"  // export failed and the run continued
)

// TargetResult describes what happened to one target.
type TargetResult struct {
	Name     string
	Center   string // ego center id, empty in whole mode
	Nodes    int
	Edges    int
	Rounds   int
	CacheHit bool
	Status   Status
	Err      error
	Index    int // position in the sweep, 0-based
	Total    int // number of targets in the run
}

// Result summarizes a pipeline run.
type Result struct {
	RunID      string
	Mode       Mode
	Targets    int
	Exported   int
	Skipped    int
	Failed     int
	CacheHits  int
	Rounds     int // rounds executed across all targets
	Duration   time.Duration
	LayoutTime time.Duration

	started time.Time
}

func (r *Result) String() string {
	return fmt.Sprintf("%s run %s: %d/%d exported, %d skipped, %d failed",
		r.Mode, r.RunID, r.Exported, r.Targets, r.Skipped, r.Failed)
}

// add folds one target outcome into the totals.
func (r *Result) add(tr TargetResult, layoutTime time.Duration) {
	switch tr.Status {
	case StatusExported:
		r.Exported++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	if tr.CacheHit {
		r.CacheHits++
	}
	r.Rounds += tr.Rounds
	r.LayoutTime += layoutTime
}

package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Traubert/nlp-tools/pkg/cache"
	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
	"github.com/Traubert/nlp-tools/pkg/graph/ego"
	"github.com/Traubert/nlp-tools/pkg/observability"
	"github.com/Traubert/nlp-tools/pkg/sink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options, as long as they work on different graphs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration // lifetime of cached layouts
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.DefaultTTL,
	}
}

// Run lays out g and exports the result through exp in the mode selected by
// opts.
func (r *Runner) Run(ctx context.Context, g *graph.Graph, exp sink.Exporter, opts Options) (*Result, error) {
	if opts.Ego {
		return r.RunEgo(ctx, g, exp, opts)
	}
	return r.RunWhole(ctx, g, exp, opts)
}

// RunWhole lays out the entire graph once with the whole-mode gravity and
// exports it under opts.Name. The graph holds the computed positions, and
// opts.NodeColor if set, afterwards.
func (r *Runner) RunWhole(ctx context.Context, g *graph.Graph, exp sink.Exporter, opts Options) (*Result, error) {
	opts.Ego = false
	res, err := r.begin(&opts, ModeWhole)
	if err != nil {
		return nil, err
	}
	res.Targets = 1
	defer r.finish(ctx, res)

	paint(g, opts.NodeColor)
	t := Target{Name: opts.Name, Graph: g}
	opts.Logger.Info("laying out graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "rounds", opts.Rounds)

	tr := TargetResult{Name: t.Name, Nodes: g.NodeCount(), Edges: g.EdgeCount(), Total: 1}
	start := time.Now()
	tr.Rounds, tr.CacheHit, err = r.LayoutWithCacheInfo(ctx, t, ModeWhole, opts)
	layoutTime := time.Since(start)
	if err != nil {
		return res, apperrors.Wrap(apperrors.Classify(err), err, "layout")
	}
	opts.Logger.Debug("computed layout", "rounds", tr.Rounds, "cached", tr.CacheHit, "duration", layoutTime)

	if err := r.Export(ctx, exp, t); err != nil {
		tr.Status, tr.Err = StatusFailed, err
		res.add(tr, layoutTime)
		r.notify(opts, tr)
		if !opts.ContinueOnExportError {
			return res, err
		}
		opts.Logger.Error("export failed", "name", t.Name, "error", err)
		return res, nil
	}
	tr.Status = StatusExported
	res.add(tr, layoutTime)
	r.notify(opts, tr)
	return res, nil
}

// RunEgo sweeps every node of g in insertion order, exporting the ego graph
// of each. A non-empty opts.NodeColor is set on every node of g first. Extraction and layout failures skip the center; export failures
// abort the sweep unless opts.ContinueOnExportError is set.
//
// Returns the partial result together with the first fatal error.
func (r *Runner) RunEgo(ctx context.Context, g *graph.Graph, exp sink.Exporter, opts Options) (*Result, error) {
	opts.Ego = true
	res, err := r.begin(&opts, ModeEgo)
	if err != nil {
		return nil, err
	}
	defer r.finish(ctx, res)

	paint(g, opts.NodeColor)
	centers := ego.Centers(g)
	res.Targets = len(centers)
	r.warnDuplicateNames(opts.Logger, centers)
	opts.Logger.Info("starting ego sweep",
		"centers", len(centers),
		"depth", opts.Depth,
		"layout", opts.DoLayout,
		"workers", opts.Workers)

	if opts.Workers > 1 {
		err = r.sweepParallel(ctx, g, exp, opts, centers, res)
	} else {
		err = r.sweep(ctx, g, exp, opts, centers, res)
	}
	return res, err
}

// sweep processes centers one after another on aliased views.
func (r *Runner) sweep(ctx context.Context, g *graph.Graph, exp sink.Exporter, opts Options, centers []*graph.Node, res *Result) error {
	for i, c := range centers {
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeCanceled, err, "ego sweep stopped after %d of %d centers", i, len(centers))
		}
		tr, layoutTime, err := r.processEgo(ctx, g, c, exp, opts, false)
		tr.Index, tr.Total = i, len(centers)
		res.add(tr, layoutTime)
		r.notify(opts, tr)
		if err != nil {
			return err
		}
	}
	return nil
}

// sweepParallel processes centers on up to opts.Workers goroutines, each on
// a detached view.
func (r *Runner) sweepParallel(ctx context.Context, g *graph.Graph, exp sink.Exporter, opts Options, centers []*graph.Node, res *Result) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)

	var mu sync.Mutex
	for i, c := range centers {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			tr, layoutTime, err := r.processEgo(egCtx, g, c, exp, opts, true)
			tr.Index, tr.Total = i, len(centers)
			mu.Lock()
			res.add(tr, layoutTime)
			r.notify(opts, tr)
			mu.Unlock()
			return err
		})
	}
	err := eg.Wait()
	if err == nil {
		if cerr := ctx.Err(); cerr != nil {
			err = apperrors.Wrap(apperrors.ErrCodeCanceled, cerr, "ego sweep stopped")
		}
	}
	return err
}

// processEgo runs extract, layout and export for one center. The returned
// error is fatal to the sweep; recoverable failures are reported in the
// TargetResult only.
func (r *Runner) processEgo(ctx context.Context, g *graph.Graph, center *graph.Node, exp sink.Exporter, opts Options, detach bool) (TargetResult, time.Duration, error) {
	tr := TargetResult{Center: center.ID, Name: ego.OutputName(center)}

	t, err := ExtractEgo(g, center, opts.Depth, detach)
	if err != nil {
		opts.Logger.Warn("skipping center", "center", center.ID, "error", err)
		tr.Status, tr.Err = StatusSkipped, err
		return tr, 0, nil
	}
	tr.Nodes, tr.Edges = t.Graph.NodeCount(), t.Graph.EdgeCount()

	var layoutTime time.Duration
	if opts.DoLayout {
		start := time.Now()
		tr.Rounds, tr.CacheHit, err = r.LayoutWithCacheInfo(ctx, t, ModeEgo, opts)
		layoutTime = time.Since(start)
		if err != nil {
			if apperrors.Classify(err) == apperrors.ErrCodeCanceled {
				tr.Status, tr.Err = StatusSkipped, err
				return tr, layoutTime, apperrors.Wrap(apperrors.ErrCodeCanceled, err, "layout %s", t.Name)
			}
			opts.Logger.Warn("skipping center", "center", center.ID, "error", err)
			tr.Status, tr.Err = StatusSkipped, err
			return tr, layoutTime, nil
		}
	}

	if err := r.Export(ctx, exp, t); err != nil {
		tr.Status, tr.Err = StatusFailed, err
		if opts.ContinueOnExportError && apperrors.Classify(err) != apperrors.ErrCodeCanceled {
			opts.Logger.Error("export failed", "name", t.Name, "error", err)
			return tr, layoutTime, nil
		}
		return tr, layoutTime, err
	}
	opts.Logger.Debug("exported ego graph", "name", t.Name, "nodes", tr.Nodes, "edges", tr.Edges, "rounds", tr.Rounds, "cached", tr.CacheHit)
	tr.Status = StatusExported
	return tr, layoutTime, nil
}

// warnDuplicateNames logs centers whose output names collide; later exports
// overwrite earlier ones in name-keyed sinks.
func (r *Runner) warnDuplicateNames(logger *log.Logger, centers []*graph.Node) {
	seen := make(map[string]string, len(centers))
	for _, c := range centers {
		name := ego.OutputName(c)
		if prev, dup := seen[name]; dup {
			logger.Warn("duplicate output name", "name", name, "centers", []string{prev, c.ID})
			continue
		}
		seen[name] = c.ID
	}
}

// begin validates the options and starts a result.
func (r *Runner) begin(opts *Options, mode Mode) (*Result, error) {
	r.applyLogger(opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Result{
		RunID:   runID,
		Mode:    mode,
		started: time.Now(),
	}, nil
}

// finish stamps the duration and fires the run hook.
func (r *Runner) finish(ctx context.Context, res *Result) {
	res.Duration = time.Since(res.started)
	observability.Pipeline().OnRunComplete(ctx, string(res.Mode), res.Exported, res.Skipped, res.Failed, res.Duration)
}

func (r *Runner) notify(opts Options, tr TargetResult) {
	if opts.OnTarget != nil {
		opts.OnTarget(tr)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

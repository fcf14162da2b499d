package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Traubert/nlp-tools/pkg/cache"
	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
	"github.com/Traubert/nlp-tools/pkg/graph/ego"
	"github.com/Traubert/nlp-tools/pkg/layout/forceatlas2"
	"github.com/Traubert/nlp-tools/pkg/layout/scale"
	"github.com/Traubert/nlp-tools/pkg/observability"
	"github.com/Traubert/nlp-tools/pkg/sink"
)

// layoutKeyType labels layout entries in cache hooks.
const layoutKeyType = "layout"

// Target is one unit of work: a graph or view and the name it is exported
// under.
type Target struct {
	Name   string
	Center string // ego center id, empty in whole mode
	Graph  graph.Layoutable
}

// paint sets every node's color; an empty color keeps the input colors.
func paint(g *graph.Graph, color string) {
	if color == "" {
		return
	}
	for _, n := range g.Nodes() {
		n.Color = color
	}
}

// =============================================================================
// Extract
// =============================================================================

// ExtractEgo builds the target for the ego graph centered on center.
// With detach set, the view owns copies of its nodes and can be laid out
// concurrently with other targets.
func ExtractEgo(g *graph.Graph, center *graph.Node, depth int, detach bool) (Target, error) {
	v, err := ego.Extract(g, center.ID, depth)
	if err != nil {
		return Target{}, err
	}
	if detach {
		v = v.Detach()
	}
	return Target{
		Name:   ego.OutputName(center),
		Center: center.ID,
		Graph:  v,
	}, nil
}

// =============================================================================
// Layout
// =============================================================================

// LayoutWithCacheInfo lays out the target in place and reports the rounds
// executed and whether the positions came from the cache. In ego mode the
// result is also scaled by opts.ScaleFactor.
//
// With opts.Rounds == 0 no layout runs and nothing is cached; ego targets
// are still scaled.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, t Target, mode Mode, opts Options) (int, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return 0, false, err
	}
	l := t.Graph

	if opts.Rounds == 0 {
		if mode == ModeEgo {
			scale.Apply(l, opts.ScaleFactor)
		}
		return 0, false, nil
	}

	key := r.Keyer.LayoutKey(cache.GraphHash(l), opts.LayoutKeyOpts(mode, l.NodeCount()))
	if !opts.Refresh {
		if pos, ok := r.cachedPositions(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, layoutKeyType)
			graph.ApplyPositions(l, pos)
			return 0, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, layoutKeyType)
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, string(mode), l.NodeCount())
	start := time.Now()
	rounds, err := forceatlas2.Run(ctx, l, opts.layoutParams(mode, l.NodeCount()), opts.Rounds)
	hooks.OnLayoutComplete(ctx, string(mode), rounds, time.Since(start), err)
	if errors.Is(err, forceatlas2.ErrNonFinitePosition) {
		return rounds, false, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "layout %s", t.Name)
	}
	if err != nil {
		return rounds, false, err
	}
	if mode == ModeEgo {
		scale.Apply(l, opts.ScaleFactor)
	}

	if data, err := json.Marshal(graph.Positions(l)); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			opts.Logger.Debug("cache write failed", "target", t.Name, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, layoutKeyType, len(data))
		}
	}
	return rounds, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, t Target, mode Mode, opts Options) (int, error) {
	rounds, _, err := r.LayoutWithCacheInfo(ctx, t, mode, opts)
	return rounds, err
}

// cachedPositions reads a position map from the cache. Unreadable entries
// count as misses.
func (r *Runner) cachedPositions(ctx context.Context, key string) (map[string]graph.Point, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	var pos map[string]graph.Point
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, false
	}
	return pos, true
}

// =============================================================================
// Export
// =============================================================================

// Export hands the target to exp. Failures are wrapped as EXPORT_IO unless
// they already carry a code or come from cancellation.
func (r *Runner) Export(ctx context.Context, exp sink.Exporter, t Target) error {
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, t.Name)
	start := time.Now()
	err := exp.Export(ctx, t.Graph, t.Name)
	hooks.OnExportComplete(ctx, t.Name, time.Since(start), err)
	if err == nil {
		return nil
	}
	if apperrors.GetCode(err) != "" || apperrors.Classify(err) == apperrors.ErrCodeCanceled {
		return err
	}
	return apperrors.Wrap(apperrors.ErrCodeExportIO, err, "export %s", t.Name)
}

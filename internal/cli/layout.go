package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Traubert/nlp-tools/pkg/config"
	"github.com/Traubert/nlp-tools/pkg/graph"
	"github.com/Traubert/nlp-tools/pkg/io"
	"github.com/Traubert/nlp-tools/pkg/pipeline"
	"github.com/Traubert/nlp-tools/pkg/render/dot"
	"github.com/Traubert/nlp-tools/pkg/sink"
	"github.com/Traubert/nlp-tools/pkg/sink/mongo"
)

// runFlags holds the flags shared by the layout and ego commands. Flags the
// user did not set leave the config file values in place.
type runFlags struct {
	input           string
	output          string
	formats         string
	color           string
	rounds          int
	workers         int
	noCache         bool
	refresh         bool
	continueOnError bool
	weights         bool
	detailed        bool

	// whole mode
	name    string
	gravity float64

	// ego mode
	doLayout bool
	depth    int
	scale    float64
}

func (f *runFlags) register(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input graph (JSON)")
	cmd.Flags().StringVarP(&f.output, "output", "o", d.Export.Dir, "output directory")
	cmd.Flags().StringVarP(&f.formats, "format", "f", strings.Join(d.Export.Formats, ","), "output formats: json, dot, svg (comma-separated)")
	cmd.Flags().StringVarP(&f.color, "color", "c", "", "fill color for every node (default: per-node colors)")
	cmd.Flags().IntVarP(&f.rounds, "rounds", "r", d.Layout.Rounds, "layout rounds (0 keeps input positions)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute layouts even when cached")
	cmd.Flags().BoolVar(&f.continueOnError, "continue-on-error", false, "keep going when an export fails")
	cmd.Flags().BoolVar(&f.weights, "weights", false, "scale edge widths by weight (dot, svg)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "include node metadata in labels (dot, svg)")
	_ = cmd.MarkFlagRequired("input")
}

// options merges the config file with the flags the user set.
func (c *CLI) options(cmd *cobra.Command, f *runFlags, ego bool) (pipeline.Options, config.ExportConfig) {
	opts := c.cfg.PipelineOptions(ego)
	exp := c.cfg.Export
	changed := cmd.Flags().Changed

	if changed("rounds") {
		opts.Rounds = f.rounds
	}
	if changed("workers") {
		opts.Workers = f.workers
	}
	if changed("output") {
		exp.Dir = f.output
	}
	if changed("format") {
		exp.Formats = parseFormats(f.formats)
	}
	if changed("color") {
		exp.Color = f.color
		opts.NodeColor = f.color
	}
	if changed("weights") {
		exp.Weights = f.weights
	}
	if changed("detailed") {
		exp.Detailed = f.detailed
	}
	if changed("continue-on-error") {
		opts.ContinueOnExportError = f.continueOnError
	}
	if changed("name") {
		opts.Name = f.name
	}
	if changed("gravity") {
		opts.Gravity = f.gravity
	}
	if changed("layout") {
		opts.DoLayout = f.doLayout
	}
	if changed("depth") {
		opts.Depth = f.depth
	}
	if changed("scale") {
		opts.ScaleFactor = f.scale
	}
	opts.Refresh = f.refresh
	return opts, exp
}

// layoutCommand creates the layout command for whole-graph layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Lay out a whole graph",
		Long: `Lay out a whole graph with ForceAtlas2 and write it to the output directory.

The graph is read from a JSON file with nodes (id, label, x, y, size, color)
and edges (from, to, weight). Nodes keep their input positions as the starting
point; with --rounds 0 they are written unchanged.

Results are cached, so re-running with the same graph and options is instant.`,
		Example: `  graphgen layout -i people.json -o out -f json,svg
  graphgen layout -i people.json -r 1000 --gravity 50 --name people`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, exp := c.options(cmd, f, false)
			return c.execute(cmd.Context(), f, opts, exp)
		},
	}
	f.register(cmd)
	d := config.Default()
	cmd.Flags().StringVar(&f.name, "name", d.Export.Name, "output name")
	cmd.Flags().Float64Var(&f.gravity, "gravity", d.Layout.Gravity, "gravity toward the center")
	return cmd
}

// egoCommand creates the ego command for per-node neighborhood layouts.
func (c *CLI) egoCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "ego",
		Short: "Write the ego graph of every node",
		Long: `Write the ego graph of every node.

For each node, in input order, the subgraph of its neighbors within --depth
hops is extracted and written as egograph_<label>. With --layout each ego
graph is laid out and then spread out by --scale around its centroid.

By default egos are processed one at a time on the shared graph, so each
layout starts from the positions the previous one left behind. With
--workers > 1 egos are laid out independently and in parallel.`,
		Example: `  graphgen ego -i people.json -o egos
  graphgen ego -i people.json -o egos -l -r 300 -w 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, exp := c.options(cmd, f, true)
			return c.execute(cmd.Context(), f, opts, exp)
		},
	}
	f.register(cmd)
	d := config.Default()
	cmd.Flags().BoolVarP(&f.doLayout, "layout", "l", d.Ego.Layout, "lay out each ego graph")
	cmd.Flags().IntVarP(&f.depth, "depth", "d", d.Ego.Depth, "ego radius in hops")
	cmd.Flags().Float64Var(&f.scale, "scale", d.Ego.Scale, "expansion applied after each ego layout")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", d.Layout.Workers, "parallel ego workers")
	return cmd
}

// execute imports the graph, runs the pipeline and reports the result.
func (c *CLI) execute(ctx context.Context, f *runFlags, opts pipeline.Options, exp config.ExportConfig) error {
	progress := newProgress(loggerFromContext(ctx))
	g, err := io.ImportJSON(f.input)
	if err != nil {
		return err
	}
	progress.done(fmt.Sprintf("Imported %d nodes and %d edges", g.NodeCount(), g.EdgeCount()))

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.RunID = uuid.NewString()
	exporter, closeExporter, err := c.newExporter(ctx, exp, opts.RunID)
	if err != nil {
		return err
	}
	defer closeExporter()

	var res *pipeline.Result
	if opts.Ego {
		res, err = c.runEgo(ctx, runner, g, exporter, opts)
	} else {
		res, err = c.runWhole(ctx, runner, g, exporter, opts)
	}
	if err != nil {
		return err
	}

	c.printResult(res, exp)
	return nil
}

// runWhole lays out the whole graph behind a spinner.
func (c *CLI) runWhole(ctx context.Context, runner *pipeline.Runner, g *graph.Graph, exp sink.Exporter, opts pipeline.Options) (*pipeline.Result, error) {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d nodes...", g.NodeCount()))
	if c.interactive() {
		spinner.Start()
	}
	res, err := runner.Run(ctx, g, exp, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return nil, err
	}
	spinner.Stop()
	return res, nil
}

// newExporter builds the file sink and, when configured, the MongoDB sink.
// The returned function releases the sinks.
func (c *CLI) newExporter(ctx context.Context, exp config.ExportConfig, runID string) (sink.Exporter, func(), error) {
	files, err := sink.NewFileSink(exp.Dir, exp.Formats, dot.Options{
		Color:    exp.Color,
		Weights:  exp.Weights,
		Detailed: exp.Detailed,
	})
	if err != nil {
		return nil, nil, err
	}
	if c.cfg.Mongo.URI == "" {
		return files, func() {}, nil
	}

	db, err := mongo.Connect(ctx, c.cfg.Mongo.SinkConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	c.Logger.Debug("exporting to mongo", "database", c.cfg.Mongo.Database, "collection", c.cfg.Mongo.Collection)
	closeFn := func() {
		if err := db.Close(context.WithoutCancel(ctx)); err != nil {
			c.Logger.Warn("close mongo", "error", err)
		}
	}
	return sink.MultiSink{files, db.WithRunID(runID)}, closeFn, nil
}

// printResult summarizes a finished run.
func (c *CLI) printResult(res *pipeline.Result, exp config.ExportConfig) {
	switch {
	case res.Failed > 0 || res.Skipped > 0:
		printWarning("Exported %d of %d graphs (%d skipped, %d failed)", res.Exported, res.Targets, res.Skipped, res.Failed)
	case res.Mode == pipeline.ModeEgo:
		printSuccess("Exported %d ego graphs", res.Exported)
	default:
		printSuccess("Layout complete")
	}
	printFile(exp.Dir)
	printStats(res.Rounds, res.CacheHits, res.Duration)
	c.Logger.Debug("run finished", "run_id", res.RunID, "layout_time", res.LayoutTime)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{sink.FormatJSON}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Traubert/nlp-tools/pkg/cache"
	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
	"github.com/Traubert/nlp-tools/pkg/render/dot"
	"github.com/Traubert/nlp-tools/pkg/sink"
)

// export is one call seen by recorder.
type export struct {
	name   string
	ids    []string
	pos    map[string]graph.Point
	colors []string
}

// recorder is an exporter that remembers every call and fails for the
// names in fail.
type recorder struct {
	mu      sync.Mutex
	exports []export
	fail    map[string]bool
}

func (r *recorder) Export(_ context.Context, g graph.Layoutable, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[name] {
		return errors.New("disk full")
	}
	var ids, colors []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
		colors = append(colors, n.Color)
	}
	r.exports = append(r.exports, export{name: name, ids: ids, pos: graph.Positions(g), colors: colors})
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, e := range r.exports {
		names = append(names, e.name)
	}
	return names
}

// memCache is an in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

// pathGraph builds a - b - c with distinct positions.
func pathGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
}

func build(t *testing.T, ids []string, edges [][2]string) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	for i, id := range ids {
		if err := g.AddNode(graph.Node{ID: id, X: float64(i * 30), Y: float64(i * i * 10)}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(graph.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}
	return g
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(discard{}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func egoOptions(rounds int) Options {
	opts := DefaultOptions()
	opts.Ego = true
	opts.DoLayout = true
	opts.Rounds = rounds
	return opts
}

func TestRunEgoExportsEveryCenter(t *testing.T) {
	ids := []string{"e", "d", "c", "b", "a"}
	g := build(t, ids, [][2]string{{"e", "d"}, {"d", "c"}, {"c", "b"}, {"b", "a"}, {"a", "e"}})
	rec := &recorder{}

	res, err := quietRunner(nil).Run(context.Background(), g, rec, egoOptions(20))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"egograph_e", "egograph_d", "egograph_c", "egograph_b", "egograph_a"}
	if got := rec.names(); !slices.Equal(got, want) {
		t.Errorf("export names = %v, want %v", got, want)
	}
	if res.Targets != 5 || res.Exported != 5 || res.Skipped != 0 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Mode != ModeEgo || res.RunID == "" {
		t.Errorf("mode = %q, run id = %q", res.Mode, res.RunID)
	}
	if res.Rounds == 0 {
		t.Error("no layout rounds recorded")
	}
}

func TestRunEgoPathGraph(t *testing.T) {
	rec := &recorder{}
	opts := egoOptions(0)
	opts.DoLayout = false

	if _, err := quietRunner(nil).Run(context.Background(), pathGraph(t), rec, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := map[string][]string{
		"egograph_a": {"a", "b"},
		"egograph_b": {"b", "a", "c"},
		"egograph_c": {"c", "b"},
	}
	if len(rec.exports) != len(want) {
		t.Fatalf("got %d exports, want %d", len(rec.exports), len(want))
	}
	for _, e := range rec.exports {
		if !slices.Equal(e.ids, want[e.name]) {
			t.Errorf("%s nodes = %v, want %v", e.name, e.ids, want[e.name])
		}
	}
}

func TestRunEgoWithoutLayoutKeepsPositions(t *testing.T) {
	g := pathGraph(t)
	before := graph.Positions(g)
	rec := &recorder{}
	opts := egoOptions(DefaultRounds)
	opts.DoLayout = false

	res, err := quietRunner(nil).Run(context.Background(), g, rec, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Rounds != 0 {
		t.Errorf("Rounds = %d, want 0", res.Rounds)
	}
	for _, e := range rec.exports {
		for id, p := range e.pos {
			if p != before[id] {
				t.Errorf("%s: node %s exported at %v, want %v", e.name, id, p, before[id])
			}
		}
	}
}

func TestRunEgoIsolatedNode(t *testing.T) {
	g := build(t, []string{"a", "b", "lonely"}, [][2]string{{"a", "b"}})
	rec := &recorder{}

	if _, err := quietRunner(nil).Run(context.Background(), g, rec, egoOptions(50)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	last := rec.exports[len(rec.exports)-1]
	if last.name != "egograph_lonely" || !slices.Equal(last.ids, []string{"lonely"}) {
		t.Errorf("last export = %s %v", last.name, last.ids)
	}
	if p := last.pos["lonely"]; p != (graph.Point{X: 60, Y: 40}) {
		t.Errorf("singleton moved to %v", p)
	}
}

func TestRunWholeZeroRounds(t *testing.T) {
	g := pathGraph(t)
	before := graph.Positions(g)
	rec := &recorder{}
	opts := DefaultOptions()
	opts.Rounds = 0

	res, err := quietRunner(nil).Run(context.Background(), g, rec, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rec.names(); !slices.Equal(got, []string{DefaultName}) {
		t.Fatalf("exports = %v, want [%s]", got, DefaultName)
	}
	for id, p := range rec.exports[0].pos {
		if p != before[id] {
			t.Errorf("node %s exported at %v, want %v", id, p, before[id])
		}
	}
	if res.Exported != 1 || res.Rounds != 0 || res.Mode != ModeWhole {
		t.Errorf("result = %+v", res)
	}
}

func TestRunWholeLaysOutInPlace(t *testing.T) {
	g := pathGraph(t)
	before := graph.Positions(g)
	rec := &recorder{}
	opts := DefaultOptions()
	opts.Rounds = 30
	opts.Name = "people"

	res, err := quietRunner(nil).Run(context.Background(), g, rec, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Rounds == 0 {
		t.Error("no rounds executed")
	}
	if rec.exports[0].name != "people" {
		t.Errorf("name = %q", rec.exports[0].name)
	}
	moved := false
	for id, p := range graph.Positions(g) {
		if p != before[id] {
			moved = true
		}
		if p != rec.exports[0].pos[id] {
			t.Errorf("node %s: graph %v, exported %v", id, p, rec.exports[0].pos[id])
		}
	}
	if !moved {
		t.Error("layout left every node in place")
	}
}

func TestRunEgoExportFailure(t *testing.T) {
	tests := []struct {
		name         string
		continueOnIO bool
		wantErr      bool
		wantExported int
	}{
		{"abort", false, true, 1},
		{"continue", true, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{fail: map[string]bool{"egograph_b": true}}
			opts := egoOptions(5)
			opts.ContinueOnExportError = tt.continueOnIO

			res, err := quietRunner(nil).Run(context.Background(), pathGraph(t), rec, opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.Is(err, apperrors.ErrCodeExportIO) {
				t.Errorf("err = %v, want EXPORT_IO", err)
			}
			if res.Exported != tt.wantExported || res.Failed != 1 {
				t.Errorf("exported %d, failed %d; want %d, 1", res.Exported, res.Failed, tt.wantExported)
			}
		})
	}
}

func TestRunWholeExportFailure(t *testing.T) {
	rec := &recorder{fail: map[string]bool{DefaultName: true}}
	opts := DefaultOptions()
	opts.Rounds = 0

	_, err := quietRunner(nil).Run(context.Background(), pathGraph(t), rec, opts)
	if !apperrors.Is(err, apperrors.ErrCodeExportIO) {
		t.Errorf("err = %v, want EXPORT_IO", err)
	}
	if apperrors.ExitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1", apperrors.ExitCode(err))
	}
}

func TestRunCanceled(t *testing.T) {
	for _, ego := range []bool{false, true} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rec := &recorder{}
		opts := egoOptions(10)
		opts.Ego = ego

		res, err := quietRunner(nil).Run(ctx, pathGraph(t), rec, opts)
		if apperrors.Classify(err) != apperrors.ErrCodeCanceled {
			t.Errorf("ego=%v: err = %v, want CANCELED", ego, err)
		}
		if apperrors.ExitCode(err) != 130 {
			t.Errorf("ego=%v: exit code = %d, want 130", ego, apperrors.ExitCode(err))
		}
		if res == nil || res.Exported != 0 || len(rec.exports) != 0 {
			t.Errorf("ego=%v: exported after cancel: %v", ego, rec.names())
		}
	}
}

func TestRunEgoParallel(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	edges := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}, {"e", "f"}, {"f", "a"}, {"a", "d"}}
	g := build(t, ids, edges)
	before := graph.Positions(g)

	rec := &recorder{}
	opts := egoOptions(20)
	opts.Workers = 4
	var calls int
	opts.OnTarget = func(tr TargetResult) {
		calls++
		if tr.Total != len(ids) {
			t.Errorf("Total = %d", tr.Total)
		}
	}

	res, err := quietRunner(nil).Run(context.Background(), g, rec, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := rec.names()
	slices.Sort(got)
	want := []string{"egograph_a", "egograph_b", "egograph_c", "egograph_d", "egograph_e", "egograph_f"}
	if !slices.Equal(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
	if res.Exported != len(ids) || calls != len(ids) {
		t.Errorf("exported %d, callbacks %d", res.Exported, calls)
	}
	for id, p := range graph.Positions(g) {
		if p != before[id] {
			t.Errorf("parallel sweep moved source node %s", id)
		}
	}
}

func TestRunWholeCacheHit(t *testing.T) {
	c := newMemCache()
	r := quietRunner(c)
	opts := DefaultOptions()
	opts.Rounds = 25

	g1 := pathGraph(t)
	g2 := pathGraph(t)

	first, err := r.Run(context.Background(), g1, sinkDiscard(), opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.CacheHits != 0 {
		t.Errorf("first run cache hits = %d", first.CacheHits)
	}
	second, err := r.Run(context.Background(), g2, sinkDiscard(), opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.CacheHits != 1 || second.Rounds != 0 {
		t.Errorf("second run hits %d, rounds %d; want 1, 0", second.CacheHits, second.Rounds)
	}
	p1, p2 := graph.Positions(g1), graph.Positions(g2)
	for id := range p1 {
		if p1[id] != p2[id] {
			t.Errorf("node %s: %v vs cached %v", id, p1[id], p2[id])
		}
	}

	opts.Refresh = true
	third, err := r.Run(context.Background(), pathGraph(t), sinkDiscard(), opts)
	if err != nil {
		t.Fatalf("refresh run: %v", err)
	}
	if third.CacheHits != 0 {
		t.Error("refresh run used the cache")
	}
}

func sinkDiscard() *recorder { return &recorder{} }

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Rounds != 0 || opts.Gravity != 0 {
		t.Errorf("Rounds = %d, Gravity = %v; want zero kept", opts.Rounds, opts.Gravity)
	}
	if opts.Depth != DefaultDepth ||
		opts.ScaleFactor != DefaultScaleFactor || opts.Name != DefaultName || opts.Workers != DefaultWorkers {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.Logger == nil {
		t.Error("Logger not set")
	}
	if DefaultOptions().Rounds != DefaultRounds {
		t.Errorf("DefaultOptions().Rounds = %d", DefaultOptions().Rounds)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"negative rounds", func(o *Options) { o.Rounds = -1 }},
		{"negative depth", func(o *Options) { o.Depth = -2 }},
		{"negative gravity", func(o *Options) { o.Gravity = -1 }},
		{"negative scale", func(o *Options) { o.ScaleFactor = -3 }},
		{"too many workers", func(o *Options) { o.Workers = MaxWorkers + 1 }},
		{"bad name", func(o *Options) { o.Name = "a/b" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.ValidateAndSetDefaults()
			if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Rounds: 10}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	first := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.Depth != opts.Depth || first.Gravity != opts.Gravity || first.Name != opts.Name {
		t.Errorf("second call changed options: %+v vs %+v", first, opts)
	}
}

func TestOptionsZeroGravity(t *testing.T) {
	opts := DefaultOptions()
	opts.Gravity = 0
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if got := opts.layoutParams(ModeWhole, 10).Gravity; got != 0 {
		t.Errorf("whole-mode gravity = %v, want 0", got)
	}
}

func TestOptionsWorkersRange(t *testing.T) {
	opts := DefaultOptions()
	opts.Workers = 0
	if err := opts.ValidateAndSetDefaults(); err != nil || opts.Workers != DefaultWorkers {
		t.Errorf("Workers 0: err %v, workers %d; want default %d", err, opts.Workers, DefaultWorkers)
	}

	opts = DefaultOptions()
	opts.Workers = -1
	err := opts.ValidateAndSetDefaults()
	if err == nil || !strings.Contains(err.Error(), "between 0 and") {
		t.Errorf("Workers -1: err = %v, want range starting at 0", err)
	}
}

func TestLayoutParams(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	whole := opts.layoutParams(ModeWhole, 10)
	if whole.Gravity != DefaultWholeGravity || !whole.AdjustSizes {
		t.Errorf("whole params = %+v", whole)
	}
	egoParams := opts.layoutParams(ModeEgo, 10)
	if egoParams.Gravity == DefaultWholeGravity || !egoParams.AdjustSizes {
		t.Errorf("ego params = %+v", egoParams)
	}
	if opts.LayoutKeyOpts(ModeWhole, 10).ScaleFactor != 0 {
		t.Error("whole mode key carries a scale factor")
	}
}

func TestRunEgoSkipsCenterWhoseLayoutFails(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	if err := g.AddNode(graph.Node{ID: "lost", X: math.Inf(1)}); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	var statuses []Status
	opts := egoOptions(20)
	opts.OnTarget = func(tr TargetResult) { statuses = append(statuses, tr.Status) }

	res, err := quietRunner(nil).Run(context.Background(), g, rec, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rec.names(); !slices.Equal(got, []string{"egograph_a", "egograph_b"}) {
		t.Errorf("exports = %v", got)
	}
	if res.Exported != 2 || res.Skipped != 1 || res.Failed != 0 {
		t.Errorf("exported %d, skipped %d, failed %d; want 2, 1, 0", res.Exported, res.Skipped, res.Failed)
	}
	if !slices.Equal(statuses, []Status{StatusExported, StatusExported, StatusSkipped}) {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestRunWholeNonFinitePosition(t *testing.T) {
	g := pathGraph(t)
	if err := g.AddNode(graph.Node{ID: "lost", Y: math.NaN()}); err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.Rounds = 10

	_, err := quietRunner(nil).Run(context.Background(), g, &recorder{}, opts)
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestRunNodeColor(t *testing.T) {
	for _, egoMode := range []bool{false, true} {
		g := pathGraph(t)
		rec := &recorder{}
		opts := egoOptions(5)
		opts.Ego = egoMode
		opts.NodeColor = "#ff8800"

		if _, err := quietRunner(nil).Run(context.Background(), g, rec, opts); err != nil {
			t.Fatalf("Run(ego=%v): %v", egoMode, err)
		}
		for _, e := range rec.exports {
			for i, c := range e.colors {
				if c != "#ff8800" {
					t.Errorf("ego=%v: %s node %s color %q", egoMode, e.name, e.ids[i], c)
				}
			}
		}
	}

	rec := &recorder{}
	g := build(t, []string{"a"}, nil)
	n, _ := g.Node("a")
	n.Color = "#123456"
	if _, err := quietRunner(nil).Run(context.Background(), g, rec, egoOptions(0)); err != nil {
		t.Fatal(err)
	}
	if got := rec.exports[0].colors[0]; got != "#123456" {
		t.Errorf("input color replaced by %q without NodeColor", got)
	}
}

func TestRunEgoLabelsNeedingSanitizing(t *testing.T) {
	g := graph.New(nil)
	labels := []string{"alpha", `C:\dir`, "line\nbreak", "omega"}
	for i, label := range labels {
		if err := g.AddNode(graph.Node{ID: string(rune('a' + i)), Label: label, X: float64(i * 20), Y: float64(i % 2 * 15)}); err != nil {
			t.Fatal(err)
		}
		if i > 0 {
			if err := g.AddEdge(graph.Edge{From: string(rune('a' + i - 1)), To: string(rune('a' + i))}); err != nil {
				t.Fatal(err)
			}
		}
	}
	dir := t.TempDir()
	files, err := sink.NewFileSink(dir, []string{sink.FormatJSON}, dot.Options{})
	if err != nil {
		t.Fatal(err)
	}

	res, err := quietRunner(nil).Run(context.Background(), g, files, egoOptions(10))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Exported != len(labels) || len(entries) != len(labels) {
		t.Errorf("exported %d, wrote %d files; want %d", res.Exported, len(entries), len(labels))
	}
}

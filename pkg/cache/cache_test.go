package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Traubert/nlp-tools/pkg/graph"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("positions"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "positions" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}

	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should hit")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	if h3 := Hash([]byte("world")); h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func hashGraph(t *testing.T, mutate func(g *graph.Graph)) string {
	t.Helper()
	g := graph.New(nil)
	for _, id := range []string{"a", "b", "c"} {
		if err := g.AddNode(graph.Node{ID: id, X: 1, Y: 2}); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddEdge(graph.Edge{From: "a", To: "b"}); err != nil {
		t.Fatal(err)
	}
	if mutate != nil {
		mutate(g)
	}
	return GraphHash(g)
}

func TestGraphHash(t *testing.T) {
	base := hashGraph(t, nil)
	if again := hashGraph(t, nil); again != base {
		t.Error("GraphHash should be deterministic")
	}

	tests := []struct {
		name    string
		mutate  func(g *graph.Graph)
		changes bool
	}{
		{"position", func(g *graph.Graph) { n, _ := g.Node("a"); n.X = 5 }, true},
		{"size", func(g *graph.Graph) { n, _ := g.Node("b"); n.Size = 3 }, true},
		{"fixed", func(g *graph.Graph) { n, _ := g.Node("c"); n.Meta[graph.MetaFixed] = true }, true},
		{"edge", func(g *graph.Graph) { _ = g.AddEdge(graph.Edge{From: "b", To: "c"}) }, true},
		{"label", func(g *graph.Graph) { n, _ := g.Node("a"); n.Label = "Alice" }, false},
		{"color", func(g *graph.Graph) { n, _ := g.Node("a"); n.Color = "red" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hashGraph(t, tt.mutate)
			if (got != base) != tt.changes {
				t.Errorf("hash changed = %v, want %v", got != base, tt.changes)
			}
		})
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Mode: "ego", Rounds: 450})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Mode: "ego", Rounds: 100})
	lk3 := k.LayoutKey("hash456", LayoutKeyOpts{Mode: "ego", Rounds: 450})
	if lk1 == lk2 || lk1 == lk3 {
		t.Error("Different inputs should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey should start with layout:, got %s", lk1)
	}

	p1 := k.LayoutKey("h", LayoutKeyOpts{Params: map[string]float64{"gravity": 1}})
	p2 := k.LayoutKey("h", LayoutKeyOpts{Params: map[string]float64{"gravity": 300}})
	if p1 == p2 {
		t.Error("Params should be part of the key")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "graphgen:")
	key := scoped.LayoutKey("h", LayoutKeyOpts{})
	if !strings.HasPrefix(key, "graphgen:layout:") {
		t.Errorf("ScopedKeyer key should be prefixed: %s", key)
	}

	// Should use DefaultKeyer when inner is nil
	if got := NewScopedKeyer(nil, "p:").LayoutKey("h", LayoutKeyOpts{}); got != "p:"+key[len("graphgen:"):] {
		t.Errorf("Unexpected key with nil inner: %s", got)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("NewRedisCache should fail without a server")
	}
}

package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Traubert/nlp-tools/pkg/observability"
)

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	m := New(prometheus.NewRegistry())

	m.OnLayoutComplete(ctx, "ego", 450, time.Millisecond, nil)
	m.OnLayoutComplete(ctx, "ego", 0, time.Millisecond, errors.New("boom"))
	m.OnExportComplete(ctx, "egograph_a", time.Millisecond, nil)
	m.OnRunComplete(ctx, "ego", 3, 1, 0, time.Second)
	m.OnCacheHit(ctx, "layout")
	m.OnCacheMiss(ctx, "layout")
	m.OnCacheSet(ctx, "layout", 128)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"layouts ok", m.LayoutsTotal.WithLabelValues("ego", "ok"), 1},
		{"layouts error", m.LayoutsTotal.WithLabelValues("ego", "error"), 1},
		{"exports ok", m.ExportsTotal.WithLabelValues("ok"), 1},
		{"runs", m.RunsTotal.WithLabelValues("ego"), 1},
		{"exported targets", m.RunTargets.WithLabelValues("exported"), 3},
		{"skipped targets", m.RunTargets.WithLabelValues("skipped"), 1},
		{"cache hit", m.CacheTotal.WithLabelValues("layout", "hit"), 1},
		{"cache miss", m.CacheTotal.WithLabelValues("layout", "miss"), 1},
		{"cache bytes", m.CacheBytes, 128},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHTTPMetrics(t *testing.T) {
	ctx := context.Background()
	m := New(prometheus.NewRegistry())

	m.OnRequest(ctx, "POST", "/v1/layout")
	if got := testutil.ToFloat64(m.InFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.OnResponse(ctx, "POST", "/v1/layout", 200, time.Millisecond)
	if got := testutil.ToFloat64(m.InFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/v1/layout", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()

	m := New(prometheus.NewRegistry())
	m.Install()
	if observability.Pipeline() != m || observability.Cache() != m || observability.HTTP() != m {
		t.Error("Install should register all hooks")
	}
}

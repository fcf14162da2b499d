// Package prom implements the observability hooks with Prometheus metrics.
//
// Register the hooks once at startup and expose the registry over HTTP:
//
//	reg := prometheus.NewRegistry()
//	m := prom.New(reg)
//	m.Install()
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Traubert/nlp-tools/pkg/observability"
)

const namespace = "graphgen"

// Metrics holds the collectors fed by the hooks. It implements
// observability.PipelineHooks, observability.CacheHooks and
// observability.HTTPHooks.
type Metrics struct {
	LayoutDuration *prometheus.HistogramVec
	LayoutRounds   *prometheus.HistogramVec
	LayoutsTotal   *prometheus.CounterVec
	ExportDuration prometheus.Histogram
	ExportsTotal   *prometheus.CounterVec
	RunsTotal      *prometheus.CounterVec
	RunTargets     *prometheus.CounterVec
	CacheTotal     *prometheus.CounterVec
	CacheBytes     prometheus.Counter
	InFlight       prometheus.Gauge
	RequestsTotal  *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LayoutDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "layout_duration_seconds",
				Help:      "Layout duration per target in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"mode"},
		),
		LayoutRounds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "layout_rounds",
				Help:      "Rounds executed per layout",
				Buckets:   []float64{0, 10, 50, 100, 250, 450, 1000, 5000},
			},
			[]string{"mode"},
		),
		LayoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "layouts_total",
				Help:      "Total layouts by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		ExportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_duration_seconds",
				Help:      "Export duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total export calls by outcome",
			},
			[]string{"outcome"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total pipeline runs by mode",
			},
			[]string{"mode"},
		),
		RunTargets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "run_targets_total",
				Help:      "Targets processed by pipeline runs, by result",
			},
			[]string{"result"},
		),
		CacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_operations_total",
				Help:      "Cache lookups and writes",
			},
			[]string{"type", "op"},
		),
		CacheBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_written_bytes_total",
				Help:      "Bytes written to the cache",
			},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "HTTP requests currently being served",
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(
		m.LayoutDuration, m.LayoutRounds, m.LayoutsTotal,
		m.ExportDuration, m.ExportsTotal,
		m.RunsTotal, m.RunTargets,
		m.CacheTotal, m.CacheBytes,
		m.InFlight, m.RequestsTotal, m.RequestLatency,
	)
	return m
}

// Install registers m as the global pipeline, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnLayoutStart(context.Context, string, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, mode string, rounds int, d time.Duration, err error) {
	m.LayoutsTotal.WithLabelValues(mode, outcome(err)).Inc()
	if err == nil {
		m.LayoutDuration.WithLabelValues(mode).Observe(d.Seconds())
		m.LayoutRounds.WithLabelValues(mode).Observe(float64(rounds))
	}
}

func (m *Metrics) OnExportStart(context.Context, string) {}

func (m *Metrics) OnExportComplete(_ context.Context, _ string, d time.Duration, err error) {
	m.ExportsTotal.WithLabelValues(outcome(err)).Inc()
	m.ExportDuration.Observe(d.Seconds())
}

func (m *Metrics) OnRunComplete(_ context.Context, mode string, exported, skipped, failed int, _ time.Duration) {
	m.RunsTotal.WithLabelValues(mode).Inc()
	m.RunTargets.WithLabelValues("exported").Add(float64(exported))
	m.RunTargets.WithLabelValues("skipped").Add(float64(skipped))
	m.RunTargets.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheTotal.WithLabelValues(keyType, "set").Inc()
	m.CacheBytes.Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.InFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.InFlight.Dec()
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Traubert/nlp-tools/pkg/io"
	"github.com/Traubert/nlp-tools/pkg/observability"
	"github.com/Traubert/nlp-tools/pkg/observability/prom"
	"github.com/Traubert/nlp-tools/pkg/pipeline"
)

const pathGraph = `{"nodes": [
	{"id": "a", "label": "Alice", "x": 0, "y": 0},
	{"id": "b", "x": 30, "y": 10},
	{"id": "c", "x": 60, "y": 40}
], "edges": [{"from": "a", "to": "b"}, {"from": "b", "to": "c"}]}`

func newTestServer(t *testing.T, cfg Config, metrics http.Handler) *httptest.Server {
	t.Helper()
	logger := log.New(&bytes.Buffer{})
	srv := New(pipeline.NewRunner(nil, nil, logger), cfg, logger, metrics)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func positions(doc io.Document) map[string][2]float64 {
	out := make(map[string][2]float64, len(doc.Nodes))
	for _, n := range doc.Nodes {
		out[n.ID] = [2]float64{n.X, n.Y}
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
}

func TestLayoutPassthrough(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	resp := post(t, ts, "/v1/layout", `{"graph": `+pathGraph+`, "rounds": 0, "name": "people"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[LayoutResponse](t, resp)
	if got.Name != "people" || got.RunID == "" || got.Stats.Exported != 1 {
		t.Errorf("response = %+v", got)
	}
	want := map[string][2]float64{"a": {0, 0}, "b": {30, 10}, "c": {60, 40}}
	for id, p := range positions(got.Graph) {
		if p != want[id] {
			t.Errorf("node %s at %v, want %v", id, p, want[id])
		}
	}
}

func TestLayoutRuns(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	resp := post(t, ts, "/v1/layout", `{"graph": `+pathGraph+`, "rounds": 40}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[LayoutResponse](t, resp)
	if got.Name != pipeline.DefaultName || got.Stats.Rounds == 0 || len(got.Graph.Nodes) != 3 {
		t.Errorf("response = %+v", got)
	}
	if got.Graph.Nodes[0].Label != "Alice" {
		t.Errorf("label = %q", got.Graph.Nodes[0].Label)
	}
}

func TestEgo(t *testing.T) {
	for _, workers := range []int{1, 3} {
		ts := newTestServer(t, Config{Workers: workers}, nil)
		resp := post(t, ts, "/v1/ego", `{"graph": `+pathGraph+`, "rounds": 10}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("workers=%d: status = %d", workers, resp.StatusCode)
		}
		got := decode[EgoResponse](t, resp)
		wantNames := []string{"egograph_Alice", "egograph_b", "egograph_c"}
		wantSizes := []int{2, 3, 2}
		if len(got.Graphs) != len(wantNames) {
			t.Fatalf("workers=%d: got %d graphs", workers, len(got.Graphs))
		}
		for i, eg := range got.Graphs {
			if eg.Name != wantNames[i] || len(eg.Graph.Nodes) != wantSizes[i] {
				t.Errorf("workers=%d: graph %d = %s with %d nodes", workers, i, eg.Name, len(eg.Graph.Nodes))
			}
		}
		if got.Stats.Exported != 3 {
			t.Errorf("workers=%d: exported = %d", workers, got.Stats.Exported)
		}
	}
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/v1/layout", `{"graph": `, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", "/v1/layout", `{"graph": ` + pathGraph + `, "colour": "red"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"negative rounds", "/v1/ego", `{"graph": ` + pathGraph + `, "rounds": -1}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too many rounds", "/v1/layout", `{"graph": ` + pathGraph + `, "rounds": 100}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"dangling edge", "/v1/layout", `{"graph": {"nodes": [{"id": "a"}], "edges": [{"from": "a", "to": "z"}]}}`, http.StatusBadRequest, "IMPORT"},
		{"bad name", "/v1/layout", `{"graph": ` + pathGraph + `, "name": "../x"}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	ts := newTestServer(t, Config{MaxRounds: 50}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			got := decode[ErrorResponse](t, resp)
			if got.Code != tt.code || got.Error == "" || got.RequestID == "" {
				t.Errorf("error response = %+v, want code %s", got, tt.code)
			}
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 16}, nil)
	resp := post(t, ts, "/v1/layout", `{"graph": `+pathGraph+`}`)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	defer observability.Reset()
	reg := prometheus.NewRegistry()
	prom.New(reg).Install()

	ts := newTestServer(t, Config{}, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	post(t, ts, "/v1/layout", `{"graph": `+pathGraph+`, "rounds": 5}`)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"graphgen_http_requests_total", "graphgen_layouts_total", `route="/v1/layout"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

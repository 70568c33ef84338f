package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.VersesSkipped(3)
	m.EdgesSeen(10)
	m.EdgesDropped("unresolved", 2)
	m.EdgesDropped("unresolved", 1)
	m.Groups(4, 1)
	m.Dataset("books.json", 73, 2048)
	m.Run("all", nil, 1700000000)
	m.Run("all", errors.New("boom"), 1700000100)

	if got := testutil.ToFloat64(m.versesSkipped); got != 3 {
		t.Fatalf("verses skipped: want=3 got=%v", got)
	}
	if got := testutil.ToFloat64(m.edgesDropped.WithLabelValues("unresolved")); got != 3 {
		t.Fatalf("unresolved: want=3 got=%v", got)
	}
	if got := testutil.ToFloat64(m.groupsEmpty); got != 1 {
		t.Fatalf("empty groups: want=1 got=%v", got)
	}
	if got := testutil.ToFloat64(m.datasetRecords.WithLabelValues("books.json")); got != 73 {
		t.Fatalf("records: want=73 got=%v", got)
	}
	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("all", "failure")); got != 1 {
		t.Fatalf("failures: want=1 got=%v", got)
	}
	if got := testutil.ToFloat64(m.lastSuccessUnix); got != 1700000000 {
		t.Fatalf("last success: want=1700000000 got=%v", got)
	}
}

func TestMetricsPush(t *testing.T) {
	var hits atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics()
	m.EdgesSeen(1)
	if err := m.Push(context.Background(), srv.URL, "logosgraph_export", "run-1"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("push requests: want=1 got=%d", hits.Load())
	}
	if p, _ := path.Load().(string); !strings.Contains(p, "/job/logosgraph_export") || !strings.Contains(p, "run_id/run-1") {
		t.Fatalf("push path: got %q", p)
	}
}

func TestMetricsPushDisabled(t *testing.T) {
	if err := NewMetrics().Push(context.Background(), "", "job", ""); err != nil {
		t.Fatalf("Push without url: %v", err)
	}
}

func TestParseHeadersAndRatio(t *testing.T) {
	h := parseHeaders("Authorization=Bearer x, bad, =v, k=")
	if len(h) != 1 || h["Authorization"] != "Bearer x" {
		t.Fatalf("headers: got %v", h)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty headers: want nil")
	}
	cases := map[string]float64{"": 1, "0.25": 0.25, "-1": 0, "7": 1, "x": 1}
	for raw, want := range cases {
		if got := parseRatio(raw); got != want {
			t.Fatalf("parseRatio(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	if ctx == nil {
		t.Fatalf("StartSpan returned nil context")
	}
}

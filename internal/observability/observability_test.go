package observability

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = abc ,bad, =x, tenant=t1")
	if len(got) != 2 || got["api-key"] != "abc" || got["tenant"] != "t1" {
		t.Fatalf("parseHeaders: got=%v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0.25: 0.25, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v): want=%v got=%v", in, want, got)
		}
	}
}

func TestInitOTelDisabledReturnsShutdown(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{})
	if shutdown == nil {
		t.Fatalf("shutdown should never be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", 200, time.Millisecond)
	m.ObserveIngest("ingest", true, 1, 0, time.Second)
	m.ObserveTutorial("ai", true, time.Second)
	m.IncRateLimited()
	m.SetStoreUp("kv", true)
	m.ObserveVectorOp("qdrant", "query", false, time.Millisecond)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("nil handler: want=503 got=%d", rec.Code)
	}
}

func TestMetricsRecordAndExpose(t *testing.T) {
	m := NewMetrics()
	m.ObserveIngest("ingest", true, 4, 1, 2*time.Second)
	m.ObserveAPI("POST", "/api/repositories", 201, 10*time.Millisecond)
	m.SetStoreUp("vector", false)

	if got := testutil.ToFloat64(m.ingestCommits.WithLabelValues("ok")); got != 4 {
		t.Fatalf("ingest ok: want=4 got=%v", got)
	}
	if got := testutil.ToFloat64(m.ingestCommits.WithLabelValues("error")); got != 1 {
		t.Fatalf("ingest error: want=1 got=%v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`onb_api_requests_total{method="POST",route="/api/repositories",status="201"} 1`,
		`onb_store_up{store="vector"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSource(t *testing.T) {
	r := New()
	r.ObserveSource("ebay", "ok", 120*time.Millisecond, 7)
	r.ObserveSource("ebay", "ok", 80*time.Millisecond, 3)
	r.ObserveSource("ebay", "timeout", 8*time.Second, 0)

	if got := testutil.ToFloat64(r.SourceRequests.WithLabelValues("ebay", "ok")); got != 2 {
		t.Fatalf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.ToFloat64(r.SourceRequests.WithLabelValues("ebay", "timeout")); got != 1 {
		t.Fatalf("expected 1 timeout, got %v", got)
	}
	if got := testutil.ToFloat64(r.SourceResults.WithLabelValues("ebay")); got != 10 {
		t.Fatalf("expected 10 results, got %v", got)
	}
}

func TestObserveHTTPAndRateLimited(t *testing.T) {
	r := New()
	r.ObserveHTTP("/api/parts/search", 200)
	r.ObserveHTTP("/api/parts/search", 200)
	r.ObserveRateLimited()

	if got := testutil.ToFloat64(r.HTTPRequests.WithLabelValues("/api/parts/search", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(r.RateLimited); got != 1 {
		t.Fatalf("expected 1 rate limited, got %v", got)
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.ObserveSource("ebay", "ok", time.Second, 1)
	r.ObserveAggregate(time.Second, 1)
	r.ObserveHTTP("/", 200)
	r.ObserveRateLimited()
}

func TestHandlerExposition(t *testing.T) {
	r := New()
	r.ObserveSource("walmart", "error", time.Second, 0)
	r.ObserveAggregate(2*time.Second, 4)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`wessley_parts_source_requests_total{outcome="error",source="walmart"} 1`,
		`wessley_parts_aggregate_duration_seconds_count 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

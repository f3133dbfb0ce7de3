package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGenerationCounter(t *testing.T) {
	c := NewCollector()
	c.Generation("prompt", "openai")
	c.Generation("prompt", "openai")
	c.Generation("reflection", "fallback:no_entries")

	if got := testutil.ToFloat64(c.Generations.WithLabelValues("prompt", "openai")); got != 2 {
		t.Errorf("prompt/openai = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Generations.WithLabelValues("reflection", "fallback:no_entries")); got != 1 {
		t.Errorf("reflection/no_entries = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Generation("prompt", "openai")
	c.IndexOp("upsert", errors.New("x"))
	c.Request("GET", "/", "200", time.Millisecond)
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.IndexOp("upsert", nil)
	c.Request("POST", "/api/index-entry", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`reflect_index_operations_total{op="upsert",outcome="ok"} 1`,
		`reflect_http_requests_total{method="POST",route="/api/index-entry",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jondoveston/sensortop/internal/sensor"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExporterObserve(t *testing.T) {
	e := NewExporter()
	snap := &sensor.Snapshot{
		Hostname:             "web-01",
		Timestamp:            "2025-07-19T16:30:00Z",
		CPUUsage:             f64(42),
		LoadAvg5:             f64(1.25),
		RunningProcesses:     i64(3),
		FailedLoginsLastHour: i64(7),
	}
	e.Observe(snap)

	if got := testutil.ToFloat64(e.cpu.WithLabelValues("web-01")); got != 42 {
		t.Errorf("cpu = %v, want 42", got)
	}
	if got := testutil.ToFloat64(e.load.WithLabelValues("web-01", "5m")); got != 1.25 {
		t.Errorf("load 5m = %v, want 1.25", got)
	}
	if got := testutil.ToFloat64(e.failedLogins.WithLabelValues("web-01")); got != 7 {
		t.Errorf("failed logins = %v, want 7", got)
	}
	if got := testutil.ToFloat64(e.lastCollect.WithLabelValues("web-01")); got != float64(time.Date(2025, 7, 19, 16, 30, 0, 0, time.UTC).Unix()) {
		t.Errorf("last collect = %v", got)
	}
	if n := testutil.CollectAndCount(e.processes); n != 1 {
		t.Errorf("processes series = %d, want 1", n)
	}
	if n := testutil.CollectAndCount(e.memory); n != 0 {
		t.Errorf("memory series = %d, want 0 for null fields", n)
	}

	snap.CPUUsage = nil
	e.Observe(snap)
	if n := testutil.CollectAndCount(e.cpu); n != 0 {
		t.Errorf("cpu series = %d after null reading, want 0", n)
	}
}

func TestExporterRequests(t *testing.T) {
	e := NewExporter()
	e.ObserveRequest("/sensor", http.StatusOK)
	e.ObserveRequest("/sensor", http.StatusOK)
	e.ObserveRequest("/sensor", http.StatusForbidden)

	if got := testutil.ToFloat64(e.requests.WithLabelValues("/sensor", "200")); got != 2 {
		t.Errorf("200s = %v, want 2", got)
	}
	if got := testutil.ToFloat64(e.requests.WithLabelValues("/sensor", "403")); got != 1 {
		t.Errorf("403s = %v, want 1", got)
	}
}

func TestRateLimiterEvictIdle(t *testing.T) {
	now := time.Date(2025, 7, 19, 16, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.getLimiter("10.0.0.1")
	now = now.Add(4 * time.Minute)
	rl.getLimiter("10.0.0.2")
	now = now.Add(2 * time.Minute)

	if n := rl.evictIdle(5 * time.Minute); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if _, ok := rl.limiters["10.0.0.2"]; !ok {
		t.Error("recently seen client should be kept")
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := do("10.0.0.1:1234"); code != http.StatusNoContent {
		t.Fatalf("first request = %d", code)
	}
	if code := do("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", code)
	}
	if code := do("10.0.0.2:1234"); code != http.StatusNoContent {
		t.Fatalf("other client = %d, want 204", code)
	}
}

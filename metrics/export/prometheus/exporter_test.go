package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	deliveryAuth "github.com/MrEthical07/deliveryAuth"
)

type fakeSource struct {
	snapshot deliveryAuth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() deliveryAuth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                          { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := New(fakeSource{
		snapshot: deliveryAuth.MetricsSnapshot{
			Counters:   map[deliveryAuth.MetricID]uint64{},
			Histograms: map[deliveryAuth.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	exp := New(fakeSource{
		snapshot: deliveryAuth.MetricsSnapshot{
			Counters: map[deliveryAuth.MetricID]uint64{
				deliveryAuth.MetricLoginSuccess:         7,
				deliveryAuth.MetricRefreshReuseDetected: 1,
			},
			Histograms: map[deliveryAuth.MetricID][]uint64{
				deliveryAuth.MetricAuthenticateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"deliveryauth_login_success_total 7",
		"deliveryauth_refresh_reuse_detected_total 1",
		"deliveryauth_login_failure_total 0",
		"deliveryauth_authenticate_latency_seconds_bucket{le=\"0.005\"} 1",
		"deliveryauth_authenticate_latency_seconds_bucket{le=\"+Inf\"} 36",
		"deliveryauth_authenticate_latency_seconds_count 36",
		"deliveryauth_audit_dropped_total 2",
		"# TYPE deliveryauth_logout_total counter",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderFromEngine(t *testing.T) {
	var engine *deliveryAuth.Engine
	if got := New(engine).Render(); got != "" {
		t.Fatalf("nil engine must render nothing, got:\n%s", got)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := New(fakeSource{
		snapshot: deliveryAuth.MetricsSnapshot{
			Counters:   map[deliveryAuth.MetricID]uint64{deliveryAuth.MetricLoginSuccess: 1},
			Histograms: map[deliveryAuth.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := New(fakeSource{
		snapshot: deliveryAuth.MetricsSnapshot{
			Counters: map[deliveryAuth.MetricID]uint64{
				deliveryAuth.MetricLoginSuccess:   1000,
				deliveryAuth.MetricLoginFailure:   40,
				deliveryAuth.MetricRefreshSuccess: 800,
				deliveryAuth.MetricRefreshFailure: 10,
				deliveryAuth.MetricAuthenticated:  50000,
			},
			Histograms: map[deliveryAuth.MetricID][]uint64{
				deliveryAuth.MetricAuthenticateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}

package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) NotificationsDropped() uint64               { return f.dropped }

func scrape(t *testing.T, exp *PrometheusExporter) string {
	t.Helper()
	rr := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	return string(body)
}

func TestScrapeEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	if got := scrape(t, exp); strings.Contains(got, "gosession_") {
		t.Fatalf("expected no gosession series for disabled metrics, got:\n%s", got)
	}
}

func TestScrapeIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricRetryAttempt: 7,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricRequestLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := scrape(t, exp)
	for _, want := range []string{
		"gosession_retry_attempt_total 7",
		"gosession_forced_logout_total 0",
		`gosession_request_latency_seconds_bucket{le="0.025"} 1`,
		`gosession_request_latency_seconds_bucket{le="2.5"} 28`,
		`gosession_request_latency_seconds_bucket{le="+Inf"} 36`,
		"gosession_request_latency_seconds_count 36",
		"gosession_notification_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHistogramOmittedWithoutLatency(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{goSession.MetricLogin: 1},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	out := scrape(t, exp)
	if strings.Contains(out, "gosession_request_latency_seconds") {
		t.Fatalf("histogram should be absent, got:\n%s", out)
	}
	if !strings.Contains(out, "gosession_login_total 1") {
		t.Fatalf("expected login counter, got:\n%s", out)
	}
}

func TestExporterRegistersWithExternalRegistry(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{goSession.MetricLogin: 3},
		},
	})

	reg := prometheus.NewRegistry()
	if err := reg.Register(exp); err != nil {
		t.Fatalf("register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected gathered families")
	}
}

func TestExporterFromClient(t *testing.T) {
	client, err := goSession.New().WithConfig(goSession.DefaultConfig()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer client.Close()

	client.Metrics().Inc(goSession.MetricLogin)
	out := scrape(t, NewPrometheusExporter(client))
	if !strings.Contains(out, "gosession_login_total 1") {
		t.Fatalf("expected login counter from client, got:\n%s", out)
	}
}

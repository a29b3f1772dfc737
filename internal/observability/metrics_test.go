package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()
	metrics, handler, err := NewMetrics(context.Background())
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}
	if metrics == nil {
		t.Fatal("Expected metrics to be non-nil")
	}
	if handler == nil {
		t.Fatal("Expected handler to be non-nil")
	}
}

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("scrape returned %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	return string(body)
}

func TestRecordJobMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	metrics, handler, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	metrics.RecordQueueDepth(ctx, 2)
	metrics.RecordJobStarted(ctx, "/bin/echo")
	metrics.RecordJobFinished(ctx, "/bin/echo", "completed", "", 0.02)
	metrics.RecordJobStarted(ctx, "echo")
	metrics.RecordJobFinished(ctx, "echo", "failed", "clobber_refused", 0.001)

	body := scrape(t, handler)
	for _, want := range []string{
		"fanout_jobs_total",
		"fanout_job_errors_total",
		"fanout_queue_depth",
		`command="echo"`,
		`reason="clobber_refused"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
	if strings.Contains(body, `command="/bin/echo"`) {
		t.Error("expected command attribute to use the base name")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	metrics, _, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/livez", 200, 0.001)
	metrics.RecordHTTPRequest(ctx, "GET", "/v1/run", 200, 0.002)
	metrics.RecordHTTPRequest(ctx, "GET", "/v1/jobs/abc123", 404, 0.005)
}

func TestRecordDispatcherMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	metrics, handler, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	metrics.RecordDispatcherDelivered(ctx, 0.05)
	metrics.RecordDispatcherFailed(ctx)
	metrics.RecordDispatcherDropped(ctx)
	metrics.RecordDispatcherQueueSize(ctx, 3)

	if body := scrape(t, handler); !strings.Contains(body, "fanout_dispatcher_delivered_total") {
		t.Error("scrape output missing dispatcher counter")
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected string
	}{
		{"/livez", "/livez"},
		{"/metrics", "/metrics"},
		{"/v1/run", "/v1/run"},
		{"/v1/jobs/", "/v1/jobs/"},
		{"/v1/jobs/abc123", "/v1/jobs/{jobId}"},
		{"/v1/jobs/0f1e2d3c-0000-5000-8000-000000000000", "/v1/jobs/{jobId}"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.input); got != tt.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

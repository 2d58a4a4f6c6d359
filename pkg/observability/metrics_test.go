package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry without panicking.
func TestMetricsRegistered(t *testing.T) {
	// Vectors only appear after first observation, so seed them.
	HTTPRequestsTotal.WithLabelValues("200", "post").Inc()
	HTTPRequestDuration.WithLabelValues("post").Observe(0.1)
	CompletionsTotal.WithLabelValues("test", "ok").Inc()
	CompletionDuration.WithLabelValues("test").Observe(0.1)
	TokensTotal.WithLabelValues("test", "input").Add(10)
	ToolCallsTotal.WithLabelValues("test", "ok").Inc()
	UnexpectedFinishReasonsTotal.WithLabelValues("test", "length").Inc()
	LimiterWait.Observe(0.01)
	ToolExecutionsTotal.WithLabelValues("test_tool", "ok").Inc()
	StreamAnomaliesTotal.WithLabelValues("test", "protocol_error").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"mistral_http_requests_total":             false,
		"mistral_http_request_duration_seconds":   false,
		"mistral_http_requests_in_flight":         false,
		"mistral_completions_total":               false,
		"mistral_completion_duration_seconds":     false,
		"mistral_tokens_total":                    false,
		"mistral_tool_calls_total":                false,
		"mistral_unexpected_finish_reasons_total": false,
		"mistral_limiter_wait_seconds":            false,
		"mistral_limiter_permits_in_use":          false,
		"mistral_tool_executions_total":           false,
		"mistral_stream_anomalies_total":          false,
	}

	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

// TestInstrumentTransportCountsRequests verifies that the transport
// increments the request counter with the response status code.
func TestInstrumentTransportCountsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	client := &http.Client{Transport: InstrumentTransport(nil)}

	okBefore := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("200", "get"))
	notFoundBefore := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("404", "get"))

	for _, path := range []string{"/", "/missing"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
	}

	if delta := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("200", "get")) - okBefore; delta != 1 {
		t.Errorf("200 count delta = %f, want 1", delta)
	}
	if delta := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("404", "get")) - notFoundBefore; delta != 1 {
		t.Errorf("404 count delta = %f, want 1", delta)
	}
}

// TestInstrumentTransportRecordsDuration verifies a duration sample is
// recorded per request.
func TestInstrumentTransportRecordsDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	before := histogramCount(t, HTTPRequestDuration, "post")

	client := &http.Client{Transport: InstrumentTransport(http.DefaultTransport)}
	resp, err := client.Post(srv.URL, "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	if after := histogramCount(t, HTTPRequestDuration, "post"); after-before != 1 {
		t.Errorf("expected histogram sample count to increase by 1, got delta=%d", after-before)
	}
}

// TestInstrumentTransportInFlight verifies the gauge is raised while the
// request waits for headers and lowered afterwards.
func TestInstrumentTransportInFlight(t *testing.T) {
	baseline := testutil.ToFloat64(HTTPRequestsInFlight)

	inHandler := make(chan float64, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inHandler <- testutil.ToFloat64(HTTPRequestsInFlight)
	}))
	defer srv.Close()

	client := &http.Client{Transport: InstrumentTransport(nil)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	if during := <-inHandler; during != baseline+1 {
		t.Errorf("expected in-flight gauge=%f during request, got %f", baseline+1, during)
	}
	if after := testutil.ToFloat64(HTTPRequestsInFlight); after != baseline {
		t.Errorf("expected in-flight gauge=%f after request, got %f", baseline, after)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	TokensTotal.WithLabelValues("handler-test", "output").Add(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `mistral_tokens_total{direction="output",model="handler-test"} 3`) {
		t.Errorf("metrics output missing token counter:\n%s", rec.Body.String())
	}
}

// histogramCount reads the observation count from a HistogramVec.
func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	obs, err := hv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting histogram metric: %v", err)
	}
	if err := obs.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing histogram metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

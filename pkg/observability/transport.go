package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InstrumentTransport wraps an http.RoundTripper to record outbound request
// metrics.
//
// It captures:
//   - mistral_http_requests_total (counter): per request with code and method labels
//   - mistral_http_request_duration_seconds (histogram): time to response headers
//   - mistral_http_requests_in_flight (gauge): requests awaiting response headers
//
// Streaming bodies are read after RoundTrip returns, so the duration covers
// the wait for the first byte only. Full stream time is CompletionDuration.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperInFlight(HTTPRequestsInFlight,
		promhttp.InstrumentRoundTripperCounter(HTTPRequestsTotal,
			promhttp.InstrumentRoundTripperDuration(HTTPRequestDuration, next),
		),
	)
}

// Handler returns the HTTP handler that serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

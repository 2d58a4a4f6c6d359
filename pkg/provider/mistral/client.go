package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/debug"
	"github.com/rhuss/mistral-bridge/pkg/observability"
)

// DefaultAPIURL is the public Mistral endpoint.
const DefaultAPIURL = "https://api.mistral.ai/v1"

// ChunkStream is an ordered, lazily read sequence of stream chunks.
// *ssestream.Stream[StreamResponse] satisfies it.
type ChunkStream interface {
	// Next advances to the next chunk. It returns false at the end of the
	// stream or on error.
	Next() bool
	Current() StreamResponse
	// Err returns the error that stopped the stream, if any.
	Err() error
	Close() error
}

// Client performs HTTP requests against the Mistral API.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a Client. Outbound requests are instrumented with
// Prometheus metrics. timeout bounds non-streaming calls only; streams are
// controlled by their context.
func NewClient(transport http.RoundTripper, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Transport: observability.InstrumentTransport(transport)},
		timeout:    timeout,
	}
}

// StreamCompletion posts req to <apiURL>/chat/completions and returns the
// decoded chunk stream. An empty apiKey fails before any network call. A
// non-2xx response is returned as an *api.APIError. The caller must Close
// the returned stream.
func (c *Client) StreamCompletion(ctx context.Context, apiURL, apiKey string, req Request) (ChunkStream, error) {
	if apiKey == "" {
		return nil, missingKeyError()
	}
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := endpoint(apiURL, "/chat/completions")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("X-Request-ID", requestID)

	debug.Log(debug.Providers, "mistral request",
		"request_id", requestID,
		"url", url,
		"model", req.Model,
		"messages", len(req.Messages),
		"tools", len(req.Tools),
		"api_key", debug.RedactKey(apiKey),
	)
	if debug.TraceIsEnabled(debug.Providers) {
		debug.Raw(debug.Providers, string(body))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := MapHTTPError(resp)
		debug.Log(debug.Providers, "mistral request failed",
			"request_id", requestID, "status", resp.StatusCode, "error", apiErr.Message)
		return nil, apiErr
	}

	return ssestream.NewStream[StreamResponse](ssestream.NewDecoder(resp), nil), nil
}

// ListModels returns the models the API reports for apiKey.
func (c *Client) ListModels(ctx context.Context, apiURL, apiKey string) ([]ModelCard, error) {
	if apiKey == "" {
		return nil, missingKeyError()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(apiURL, "/models"), nil)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, MapHTTPError(resp)
	}

	var models ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, api.NewProtocolError(fmt.Sprintf("failed to parse models response: %s", err.Error()))
	}
	return models.Data, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func endpoint(apiURL, path string) string {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return strings.TrimRight(apiURL, "/") + path
}

package mistral

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/debug"
	"github.com/rhuss/mistral-bridge/pkg/observability"
	"github.com/rhuss/mistral-bridge/pkg/provider"
)

// LanguageModel is a Mistral model bound to the provider's credentials.
// Each instance owns a limiter with provider.DefaultConcurrentRequests
// permits; calls beyond that queue.
type LanguageModel struct {
	model   Model
	state   *State
	client  *Client
	limiter *provider.RequestLimiter
}

// Ensure LanguageModel implements provider.LanguageModel at compile time.
var _ provider.LanguageModel = (*LanguageModel)(nil)

func newLanguageModel(m Model, state *State, client *Client) *LanguageModel {
	return &LanguageModel{
		model:   m,
		state:   state,
		client:  client,
		limiter: provider.NewRequestLimiter(provider.DefaultConcurrentRequests),
	}
}

func (m *LanguageModel) ID() string           { return m.model.ID }
func (m *LanguageModel) Name() string         { return m.model.Name() }
func (m *LanguageModel) ProviderID() string   { return ProviderID }
func (m *LanguageModel) ProviderName() string { return ProviderName }
func (m *LanguageModel) TelemetryID() string  { return ProviderID + "/" + m.model.ID }
func (m *LanguageModel) MaxTokenCount() int   { return m.model.MaxTokens }
func (m *LanguageModel) MaxOutputTokens() int { return m.model.MaxOutputTokens }

// Model returns the catalog entry.
func (m *LanguageModel) Model() Model { return m.model }

// Limiter returns the model's request limiter.
func (m *LanguageModel) Limiter() *provider.RequestLimiter { return m.limiter }

// Capabilities reports tool and image support from the catalog.
func (m *LanguageModel) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ToolCalling:      m.model.SupportsTools,
		Vision:           m.model.SupportsImages,
		MaxContextWindow: m.model.MaxTokens,
	}
}

// SupportsToolChoice is true for every choice when the model supports tools.
func (m *LanguageModel) SupportsToolChoice(api.ToolChoice) bool {
	return m.model.SupportsTools
}

// StreamCompletion translates req, waits for a request permit and opens the
// stream. The permit is held until the returned channel is closed. A
// missing API key fails before queueing.
func (m *LanguageModel) StreamCompletion(ctx context.Context, req *api.Request) (<-chan api.Event, error) {
	start := time.Now()

	var maxTokens *int
	if m.model.MaxOutputTokens > 0 {
		n := m.model.MaxOutputTokens
		maxTokens = &n
	}
	wire := IntoMistral(req, m.model.ID, maxTokens)

	apiKey, apiURL := m.state.Credentials()
	if apiKey == "" {
		observability.CompletionsTotal.WithLabelValues(m.model.ID, "error").Inc()
		return nil, missingKeyError()
	}

	release, err := m.limiter.Acquire(ctx)
	if err != nil {
		observability.CompletionsTotal.WithLabelValues(m.model.ID, "canceled").Inc()
		return nil, err
	}

	stream, err := m.client.StreamCompletion(ctx, apiURL, apiKey, wire)
	if err != nil {
		release()
		observability.CompletionsTotal.WithLabelValues(m.model.ID, "error").Inc()
		return nil, err
	}

	debug.Log(debug.Providers, "mistral stream opened",
		"model", m.model.ID, "messages", len(wire.Messages), "tools", len(wire.Tools),
		"max_tokens", formatMaxTokens(wire.MaxTokens))

	events := make(chan api.Event, 16)
	go func() {
		status := "ok"
		defer func() {
			stream.Close()
			release()
			observability.CompletionsTotal.WithLabelValues(m.model.ID, status).Inc()
			observability.CompletionDuration.WithLabelValues(m.model.ID).Observe(time.Since(start).Seconds())
			close(events)
		}()

		mapper := NewEventMapper()
		mapper.MapStream(ctx, stream, func(ev api.Event) bool {
			m.record(ev)
			if ev.Type == api.EventError {
				status = "error"
			}
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		})

		if ctx.Err() != nil {
			status = "canceled"
			slog.Debug("mistral stream canceled", "model", m.model.ID, "error", ctx.Err())
		}
		if n := mapper.Pending(); n > 0 && status == "ok" {
			slog.Warn("mistral stream ended with undrained tool calls", "model", m.model.ID, "pending", n)
		}
	}()

	return events, nil
}

// record updates per-event metrics.
func (m *LanguageModel) record(ev api.Event) {
	switch ev.Type {
	case api.EventUsageUpdate:
		observability.TokensTotal.WithLabelValues(m.model.ID, "input").Add(float64(ev.Usage.InputTokens))
		observability.TokensTotal.WithLabelValues(m.model.ID, "output").Add(float64(ev.Usage.OutputTokens))
	case api.EventToolUse:
		observability.ToolCallsTotal.WithLabelValues(m.model.ID, "ok").Inc()
	case api.EventToolUseParseError:
		observability.ToolCallsTotal.WithLabelValues(m.model.ID, "parse_error").Inc()
	case api.EventError:
		if api.IsErrorType(ev.Err, api.ErrorTypeIncompleteToolCall) {
			observability.ToolCallsTotal.WithLabelValues(m.model.ID, "incomplete").Inc()
		}
	case api.EventStop:
		if !KnownFinishReason(ev.FinishReason) {
			observability.UnexpectedFinishReasonsTotal.WithLabelValues(m.model.ID, ev.FinishReason).Inc()
		}
	}
}

// IsMissingKey reports whether err stems from a missing API key.
func IsMissingKey(err error) bool {
	return errors.Is(err, ErrMissingAPIKey)
}

// formatMaxTokens renders a max_tokens value for logs.
func formatMaxTokens(n *int) string {
	if n == nil {
		return "default"
	}
	return strconv.Itoa(*n)
}

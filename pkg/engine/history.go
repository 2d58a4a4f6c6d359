package engine

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/observability"
	"github.com/rhuss/mistral-bridge/pkg/tools"
)

// pendingCall is a tool call collected from one turn. Calls whose
// arguments failed to parse carry their error result up front and are
// never executed.
type pendingCall struct {
	call   tools.ToolCall
	result *tools.ToolResult
}

// turnCollector folds the events of one model call into an assistant
// message plus the tool calls it requested.
type turnCollector struct {
	model   string // telemetry ID, for logs and metrics
	text    strings.Builder
	content []api.Content
	calls   []pendingCall

	usage      api.TokenUsage
	stopReason api.StopReason
	stopped    bool
	skipped    int // recoverable stream errors
	err        error
}

func (t *turnCollector) add(ev api.Event) {
	switch ev.Type {
	case api.EventTextDelta:
		t.text.WriteString(ev.Text)

	case api.EventToolUse:
		t.flushText()
		tu := *ev.ToolUse
		t.content = append(t.content, api.ToolUseContent(tu))
		t.calls = append(t.calls, pendingCall{call: tools.CallFromToolUse(tu)})

	case api.EventToolUseParseError:
		pe := *ev.ParseError
		t.flushText()
		// The model must see a well-formed call next to the error result.
		t.content = append(t.content, api.ToolUseContent(api.ToolUse{
			ID:              pe.ID,
			Name:            pe.ToolName,
			Input:           map[string]any{},
			IsInputComplete: true,
		}))
		r := tools.ParseErrorResult(pe)
		t.calls = append(t.calls, pendingCall{
			call:   tools.ToolCall{ID: pe.ID, Name: pe.ToolName, Arguments: pe.RawInput},
			result: &r,
		})

	case api.EventUsageUpdate:
		t.usage = *ev.Usage

	case api.EventStop:
		t.stopReason = ev.StopReason
		t.stopped = true

	case api.EventError:
		if recoverable(ev.Err) {
			t.skipped++
			slog.Warn("skipping malformed stream chunk", "model", t.model, "error", ev.Err)
			observability.StreamAnomaliesTotal.WithLabelValues(t.model, string(errorType(ev.Err))).Inc()
			return
		}
		if t.err == nil {
			t.err = ev.Err
		}
	}
}

// recoverable reports whether err concerns a single chunk or tool call.
// Such errors leave the rest of the turn usable.
func recoverable(err error) bool {
	return api.IsErrorType(err, api.ErrorTypeIncompleteToolCall) ||
		api.IsErrorType(err, api.ErrorTypeProtocol)
}

func errorType(err error) api.ErrorType {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return "unknown"
}

func (t *turnCollector) flushText() {
	if t.text.Len() == 0 {
		return
	}
	t.content = append(t.content, api.TextContent(t.text.String()))
	t.text.Reset()
}

// message returns the assistant message for the turn, or false when the
// model produced nothing.
func (t *turnCollector) message() (api.Message, bool) {
	t.flushText()
	if len(t.content) == 0 {
		return api.Message{}, false
	}
	return api.Message{Role: api.RoleAssistant, Content: t.content}, true
}

// toolResultMessage builds the user message answering calls.
func toolResultMessage(calls []pendingCall, results []tools.ToolResult) api.Message {
	content := make([]api.Content, 0, len(results))
	for i, r := range results {
		content = append(content, r.Content(calls[i].call.Name))
	}
	return api.Message{Role: api.RoleUser, Content: content}
}

package mistral

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/debug"
)

// Finish reasons with a defined mapping. Anything else ends the turn and is
// reported as unexpected.
const (
	FinishReasonStop      = "stop"
	FinishReasonToolCalls = "tool_calls"
)

// ErrNoChoices is the message of the protocol error emitted for a chunk
// without choices.
const ErrNoChoices = "Response contained no choices"

// ErrIncompleteToolCall is the message of the error emitted for a tool call
// that finished without an id or a name.
const ErrIncompleteToolCall = "Received incomplete tool call: missing id or name"

// KnownFinishReason reports whether reason has a defined mapping.
func KnownFinishReason(reason string) bool {
	return reason == FinishReasonStop || reason == FinishReasonToolCalls
}

// RawToolCall accumulates the fragments of one streamed tool call.
type RawToolCall struct {
	ID        string
	Name      string
	Arguments strings.Builder
}

// EventMapper turns stream chunks into api events. It holds the partial
// tool calls of exactly one stream and must not be shared between streams
// or goroutines.
type EventMapper struct {
	toolCalls map[int]*RawToolCall
}

// NewEventMapper returns a mapper with an empty accumulator.
func NewEventMapper() *EventMapper {
	return &EventMapper{toolCalls: make(map[int]*RawToolCall)}
}

// Pending returns the number of tool calls accumulated but not yet drained.
func (m *EventMapper) Pending() int {
	return len(m.toolCalls)
}

// MapEvent consumes one chunk and returns the events it produces, in order.
func (m *EventMapper) MapEvent(chunk StreamResponse) []api.Event {
	if len(chunk.Choices) == 0 {
		return []api.Event{api.ErrorEvent(api.NewProtocolError(ErrNoChoices))}
	}
	choice := chunk.Choices[0]

	var events []api.Event
	if choice.Delta.Content != nil {
		events = append(events, api.TextDelta(*choice.Delta.Content))
	}

	for _, frag := range choice.Delta.ToolCalls {
		m.accumulate(frag)
	}

	if chunk.Usage != nil {
		events = append(events, api.UsageUpdate(api.TokenUsage{
			InputTokens:  chunk.Usage.PromptTokens,
			OutputTokens: chunk.Usage.CompletionTokens,
		}))
	}

	if choice.FinishReason != nil {
		reason := *choice.FinishReason
		switch reason {
		case FinishReasonStop:
			events = append(events, api.Stop(api.StopEndTurn, reason))
		case FinishReasonToolCalls:
			events = append(events, m.drain()...)
			events = append(events, api.Stop(api.StopToolUse, reason))
		default:
			slog.Error("unexpected mistral finish reason", "finish_reason", reason)
			events = append(events, api.Stop(api.StopEndTurn, reason))
		}
	}

	return events
}

func (m *EventMapper) accumulate(frag ToolCallChunk) {
	entry, ok := m.toolCalls[frag.Index]
	if !ok {
		entry = &RawToolCall{}
		m.toolCalls[frag.Index] = entry
	}
	if frag.ID != nil && *frag.ID != "" {
		entry.ID = *frag.ID
	}
	if frag.Function == nil {
		return
	}
	if frag.Function.Name != nil && *frag.Function.Name != "" {
		entry.Name = *frag.Function.Name
	}
	if frag.Function.Arguments != nil {
		entry.Arguments.WriteString(*frag.Function.Arguments)
	}
}

// drain empties the accumulator in ascending index order.
func (m *EventMapper) drain() []api.Event {
	indexes := make([]int, 0, len(m.toolCalls))
	for idx := range m.toolCalls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	events := make([]api.Event, 0, len(indexes))
	for _, idx := range indexes {
		tc := m.toolCalls[idx]
		delete(m.toolCalls, idx)

		if tc.ID == "" || tc.Name == "" {
			events = append(events, api.ErrorEvent(api.NewIncompleteToolCallError(
				fmt.Sprintf("%s (index %d, id %q, name %q)", ErrIncompleteToolCall, idx, tc.ID, tc.Name))))
			continue
		}

		raw := tc.Arguments.String()
		var input any
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			events = append(events, api.ToolUseParseErrorEvent(api.ToolUseParseError{
				ID:       tc.ID,
				ToolName: tc.Name,
				RawInput: raw,
				Message:  err.Error(),
			}))
			continue
		}

		events = append(events, api.ToolUseEvent(api.ToolUse{
			ID:              tc.ID,
			Name:            tc.Name,
			RawInput:        raw,
			Input:           input,
			IsInputComplete: true,
		}))
	}
	return events
}

// MapStream reads every chunk of stream through m and hands the resulting
// events to emit in order. A stream failure becomes a single EventError and
// ends the sequence. MapStream stops early when emit returns false or ctx
// is done.
func (m *EventMapper) MapStream(ctx context.Context, stream ChunkStream, emit func(api.Event) bool) {
	for stream.Next() {
		if ctx.Err() != nil {
			return
		}
		chunk := stream.Current()
		if debug.TraceIsEnabled(debug.Streaming) {
			if data, err := json.Marshal(chunk); err == nil {
				debug.Trace(debug.Streaming, "chunk", "data", string(data))
			}
		}
		for _, ev := range m.MapEvent(chunk) {
			if !emit(ev) {
				return
			}
		}
	}

	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		emit(api.ErrorEvent(MapStreamError(err)))
	}
}

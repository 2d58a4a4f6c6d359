package api

// EventType classifies an item of a completion stream.
type EventType int

const (
	EventTextDelta         EventType = iota // Incremental assistant text
	EventUsageUpdate                        // Token usage totals
	EventToolUse                            // Complete tool call with parsed input
	EventToolUseParseError                  // Tool call whose arguments are not valid JSON
	EventStop                               // Model stopped generating
	EventError                              // Error surfaced in the stream
)

// String returns a short name for logs.
func (t EventType) String() string {
	switch t {
	case EventTextDelta:
		return "text_delta"
	case EventUsageUpdate:
		return "usage_update"
	case EventToolUse:
		return "tool_use"
	case EventToolUseParseError:
		return "tool_use_parse_error"
	case EventStop:
		return "stop"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// StopReason explains why the model stopped.
type StopReason string

const (
	StopEndTurn StopReason = "end_turn"
	StopToolUse StopReason = "tool_use"
)

// TokenUsage holds token counts reported by the provider.
type TokenUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

// ToolUseParseError describes a tool call whose accumulated arguments could
// not be parsed. It is not fatal: the caller decides how to present it.
type ToolUseParseError struct {
	ID       string `json:"id"`
	ToolName string `json:"tool_name"`
	RawInput string `json:"raw_input"`
	Message  string `json:"json_parse_error"`
}

// Event is a single item of a completion stream.
type Event struct {
	// Type indicates what kind of event this is.
	Type EventType

	// Text is the delta for EventTextDelta.
	Text string

	// Usage is populated for EventUsageUpdate.
	Usage *TokenUsage

	// ToolUse is populated for EventToolUse.
	ToolUse *ToolUse

	// ParseError is populated for EventToolUseParseError.
	ParseError *ToolUseParseError

	// StopReason is populated for EventStop.
	StopReason StopReason

	// FinishReason is the raw provider finish signal behind an EventStop.
	// It lets observers tell an unrecognised reason apart from a normal stop.
	FinishReason string

	// Err is populated for EventError.
	Err error
}

// TextDelta returns an EventTextDelta.
func TextDelta(text string) Event {
	return Event{Type: EventTextDelta, Text: text}
}

// UsageUpdate returns an EventUsageUpdate.
func UsageUpdate(u TokenUsage) Event {
	return Event{Type: EventUsageUpdate, Usage: &u}
}

// ToolUseEvent returns an EventToolUse.
func ToolUseEvent(tu ToolUse) Event {
	return Event{Type: EventToolUse, ToolUse: &tu}
}

// ToolUseParseErrorEvent returns an EventToolUseParseError.
func ToolUseParseErrorEvent(pe ToolUseParseError) Event {
	return Event{Type: EventToolUseParseError, ParseError: &pe}
}

// Stop returns an EventStop.
func Stop(reason StopReason, finishReason string) Event {
	return Event{Type: EventStop, StopReason: reason, FinishReason: finishReason}
}

// ErrorEvent returns an EventError.
func ErrorEvent(err error) Event {
	return Event{Type: EventError, Err: err}
}

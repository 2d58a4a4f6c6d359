package engine

import (
	"context"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/tools"
)

// EventKind classifies loop progress events.
type EventKind int

const (
	// EventModel forwards an event from the model stream.
	EventModel EventKind = iota
	// EventToolStarted precedes a tool execution.
	EventToolStarted
	// EventToolFinished follows a tool execution.
	EventToolFinished
)

// Event reports loop progress to a Writer.
type Event struct {
	Kind EventKind

	// Turn is the 1-based model call the event belongs to.
	Turn int

	// Model is set for EventModel.
	Model api.Event

	// Call is set for tool events.
	Call *tools.ToolCall

	// Result is set for EventToolFinished.
	Result *tools.ToolResult
}

// Writer receives loop events as they happen. A write error stops the loop.
type Writer interface {
	WriteEvent(ctx context.Context, ev Event) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, ev Event) error

// WriteEvent calls f.
func (f WriterFunc) WriteEvent(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// discard is used when Run is called without a writer.
type discard struct{}

func (discard) WriteEvent(context.Context, Event) error { return nil }

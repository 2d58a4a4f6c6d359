package tools

import (
	"context"
	"encoding/json"

	"github.com/rhuss/mistral-bridge/pkg/api"
)

// ToolKind classifies how a tool is hosted and executed.
type ToolKind int

const (
	// ToolKindFunction is an in-process Go function registered with a
	// FunctionExecutor.
	ToolKindFunction ToolKind = iota

	// ToolKindMCP is a tool connected via the Model Context Protocol.
	// The engine calls the MCP server and feeds the result back to the
	// model within the tool loop.
	ToolKindMCP
)

// String returns the kind name used in logs.
func (k ToolKind) String() string {
	switch k {
	case ToolKindFunction:
		return "function"
	case ToolKindMCP:
		return "mcp"
	default:
		return "unknown"
	}
}

// ToolExecutor executes tool calls.
type ToolExecutor interface {
	// Kind returns the type of tools this executor handles.
	Kind() ToolKind

	// CanExecute checks if this executor can handle the given tool name.
	CanExecute(toolName string) bool

	// Execute runs the tool and returns the result. A returned error means
	// the executor itself failed; tool-level failures are reported through
	// ToolResult.IsError.
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)
}

// ToolProvider is an executor that can also describe its tools to the model.
type ToolProvider interface {
	ToolExecutor

	// Definitions returns the tools the executor offers.
	Definitions(ctx context.Context) []api.ToolDefinition
}

// ToolCall represents a model's request to invoke a tool.
type ToolCall struct {
	// ID is the unique call identifier assigned by the model.
	ID string

	// Name is the tool function name.
	Name string

	// Arguments is the JSON-encoded arguments string.
	Arguments string
}

// CallFromToolUse converts a completed tool use into a call. The raw
// argument text is forwarded as produced by the model; a tool use built
// without it is re-encoded from Input.
func CallFromToolUse(tu api.ToolUse) ToolCall {
	args := tu.RawInput
	if args == "" && tu.Input != nil {
		if data, err := json.Marshal(tu.Input); err == nil {
			args = string(data)
		}
	}
	return ToolCall{ID: tu.ID, Name: tu.Name, Arguments: args}
}

// ToolResult represents the output of a tool execution.
type ToolResult struct {
	// CallID matches the originating ToolCall.ID.
	CallID string

	// Output is the tool output content (text).
	Output string

	// Image is set when the tool responded with an image instead of text.
	Image *api.Image

	// IsError indicates that the output is an error message.
	IsError bool
}

// ErrorResult builds an error result for call.
func ErrorResult(callID, message string) ToolResult {
	return ToolResult{CallID: callID, Output: message, IsError: true}
}

// ParseErrorResult turns a tool use whose arguments could not be parsed
// into an error result the model can react to.
func ParseErrorResult(pe api.ToolUseParseError) ToolResult {
	return ErrorResult(pe.ID, "invalid arguments for tool "+pe.ToolName+": "+pe.Message)
}

// Content renders the result as a tool result message part.
func (r ToolResult) Content(toolName string) api.Content {
	body := api.ToolResultBody{Text: r.Output}
	if r.Image != nil {
		img := *r.Image
		body = api.ToolResultBody{Image: &img}
	}
	return api.ToolResultContent(api.ToolResult{
		ToolUseID: r.CallID,
		ToolName:  toolName,
		IsError:   r.IsError,
		Content:   body,
	})
}

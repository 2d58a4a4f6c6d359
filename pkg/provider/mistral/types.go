package mistral

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mistral Chat Completions request and stream types. These mirror the
// shapes accepted and emitted by POST /v1/chat/completions.

// Request is the body of a streaming chat completion call.
type Request struct {
	Model             string           `json:"model"`
	Messages          []RequestMessage `json:"messages"`
	Stream            bool             `json:"stream"`
	MaxTokens         *int             `json:"max_tokens,omitempty"`
	Temperature       *float64         `json:"temperature,omitempty"`
	ToolChoice        *ToolChoice      `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool            `json:"parallel_tool_calls,omitempty"`
	Tools             []ToolDefinition `json:"tools"`
	Stop              []string         `json:"stop,omitempty"`
}

// Role tags a wire message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// RequestMessage is one message of the conversation. Which fields are
// meaningful depends on Role:
//   - system: Content (plain)
//   - user: Content (plain or multipart)
//   - assistant: optional Content (plain) and ToolCalls
//   - tool: Content (plain) and ToolCallID
type RequestMessage struct {
	Role       Role            `json:"role"`
	Content    *MessageContent `json:"content,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

// SystemMessage returns a system message.
func SystemMessage(text string) RequestMessage {
	return RequestMessage{Role: RoleSystem, Content: PlainContent(text)}
}

// UserMessage returns a user message with the given content.
func UserMessage(content *MessageContent) RequestMessage {
	return RequestMessage{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant message with text and no tool calls.
func AssistantMessage(text string) RequestMessage {
	return RequestMessage{Role: RoleAssistant, Content: PlainContent(text)}
}

// ToolMessage returns the result of a tool call.
func ToolMessage(toolCallID, text string) RequestMessage {
	return RequestMessage{Role: RoleTool, Content: PlainContent(text), ToolCallID: toolCallID}
}

// Text returns the plain text of the message, or "" when it has none or
// is multipart.
func (m RequestMessage) Text() string {
	if m.Content == nil {
		return ""
	}
	return m.Content.Plain
}

// MessageContent is either a plain string or a list of parts. It starts
// plain and converts to multipart when the first image part is pushed;
// existing text is preserved as a leading text part.
type MessageContent struct {
	Plain string
	Parts []MessagePart
}

// PlainContent returns plain string content.
func PlainContent(text string) *MessageContent {
	return &MessageContent{Plain: text}
}

// IsMultipart reports whether the content serializes as a list of parts.
func (c *MessageContent) IsMultipart() bool {
	return c.Parts != nil
}

// IsEmpty reports whether no text or parts have been added.
func (c *MessageContent) IsEmpty() bool {
	return c.Parts == nil && c.Plain == ""
}

// PushPart appends a part. Text folds into the plain string until an image
// arrives.
func (c *MessageContent) PushPart(p MessagePart) {
	if c.Parts == nil {
		if p.Type == PartText {
			c.Plain += p.Text
			return
		}
		c.Parts = make([]MessagePart, 0, 2)
		if c.Plain != "" {
			c.Parts = append(c.Parts, TextPart(c.Plain))
		}
		c.Plain = ""
	}
	c.Parts = append(c.Parts, p)
}

// MarshalJSON encodes plain content as a JSON string and multipart content
// as an array.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Plain)
}

// UnmarshalJSON accepts either encoding.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		c.Plain = ""
		c.Parts = []MessagePart{}
		return json.Unmarshal(data, &c.Parts)
	}
	c.Parts = nil
	if err := json.Unmarshal(data, &c.Plain); err != nil {
		return fmt.Errorf("message content: %w", err)
	}
	return nil
}

// PartType discriminates MessagePart.
type PartType string

const (
	PartText     PartType = "text"
	PartImageURL PartType = "image_url"
)

// MessagePart is a single element of multipart user content.
type MessagePart struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}

// TextPart returns a text part.
func TextPart(text string) MessagePart {
	return MessagePart{Type: PartText, Text: text}
}

// ImagePart returns an image reference part. url is usually a data: URL.
func ImagePart(url string) MessagePart {
	return MessagePart{Type: PartImageURL, ImageURL: url}
}

// ToolCall is a function invocation recorded on an assistant message.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds function name and JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition describes a function the model may call.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition is the function part of a tool definition.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolChoice mirrors the neutral tool choice on the wire.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceAny  ToolChoice = "any"
	ToolChoiceNone ToolChoice = "none"
)

// StreamResponse is a single chunk of a streaming response.
type StreamResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// StreamChoice is one choice of a chunk. Only the first choice is read.
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// StreamDelta holds incremental content. A nil Content means the chunk
// carried no text; an empty string is still a (zero-length) delta.
type StreamDelta struct {
	Role      *string         `json:"role,omitempty"`
	Content   *string         `json:"content,omitempty"`
	ToolCalls []ToolCallChunk `json:"tool_calls,omitempty"`
}

// ToolCallChunk is a fragment of a tool call keyed by Index.
type ToolCallChunk struct {
	Index    int                `json:"index"`
	ID       *string            `json:"id,omitempty"`
	Function *FunctionCallChunk `json:"function,omitempty"`
}

// FunctionCallChunk holds incremental function call data.
type FunctionCallChunk struct {
	Name      *string `json:"name,omitempty"`
	Arguments *string `json:"arguments,omitempty"`
}

// Usage holds token totals reported on the final chunk.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse is the error body returned by the API. Mistral uses both a
// flat shape and the OpenAI-style nested "error" object.
type ErrorResponse struct {
	Object  string `json:"object"`
	Message any    `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
	Detail  any    `json:"detail"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// ModelsResponse is the response from GET /v1/models.
type ModelsResponse struct {
	Object string      `json:"object"`
	Data   []ModelCard `json:"data"`
}

// ModelCard describes one remote model.
type ModelCard struct {
	ID               string            `json:"id"`
	Object           string            `json:"object"`
	OwnedBy          string            `json:"owned_by"`
	Name             string            `json:"name"`
	MaxContextLength int               `json:"max_context_length"`
	Capabilities     ModelCapabilities `json:"capabilities"`
}

// ModelCapabilities lists what a remote model supports.
type ModelCapabilities struct {
	CompletionChat  bool `json:"completion_chat"`
	FunctionCalling bool `json:"function_calling"`
	Vision          bool `json:"vision"`
}

package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ContentKind discriminates the Content union.
type ContentKind string

const (
	ContentText             ContentKind = "text"
	ContentThinking         ContentKind = "thinking"
	ContentRedactedThinking ContentKind = "redacted_thinking"
	ContentImage            ContentKind = "image"
	ContentToolUse          ContentKind = "tool_use"
	ContentToolResult       ContentKind = "tool_result"
)

// Content is a single part of a message. Exactly one payload field is
// populated, selected by Kind:
//   - ContentText, ContentThinking: Text
//   - ContentRedactedThinking: Data
//   - ContentImage: Image
//   - ContentToolUse: ToolUse
//   - ContentToolResult: ToolResult
//
// Use the constructors below rather than building values by hand.
type Content struct {
	Kind ContentKind `json:"kind"`

	Text string `json:"text,omitempty"`

	// Signature accompanies thinking text on providers that sign it.
	Signature string `json:"signature,omitempty"`

	// Data is the opaque payload of redacted thinking.
	Data string `json:"data,omitempty"`

	Image      *Image      `json:"image,omitempty"`
	ToolUse    *ToolUse    `json:"tool_use,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// TextContent returns a plain text part.
func TextContent(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// ThinkingContent returns a reasoning part.
func ThinkingContent(text, signature string) Content {
	return Content{Kind: ContentThinking, Text: text, Signature: signature}
}

// RedactedThinkingContent returns an opaque reasoning part.
func RedactedThinkingContent(data string) Content {
	return Content{Kind: ContentRedactedThinking, Data: data}
}

// ImageContent returns an image part.
func ImageContent(img Image) Content {
	return Content{Kind: ContentImage, Image: &img}
}

// ToolUseContent returns a tool invocation part.
func ToolUseContent(tu ToolUse) Content {
	return Content{Kind: ContentToolUse, ToolUse: &tu}
}

// ToolResultContent returns a tool result part.
func ToolResultContent(tr ToolResult) Content {
	return Content{Kind: ContentToolResult, ToolResult: &tr}
}

// Image is a base64-encoded PNG image.
type Image struct {
	// Source holds the base64 data without any data URL prefix.
	Source string `json:"source"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// DataURL returns the image as a data: URL.
func (i Image) DataURL() string {
	return "data:image/png;base64," + i.Source
}

// ToolUse is a request from the model to invoke a tool.
type ToolUse struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// RawInput is the argument JSON exactly as the model produced it.
	RawInput string `json:"raw_input"`

	// Input is the parsed form of RawInput.
	Input any `json:"input"`

	// IsInputComplete is false while arguments are still streaming.
	IsInputComplete bool `json:"is_input_complete"`
}

// ToolResult carries the output of a tool back to the model.
type ToolResult struct {
	ToolUseID string         `json:"tool_use_id"`
	ToolName  string         `json:"tool_name"`
	IsError   bool           `json:"is_error"`
	Content   ToolResultBody `json:"content"`
}

// ToolResultBody is either text or an image.
type ToolResultBody struct {
	Text  string `json:"text,omitempty"`
	Image *Image `json:"image,omitempty"`
}

// IsImage reports whether the tool responded with an image.
func (b ToolResultBody) IsImage() bool {
	return b.Image != nil
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role      `json:"role"`
	Content []Content `json:"content"`

	// Cache marks the message as a prompt-cache anchor on providers that
	// support it.
	Cache bool `json:"cache,omitempty"`
}

// StringContents concatenates the textual parts of the message.
func (m Message) StringContents() string {
	var b strings.Builder
	for _, c := range m.Content {
		switch c.Kind {
		case ContentText, ContentThinking:
			b.WriteString(c.Text)
		case ContentToolResult:
			if c.ToolResult != nil && !c.ToolResult.Content.IsImage() {
				b.WriteString(c.ToolResult.Content.Text)
			}
		case ContentRedactedThinking, ContentImage, ContentToolUse:
		}
	}
	return b.String()
}

// ToolChoice controls whether and how the model may call tools.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceAny  ToolChoice = "any"
	ToolChoiceNone ToolChoice = "none"
)

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Request is a vendor-neutral completion request.
type Request struct {
	Messages    []Message        `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	ToolChoice  *ToolChoice      `json:"tool_choice,omitempty"`
	Stop        []string         `json:"stop,omitempty"`

	ThreadID string `json:"thread_id,omitempty"`
	PromptID string `json:"prompt_id,omitempty"`
}

// Clone returns a copy of the request whose message slice can be appended
// to without affecting the original.
func (r *Request) Clone() *Request {
	c := *r
	c.Messages = append([]Message(nil), r.Messages...)
	c.Tools = append([]ToolDefinition(nil), r.Tools...)
	return &c
}

// UserMessage is a convenience constructor for a text-only user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []Content{TextContent(text)}}
}

// SystemMessage is a convenience constructor for a text-only system turn.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: []Content{TextContent(text)}}
}

// ParseRole converts a role name into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	case RoleSystem:
		return RoleSystem, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// Choice returns a pointer to c.
func Choice(c ToolChoice) *ToolChoice {
	return &c
}

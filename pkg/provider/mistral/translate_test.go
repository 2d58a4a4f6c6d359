package mistral

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rhuss/mistral-bridge/pkg/api"
)

func roles(msgs []RequestMessage) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = string(m.Role)
	}
	return strings.Join(parts, ",")
}

func TestIntoMistral_SystemAndUser(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{
			api.SystemMessage("You are helpful"),
			api.UserMessage("Hello"),
		},
		Temperature: api.Float64(0.5),
	}

	got := IntoMistral(req, "mistral-small-latest", nil)

	if !got.Stream {
		t.Error("stream must always be true")
	}
	if got.Model != "mistral-small-latest" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d (%s)", len(got.Messages), roles(got.Messages))
	}
	if got.Messages[0].Role != RoleSystem || got.Messages[0].Text() != "You are helpful" {
		t.Errorf("message 0 = %+v", got.Messages[0])
	}
	if got.Messages[1].Role != RoleUser || got.Messages[1].Text() != "Hello" {
		t.Errorf("message 1 = %+v", got.Messages[1])
	}
	if got.Temperature == nil || *got.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", got.Temperature)
	}
	if got.ToolChoice != nil {
		t.Errorf("tool_choice = %v, want nil", *got.ToolChoice)
	}
	if got.Tools == nil || len(got.Tools) != 0 {
		t.Errorf("tools = %#v, want empty slice", got.Tools)
	}
	if got.ParallelToolCalls != nil {
		t.Error("parallel_tool_calls should be omitted without tools")
	}
	if got.MaxTokens != nil {
		t.Error("max_tokens should be omitted when not given")
	}

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := wire["tool_choice"]; ok {
		t.Error("tool_choice should not be serialized")
	}
	if wire["stream"] != true {
		t.Errorf("stream = %v", wire["stream"])
	}
	tools, ok := wire["tools"].([]any)
	if !ok || len(tools) != 0 {
		t.Errorf("tools = %#v, want empty JSON array", wire["tools"])
	}
	if !strings.Contains(string(data), `"tools":[]`) {
		t.Errorf("wire body %s lacks \"tools\":[]", data)
	}
}

func TestIntoMistral_MessageCountMatchesNonEmptyMessages(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{
			api.SystemMessage("sys"),
			api.UserMessage("one"),
			api.UserMessage(""),
			{Role: api.RoleUser},
			api.UserMessage("two"),
		},
	}

	got := IntoMistral(req, "m", nil)
	if len(got.Messages) != 3 {
		t.Errorf("expected 3 messages, got %d (%s)", len(got.Messages), roles(got.Messages))
	}
}

func TestIntoMistral_MaxTokens(t *testing.T) {
	n := 1024
	got := IntoMistral(&api.Request{Messages: []api.Message{api.UserMessage("hi")}}, "m", &n)
	if got.MaxTokens == nil || *got.MaxTokens != 1024 {
		t.Errorf("max_tokens = %v, want 1024", got.MaxTokens)
	}
}

func TestIntoMistral_UserToolUseOnlyIsDropped(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{{
			Role: api.RoleUser,
			Content: []api.Content{
				api.ToolUseContent(api.ToolUse{ID: "call_1", Name: "search", Input: map[string]any{}}),
			},
		}},
	}

	got := IntoMistral(req, "m", nil)
	if len(got.Messages) != 0 {
		t.Errorf("expected no messages, got %s", roles(got.Messages))
	}
}

func TestIntoMistral_ToolResultBecomesToolMessage(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{
			{
				Role: api.RoleAssistant,
				Content: []api.Content{
					api.ToolUseContent(api.ToolUse{ID: "call_1", Name: "get_weather", Input: map[string]any{"city": "Paris"}}),
				},
			},
			{
				Role: api.RoleUser,
				Content: []api.Content{
					api.ToolResultContent(api.ToolResult{
						ToolUseID: "call_1",
						ToolName:  "get_weather",
						Content:   api.ToolResultBody{Text: "sunny"},
					}),
				},
			},
		},
	}

	got := IntoMistral(req, "m", nil)
	if roles(got.Messages) != "assistant,tool" {
		t.Fatalf("roles = %s, want assistant,tool", roles(got.Messages))
	}

	call := got.Messages[0].ToolCalls
	if len(call) != 1 || call[0].ID != "call_1" || call[0].Type != "function" ||
		call[0].Function.Name != "get_weather" || call[0].Function.Arguments != `{"city":"Paris"}` {
		t.Errorf("tool call = %+v", call)
	}
	if got.Messages[0].Content != nil {
		t.Errorf("assistant content should be nil, got %q", got.Messages[0].Text())
	}

	tool := got.Messages[1]
	if tool.ToolCallID != "call_1" || tool.Text() != "sunny" {
		t.Errorf("tool message = %+v", tool)
	}
}

func TestIntoMistral_ImageToolResultPlaceholder(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{{
			Role: api.RoleUser,
			Content: []api.Content{
				api.ToolResultContent(api.ToolResult{
					ToolUseID: "call_img",
					Content:   api.ToolResultBody{Image: &api.Image{Source: "aGVsbG8="}},
				}),
			},
		}},
	}

	got := IntoMistral(req, "m", nil)
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 message, got %s", roles(got.Messages))
	}
	if got.Messages[0].Text() != ImageToolResultPlaceholder {
		t.Errorf("text = %q", got.Messages[0].Text())
	}
}

func TestIntoMistral_ToolThenUserGetsPlaceholder(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{
			{
				Role: api.RoleAssistant,
				Content: []api.Content{
					api.ToolUseContent(api.ToolUse{ID: "call_1", Name: "ls", Input: map[string]any{}}),
				},
			},
			{
				Role: api.RoleUser,
				Content: []api.Content{
					api.ToolResultContent(api.ToolResult{ToolUseID: "call_1", Content: api.ToolResultBody{Text: "a.txt"}}),
					api.TextContent("what next?"),
				},
			},
		},
	}

	got := IntoMistral(req, "m", nil)
	if roles(got.Messages) != "assistant,tool,assistant,user" {
		t.Fatalf("roles = %s", roles(got.Messages))
	}
	placeholder := got.Messages[2]
	if placeholder.Text() != PlaceholderAssistantText || len(placeholder.ToolCalls) != 0 {
		t.Errorf("placeholder = %+v", placeholder)
	}
	assertNoToolBeforeUser(t, got.Messages)
}

func assertNoToolBeforeUser(t *testing.T, msgs []RequestMessage) {
	t.Helper()
	for i := 0; i+1 < len(msgs); i++ {
		if msgs[i].Role == RoleTool && msgs[i+1].Role == RoleUser {
			t.Errorf("tool message at %d directly followed by user message", i)
		}
	}
}

func TestRepairToolOrdering(t *testing.T) {
	tests := []struct {
		name string
		in   []RequestMessage
		want string
	}{
		{
			name: "empty",
			in:   nil,
			want: "",
		},
		{
			name: "tool then user",
			in:   []RequestMessage{ToolMessage("a", "x"), UserMessage(PlainContent("u"))},
			want: "tool,assistant,user",
		},
		{
			name: "tool then tool then user",
			in:   []RequestMessage{ToolMessage("a", "x"), ToolMessage("b", "y"), UserMessage(PlainContent("u"))},
			want: "tool,tool,assistant,user",
		},
		{
			name: "tool then assistant",
			in:   []RequestMessage{ToolMessage("a", "x"), AssistantMessage("ok")},
			want: "tool,assistant",
		},
		{
			name: "trailing tool",
			in:   []RequestMessage{UserMessage(PlainContent("u")), ToolMessage("a", "x")},
			want: "user,tool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := RepairToolOrdering(tt.in)
			if got := roles(once); got != tt.want {
				t.Errorf("roles = %q, want %q", got, tt.want)
			}
			assertNoToolBeforeUser(t, once)

			twice := RepairToolOrdering(once)
			if roles(twice) != roles(once) {
				t.Errorf("repair is not idempotent: %q then %q", roles(once), roles(twice))
			}
		})
	}
}

func TestIntoMistral_ToolChoice(t *testing.T) {
	tools := []api.ToolDefinition{{Name: "search", Description: "Search", InputSchema: json.RawMessage(`{"type":"object"}`)}}

	tests := []struct {
		name   string
		tools  []api.ToolDefinition
		choice *api.ToolChoice
		want   string // "" means omitted
	}{
		{"no tools, no choice", nil, nil, ""},
		{"no tools, auto", nil, api.Choice(api.ToolChoiceAuto), ""},
		{"no tools, any", nil, api.Choice(api.ToolChoiceAny), ""},
		{"no tools, none", nil, api.Choice(api.ToolChoiceNone), "none"},
		{"tools, no choice", tools, nil, "auto"},
		{"tools, auto", tools, api.Choice(api.ToolChoiceAuto), "auto"},
		{"tools, any", tools, api.Choice(api.ToolChoiceAny), "any"},
		{"tools, none", tools, api.Choice(api.ToolChoiceNone), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &api.Request{
				Messages:   []api.Message{api.UserMessage("hi")},
				Tools:      tt.tools,
				ToolChoice: tt.choice,
			}
			got := IntoMistral(req, "m", nil)

			var gotChoice string
			if got.ToolChoice != nil {
				gotChoice = string(*got.ToolChoice)
			}
			if gotChoice != tt.want {
				t.Errorf("tool_choice = %q, want %q", gotChoice, tt.want)
			}

			if len(tt.tools) > 0 {
				if got.ParallelToolCalls == nil || *got.ParallelToolCalls {
					t.Error("parallel_tool_calls should be false with tools")
				}
			} else if got.ParallelToolCalls != nil {
				t.Error("parallel_tool_calls should be omitted without tools")
			}
		})
	}
}

func TestIntoMistral_ToolDefinitions(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}}}`)
	req := &api.Request{
		Messages: []api.Message{api.UserMessage("hi")},
		Tools:    []api.ToolDefinition{{Name: "search", Description: "Search the web", InputSchema: schema}},
	}

	got := IntoMistral(req, "m", nil)
	if len(got.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(got.Tools))
	}
	tool := got.Tools[0]
	if tool.Type != "function" || tool.Function.Name != "search" || tool.Function.Description != "Search the web" {
		t.Errorf("tool = %+v", tool)
	}
	if string(tool.Function.Parameters) != string(schema) {
		t.Errorf("parameters = %s", tool.Function.Parameters)
	}
}

func TestIntoMistral_UserImage(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{{
			Role: api.RoleUser,
			Content: []api.Content{
				api.TextContent("What is in this picture?"),
				api.ImageContent(api.Image{Source: "iVBORw0KGgo=", Width: 10, Height: 10}),
			},
		}},
	}

	got := IntoMistral(req, "pixtral-12b-latest", nil)
	if len(got.Messages) != 1 || got.Messages[0].Role != RoleUser {
		t.Fatalf("messages = %s", roles(got.Messages))
	}
	content := got.Messages[0].Content
	if !content.IsMultipart() || len(content.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %+v", content)
	}
	if content.Parts[0].Type != PartText || content.Parts[0].Text != "What is in this picture?" {
		t.Errorf("part 0 = %+v", content.Parts[0])
	}
	if content.Parts[1].Type != PartImageURL || content.Parts[1].ImageURL != "data:image/png;base64,iVBORw0KGgo=" {
		t.Errorf("part 1 = %+v", content.Parts[1])
	}

	data, err := json.Marshal(got.Messages[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"content":[{"type":"text"`) {
		t.Errorf("multipart content should serialize as an array: %s", data)
	}
}

func TestIntoMistral_UserDropsUnsupportedParts(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{{
			Role: api.RoleUser,
			Content: []api.Content{
				api.RedactedThinkingContent("opaque"),
				api.ThinkingContent("pondering ", "sig"),
				api.TextContent("hello"),
				api.ToolUseContent(api.ToolUse{ID: "x", Name: "y"}),
			},
		}},
	}

	got := IntoMistral(req, "m", nil)
	if len(got.Messages) != 1 {
		t.Fatalf("messages = %s", roles(got.Messages))
	}
	if got.Messages[0].Content.IsMultipart() {
		t.Error("text-only content should stay plain")
	}
	if got.Messages[0].Text() != "pondering hello" {
		t.Errorf("text = %q", got.Messages[0].Text())
	}
}

func TestIntoMistral_AssistantTextAndToolCalls(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{{
			Role: api.RoleAssistant,
			Content: []api.Content{
				api.ThinkingContent("Let me ", ""),
				api.TextContent("check."),
				api.RedactedThinkingContent("opaque"),
				api.ImageContent(api.Image{Source: "x"}),
				api.ToolUseContent(api.ToolUse{ID: "c1", Name: "a", Input: map[string]any{"n": 1}}),
				api.ToolUseContent(api.ToolUse{ID: "c2", Name: "b", RawInput: `{"raw":true}`}),
			},
		}},
	}

	got := IntoMistral(req, "m", nil)
	if roles(got.Messages) != "assistant,assistant" {
		t.Fatalf("roles = %s", roles(got.Messages))
	}
	if first := got.Messages[0]; first.Text() != "Let me " || len(first.ToolCalls) != 0 {
		t.Errorf("thinking message = %+v", first)
	}
	msg := got.Messages[1]
	if msg.Text() != "check." {
		t.Errorf("text = %q", msg.Text())
	}
	if len(msg.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(msg.ToolCalls))
	}
	if msg.ToolCalls[0].Function.Arguments != `{"n":1}` {
		t.Errorf("args 0 = %q", msg.ToolCalls[0].Function.Arguments)
	}
	if msg.ToolCalls[1].Function.Arguments != `{"raw":true}` {
		t.Errorf("args 1 = %q", msg.ToolCalls[1].Function.Arguments)
	}
}

func TestIntoMistral_AssistantTextAfterToolCallStartsNewMessage(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{{
			Role: api.RoleAssistant,
			Content: []api.Content{
				api.ToolUseContent(api.ToolUse{ID: "c1", Name: "a", Input: map[string]any{}}),
				api.TextContent("done"),
			},
		}},
	}

	got := IntoMistral(req, "m", nil)
	if roles(got.Messages) != "assistant,assistant" {
		t.Fatalf("roles = %s", roles(got.Messages))
	}
	if got.Messages[1].Text() != "done" || len(got.Messages[1].ToolCalls) != 0 {
		t.Errorf("second message = %+v", got.Messages[1])
	}
}

func TestIntoMistral_SeparateAssistantTurnsStaySeparate(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{
			{Role: api.RoleAssistant, Content: []api.Content{api.TextContent("first")}},
			{Role: api.RoleAssistant, Content: []api.Content{api.TextContent("second")}},
		},
	}

	got := IntoMistral(req, "m", nil)
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %s", roles(got.Messages))
	}
}

func TestIntoMistral_SystemPartsBecomeSeparateMessages(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{{
			Role: api.RoleSystem,
			Content: []api.Content{
				api.TextContent("rule one"),
				api.ImageContent(api.Image{Source: "x"}),
				api.ThinkingContent("rule two", ""),
				api.ToolResultContent(api.ToolResult{ToolUseID: "c"}),
			},
		}},
	}

	got := IntoMistral(req, "m", nil)
	if roles(got.Messages) != "system,system" {
		t.Fatalf("roles = %s", roles(got.Messages))
	}
	if got.Messages[0].Text() != "rule one" || got.Messages[1].Text() != "rule two" {
		t.Errorf("system texts = %q, %q", got.Messages[0].Text(), got.Messages[1].Text())
	}
}

func TestIntoMistral_DoesNotMutateRequest(t *testing.T) {
	req := &api.Request{
		Messages: []api.Message{
			{Role: api.RoleAssistant, Content: []api.Content{api.TextContent("a"), api.TextContent("b")}},
		},
	}
	before, _ := json.Marshal(req)
	IntoMistral(req, "m", nil)
	after, _ := json.Marshal(req)
	if string(before) != string(after) {
		t.Errorf("request changed:\n%s\n%s", before, after)
	}
}

func TestEncodeToolInput(t *testing.T) {
	tests := []struct {
		name string
		tu   api.ToolUse
		want string
	}{
		{"parsed input", api.ToolUse{Input: map[string]any{"a": "b"}, RawInput: `{"a": "b"}`}, `{"a":"b"}`},
		{"raw only", api.ToolUse{RawInput: `{"x":1}`}, `{"x":1}`},
		{"nothing", api.ToolUse{}, "null"},
		{"unencodable", api.ToolUse{Input: func() {}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeToolInput(&tt.tu); got != tt.want {
				t.Errorf("encodeToolInput = %q, want %q", got, tt.want)
			}
		})
	}
}

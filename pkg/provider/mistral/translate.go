package mistral

import (
	"encoding/json"

	"github.com/rhuss/mistral-bridge/pkg/api"
)

// ImageToolResultPlaceholder replaces image tool results, which the API
// cannot accept inside tool messages.
const ImageToolResultPlaceholder = "[Tool responded with an image, but image results are not supported by Mistral models yet]"

// PlaceholderAssistantText is the content of the assistant message spliced
// between a tool message and a following user message.
const PlaceholderAssistantText = " "

// IntoMistral converts a vendor-neutral request into the wire request for
// model. It never fails: content the API cannot represent is dropped or
// substituted. maxOutputTokens is sent as max_tokens when non-nil.
func IntoMistral(req *api.Request, model string, maxOutputTokens *int) Request {
	var messages []RequestMessage
	for i := range req.Messages {
		msg := &req.Messages[i]
		switch msg.Role {
		case api.RoleUser:
			messages = appendUserTurn(messages, msg)
		case api.RoleAssistant:
			messages = appendAssistantTurn(messages, msg)
		case api.RoleSystem:
			messages = appendSystemTurn(messages, msg)
		}
	}

	out := Request{
		Model:       model,
		Messages:    RepairToolOrdering(messages),
		Stream:      true,
		MaxTokens:   maxOutputTokens,
		Temperature: req.Temperature,
		ToolChoice:  translateToolChoice(req.ToolChoice, len(req.Tools) > 0),
		Tools:       make([]ToolDefinition, 0, len(req.Tools)),
		Stop:        req.Stop,
	}

	if len(req.Tools) > 0 {
		parallel := false
		out.ParallelToolCalls = &parallel
	}

	for _, tool := range req.Tools {
		out.Tools = append(out.Tools, ToolDefinition{
			Type: "function",
			Function: FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}

	return out
}

// appendUserTurn folds the user content into one message. Tool results are
// emitted as separate tool messages as they are met, so they precede the
// user message of the same turn.
func appendUserTurn(messages []RequestMessage, msg *api.Message) []RequestMessage {
	content := &MessageContent{}
	for _, c := range msg.Content {
		switch c.Kind {
		case api.ContentText, api.ContentThinking:
			content.PushPart(TextPart(c.Text))
		case api.ContentImage:
			if c.Image != nil {
				content.PushPart(ImagePart(c.Image.DataURL()))
			}
		case api.ContentToolResult:
			if c.ToolResult == nil {
				continue
			}
			text := c.ToolResult.Content.Text
			if c.ToolResult.Content.IsImage() {
				text = ImageToolResultPlaceholder
			}
			messages = append(messages, ToolMessage(c.ToolResult.ToolUseID, text))
		case api.ContentToolUse, api.ContentRedactedThinking:
			// Not representable in user messages.
		}
	}
	if !content.IsEmpty() {
		messages = append(messages, UserMessage(content))
	}
	return messages
}

// appendAssistantTurn translates assistant text and tool uses. Each text or
// thinking part becomes its own assistant message, so parts never run
// together. Tool uses join the trailing assistant message, if any.
func appendAssistantTurn(messages []RequestMessage, msg *api.Message) []RequestMessage {
	for _, c := range msg.Content {
		switch c.Kind {
		case api.ContentText, api.ContentThinking:
			messages = append(messages, AssistantMessage(c.Text))
		case api.ContentToolUse:
			if c.ToolUse == nil {
				continue
			}
			call := ToolCall{
				ID:   c.ToolUse.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      c.ToolUse.Name,
					Arguments: encodeToolInput(c.ToolUse),
				},
			}
			if n := len(messages); n > 0 && messages[n-1].Role == RoleAssistant {
				messages[n-1].ToolCalls = append(messages[n-1].ToolCalls, call)
				continue
			}
			messages = append(messages, RequestMessage{
				Role:      RoleAssistant,
				ToolCalls: []ToolCall{call},
			})
		case api.ContentRedactedThinking, api.ContentImage, api.ContentToolResult:
			// Not representable in assistant messages.
		}
	}
	return messages
}

func appendSystemTurn(messages []RequestMessage, msg *api.Message) []RequestMessage {
	for _, c := range msg.Content {
		switch c.Kind {
		case api.ContentText, api.ContentThinking:
			messages = append(messages, SystemMessage(c.Text))
		case api.ContentRedactedThinking, api.ContentImage, api.ContentToolUse, api.ContentToolResult:
		}
	}
	return messages
}

// encodeToolInput re-serializes the parsed input. RawInput is used only
// when no parsed input is available.
func encodeToolInput(tu *api.ToolUse) string {
	if tu.Input == nil && tu.RawInput != "" {
		return tu.RawInput
	}
	data, err := json.Marshal(tu.Input)
	if err != nil {
		return ""
	}
	return string(data)
}

// RepairToolOrdering returns messages with a placeholder assistant message
// inserted wherever a tool message is directly followed by a user message.
// Applying it to its own output changes nothing.
func RepairToolOrdering(messages []RequestMessage) []RequestMessage {
	fixed := make([]RequestMessage, 0, len(messages))
	for i, m := range messages {
		fixed = append(fixed, m)
		if m.Role == RoleTool && i+1 < len(messages) && messages[i+1].Role == RoleUser {
			fixed = append(fixed, AssistantMessage(PlaceholderAssistantText))
		}
	}
	return fixed
}

func translateToolChoice(choice *api.ToolChoice, hasTools bool) *ToolChoice {
	var tc ToolChoice
	switch {
	case choice != nil && *choice == api.ToolChoiceNone:
		tc = ToolChoiceNone
	case !hasTools:
		return nil
	case choice != nil && *choice == api.ToolChoiceAny:
		tc = ToolChoiceAny
	default:
		tc = ToolChoiceAuto
	}
	return &tc
}

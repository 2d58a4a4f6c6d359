package api

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxMessages int
	MaxTools    int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxMessages: 1000,
		MaxTools:    128,
	}
}

var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateRequest checks a Request for validity. It returns an *APIError
// describing the first validation failure, or nil if the request is valid.
// An empty message list is valid.
func ValidateRequest(req *Request, cfg ValidationConfig) *APIError {
	if cfg.MaxMessages > 0 && len(req.Messages) > cfg.MaxMessages {
		return NewInvalidRequestError("messages",
			fmt.Sprintf("messages exceeds maximum of %d", cfg.MaxMessages))
	}

	if cfg.MaxTools > 0 && len(req.Tools) > cfg.MaxTools {
		return NewInvalidRequestError("tools",
			fmt.Sprintf("tools exceeds maximum of %d", cfg.MaxTools))
	}

	if req.Temperature != nil {
		if *req.Temperature < 0.0 || *req.Temperature > 2.0 {
			return NewInvalidRequestError("temperature", "temperature must be between 0.0 and 2.0")
		}
	}

	if req.ToolChoice != nil {
		switch *req.ToolChoice {
		case ToolChoiceAuto, ToolChoiceAny, ToolChoiceNone:
		default:
			return NewInvalidRequestError("tool_choice",
				fmt.Sprintf("unknown tool_choice %q", *req.ToolChoice))
		}
	}

	seen := make(map[string]bool, len(req.Tools))
	for i, tool := range req.Tools {
		if err := ValidateToolDefinition(tool); err != nil {
			err.Param = fmt.Sprintf("tools[%d].%s", i, err.Param)
			return err
		}
		if seen[tool.Name] {
			return NewInvalidRequestError(fmt.Sprintf("tools[%d].name", i),
				fmt.Sprintf("duplicate tool name %q", tool.Name))
		}
		seen[tool.Name] = true
	}

	for i := range req.Messages {
		if err := ValidateMessage(&req.Messages[i]); err != nil {
			err.Param = fmt.Sprintf("messages[%d].%s", i, err.Param)
			return err
		}
	}

	return nil
}

// ValidateToolDefinition checks a single tool definition.
func ValidateToolDefinition(tool ToolDefinition) *APIError {
	if !toolNamePattern.MatchString(tool.Name) {
		return NewInvalidRequestError("name",
			fmt.Sprintf("tool name %q must match %s", tool.Name, toolNamePattern.String()))
	}
	if len(tool.InputSchema) > 0 && !json.Valid(tool.InputSchema) {
		return NewInvalidRequestError("input_schema", "input_schema must be valid JSON")
	}
	return nil
}

// ValidateMessage checks a Message for structural validity.
func ValidateMessage(msg *Message) *APIError {
	switch msg.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return NewInvalidRequestError("role", fmt.Sprintf("invalid role %q", msg.Role))
	}

	for i, c := range msg.Content {
		if err := validateContent(c); err != nil {
			err.Param = fmt.Sprintf("content[%d].%s", i, err.Param)
			return err
		}
	}
	return nil
}

func validateContent(c Content) *APIError {
	switch c.Kind {
	case ContentText, ContentThinking, ContentRedactedThinking:
		return nil
	case ContentImage:
		if c.Image == nil {
			return NewInvalidRequestError("image", "image field required for image content")
		}
	case ContentToolUse:
		if c.ToolUse == nil {
			return NewInvalidRequestError("tool_use", "tool_use field required for tool_use content")
		}
		if c.ToolUse.ID == "" {
			return NewInvalidRequestError("tool_use.id", "tool_use id is required")
		}
	case ContentToolResult:
		if c.ToolResult == nil {
			return NewInvalidRequestError("tool_result", "tool_result field required for tool_result content")
		}
		if c.ToolResult.ToolUseID == "" {
			return NewInvalidRequestError("tool_result.tool_use_id", "tool_use_id is required")
		}
	default:
		return NewInvalidRequestError("kind", fmt.Sprintf("invalid content kind %q", c.Kind))
	}
	return nil
}

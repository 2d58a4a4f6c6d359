package provider

import (
	"github.com/rhuss/mistral-bridge/pkg/api"
)

// Capabilities declares what features a model supports.
// Used by the engine for early request validation.
type Capabilities struct {
	// ToolCalling indicates whether the model supports function/tool calls.
	ToolCalling bool

	// Vision indicates whether the model accepts image inputs.
	Vision bool

	// MaxContextWindow is the maximum token count (0 = unknown).
	MaxContextWindow int
}

// ValidateCapabilities checks whether the given request is compatible with
// the model's declared capabilities. Returns an APIError identifying
// the specific unsupported feature, or nil if the request is compatible.
//
// Images inside tool results are not checked: adapters replace them with a
// text placeholder.
func ValidateCapabilities(caps Capabilities, req *api.Request) *api.APIError {
	if len(req.Tools) > 0 && !caps.ToolCalling {
		return api.NewInvalidRequestError("tools",
			"the selected model does not support tool calling")
	}

	if caps.Vision {
		return nil
	}
	for _, msg := range req.Messages {
		if msg.Role != api.RoleUser {
			continue
		}
		for _, c := range msg.Content {
			if c.Kind == api.ContentImage {
				return api.NewInvalidRequestError("messages",
					"the selected model does not support image inputs")
			}
		}
	}

	return nil
}

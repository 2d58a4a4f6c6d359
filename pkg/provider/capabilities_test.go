package provider

import (
	"testing"

	"github.com/rhuss/mistral-bridge/pkg/api"
)

func TestValidateCapabilities(t *testing.T) {
	withImage := api.Message{
		Role:    api.RoleUser,
		Content: []api.Content{api.TextContent("look"), api.ImageContent(api.Image{Source: "AAAA"})},
	}
	withTools := []api.ToolDefinition{{Name: "search"}}
	imageResult := api.Message{
		Role: api.RoleUser,
		Content: []api.Content{api.ToolResultContent(api.ToolResult{
			ToolUseID: "t1",
			Content:   api.ToolResultBody{Image: &api.Image{Source: "AAAA"}},
		})},
	}

	tests := []struct {
		name      string
		caps      Capabilities
		req       *api.Request
		wantErr   bool
		wantParam string
	}{
		{
			name: "text request with minimal caps",
			caps: Capabilities{},
			req:  &api.Request{Messages: []api.Message{api.UserMessage("hello")}},
		},
		{
			name:      "tools without tool calling support",
			caps:      Capabilities{},
			req:       &api.Request{Tools: withTools},
			wantErr:   true,
			wantParam: "tools",
		},
		{
			name: "tools with tool calling support",
			caps: Capabilities{ToolCalling: true},
			req:  &api.Request{Tools: withTools},
		},
		{
			name:      "image without vision",
			caps:      Capabilities{ToolCalling: true},
			req:       &api.Request{Messages: []api.Message{withImage}},
			wantErr:   true,
			wantParam: "messages",
		},
		{
			name: "image with vision",
			caps: Capabilities{Vision: true},
			req:  &api.Request{Messages: []api.Message{withImage}},
		},
		{
			name: "image tool result without vision",
			caps: Capabilities{},
			req:  &api.Request{Messages: []api.Message{imageResult}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCapabilities(tt.caps, tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCapabilities() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", err.Param, tt.wantParam)
			}
		})
	}
}

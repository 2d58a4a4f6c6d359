package tools

import (
	"testing"

	"github.com/rhuss/mistral-bridge/pkg/api"
)

func TestFilterAllowedTools(t *testing.T) {
	tests := []struct {
		name         string
		calls        []ToolCall
		allowedTools AllowList
		wantAllowed  int
		wantRejected int
	}{
		{
			name: "all allowed when no filter",
			calls: []ToolCall{
				{ID: "c1", Name: "get_weather"},
				{ID: "c2", Name: "search"},
			},
			allowedTools: nil,
			wantAllowed:  2,
		},
		{
			name:         "all allowed when empty filter",
			calls:        []ToolCall{{ID: "c1", Name: "get_weather"}},
			allowedTools: AllowList{},
			wantAllowed:  1,
		},
		{
			name: "some rejected",
			calls: []ToolCall{
				{ID: "c1", Name: "get_weather"},
				{ID: "c2", Name: "delete_account"},
				{ID: "c3", Name: "search"},
			},
			allowedTools: AllowList{"get_weather", "search"},
			wantAllowed:  2,
			wantRejected: 1,
		},
		{
			name: "all rejected",
			calls: []ToolCall{
				{ID: "c1", Name: "delete_account"},
				{ID: "c2", Name: "drop_table"},
			},
			allowedTools: AllowList{"get_weather"},
			wantRejected: 2,
		},
		{
			name:         "empty calls",
			calls:        []ToolCall{},
			allowedTools: AllowList{"get_weather"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterAllowedTools(tt.calls, tt.allowedTools)

			if len(result.Allowed) != tt.wantAllowed {
				t.Errorf("allowed count = %d, want %d", len(result.Allowed), tt.wantAllowed)
			}
			if len(result.Rejected) != tt.wantRejected {
				t.Errorf("rejected count = %d, want %d", len(result.Rejected), tt.wantRejected)
			}
			for _, r := range result.Rejected {
				if !r.IsError || r.Output == "" {
					t.Errorf("rejected result for %q = %+v", r.CallID, r)
				}
			}
		})
	}
}

func TestAllowList(t *testing.T) {
	defs := []api.ToolDefinition{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	var open AllowList
	if !open.Allows("anything") {
		t.Error("empty list should allow everything")
	}
	if got := open.Definitions(defs); len(got) != 3 {
		t.Errorf("empty list kept %d definitions", len(got))
	}

	list := AllowList{"c", "a"}
	if !list.Allows("a") || list.Allows("b") {
		t.Error("Allows mismatch")
	}
	got := list.Definitions(defs)
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Errorf("Definitions = %+v", got)
	}
}

package engine

import (
	"testing"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/tools"
)

func TestTurnCollector_Empty(t *testing.T) {
	var tc turnCollector
	tc.add(api.Stop(api.StopEndTurn, "stop"))
	if _, ok := tc.message(); ok {
		t.Error("empty turn should not produce a message")
	}
	if !tc.stopped || tc.stopReason != api.StopEndTurn {
		t.Errorf("stop = %v %s", tc.stopped, tc.stopReason)
	}
}

func TestTurnCollector_InterleavedParts(t *testing.T) {
	var tc turnCollector
	for _, ev := range []api.Event{
		api.TextDelta("a"),
		api.TextDelta("b"),
		api.ToolUseEvent(toolUse("c1", "x", `{}`)),
		api.TextDelta("c"),
		api.UsageUpdate(api.TokenUsage{InputTokens: 1}),
		api.UsageUpdate(api.TokenUsage{InputTokens: 4, OutputTokens: 2}),
	} {
		tc.add(ev)
	}

	msg, ok := tc.message()
	if !ok {
		t.Fatal("expected message")
	}
	if msg.Role != api.RoleAssistant {
		t.Errorf("role = %s", msg.Role)
	}
	kinds := []api.ContentKind{api.ContentText, api.ContentToolUse, api.ContentText}
	if len(msg.Content) != len(kinds) {
		t.Fatalf("parts = %d, want %d", len(msg.Content), len(kinds))
	}
	for i, k := range kinds {
		if msg.Content[i].Kind != k {
			t.Errorf("part %d kind = %s, want %s", i, msg.Content[i].Kind, k)
		}
	}
	if msg.Content[0].Text != "ab" || msg.Content[2].Text != "c" {
		t.Errorf("text parts = %q %q", msg.Content[0].Text, msg.Content[2].Text)
	}
	// Usage updates carry totals; the last one wins.
	if tc.usage.InputTokens != 4 || tc.usage.OutputTokens != 2 {
		t.Errorf("usage = %+v", tc.usage)
	}
}

func TestTurnCollector_KeepsFirstError(t *testing.T) {
	var tc turnCollector
	first := api.NewTransportError("connection reset")
	tc.add(api.ErrorEvent(first))
	tc.add(api.ErrorEvent(api.NewServerError("later")))
	if tc.err != first {
		t.Errorf("err = %v, want first", tc.err)
	}
}

func TestTurnCollector_SkipsChunkErrors(t *testing.T) {
	tc := turnCollector{model: "mistral/test"}
	tc.add(api.ToolUseEvent(api.ToolUse{ID: "c1", Name: "get_weather", RawInput: "{}", IsInputComplete: true}))
	tc.add(api.ErrorEvent(api.NewIncompleteToolCallError("Received incomplete tool call")))
	tc.add(api.ErrorEvent(api.NewProtocolError("no choices")))

	if tc.err != nil {
		t.Fatalf("err = %v, want chunk errors skipped", tc.err)
	}
	if tc.skipped != 2 {
		t.Errorf("skipped = %d, want 2", tc.skipped)
	}
	if len(tc.calls) != 1 || tc.calls[0].call.ID != "c1" {
		t.Errorf("calls = %+v", tc.calls)
	}
}

func TestToolResultMessage(t *testing.T) {
	calls := []pendingCall{
		{call: tools.ToolCall{ID: "c1", Name: "a"}},
		{call: tools.ToolCall{ID: "c2", Name: "b"}},
	}
	results := []tools.ToolResult{
		{CallID: "c1", Output: "one"},
		tools.ErrorResult("c2", "boom"),
	}

	msg := toolResultMessage(calls, results)
	if msg.Role != api.RoleUser || len(msg.Content) != 2 {
		t.Fatalf("msg = %+v", msg)
	}
	second := msg.Content[1].ToolResult
	if second.ToolName != "b" || !second.IsError || second.Content.Text != "boom" {
		t.Errorf("second = %+v", second)
	}
}

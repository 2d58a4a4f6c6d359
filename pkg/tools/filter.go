package tools

import "github.com/rhuss/mistral-bridge/pkg/api"

// AllowList restricts which tools the model may see and call. An empty
// list allows everything.
type AllowList []string

func (a AllowList) set() map[string]bool {
	if len(a) == 0 {
		return nil
	}
	m := make(map[string]bool, len(a))
	for _, name := range a {
		m[name] = true
	}
	return m
}

// Allows reports whether name passes the list.
func (a AllowList) Allows(name string) bool {
	if len(a) == 0 {
		return true
	}
	for _, n := range a {
		if n == name {
			return true
		}
	}
	return false
}

// Definitions drops the tool definitions the list does not allow.
func (a AllowList) Definitions(defs []api.ToolDefinition) []api.ToolDefinition {
	allowed := a.set()
	if allowed == nil {
		return defs
	}
	out := make([]api.ToolDefinition, 0, len(defs))
	for _, d := range defs {
		if allowed[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

// FilterResult holds the outcome of filtering tool calls against an allow list.
type FilterResult struct {
	// Allowed contains tool calls that passed the filter.
	Allowed []ToolCall

	// Rejected holds an error result for every call that did not.
	Rejected []ToolResult
}

// FilterAllowedTools splits calls by allowedTools. The model only sees
// allowed definitions, but it can still name any tool from earlier turns.
func FilterAllowedTools(calls []ToolCall, allowedTools AllowList) FilterResult {
	allowed := allowedTools.set()
	if allowed == nil {
		return FilterResult{Allowed: calls}
	}

	var result FilterResult
	for _, call := range calls {
		if allowed[call.Name] {
			result.Allowed = append(result.Allowed, call)
			continue
		}
		result.Rejected = append(result.Rejected, ErrorResult(call.ID, "tool "+call.Name+" is not allowed"))
	}
	return result
}

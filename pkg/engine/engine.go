package engine

import (
	"context"
	"fmt"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/provider"
	"github.com/rhuss/mistral-bridge/pkg/tools"
)

// Status reports how a run ended.
type Status string

const (
	// StatusCompleted means the model finished without requesting tools.
	StatusCompleted Status = "completed"
	// StatusIncomplete means the turn limit was reached.
	StatusIncomplete Status = "incomplete"
	// StatusRequiresAction means the model requested tools and no
	// executor is configured; the caller must answer the calls.
	StatusRequiresAction Status = "requires_action"
	// StatusCancelled means the context ended the run.
	StatusCancelled Status = "cancelled"
	// StatusFailed means the model stream reported an error.
	StatusFailed Status = "failed"
)

// Result is the outcome of Run.
type Result struct {
	Status Status

	// Messages is the conversation including every message the run
	// appended.
	Messages []api.Message

	// Usage sums the token usage of all turns.
	Usage api.TokenUsage

	// Turns is the number of model calls made.
	Turns int

	// StopReason is the stop reason of the last turn.
	StopReason api.StopReason

	// PendingCalls lists the unanswered calls for StatusRequiresAction.
	PendingCalls []tools.ToolCall
}

// Text returns the text of the last assistant message.
func (r *Result) Text() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == api.RoleAssistant {
			return r.Messages[i].StringContents()
		}
	}
	return ""
}

// Engine runs multi-turn conversations against a language model,
// executing requested tools between turns.
type Engine struct {
	cfg Config
}

// New creates a new Engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Tools returns the definitions the engine advertises for req: the
// request's own tools followed by executor tools of other names, all
// filtered by the allow list.
func (e *Engine) Tools(ctx context.Context, req *api.Request) []api.ToolDefinition {
	defs := append([]api.ToolDefinition(nil), req.Tools...)
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		seen[d.Name] = true
	}
	for _, exec := range e.cfg.Executors {
		p, ok := exec.(tools.ToolProvider)
		if !ok {
			continue
		}
		for _, d := range p.Definitions(ctx) {
			if seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			defs = append(defs, d)
		}
	}
	return e.cfg.AllowedTools.Definitions(defs)
}

// prepare validates req against the model and returns the working copy
// sent on the first turn.
func (e *Engine) prepare(ctx context.Context, model provider.LanguageModel, req *api.Request) (*api.Request, error) {
	if model == nil {
		return nil, fmt.Errorf("engine: model must not be nil")
	}
	if req == nil {
		return nil, api.NewInvalidRequestError("request", "request must not be nil")
	}

	working := req.Clone()
	working.Tools = e.Tools(ctx, req)
	// Executor tools are only offered to models that can call them.
	if len(req.Tools) == 0 && !model.Capabilities().ToolCalling {
		working.Tools = nil
	}

	validation := e.cfg.Validation
	if validation == (api.ValidationConfig{}) {
		validation = api.DefaultValidationConfig()
	}
	if apiErr := api.ValidateRequest(working, validation); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := provider.ValidateCapabilities(model.Capabilities(), working); apiErr != nil {
		return nil, apiErr
	}
	if working.ToolChoice != nil && len(working.Tools) > 0 && !model.SupportsToolChoice(*working.ToolChoice) {
		return nil, api.NewInvalidRequestError("tool_choice",
			fmt.Sprintf("model %s does not support tool_choice %q", model.ID(), *working.ToolChoice))
	}
	return working, nil
}

// findExecutor returns the first executor that can run name.
func (e *Engine) findExecutor(name string) tools.ToolExecutor {
	for _, exec := range e.cfg.Executors {
		if exec.CanExecute(name) {
			return exec
		}
	}
	return nil
}

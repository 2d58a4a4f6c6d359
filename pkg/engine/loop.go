package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/debug"
	"github.com/rhuss/mistral-bridge/pkg/observability"
	"github.com/rhuss/mistral-bridge/pkg/provider"
	"github.com/rhuss/mistral-bridge/pkg/tools"
)

// Run sends req to model and keeps the conversation going while the model
// requests tools that the configured executors can run. Events are
// reported to w as they happen; w may be nil.
//
// Validation failures are returned before any model call. Once the loop
// has started, a non-nil Result is returned together with any error so
// callers can inspect the partial conversation.
func (e *Engine) Run(ctx context.Context, model provider.LanguageModel, req *api.Request, w Writer) (*Result, error) {
	working, err := e.prepare(ctx, model, req)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = discard{}
	}

	res := &Result{Messages: working.Messages}
	maxTurns := e.cfg.maxTurns()

	for turn := 1; turn <= maxTurns; turn++ {
		if ctx.Err() != nil {
			res.Status = StatusCancelled
			return res, nil
		}

		working.Messages = res.Messages
		tc, err := e.streamTurn(ctx, model, working, turn, w)
		res.Turns = turn
		res.Usage.Add(tc.usage)
		res.StopReason = tc.stopReason
		if msg, ok := tc.message(); ok {
			res.Messages = append(res.Messages, msg)
		}

		if ctx.Err() != nil {
			res.Status = StatusCancelled
			return res, nil
		}
		if err != nil {
			res.Status = StatusFailed
			return res, err
		}

		debug.Log(debug.Engine, "turn finished",
			"model", model.TelemetryID(),
			"turn", turn,
			"stop_reason", tc.stopReason,
			"tool_calls", len(tc.calls),
		)

		if len(tc.calls) == 0 {
			res.Status = StatusCompleted
			return res, nil
		}
		if working.ToolChoice != nil && *working.ToolChoice == api.ToolChoiceNone {
			res.Status = StatusCompleted
			return res, nil
		}
		if e.hasUnhandledToolCalls(tc.calls) {
			res.Status = StatusRequiresAction
			for _, pc := range tc.calls {
				res.PendingCalls = append(res.PendingCalls, pc.call)
			}
			return res, nil
		}

		results, err := e.executeCalls(ctx, turn, tc.calls, w)
		if err != nil {
			res.Status = StatusFailed
			return res, err
		}
		res.Messages = append(res.Messages, toolResultMessage(tc.calls, results))
	}

	res.Status = StatusIncomplete
	return res, nil
}

// streamTurn performs one model call, forwarding its events to w.
func (e *Engine) streamTurn(ctx context.Context, model provider.LanguageModel, req *api.Request, turn int, w Writer) (*turnCollector, error) {
	tc := &turnCollector{model: model.TelemetryID()}

	// Stops the model stream when we return early.
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := model.StreamCompletion(turnCtx, req)
	if err != nil {
		return tc, err
	}
	for ev := range events {
		tc.add(ev)
		if err := w.WriteEvent(ctx, Event{Kind: EventModel, Turn: turn, Model: ev}); err != nil {
			return tc, err
		}
	}
	return tc, tc.err
}

// hasUnhandledToolCalls reports whether a call has no executor. Calls with
// a preset result never reach an executor and are ignored.
func (e *Engine) hasUnhandledToolCalls(calls []pendingCall) bool {
	for _, pc := range calls {
		if pc.result != nil {
			continue
		}
		if e.findExecutor(pc.call.Name) == nil {
			return true
		}
	}
	return false
}

// executeCalls answers every call of a turn in call order. Disallowed
// calls and calls with a preset result are answered without execution.
func (e *Engine) executeCalls(ctx context.Context, turn int, calls []pendingCall, w Writer) ([]tools.ToolResult, error) {
	results := make([]tools.ToolResult, len(calls))
	pos := make(map[string]int, len(calls))

	var candidates []tools.ToolCall
	for i, pc := range calls {
		if pc.result != nil {
			results[i] = *pc.result
			observability.ToolExecutionsTotal.WithLabelValues(pc.call.Name, "error").Inc()
			continue
		}
		pos[pc.call.ID] = i
		candidates = append(candidates, pc.call)
	}

	filtered := tools.FilterAllowedTools(candidates, e.cfg.AllowedTools)
	for _, r := range filtered.Rejected {
		i := pos[r.CallID]
		results[i] = r
		observability.ToolExecutionsTotal.WithLabelValues(calls[i].call.Name, "rejected").Inc()
	}
	runnable := filtered.Allowed

	sw := &syncWriter{w: w}
	var executed []tools.ToolResult
	if e.cfg.ParallelToolCalls && len(runnable) > 1 {
		executed = e.executeToolsConcurrently(ctx, turn, runnable, sw)
	} else {
		executed = e.executeToolsSequentially(ctx, turn, runnable, sw)
	}
	for j, r := range executed {
		results[pos[runnable[j].ID]] = r
	}
	return results, sw.err
}

// executeToolsConcurrently dispatches calls in parallel goroutines and
// returns results in call order.
func (e *Engine) executeToolsConcurrently(ctx context.Context, turn int, calls []tools.ToolCall, w *syncWriter) []tools.ToolResult {
	results := make([]tools.ToolResult, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(idx int, tc tools.ToolCall) {
			defer wg.Done()
			results[idx] = e.executeTool(ctx, turn, tc, w)
		}(i, call)
	}

	wg.Wait()
	return results
}

// executeToolsSequentially dispatches calls one at a time.
func (e *Engine) executeToolsSequentially(ctx context.Context, turn int, calls []tools.ToolCall, w *syncWriter) []tools.ToolResult {
	results := make([]tools.ToolResult, 0, len(calls))
	for _, tc := range calls {
		results = append(results, e.executeTool(ctx, turn, tc, w))
	}
	return results
}

func (e *Engine) executeTool(ctx context.Context, turn int, tc tools.ToolCall, w *syncWriter) tools.ToolResult {
	w.write(ctx, Event{Kind: EventToolStarted, Turn: turn, Call: &tc})

	result := e.runTool(ctx, tc)

	w.write(ctx, Event{Kind: EventToolFinished, Turn: turn, Call: &tc, Result: &result})
	return result
}

func (e *Engine) runTool(ctx context.Context, tc tools.ToolCall) tools.ToolResult {
	exec := e.findExecutor(tc.Name)
	if exec == nil {
		observability.ToolExecutionsTotal.WithLabelValues(tc.Name, "error").Inc()
		return tools.ErrorResult(tc.ID, "no executor found for tool "+tc.Name)
	}

	result, err := exec.Execute(ctx, tc)
	if err != nil {
		slog.Warn("tool execution error",
			"tool", tc.Name,
			"call_id", tc.ID,
			"executor", exec.Kind().String(),
			"error", err.Error(),
		)
		observability.ToolExecutionsTotal.WithLabelValues(tc.Name, "error").Inc()
		return tools.ErrorResult(tc.ID, err.Error())
	}

	status := "success"
	if result.IsError {
		status = "error"
	}
	observability.ToolExecutionsTotal.WithLabelValues(tc.Name, status).Inc()

	debug.Log(debug.Engine, "tool executed",
		"tool", tc.Name,
		"call_id", tc.ID,
		"is_error", result.IsError,
		"output", debug.Truncate(result.Output, 200),
	)
	return *result
}

// syncWriter serializes tool events from concurrent executions and keeps
// the first write error. Once a write fails, later events are dropped.
type syncWriter struct {
	mu  sync.Mutex
	w   Writer
	err error
}

func (s *syncWriter) write(ctx context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.err = s.w.WriteEvent(ctx, ev)
}

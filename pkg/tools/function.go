package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rhuss/mistral-bridge/pkg/api"
)

// FunctionHandler implements a function tool. args is the raw JSON object
// produced by the model.
type FunctionHandler func(ctx context.Context, args json.RawMessage) (string, error)

// Function pairs a tool definition with its handler.
type Function struct {
	Definition api.ToolDefinition
	Handler    FunctionHandler
}

// FunctionExecutor executes in-process Go functions.
type FunctionExecutor struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// Ensure FunctionExecutor implements ToolProvider at compile time.
var _ ToolProvider = (*FunctionExecutor)(nil)

// NewFunctionExecutor returns an executor holding fns.
func NewFunctionExecutor(fns ...Function) (*FunctionExecutor, error) {
	e := &FunctionExecutor{funcs: make(map[string]Function, len(fns))}
	for _, fn := range fns {
		if err := e.Register(fn); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Register adds fn. Names must be unique and valid tool names.
func (e *FunctionExecutor) Register(fn Function) error {
	if apiErr := api.ValidateToolDefinition(fn.Definition); apiErr != nil {
		return apiErr
	}
	if fn.Handler == nil {
		return fmt.Errorf("function %q has no handler", fn.Definition.Name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.funcs[fn.Definition.Name]; exists {
		return fmt.Errorf("function %q already registered", fn.Definition.Name)
	}
	e.funcs[fn.Definition.Name] = fn
	return nil
}

// Kind returns ToolKindFunction.
func (e *FunctionExecutor) Kind() ToolKind { return ToolKindFunction }

// CanExecute reports whether a function with that name is registered.
func (e *FunctionExecutor) CanExecute(toolName string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.funcs[toolName]
	return ok
}

// Definitions returns the registered tools sorted by name.
func (e *FunctionExecutor) Definitions(context.Context) []api.ToolDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()

	defs := make([]api.ToolDefinition, 0, len(e.funcs))
	for _, fn := range e.funcs {
		defs = append(defs, fn.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute runs the named function. Handler errors become error results.
func (e *FunctionExecutor) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	e.mu.RLock()
	fn, ok := e.funcs[call.Name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("function %q is not registered", call.Name)
	}

	args := json.RawMessage(call.Arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		r := ErrorResult(call.ID, "invalid arguments JSON")
		return &r, nil
	}

	out, err := fn.Handler(ctx, args)
	if err != nil {
		r := ErrorResult(call.ID, err.Error())
		return &r, nil
	}
	return &ToolResult{CallID: call.ID, Output: out}, nil
}

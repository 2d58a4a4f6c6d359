package engine

import (
	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/tools"
)

// DefaultMaxTurns bounds the tool loop when Config.MaxTurns is unset.
const DefaultMaxTurns = 10

// Config holds configuration for the tool loop.
type Config struct {
	// MaxTurns is the maximum number of model calls in one run before the
	// loop stops with StatusIncomplete. Zero or negative means
	// DefaultMaxTurns.
	MaxTurns int

	// Executors run the model's tool calls. Tools of executors that also
	// implement tools.ToolProvider are advertised to the model. When empty,
	// the loop stops after the first turn that requests tools and reports
	// StatusRequiresAction.
	Executors []tools.ToolExecutor

	// AllowedTools limits which tools are advertised and executed. Empty
	// allows all.
	AllowedTools tools.AllowList

	// ParallelToolCalls runs the tool calls of one turn concurrently.
	ParallelToolCalls bool

	// Validation limits applied to the initial request.
	Validation api.ValidationConfig
}

// maxTurns returns the effective max turns value.
func (c Config) maxTurns() int {
	if c.MaxTurns <= 0 {
		return DefaultMaxTurns
	}
	return c.MaxTurns
}

// Package tools defines the tool executor contract used by the engine's
// tool loop. Executors exist for in-process Go functions and for tools
// served over the Model Context Protocol (see pkg/tools/mcp).
//
// The package also converts between the model's tool uses and tool result
// message parts, and filters calls against an allow list.
package tools

// Package mcp connects the tool loop to Model Context Protocol servers.
// It discovers the tools a server offers, advertises them to the model as
// api.ToolDefinition values and executes the model's calls.
//
// Servers are reached over stdio, SSE or streamable HTTP using the official
// MCP Go SDK (github.com/modelcontextprotocol/go-sdk). HTTP transports may
// carry static headers and OAuth client-credentials tokens.
package mcp

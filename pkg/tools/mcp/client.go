package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/debug"
	"github.com/rhuss/mistral-bridge/pkg/tools"
)

// clientVersion is reported to MCP servers during the handshake.
const clientVersion = "0.1.0"

// MCPClient wraps an MCP SDK client session for a single server. It
// handles the connection lifecycle, tool discovery and tool execution.
type MCPClient struct {
	cfg     ServerConfig
	client  *mcp.Client
	session *mcp.ClientSession

	mu            sync.Mutex
	cachedTools   []api.ToolDefinition
	toolsResolved bool
}

// NewMCPClient creates a new MCPClient for the given server configuration.
// Call Connect to establish the connection.
func NewMCPClient(cfg ServerConfig) *MCPClient {
	return &MCPClient{cfg: cfg}
}

// Name returns the configured server name.
func (c *MCPClient) Name() string { return c.cfg.Name }

// Connect establishes the MCP connection to the server, performing the
// protocol handshake.
func (c *MCPClient) Connect(ctx context.Context) error {
	return c.ConnectWithTransport(ctx, nil)
}

// ConnectWithTransport establishes the MCP connection using the given
// transport. If transport is nil, a transport is created from the
// server configuration.
func (c *MCPClient) ConnectWithTransport(ctx context.Context, transport mcp.Transport) error {
	c.client = mcp.NewClient(
		&mcp.Implementation{Name: "mistral-bridge", Version: clientVersion},
		&mcp.ClientOptions{Capabilities: &mcp.ClientCapabilities{}},
	)

	if transport == nil {
		t, err := c.createTransport()
		if err != nil {
			return fmt.Errorf("creating transport for %q: %w", c.cfg.Name, err)
		}
		transport = t
	}

	session, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("connecting to MCP server %q: %w", c.cfg.Name, err)
	}
	c.session = session
	debug.Log(debug.Tools, "connected to MCP server", "server", c.cfg.Name, "transport", c.transportName())
	return nil
}

func (c *MCPClient) transportName() string {
	if c.cfg.Transport == "" {
		return "streamable-http"
	}
	return c.cfg.Transport
}

// createTransport creates an MCP transport based on the server configuration.
func (c *MCPClient) createTransport() (mcp.Transport, error) {
	switch c.cfg.Transport {
	case "stdio":
		if c.cfg.Command == "" {
			return nil, fmt.Errorf("stdio transport needs a command")
		}
		return &mcp.CommandTransport{Command: exec.Command(c.cfg.Command, c.cfg.Args...)}, nil

	case "sse":
		httpClient, err := c.buildHTTPClient()
		if err != nil {
			return nil, err
		}
		t := &mcp.SSEClientTransport{Endpoint: c.cfg.URL}
		if httpClient != nil {
			t.HTTPClient = httpClient
		}
		return t, nil

	case "streamable-http", "":
		httpClient, err := c.buildHTTPClient()
		if err != nil {
			return nil, err
		}
		t := &mcp.StreamableClientTransport{Endpoint: c.cfg.URL}
		if httpClient != nil {
			t.HTTPClient = httpClient
		}
		return t, nil

	default:
		return nil, fmt.Errorf("unsupported transport type %q", c.cfg.Transport)
	}
}

// buildHTTPClient returns the HTTP client for the configured headers and
// auth, or nil to use the SDK default.
func (c *MCPClient) buildHTTPClient() (*http.Client, error) {
	ts, err := newTokenSource(c.cfg.Auth)
	if err != nil {
		return nil, err
	}
	return newHTTPClient(c.cfg.Headers, ts), nil
}

// DiscoverTools lists the server's tools once and caches the result.
func (c *MCPClient) DiscoverTools(ctx context.Context) ([]api.ToolDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.toolsResolved {
		return c.cachedTools, nil
	}
	if c.session == nil {
		return nil, fmt.Errorf("MCP client %q not connected", c.cfg.Name)
	}

	var defs []api.ToolDefinition
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("listing tools from %q: %w", c.cfg.Name, err)
		}
		td, err := convertTool(tool)
		if err != nil {
			return nil, fmt.Errorf("converting tool %q from %q: %w", tool.Name, c.cfg.Name, err)
		}
		defs = append(defs, td)
	}

	c.cachedTools = defs
	c.toolsResolved = true
	return defs, nil
}

// CallTool executes a tool call on the MCP server. Argument and protocol
// failures are returned as error results so the model can see them.
func (c *MCPClient) CallTool(ctx context.Context, call tools.ToolCall) (*tools.ToolResult, error) {
	if c.session == nil {
		return nil, fmt.Errorf("MCP client %q not connected", c.cfg.Name)
	}

	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			r := tools.ErrorResult(call.ID, fmt.Sprintf("invalid arguments JSON: %v", err))
			return &r, nil
		}
	}

	debug.Log(debug.Tools, "calling MCP tool", "server", c.cfg.Name, "tool", call.Name, "call_id", call.ID)
	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: call.Name, Arguments: args})
	if err != nil {
		r := tools.ErrorResult(call.ID, fmt.Sprintf("MCP tool call error: %v", err))
		return &r, nil
	}
	return convertResult(call.ID, result), nil
}

// Close closes the MCP session.
func (c *MCPClient) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

// convertTool converts an MCP Tool to an api.ToolDefinition.
func convertTool(t *mcp.Tool) (api.ToolDefinition, error) {
	var schema json.RawMessage
	if t.InputSchema != nil {
		data, err := json.Marshal(t.InputSchema)
		if err != nil {
			return api.ToolDefinition{}, fmt.Errorf("marshaling input schema: %w", err)
		}
		schema = data
	}
	return api.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
	}, nil
}

// convertResult converts an MCP CallToolResult. Text parts are joined with
// newlines. A lone PNG image becomes the result's image; any other image
// is replaced by a short description.
func convertResult(callID string, result *mcp.CallToolResult) *tools.ToolResult {
	var texts []string
	var image *api.Image
	for _, content := range result.Content {
		switch c := content.(type) {
		case *mcp.TextContent:
			texts = append(texts, c.Text)
		case *mcp.ImageContent:
			if c.MIMEType == "image/png" && image == nil {
				image = &api.Image{Source: base64.StdEncoding.EncodeToString(c.Data)}
				continue
			}
			texts = append(texts, fmt.Sprintf("[image: %s, %d bytes]", c.MIMEType, len(c.Data)))
		}
	}

	if image != nil && len(texts) > 0 {
		texts = append(texts, "[image: image/png]")
		image = nil
	}
	return &tools.ToolResult{
		CallID:  callID,
		Output:  strings.Join(texts, "\n"),
		Image:   image,
		IsError: result.IsError,
	}
}

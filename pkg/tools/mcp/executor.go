package mcp

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/tools"
)

// MCPExecutor exposes the tools of one or more MCP servers as a
// tools.ToolProvider. Each call is routed to the server that owns the tool.
type MCPExecutor struct {
	clients map[string]*MCPClient

	once   sync.Once
	mu     sync.RWMutex
	routes map[string]string // tool name -> server name
	defs   []api.ToolDefinition
}

var _ tools.ToolProvider = (*MCPExecutor)(nil)

// NewMCPExecutor wraps already connected clients, keyed by server name.
func NewMCPExecutor(clients map[string]*MCPClient) *MCPExecutor {
	if clients == nil {
		clients = map[string]*MCPClient{}
	}
	return &MCPExecutor{clients: clients, routes: map[string]string{}}
}

// Connect dials all servers concurrently. A server that cannot be reached
// is logged and left out; the call fails only when every server fails.
func Connect(ctx context.Context, servers []ServerConfig) (*MCPExecutor, error) {
	connected := make([]*MCPClient, len(servers))
	failures := make([]error, len(servers))

	var g errgroup.Group
	for i, cfg := range servers {
		g.Go(func() error {
			c := NewMCPClient(cfg)
			if err := c.Connect(ctx); err != nil {
				slog.Warn("skipping MCP server", "server", cfg.Name, "error", err)
				failures[i] = err
				return nil
			}
			connected[i] = c
			return nil
		})
	}
	_ = g.Wait()

	clients := make(map[string]*MCPClient, len(servers))
	for _, c := range connected {
		if c != nil {
			clients[c.Name()] = c
		}
	}
	if len(clients) == 0 && len(servers) > 0 {
		return nil, errors.Join(failures...)
	}
	return NewMCPExecutor(clients), nil
}

// Kind returns ToolKindMCP.
func (e *MCPExecutor) Kind() tools.ToolKind {
	return tools.ToolKindMCP
}

// CanExecute reports whether a connected server offers the tool.
func (e *MCPExecutor) CanExecute(toolName string) bool {
	e.discover(context.Background())
	_, ok := e.route(toolName)
	return ok
}

// Execute forwards the call to the owning server. Unknown tools produce an
// error result rather than an error.
func (e *MCPExecutor) Execute(ctx context.Context, call tools.ToolCall) (*tools.ToolResult, error) {
	e.discover(ctx)
	server, ok := e.route(call.Name)
	if !ok {
		r := tools.ErrorResult(call.ID, fmt.Sprintf("no MCP server provides tool %q", call.Name))
		return &r, nil
	}
	return e.clients[server].CallTool(ctx, call)
}

// Definitions returns the routed tools sorted by name.
func (e *MCPExecutor) Definitions(ctx context.Context) []api.ToolDefinition {
	e.discover(ctx)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.defs)
}

// Close closes every client and joins their errors.
func (e *MCPExecutor) Close() error {
	var errs []error
	for name, c := range e.clients {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close MCP client", "server", name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *MCPExecutor) route(tool string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	server, ok := e.routes[tool]
	return server, ok
}

// discover lists the tools of all servers once. Listing runs concurrently;
// routes are then assigned in server name order, so a tool name offered by
// several servers always goes to the alphabetically first one.
func (e *MCPExecutor) discover(ctx context.Context) {
	e.once.Do(func() {
		names := slices.Sorted(maps.Keys(e.clients))
		listed := make([][]api.ToolDefinition, len(names))

		var g errgroup.Group
		for i, name := range names {
			g.Go(func() error {
				defs, err := e.clients[name].DiscoverTools(ctx)
				if err != nil {
					slog.Error("failed to discover tools from MCP server", "server", name, "error", err)
					return nil
				}
				listed[i] = defs
				slog.Info("discovered MCP tools", "server", name, "count", len(defs))
				return nil
			})
		}
		_ = g.Wait()

		e.mu.Lock()
		defer e.mu.Unlock()
		for i, name := range names {
			for _, td := range listed[i] {
				if owner, taken := e.routes[td.Name]; taken {
					slog.Warn("duplicate MCP tool name, using first provider",
						"tool", td.Name, "server", name, "provider", owner)
					continue
				}
				e.routes[td.Name] = name
				e.defs = append(e.defs, td)
			}
		}
		slices.SortFunc(e.defs, func(a, b api.ToolDefinition) int { return cmp.Compare(a.Name, b.Name) })
	})
}

package mcp

import "github.com/rhuss/mistral-bridge/pkg/config"

// ServerConfig describes a single MCP server connection.
type ServerConfig struct {
	// Name is the logical name for this server, used for logging and
	// identification when routing tool calls.
	Name string

	// Transport is "stdio", "sse" or "streamable-http".
	// If empty, defaults to "streamable-http".
	Transport string

	// URL is the MCP server endpoint for the HTTP transports.
	URL string

	// Command and Args start the server for the stdio transport.
	Command string
	Args    []string

	// Headers contains additional HTTP headers to send with requests.
	Headers map[string]string

	// Auth configures dynamic authentication. The zero value disables it.
	Auth AuthConfig
}

// AuthConfig configures token acquisition for an MCP server.
type AuthConfig struct {
	Type         string // "" or AuthOAuthClientCredentials
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// FromConfig converts the mcp.servers section. Secrets from _file fields
// are expected to be resolved already.
func FromConfig(servers []config.MCPServerConfig) []ServerConfig {
	out := make([]ServerConfig, 0, len(servers))
	for _, s := range servers {
		out = append(out, ServerConfig{
			Name:      s.Name,
			Transport: s.Transport,
			URL:       s.URL,
			Command:   s.Command,
			Args:      append([]string(nil), s.Args...),
			Headers:   s.Headers,
			Auth: AuthConfig{
				Type:         s.Auth.Type,
				TokenURL:     s.Auth.TokenURL,
				ClientID:     s.Auth.ClientID,
				ClientSecret: s.Auth.ClientSecret,
				Scopes:       append([]string(nil), s.Auth.Scopes...),
			},
		})
	}
	return out
}

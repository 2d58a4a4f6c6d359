package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// mistral.api_url must be an absolute http(s) URL.
	if u, err := url.Parse(c.Mistral.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("mistral.api_url must be an http(s) URL, got %q", c.Mistral.APIURL))
	}

	if c.Mistral.Timeout < 0 {
		errs = append(errs, fmt.Errorf("mistral.timeout must be >= 0, got %s", c.Mistral.Timeout))
	}

	for i, m := range c.Mistral.AvailableModels {
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("mistral.available_models[%d]: %w", i, err))
		}
	}

	switch c.Credentials.Type {
	case "memory", "file":
		// valid
	case "postgres":
		if c.Credentials.Postgres.DSN == "" && c.Credentials.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("credentials.postgres.dsn or credentials.postgres.dsn_file is required when credentials.type is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("credentials.type must be \"memory\", \"file\", or \"postgres\", got %q", c.Credentials.Type))
	}

	if c.Credentials.Postgres.MaxConns < 0 {
		errs = append(errs, fmt.Errorf("credentials.postgres.max_conns must be >= 0, got %d", c.Credentials.Postgres.MaxConns))
	}

	seen := make(map[string]bool, len(c.MCP.Servers))
	for i, s := range c.MCP.Servers {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("mcp.servers[%d].name is required", i))
		} else if seen[s.Name] {
			errs = append(errs, fmt.Errorf("mcp.servers[%d].name %q is duplicated", i, s.Name))
		}
		seen[s.Name] = true
		switch s.Transport {
		case "stdio":
			if s.Command == "" {
				errs = append(errs, fmt.Errorf("mcp.servers[%d].command is required for stdio", i))
			}
		case "", "sse", "streamable-http":
			if s.URL == "" {
				errs = append(errs, fmt.Errorf("mcp.servers[%d].url is required", i))
			}
		default:
			errs = append(errs, fmt.Errorf("mcp.servers[%d].transport must be \"stdio\", \"sse\" or \"streamable-http\", got %q", i, s.Transport))
		}
		switch s.Auth.Type {
		case "":
		case "oauth_client_credentials":
			if s.Auth.TokenURL == "" {
				errs = append(errs, fmt.Errorf("mcp.servers[%d].auth.token_url is required for oauth_client_credentials", i))
			}
		default:
			errs = append(errs, fmt.Errorf("mcp.servers[%d].auth.type must be \"oauth_client_credentials\", got %q", i, s.Auth.Type))
		}
	}

	if c.Engine.MaxTurns <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_turns must be > 0, got %d", c.Engine.MaxTurns))
	}

	if m := c.Observability.Metrics; m.Enabled {
		if m.Addr == "" {
			errs = append(errs, fmt.Errorf("observability.metrics.addr is required when metrics are enabled"))
		}
		if !strings.HasPrefix(m.Path, "/") {
			errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", m.Path))
		}
	}

	switch strings.ToUpper(c.Debug.Level) {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("debug.level must be one of TRACE, DEBUG, INFO, WARN, ERROR, got %q", c.Debug.Level))
	}

	return errors.Join(errs...)
}

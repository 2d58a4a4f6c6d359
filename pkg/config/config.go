// Package config provides unified configuration for mistral-bridge.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (MISTRAL_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/rhuss/mistral-bridge/pkg/provider/mistral"
)

// Config holds all configuration for mistral-bridge.
type Config struct {
	Mistral       MistralConfig       `yaml:"mistral"`
	Credentials   CredentialsConfig   `yaml:"credentials"`
	MCP           MCPConfig           `yaml:"mcp"`
	Engine        EngineConfig        `yaml:"engine"`
	Observability ObservabilityConfig `yaml:"observability"`
	Debug         DebugConfig         `yaml:"debug"`
}

// MistralConfig holds the provider settings.
type MistralConfig struct {
	APIURL           string                   `yaml:"api_url"`            // default: mistral.DefaultAPIURL
	DefaultModel     string                   `yaml:"default_model"`      // optional
	DefaultFastModel string                   `yaml:"default_fast_model"` // optional
	Timeout          time.Duration            `yaml:"timeout"`            // 0 disables the client timeout
	AvailableModels  []mistral.AvailableModel `yaml:"available_models"`
}

// Settings converts the section into provider settings.
func (c MistralConfig) Settings() mistral.Settings {
	return mistral.Settings{
		APIURL:           c.APIURL,
		AvailableModels:  c.AvailableModels,
		DefaultModel:     c.DefaultModel,
		DefaultFastModel: c.DefaultFastModel,
		Timeout:          c.Timeout,
	}
}

// CredentialsConfig selects where API keys are stored.
type CredentialsConfig struct {
	Type     string         `yaml:"type"` // "memory", "file" or "postgres", default: "file"
	File     string         `yaml:"file"` // default: credentials/file.DefaultPath()
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 4
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// MCPConfig holds MCP (Model Context Protocol) server settings.
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig describes a single MCP server connection.
type MCPServerConfig struct {
	Name      string            `yaml:"name" json:"name"`
	Transport string            `yaml:"transport" json:"transport"` // "stdio", "sse" or "streamable-http"
	URL       string            `yaml:"url" json:"url,omitempty"`
	Command   string            `yaml:"command" json:"command,omitempty"` // stdio only
	Args      []string          `yaml:"args" json:"args,omitempty"`
	Headers   map[string]string `yaml:"headers" json:"headers,omitempty"`
	Auth      MCPAuthConfig     `yaml:"auth" json:"auth,omitempty"`
}

// MCPAuthConfig configures dynamic authentication for an MCP server.
type MCPAuthConfig struct {
	Type             string   `yaml:"type" json:"type,omitempty"` // "" or "oauth_client_credentials"
	TokenURL         string   `yaml:"token_url" json:"token_url,omitempty"`
	ClientID         string   `yaml:"client_id" json:"client_id,omitempty"`
	ClientIDFile     string   `yaml:"client_id_file" json:"client_id_file,omitempty"`
	ClientSecret     string   `yaml:"client_secret" json:"client_secret,omitempty"`
	ClientSecretFile string   `yaml:"client_secret_file" json:"client_secret_file,omitempty"`
	Scopes           []string `yaml:"scopes" json:"scopes,omitempty"`
}

// EngineConfig holds tool loop settings.
type EngineConfig struct {
	MaxTurns int `yaml:"max_turns"` // default: 10
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Addr    string `yaml:"addr"`    // default: "127.0.0.1:9464"
	Path    string `yaml:"path"`    // default: "/metrics"
}

// DebugConfig configures logging. MISTRAL_DEBUG and MISTRAL_LOG_LEVEL
// take precedence.
type DebugConfig struct {
	Categories string `yaml:"categories"`
	Level      string `yaml:"level"`
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Mistral: MistralConfig{
			APIURL:  mistral.DefaultAPIURL,
			Timeout: 10 * time.Minute,
		},
		Credentials: CredentialsConfig{
			Type: "file",
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Engine: EngineConfig{
			MaxTurns: 10,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Addr: "127.0.0.1:9464",
				Path: "/metrics",
			},
		},
		Debug: DebugConfig{
			Level: "INFO",
		},
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/mistral-bridge/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, MISTRAL_CONFIG env, ./mistral.yaml,
//     $XDG_CONFIG_HOME/mistral-bridge/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log(debug.Config, "loaded config file", "path", filePath)
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. MISTRAL_CONFIG environment variable
// 3. ./mistral.yaml in the current directory
// 4. mistral-bridge/config.yaml under the user config directory
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("MISTRAL_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{"mistral.yaml"}
	if dir := userConfigDir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "mistral-bridge", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// userConfigDir prefers XDG_CONFIG_HOME on every platform.
func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// envBindings lists the plain string settings that environment variables
// override. MISTRAL_API_KEY is absent on purpose: the provider state reads
// it directly so the key never lands in a Config.
func envBindings(cfg *Config) map[string]*string {
	return map[string]*string{
		"MISTRAL_API_URL":           &cfg.Mistral.APIURL,
		"MISTRAL_MODEL":             &cfg.Mistral.DefaultModel,
		"MISTRAL_FAST_MODEL":        &cfg.Mistral.DefaultFastModel,
		"MISTRAL_CREDENTIALS_STORE": &cfg.Credentials.Type,
		"MISTRAL_CREDENTIALS_FILE":  &cfg.Credentials.File,
		"MISTRAL_POSTGRES_DSN":      &cfg.Credentials.Postgres.DSN,
	}
}

func applyEnvOverrides(cfg *Config) {
	for name, field := range envBindings(cfg) {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	// MISTRAL_MCP_SERVERS replaces mcp.servers with a JSON array.
	if v := os.Getenv("MISTRAL_MCP_SERVERS"); v != "" {
		var servers []MCPServerConfig
		if err := json.Unmarshal([]byte(v), &servers); err != nil {
			slog.Warn("ignoring MISTRAL_MCP_SERVERS", "error", err)
		} else if len(servers) > 0 {
			cfg.MCP.Servers = servers
		}
	}
}

// secretRef pairs a value with the _file setting that can supply it.
type secretRef struct {
	name  string
	file  string
	value *string
}

func secretRefs(cfg *Config) []secretRef {
	refs := []secretRef{{
		name:  "credentials.postgres.dsn_file",
		file:  cfg.Credentials.Postgres.DSNFile,
		value: &cfg.Credentials.Postgres.DSN,
	}}
	for i := range cfg.MCP.Servers {
		auth := &cfg.MCP.Servers[i].Auth
		refs = append(refs,
			secretRef{fmt.Sprintf("mcp.servers[%d].auth.client_id_file", i), auth.ClientIDFile, &auth.ClientID},
			secretRef{fmt.Sprintf("mcp.servers[%d].auth.client_secret_file", i), auth.ClientSecretFile, &auth.ClientSecret},
		)
	}
	return refs
}

// resolveFileReferences fills empty secrets from their _file settings. An
// inline value wins over the file.
func resolveFileReferences(cfg *Config) error {
	for _, ref := range secretRefs(cfg) {
		if ref.file == "" || *ref.value != "" {
			continue
		}
		data, err := os.ReadFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.value = strings.TrimSpace(string(data))
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/mistral-bridge/pkg/config"
	"github.com/rhuss/mistral-bridge/pkg/credentials"
	"github.com/rhuss/mistral-bridge/pkg/credentials/file"
	"github.com/rhuss/mistral-bridge/pkg/credentials/memory"
	"github.com/rhuss/mistral-bridge/pkg/credentials/postgres"
	"github.com/rhuss/mistral-bridge/pkg/observability"
	"github.com/rhuss/mistral-bridge/pkg/provider/mistral"
	"github.com/rhuss/mistral-bridge/pkg/tools/mcp"
)

// app holds the long-lived pieces shared by all commands.
type app struct {
	cfg      *config.Config
	in       io.Reader
	out      io.Writer
	store    credentials.Store
	provider *mistral.Provider
	tools    *mcp.MCPExecutor
	metrics  *http.Server
}

func newApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*app, error) {
	store, err := openStore(ctx, cfg.Credentials)
	if err != nil {
		return nil, err
	}

	settings := cfg.Mistral.Settings()
	settings.Transport = observability.InstrumentTransport(nil)

	a := &app{
		cfg:      cfg,
		in:       in,
		out:      out,
		store:    store,
		provider: mistral.New(settings, store),
	}
	if cfg.Observability.Metrics.Enabled {
		a.startMetrics()
	}
	return a, nil
}

// openStore creates the configured credential store.
func openStore(ctx context.Context, cfg config.CredentialsConfig) (credentials.Store, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), nil

	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres credential store: %w", err)
		}
		return store, nil

	default:
		path := cfg.File
		if path == "" {
			p, err := file.DefaultPath()
			if err != nil {
				return nil, fmt.Errorf("locating credentials file: %w", err)
			}
			path = p
		}
		store, err := file.New(path)
		if err != nil {
			return nil, fmt.Errorf("opening credentials file: %w", err)
		}
		return store, nil
	}
}

// connectTools connects the configured MCP servers. Having none configured
// is not an error.
func (a *app) connectTools(ctx context.Context) error {
	servers := mcp.FromConfig(a.cfg.MCP.Servers)
	if len(servers) == 0 {
		return nil
	}
	exec, err := mcp.Connect(ctx, servers)
	if err != nil {
		return fmt.Errorf("connecting MCP servers: %w", err)
	}
	a.tools = exec
	slog.Info("MCP tools enabled", "servers", len(servers), "tools", len(exec.Definitions(ctx)))
	return nil
}

func (a *app) startMetrics() {
	mc := a.cfg.Observability.Metrics
	mux := http.NewServeMux()
	mux.Handle(mc.Path, observability.Handler())
	a.metrics = &http.Server{
		Addr:              mc.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("metrics endpoint enabled", "addr", mc.Addr, "path", mc.Path)
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
}

// authenticate loads the API key and explains how to provide one.
func (a *app) authenticate(ctx context.Context) error {
	err := a.provider.Authenticate(ctx)
	if errors.Is(err, mistral.ErrCredentialsNotFound) {
		return fmt.Errorf("no API key: set %s or run 'mistral-chat auth set'", mistral.APIKeyEnvVar)
	}
	return err
}

func (a *app) Close() error {
	var errs []error
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.metrics.Shutdown(ctx))
	}
	if a.tools != nil {
		errs = append(errs, a.tools.Close())
	}
	errs = append(errs, a.provider.Close(), a.store.Close())
	return errors.Join(errs...)
}

// Command mistral-chat talks to Mistral chat models from the terminal.
//
// Usage:
//
//	mistral-chat [-config path] chat [flags] [prompt...]
//	mistral-chat [-config path] models [-remote]
//	mistral-chat [-config path] auth set|reset|status
//
// Configuration is read from the file given with -config, MISTRAL_CONFIG,
// ./mistral.yaml or $XDG_CONFIG_HOME/mistral-bridge/config.yaml. A .env file
// in the working directory is loaded first. The API key comes from
// MISTRAL_API_KEY or the configured credential store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rhuss/mistral-bridge/pkg/config"
	"github.com/rhuss/mistral-bridge/pkg/debug"
)

const usageText = `Usage: mistral-chat [-config path] <command> [flags]

Commands:
  chat     send a prompt (or start an interactive session with -i)
  models   list the available models
  auth     manage the stored API key (set, reset, status)
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("mistral-chat failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("ignoring .env file", "error", err)
	}

	global := flag.NewFlagSet("mistral-chat", flag.ContinueOnError)
	configPath := global.String("config", "", "path to the config file")
	global.Usage = func() {
		fmt.Fprint(global.Output(), usageText)
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return flag.ErrHelp
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	debug.Init(cfg.Debug.Categories, cfg.Debug.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, in, out)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("shutdown", "error", err)
		}
	}()

	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "chat":
		return a.chat(ctx, cmdArgs)
	case "models":
		return a.models(ctx, cmdArgs)
	case "auth":
		return a.auth(ctx, cmdArgs)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/rhuss/mistral-bridge/pkg/debug"
	"github.com/rhuss/mistral-bridge/pkg/provider/mistral"
)

func (a *app) auth(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("auth: expected set, reset or status")
	}
	switch args[0] {
	case "set":
		return a.authSet(ctx, args[1:])
	case "reset":
		if err := a.provider.ResetCredentials(ctx); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Removed the stored API key for %s\n", a.provider.State().APIURL())
		if a.provider.State().APIKeyFromEnv() {
			fmt.Fprintf(a.out, "%s is still set in the environment\n", mistral.APIKeyEnvVar)
		}
		return nil
	case "status":
		return a.authStatus(ctx)
	default:
		return fmt.Errorf("auth: unknown subcommand %q", args[0])
	}
}

func (a *app) authSet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("auth set", flag.ContinueOnError)
	fromStdin := fs.Bool("stdin", false, "read the key from standard input")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var key string
	var err error
	if *fromStdin || !isTerminal(a.in) {
		key, err = readLine(a.in)
	} else {
		key, err = promptKey()
	}
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("empty API key")
	}

	if err := a.provider.State().SetAPIKey(ctx, key); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Stored API key %s for %s\n", debug.RedactKey(key), a.provider.State().APIURL())
	return nil
}

func (a *app) authStatus(ctx context.Context) error {
	state := a.provider.State()
	err := a.provider.Authenticate(ctx)
	switch {
	case errors.Is(err, mistral.ErrCredentialsNotFound):
		fmt.Fprintf(a.out, "Not authenticated for %s\n", state.APIURL())
		return nil
	case err != nil:
		return err
	}

	key, url := state.Credentials()
	source := "credential store (" + a.cfg.Credentials.Type + ")"
	if state.APIKeyFromEnv() {
		source = mistral.APIKeyEnvVar
	}
	fmt.Fprintf(a.out, "Authenticated for %s\n  key:    %s\n  source: %s\n", url, debug.RedactKey(key), source)
	return nil
}

func promptKey() (string, error) {
	var key string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Mistral API key").
			EchoMode(huh.EchoModePassword).
			Value(&key),
	)).Run()
	return key, err
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	return line, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

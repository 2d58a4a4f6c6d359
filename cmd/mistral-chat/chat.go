package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/engine"
	"github.com/rhuss/mistral-bridge/pkg/provider"
	"github.com/rhuss/mistral-bridge/pkg/tools"
)

type chatOptions struct {
	model       string
	system      string
	interactive bool
	markdown    bool
	noTools     bool
	sequential  bool
	temperature float64
	allow       string
}

func (a *app) chat(ctx context.Context, args []string) error {
	var opts chatOptions
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.StringVar(&opts.model, "model", "", "model ID (default: configured default model)")
	fs.StringVar(&opts.system, "system", "", "system prompt")
	fs.BoolVar(&opts.interactive, "i", false, "interactive session")
	fs.BoolVar(&opts.markdown, "markdown", false, "render answers as markdown")
	fs.BoolVar(&opts.noTools, "no-tools", false, "do not connect MCP servers")
	fs.BoolVar(&opts.sequential, "sequential-tools", false, "run tool calls one at a time")
	fs.Float64Var(&opts.temperature, "temperature", -1, "sampling temperature (default: model default)")
	fs.StringVar(&opts.allow, "allow-tools", "", "comma-separated tool names the model may call")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.authenticate(ctx); err != nil {
		return err
	}
	model, err := a.selectModel(opts.model)
	if err != nil {
		return err
	}

	var executors []tools.ToolExecutor
	if !opts.noTools {
		if err := a.connectTools(ctx); err != nil {
			return err
		}
		if a.tools != nil {
			executors = append(executors, a.tools)
		}
	}

	eng := engine.New(engine.Config{
		MaxTurns:          a.cfg.Engine.MaxTurns,
		Executors:         executors,
		AllowedTools:      splitList(opts.allow),
		ParallelToolCalls: !opts.sequential,
	})

	s := &session{
		engine:   eng,
		model:    model,
		opts:     opts,
		threadID: uuid.NewString(),
		printer:  newPrinter(a.out, opts.markdown),
	}
	if opts.system != "" {
		s.history = append(s.history, api.SystemMessage(opts.system))
	}

	if opts.interactive {
		return s.repl(ctx, a.in, a.out)
	}

	prompt := strings.Join(fs.Args(), " ")
	if prompt == "" {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return fmt.Errorf("reading prompt: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		return errors.New("empty prompt")
	}
	return s.send(ctx, prompt)
}

// selectModel resolves id against the catalog, falling back to the default.
func (a *app) selectModel(id string) (provider.LanguageModel, error) {
	if id == "" {
		return a.provider.DefaultModel(), nil
	}
	m, ok := a.provider.Model(id)
	if !ok {
		return nil, fmt.Errorf("unknown model %q (see 'mistral-chat models')", id)
	}
	return m, nil
}

// session keeps the conversation across prompts.
type session struct {
	engine   *engine.Engine
	model    provider.LanguageModel
	opts     chatOptions
	threadID string
	printer  *printer
	history  []api.Message
}

func (s *session) send(ctx context.Context, prompt string) error {
	req := &api.Request{
		Messages: append(append([]api.Message(nil), s.history...), api.UserMessage(prompt)),
		ThreadID: s.threadID,
		PromptID: uuid.NewString(),
	}
	if s.opts.temperature >= 0 {
		req.Temperature = api.Float64(s.opts.temperature)
	}

	log := slog.With("thread_id", req.ThreadID, "prompt_id", req.PromptID, "model", s.model.TelemetryID())

	res, err := s.engine.Run(ctx, s.model, req, s.printer)
	if ferr := s.printer.finish(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}
	log.Debug("prompt finished",
		"status", res.Status,
		"turns", res.Turns,
		"input_tokens", res.Usage.InputTokens,
		"output_tokens", res.Usage.OutputTokens,
	)

	s.history = res.Messages
	switch res.Status {
	case engine.StatusIncomplete:
		fmt.Fprintln(s.printer.out, color.RedString("stopped after %d turns", res.Turns))
	case engine.StatusRequiresAction:
		for _, c := range res.PendingCalls {
			fmt.Fprintf(s.printer.out, "%s %s%s\n", color.RedString("unhandled tool call:"), color.YellowString(c.Name), c.Arguments)
		}
	case engine.StatusCancelled:
		return ctx.Err()
	}
	return nil
}

func (s *session) repl(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprintf(out, "%s: ", color.CyanString("You"))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
			return nil
		}

		fmt.Fprintf(out, "%s: ", color.GreenString(s.model.Name()))
		if err := s.send(ctx, input); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Keep the session alive; the failed prompt is not part of history.
			fmt.Fprintln(out, color.RedString("error: %v", err))
		}
	}
}

func splitList(s string) tools.AllowList {
	var out tools.AllowList
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

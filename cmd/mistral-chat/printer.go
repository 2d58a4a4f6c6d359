package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/rhuss/mistral-bridge/pkg/api"
	"github.com/rhuss/mistral-bridge/pkg/debug"
	"github.com/rhuss/mistral-bridge/pkg/engine"
)

// printer renders loop events on the terminal. Text is streamed as it
// arrives unless markdown rendering is on, in which case each answer is
// buffered and rendered once complete.
type printer struct {
	out      io.Writer
	renderer *glamour.TermRenderer

	buf     strings.Builder
	midLine bool
}

func newPrinter(out io.Writer, markdown bool) *printer {
	p := &printer{out: out}
	if markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			p.renderer = r
		}
	}
	return p
}

// WriteEvent implements engine.Writer.
func (p *printer) WriteEvent(_ context.Context, ev engine.Event) error {
	switch ev.Kind {
	case engine.EventModel:
		return p.modelEvent(ev.Model)

	case engine.EventToolStarted:
		if err := p.flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(p.out, "%s%s\n", color.YellowString(ev.Call.Name), debug.Truncate(ev.Call.Arguments, 200))
		return err

	case engine.EventToolFinished:
		mark := color.GreenString("  done")
		if ev.Result.IsError {
			mark = color.RedString("  failed: %s", debug.Truncate(ev.Result.Output, 200))
		}
		_, err := fmt.Fprintln(p.out, mark)
		return err
	}
	return nil
}

func (p *printer) modelEvent(ev api.Event) error {
	switch ev.Type {
	case api.EventTextDelta:
		if p.renderer != nil {
			p.buf.WriteString(ev.Text)
			return nil
		}
		if ev.Text != "" {
			p.midLine = !strings.HasSuffix(ev.Text, "\n")
		}
		_, err := io.WriteString(p.out, ev.Text)
		return err

	case api.EventToolUseParseError:
		if err := p.flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(p.out, "%s %s: %s\n",
			color.RedString("invalid tool call"), ev.ParseError.ToolName, ev.ParseError.Message)
		return err

	case api.EventStop:
		return p.flush()
	}
	return nil
}

// flush ends the current answer: renders buffered markdown or terminates
// a partially written line.
func (p *printer) flush() error {
	if p.renderer != nil && p.buf.Len() > 0 {
		text := p.buf.String()
		p.buf.Reset()
		rendered, err := p.renderer.Render(text)
		if err != nil {
			rendered = text + "\n"
		}
		_, err = io.WriteString(p.out, rendered)
		return err
	}
	if p.midLine {
		p.midLine = false
		_, err := io.WriteString(p.out, "\n")
		return err
	}
	return nil
}

// finish is called once a run returns, even if the stream ended without a
// stop event.
func (p *printer) finish() error {
	return p.flush()
}

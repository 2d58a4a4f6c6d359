package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rhuss/mistral-bridge/pkg/provider"
)

func (a *app) models(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	remote := fs.Bool("remote", false, "list the models the API reports for the current key")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)

	if *remote {
		if err := a.authenticate(ctx); err != nil {
			return err
		}
		cards, err := a.provider.RemoteModels(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tOWNER\tCONTEXT\tTOOLS\tVISION")
		for _, c := range cards {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
				c.ID, c.OwnedBy, c.MaxContextLength,
				yesNo(c.Capabilities.FunctionCalling), yesNo(c.Capabilities.Vision))
		}
		return tw.Flush()
	}

	def := a.provider.DefaultModel().ID()
	fast := a.provider.DefaultFastModel().ID()

	fmt.Fprintln(tw, "ID\tNAME\tCONTEXT\tMAX OUTPUT\tTOOLS\tIMAGES\tDEFAULT")
	for _, m := range a.provider.ProvidedModels() {
		caps := m.Capabilities()
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			m.ID(), m.Name(), m.MaxTokenCount(), maxOutput(m),
			yesNo(caps.ToolCalling), yesNo(caps.Vision), defaultMark(m.ID(), def, fast))
	}
	return tw.Flush()
}

func maxOutput(m provider.LanguageModel) string {
	if n := m.MaxOutputTokens(); n > 0 {
		return fmt.Sprint(n)
	}
	return "-"
}

func defaultMark(id, def, fast string) string {
	var marks []string
	if id == def {
		marks = append(marks, "default")
	}
	if id == fast {
		marks = append(marks, "fast")
	}
	return strings.Join(marks, ",")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

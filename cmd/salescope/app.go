package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/salescope/internal/adapters/notify"
	"github.com/alejandrodnm/salescope/internal/analysis"
	"github.com/alejandrodnm/salescope/internal/assistant"
	"github.com/alejandrodnm/salescope/internal/domain"
	"github.com/alejandrodnm/salescope/internal/ports"
)

var errNoAssistant = errors.New("assistant disabled: set OPENAI_API_KEY or llm.base_url")

type app struct {
	facade    *analysis.Facade
	assistant *assistant.Assistant // nil sin config de LLM
	runs      ports.RunRecorder
	reporter  *notify.Console
	out       io.Writer
}

func (a *app) runTool(ctx context.Context, tool, product, start, end string) error {
	kind, err := analysis.ParseKind(tool)
	if err != nil {
		return err
	}
	out, err := a.facade.Execute(ctx, analysis.Request{
		Kind: kind, ProductID: product, StartDate: start, EndDate: end,
	})
	return a.reporter.Report(ctx, assistant.Respond(kind, out.ProductID, out, err))
}

func (a *app) ask(ctx context.Context, prompt string) error {
	if a.assistant == nil {
		return errNoAssistant
	}
	return a.reporter.Report(ctx, a.assistant.Handle(ctx, prompt))
}

func (a *app) printRuns(ctx context.Context, limit int) error {
	runs, err := a.runs.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	return a.reporter.PrintRuns(runs)
}

func (a *app) printTools() error {
	tools := make([]notify.ToolInfo, 0, len(analysis.Kinds()))
	for _, k := range analysis.Kinds() {
		tools = append(tools, notify.ToolInfo{Name: k.String(), Description: k.Description()})
	}
	return a.reporter.PrintTools(tools)
}

// menu es el loop interactivo. Termina con "0", EOF o cancelación del contexto.
func (a *app) menu(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	prompt := func(label string) (string, bool) {
		fmt.Fprint(a.out, label)
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(sc.Text()), true
	}

	fmt.Fprintln(a.out, "\nsalescope: product sales analytics")
	fmt.Fprintln(a.out, "----------------------------------")

	for ctx.Err() == nil {
		fmt.Fprintln(a.out, "\nSelect an option:")
		fmt.Fprintln(a.out, "1. Product lifecycle analysis")
		fmt.Fprintln(a.out, "2. Product seasonality analysis")
		fmt.Fprintln(a.out, "3. Product demand analysis")
		fmt.Fprintln(a.out, "4. Ask the assistant")
		fmt.Fprintln(a.out, "5. Recent analysis runs")
		fmt.Fprintln(a.out, "0. Exit")

		choice, ok := prompt("\nEnter your choice (0-5): ")
		if !ok {
			return sc.Err()
		}

		var err error
		switch choice {
		case "1", "2", "3":
			kind := analysis.Kinds()[choice[0]-'1']
			product, ok := prompt("Product id or name: ")
			if !ok {
				return sc.Err()
			}
			var start, end string
			if kind.NeedsDateRange() {
				if start, ok = prompt("Start date (YYYY-MM-DD): "); !ok {
					return sc.Err()
				}
				if end, ok = prompt("End date (YYYY-MM-DD): "); !ok {
					return sc.Err()
				}
			}
			err = a.runTool(ctx, kind.String(), product, start, end)
		case "4":
			if a.assistant == nil {
				fmt.Fprintln(a.out, errNoAssistant)
				continue
			}
			text, ok := prompt("Your request: ")
			if !ok {
				return sc.Err()
			}
			err = a.ask(ctx, text)
		case "5":
			err = a.printRuns(ctx, 10)
		case "0":
			fmt.Fprintln(a.out, "\nExiting...")
			return nil
		default:
			fmt.Fprintln(a.out, "\nInvalid choice. Please try again.")
			continue
		}
		if err != nil {
			// un error en una opción no termina el menú
			if rerr := a.reporter.Report(ctx, domain.Response{Message: err.Error()}); rerr != nil {
				slog.Warn("menu: report failed", "err", rerr, "cause", err)
			}
		}
	}
	return ctx.Err()
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickchristie/sqlagent/agents/react"
	"github.com/rickchristie/sqlagent/loggers"
	"github.com/spf13/cobra"
)

// DefaultQuery is asked when ask is given no question.
const DefaultQuery = "How many customers are in the database?"

func askCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and save its trace",
		Long: "Runs the agent once and writes the full THOUGHT/ACTION/OBSERVATION " +
			"trace to trace_<question>_<timestamp>.txt in the trace directory.",
		Example: `  sqlagent ask "What is the total amount of all orders?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			return runAsk(ctx, a, query, time.Now())
		},
	}
}

func runAsk(ctx context.Context, a *app, query string, now time.Time) error {
	name := loggers.TraceFileName(query, now)
	if query == "" {
		query = DefaultQuery
	}

	out := os.Stdout
	printTitle(out, "SQL DATABASE AGENT - SINGLE QUERY WITH LOGGING")
	fmt.Fprintf(out, "\nQuery: %s\n", query)
	fmt.Fprintf(out, "Log file: %s\n", name)
	printRule(out, "-")
	fmt.Fprintln(out)

	path, closeTrace, err := a.openTrace(name)
	if err != nil {
		return err
	}
	res := a.agent.Execute(ctx, query)
	if err := closeTrace(); err != nil {
		return fmt.Errorf("close trace file: %w", err)
	}

	fmt.Fprintln(out)
	printRule(out, "=")
	fmt.Fprintf(out, "%sFINAL RESULT:%s\n", colorBold, colorReset)
	printRule(out, "=")
	fmt.Fprintln(out, res.Answer)
	fmt.Fprintln(out)

	printRule(out, "=")
	fmt.Fprintf(out, "%sComplete trace saved to: %s%s\n", colorGreen, path, colorReset)
	if info, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "File size: %d bytes\n", info.Size())
	}
	printRule(out, "=")

	if isRateLimitAbort(res) {
		printRateLimitHelp(out)
	}
	a.log.Debug("run finished",
		"run_id", res.RunID,
		"state", res.State,
		"steps", res.Steps,
		"tool_calls", res.ToolCalls,
		"duration", res.Duration)
	return nil
}

func printRateLimitHelp(out io.Writer) {
	fmt.Fprintf(out, "\n%sRATE LIMIT TROUBLESHOOTING:%s\n", colorYellow, colorReset)
	fmt.Fprintln(out, "1. Wait 60 seconds before trying again")
	fmt.Fprintln(out, "2. Check your provider's quota page")
	fmt.Fprintln(out, "3. Raise SQLAGENT_MIN_SPACING or pick a model with higher limits")
}

// answerOrError is what chat and traces print for a run.
func answerOrError(res *react.Result) string {
	if res.Err != nil {
		return fmt.Sprintf("%s%s%s", colorRed, res.Answer, colorReset)
	}
	return res.Answer
}

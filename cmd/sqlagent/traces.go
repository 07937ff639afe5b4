package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rickchristie/sqlagent"
	"github.com/spf13/cobra"
)

// exampleRun is one canned question of the traces command.
type exampleRun struct {
	name     string
	query    string
	fileName string
}

// exampleRuns show schema discovery, aggregation and recovery from a
// question about a table that does not exist.
var exampleRuns = []exampleRun{
	{"Schema Discovery", "What tables are in this database?", "trace_schema_discovery.txt"},
	{"Aggregation Query", "What is the total amount of all orders?", "trace_aggregation.txt"},
	{"Error Recovery", "How many employees are there?", "trace_error_recovery.txt"},
}

func tracesCmd(opts *rootOptions) *cobra.Command {
	var pause time.Duration

	cmd := &cobra.Command{
		Use:   "traces",
		Short: "Generate trace files for three example questions",
		Long: "Runs the schema discovery, aggregation and error recovery " +
			"examples one after another, each with its own trace file in the " +
			"trace directory. Stops early when the model provider keeps " +
			"rate limiting.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			return runTraces(ctx, a, os.Stdout, pause,
				sqlagent.NewDefaultTimeProvider())
		},
	}

	cmd.Flags().DurationVar(&pause, "pause", 10*time.Second,
		"wait between runs")
	return cmd
}

func runTraces(
	ctx context.Context,
	a *app,
	out io.Writer,
	pause time.Duration,
	clock sqlagent.TimeProvider,
) error {
	printTitle(out, "GENERATING EXAMPLE TRACE LOGS")
	fmt.Fprintf(out, "\nThis will create %d trace logs:\n", len(exampleRuns))
	for i, ex := range exampleRuns {
		fmt.Fprintf(out, "%d. %s\n", i+1, filepath.Join(a.cfg.Trace.Dir, ex.fileName))
	}
	printRule(out, "=")

	for i, ex := range exampleRuns {
		fmt.Fprintf(out, "\n%s[%d/%d] Generating: %s%s\n",
			colorCyan, i+1, len(exampleRuns), ex.name, colorReset)
		fmt.Fprintf(out, "Query: %s\n", ex.query)

		path, closeTrace, err := a.openTrace(ex.fileName)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Output: %s\n", path)
		printRule(out, "-")

		res := a.agent.Execute(ctx, ex.query)
		if err := closeTrace(); err != nil {
			return fmt.Errorf("close trace file: %w", err)
		}
		fmt.Fprintf(out, "\nResult: %s\n", answerOrError(res))

		if isRateLimitAbort(res) {
			fmt.Fprintf(out,
				"\n%sRate limit hit. Please wait 60 seconds and run again.%s\n",
				colorYellow, colorReset)
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(out, "%sGenerated %s%s\n", colorGreen, ex.fileName, colorReset)

		if i < len(exampleRuns)-1 && pause > 0 {
			fmt.Fprintf(out, "\n%s[Waiting %s before next query...]%s\n",
				colorDim, pause, colorReset)
			if err := clock.Sleep(ctx, pause); err != nil {
				return err
			}
		}
	}

	fmt.Fprintln(out)
	printTitle(out, "TRACE GENERATION COMPLETE")
	return nil
}

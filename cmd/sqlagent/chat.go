package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/rickchristie/sqlagent/loggers"
	"github.com/spf13/cobra"
)

func chatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Long: "Starts an interactive session. Every question is answered by a " +
			"fresh run; all runs of the session share one trace file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			rl, err := readline.New(
				colorCyan + colorBold + "You: " + colorReset)
			if err != nil {
				return fmt.Errorf(
					"failed to create readline: %w", err)
			}
			defer rl.Close()

			return runChat(cmd.Context(), a, rl, os.Stdout)
		},
	}
}

// lineReader is the part of readline.Instance the session loop uses.
type lineReader interface {
	Readline() (string, error)
}

func runChat(ctx context.Context, a *app, rl lineReader, out io.Writer) error {
	path, closeTrace, err := a.openTrace(
		loggers.TraceFileName("", time.Now()))
	if err != nil {
		return err
	}
	defer func() {
		closeTrace()
		fmt.Fprintf(out, "%sSession ended. Log saved to: %s%s\n",
			colorDim, path, colorReset)
	}()

	printTitle(out, "SQL DATABASE AGENT - INTERACTIVE MODE")
	fmt.Fprintf(out, "%sModel: %s | Database: %s%s\n",
		colorDim, a.cfg.ModelName(), a.cfg.Database.DSN, colorReset)
	fmt.Fprintln(out, "Ask questions about your database. Type 'q' or 'exit' to quit.")
	fmt.Fprintln(out)

	for {
		input, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintf(out,
					"\n%sGoodbye!%s\n",
					colorGreen, colorReset)
				return nil
			}
			return fmt.Errorf(
				"failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if isQuit(input) {
			fmt.Fprintf(out,
				"%sGoodbye!%s\n",
				colorGreen, colorReset)
			return nil
		}

		runCtx, cancel := context.WithCancel(ctx)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case <-sigCh:
				fmt.Fprintf(out,
					"\n%sReceived interrupt, cancelling...%s\n",
					colorYellow, colorReset)
				cancel()
			case <-runCtx.Done():
			}
		}()

		res := a.agent.Execute(runCtx, input)

		signal.Stop(sigCh)
		cancel()

		fmt.Fprintf(out, "\n%sResult:%s %s\n", colorBold, colorReset, answerOrError(res))
		fmt.Fprintf(out, "%s%s%s\n\n",
			colorDim,
			strings.Repeat("-", 60),
			colorReset)
	}
}

func isQuit(input string) bool {
	switch strings.ToLower(input) {
	case "q", "quit", "exit":
		return true
	}
	return false
}

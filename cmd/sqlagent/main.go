// Command sqlagent answers natural-language questions about a SQL database
// with a ReAct agent.
//
//	sqlagent seed                       # create sample.db
//	sqlagent ask "Who spent the most?"  # one question, trace file written
//	sqlagent chat                       # interactive session
//	sqlagent traces                     # three canned example runs
package main

import (
	"fmt"
	"os"

	"github.com/rickchristie/sqlagent/internal/config"
	"github.com/spf13/cobra"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	envFile     string
	verbose     bool
	otel        bool
	metricsAddr string
}

// loadConfig resolves configuration from the --config and --env flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var envFiles []string
	if o.envFile != "" {
		envFiles = append(envFiles, o.envFile)
	}
	return config.Load(o.configPath, envFiles...)
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr,
			"%sError: %v%s\n",
			colorRed, err, colorReset)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlagent",
		Short: "Ask questions about a SQL database in plain language",
		Long: "sqlagent runs a ReAct agent that explores a SQL database with " +
			"list_tables, describe_table and query_database until it can " +
			"answer the question.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "",
		"path to a YAML config file")
	flags.StringVar(&opts.envFile, "env", ".env",
		"dotenv file loaded before reading the environment")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"debug logging")
	flags.BoolVar(&opts.otel, "otel", false,
		"write OpenTelemetry spans to the trace directory")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address, e.g. :9090")

	cmd.AddCommand(
		askCmd(opts),
		chatCmd(opts),
		seedCmd(opts),
		tracesCmd(opts),
	)
	return cmd
}

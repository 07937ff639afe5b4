package main

import (
	"fmt"
	"os"

	"github.com/rickchristie/sqlagent/store"
	"github.com/spf13/cobra"
)

func seedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [path]",
		Short: "Create the sample customers/orders database",
		Long: "For SQLite, writes a fresh database file (default: the configured " +
			"DSN). For Postgres, replaces the customers and orders tables of " +
			"the configured database.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			driver, dsn := cfg.Database.Driver, cfg.Database.DSN
			if len(args) == 1 {
				driver, dsn = store.DriverSQLite, args[0]
			}

			if driver == store.DriverSQLite {
				if err := store.CreateSampleDatabase(ctx, dsn); err != nil {
					return err
				}
			} else {
				s, err := store.Open(ctx, driver, dsn)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := store.SeedSample(ctx, s); err != nil {
					return err
				}
			}

			fmt.Fprintf(os.Stdout,
				"%sSample database created (%s): %d customers, %d orders%s\n",
				colorGreen, driver,
				len(store.SampleCustomers), len(store.SampleOrders),
				colorReset)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"jccadmin/internal/config"
	"jccadmin/internal/database"
	"jccadmin/internal/logging"
)

type rootOptions struct {
	driver      string
	databaseURL string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "jccctl",
		Short:         "Maintenance commands for the JCC admin database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			logging.Setup(cmd.ErrOrStderr(), "development", level)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "Database driver: pgx or sqlite (default from DATABASE_DRIVER)")
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Database URL (default from DATABASE_URL)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newRenumberCmd(opts),
		newDepartmentsCmd(opts),
		newMembersCmd(opts),
	)
	return cmd
}

// open resolves the database settings from flags over environment and
// connects.
func (o *rootOptions) open() (*database.DB, error) {
	cfg, err := config.LoadDatabase()
	if err != nil && o.driver == "" {
		return nil, err
	}
	if o.driver != "" {
		cfg.Driver = o.driver
	}
	if o.databaseURL != "" {
		cfg.URL = o.databaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return db, nil
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: closing database:", err)
	}
}

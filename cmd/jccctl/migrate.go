package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jccadmin/internal/database"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := root.open()
				if err != nil {
					return err
				}
				defer closeDB(db)

				if err := db.MigrateUp(cmd.Context()); err != nil {
					return err
				}
				return printVersion(cmd, db)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := root.open()
				if err != nil {
					return err
				}
				defer closeDB(db)

				if err := db.MigrateDown(cmd.Context()); err != nil {
					return err
				}
				return printVersion(cmd, db)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := root.open()
				if err != nil {
					return err
				}
				defer closeDB(db)
				return printVersion(cmd, db)
			},
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, db *database.DB) error {
	version, dirty, err := db.MigrateVersion(cmd.Context())
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jccadmin/internal/database"
	"jccadmin/internal/renumber"
)

func newRenumberCmd(root *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "renumber",
		Short: "Compact department IDs into creation order and patch member references",
		Long: `Reassigns JCC-DEPT-001, 002, ... to departments in creation order and rewrites
every member's embedded department references. The run is a single transaction.
Running it again with no changes in between does nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.open()
			if err != nil {
				return err
			}
			defer closeDB(db)

			runner := renumber.Runner(db)
			if dryRun {
				runner = rollbackRunner{db}
			}

			summary, err := renumber.NewCoordinator(runner).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range summary.Changes {
				fmt.Fprintf(out, "%s -> %s\n", c.OldID, c.NewID)
			}
			verb := "renumbered"
			if dryRun {
				verb = "would renumber"
			}
			fmt.Fprintf(out, "%s %d of %d departments, %d members updated\n",
				verb, summary.Renumbered, summary.Departments, summary.MembersUpdated)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the changes, then roll them back")
	return cmd
}

var errDryRun = errors.New("dry run")

// rollbackRunner runs fn in a transaction that is always rolled back.
type rollbackRunner struct {
	db *database.DB
}

func (r rollbackRunner) WithTx(ctx context.Context, fn func(tx database.DBTX) error) error {
	err := r.db.WithTx(ctx, func(tx database.DBTX) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errDryRun
	})
	if errors.Is(err, errDryRun) {
		return nil
	}
	return err
}

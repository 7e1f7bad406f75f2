package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"jccadmin/internal/department"
)

func newDepartmentsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "departments",
		Aliases: []string{"depts"},
		Short:   "Inspect departments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List departments in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.open()
			if err != nil {
				return err
			}
			defer closeDB(db)

			// The datastore is used directly so a store failure is reported
			// instead of printing an empty table.
			depts, err := department.NewDatastore(db.Handle()).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list departments: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCREATED")
			for _, d := range depts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.Name, d.CreatedAt.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	})
	return cmd
}

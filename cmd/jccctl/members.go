package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jccadmin/internal/member"
)

func newMembersCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Inspect and export members",
	}

	var (
		output string
		ids    []string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Write members as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.open()
			if err != nil {
				return err
			}
			defer closeDB(db)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			for i := range ids {
				ids[i] = strings.TrimSpace(ids[i])
			}

			n, err := member.NewManager(member.NewDatastore(db.Handle())).Export(cmd.Context(), w, ids)
			if err != nil {
				return err
			}
			if w != cmd.OutOrStdout() {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d members to %s\n", n, output)
			}
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "-", "Output file, or - for stdout")
	export.Flags().StringSliceVar(&ids, "ids", nil, "Only export these member IDs (comma-separated)")

	cmd.AddCommand(export)
	return cmd
}

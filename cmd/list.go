// File: cmd/list.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veraqa/shoptest/internal/scenario"
)

// newListCmd creates the `list` command.
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists the scenario catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE")
			for _, s := range scenario.List() {
				fmt.Fprintf(w, "%s\t%s\n", s.ID, s.Title)
			}
			return w.Flush()
		},
	}
}

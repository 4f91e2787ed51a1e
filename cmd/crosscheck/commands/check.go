package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/crosscheck/internal/app"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <package>@<version>",
		Short: "Check a single release of the registry index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, _ := cmd.Flags().GetBool("record")
			res, err := c.app.Check(cmd.Context(), app.CheckOptions{
				Overrides: overrides(cmd),
				Root:      args[0],
				Record:    record,
			})
			if res.Classification != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (solver %s, reference %s)\n",
					args[0], res.Classification, res.SolverOutcome, res.ReferenceOutcome)
			}
			return err
		},
	}
	addIndexFlags(cmd)
	cmd.Flags().Bool("record", false, "Record the agreed solution in the lock store")
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/crosscheck/internal/app"
)

func (c *CLI) newRegressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regress",
		Short: "Re-check the saved regression cases against their accepted classification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			allVersions, _ := cmd.Flags().GetBool("all-versions")
			minimize, _ := cmd.Flags().GetBool("minimize")
			accept, _ := cmd.Flags().GetBool("accept")

			results, err := c.app.Regress(cmd.Context(), app.RegressOptions{
				Overrides:   overrides(cmd),
				AllVersions: allVersions,
				Minimize:    minimize,
				Accept:      accept,
			})
			out := cmd.OutOrStdout()
			for _, r := range results {
				mark := "ok"
				if r.Changed() {
					mark = "changed"
				}
				_, _ = fmt.Fprintf(out, "%-8s %s: %s\n", mark, r.Name, r.Got)
			}
			return err
		},
	}
	cmd.Flags().Bool("all-versions", false, "Check every release in each case, not only its root")
	cmd.Flags().Bool("minimize", false, "Minimize cases that still disagree")
	cmd.Flags().Bool("accept", false, "Record the current classifications as accepted")
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/crosscheck/internal/app"
)

func (c *CLI) newMinimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minimize <file>",
		Short: "Shrink a snapshot to the releases needed to reproduce its disagreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			res, err := c.app.Minimize(cmd.Context(), app.MinimizeOptions{
				Overrides: overrides(cmd),
				Path:      args[0],
				Root:      root,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d -> %d releases, saved to %s\n",
				res.Root, res.Before, res.After, res.Path)
			return nil
		},
	}
	cmd.Flags().String("root", "", "Release the disagreement is observed for (default from the file name)")
	return cmd
}

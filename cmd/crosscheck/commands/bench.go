package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/crosscheck/internal/app"
)

func (c *CLI) newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Check every release of the registry index with both engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := overrides(cmd)
			o.Workers, _ = cmd.Flags().GetInt("workers")
			o.Filter, _ = cmd.Flags().GetString("filter")
			o.ReportPath, _ = cmd.Flags().GetString("report")
			minimize, _ := cmd.Flags().GetBool("minimize")
			trace, _ := cmd.Flags().GetBool("trace")

			summary, err := c.app.Bench(cmd.Context(), app.BenchOptions{
				Overrides: o,
				Minimize:  minimize,
				Trace:     trace,
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"%d roots in %s: %d agree, %d disagree, %d skipped, %d timeout\n",
				summary.Units, seconds(summary.Wall), summary.Agree, summary.Disagree, summary.Skipped, summary.Timeouts)
			return err
		},
	}
	addIndexFlags(cmd)
	cmd.Flags().IntP("workers", "j", 0, "Number of concurrent workers (default one per CPU)")
	cmd.Flags().StringP("filter", "f", "", "Only check packages whose name contains this string")
	cmd.Flags().StringP("report", "o", "", "CSV report path")
	cmd.Flags().Bool("minimize", false, "Minimize disagreements before saving them")
	cmd.Flags().Bool("trace", false, "Log every engine run as it finishes")
	return cmd
}

// Package commands implements the CLI commands for crosscheck.
package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/crosscheck/internal/app"
	"go.trai.ch/crosscheck/internal/build"
	"go.trai.ch/crosscheck/internal/engine/bench"
	"go.trai.ch/crosscheck/internal/engine/checker"
)

// CLI represents the command line interface for crosscheck.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Bench(ctx context.Context, opts app.BenchOptions) (bench.Summary, error)
	Regress(ctx context.Context, opts app.RegressOptions) ([]app.CaseResult, error)
	Minimize(ctx context.Context, opts app.MinimizeOptions) (app.MinimizeResult, error)
	Check(ctx context.Context, opts app.CheckOptions) (checker.Result, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "crosscheck",
		Short:         "Differential testing of two dependency resolvers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default crosscheck.yaml)")
	rootCmd.PersistentFlags().StringP("mode", "m", "", "Engines to run: solver, reference, compare or all")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Deadline for each checked root")
	rootCmd.PersistentFlags().String("cases", "", "Regression directory")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBenchCmd())
	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newRegressCmd())
	rootCmd.AddCommand(c.newMinimizeCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// overrides collects the persistent flags plus the index flags a command registered.
func overrides(cmd *cobra.Command) app.Overrides {
	var o app.Overrides
	o.ConfigPath, _ = cmd.Flags().GetString("config")
	o.Mode, _ = cmd.Flags().GetString("mode")
	o.Timeout, _ = cmd.Flags().GetDuration("timeout")
	o.RegressionDir, _ = cmd.Flags().GetString("cases")
	if f := cmd.Flags().Lookup("index"); f != nil {
		o.IndexDir = f.Value.String()
	}
	if f := cmd.Flags().Lookup("locks"); f != nil {
		o.LockStorePath = f.Value.String()
	}
	o.IncludeYanked, _ = cmd.Flags().GetBool("include-yanked")
	o.IncludeAll, _ = cmd.Flags().GetBool("include-all")
	return o
}

// addIndexFlags registers the flags of commands that read the registry index.
func addIndexFlags(cmd *cobra.Command) {
	cmd.Flags().String("index", "", "Registry index directory")
	cmd.Flags().String("locks", "", "Lock store file")
	cmd.Flags().Bool("include-yanked", false, "Keep yanked releases")
	cmd.Flags().Bool("include-all", false, "Ignore the ecosystem exclude patterns")
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

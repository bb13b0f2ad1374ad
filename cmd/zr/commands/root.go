// Package commands implements the CLI commands for zr.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"zr/internal/app"
	"zr/internal/build"
	"zr/internal/core/domain"
	"zr/internal/engine/scheduler"
	"zr/internal/engine/workflow"
)

// Application is the application-layer surface the CLI drives.
type Application interface {
	Run(ctx context.Context, targetNames []string, opts app.RunOptions) (*scheduler.Result, error)
	Validate(ctx context.Context, opts app.ValidateOptions) error
	Workflow(ctx context.Context, name string, opts app.WorkflowOptions) (*workflow.Result, error)
	Affected(ctx context.Context, base string, opts app.AffectedOptions) (app.AffectedResult, error)
	CacheStatus(ctx context.Context) (domain.CacheStatus, error)
	CacheClear(ctx context.Context, opts app.CacheClearOptions) (domain.CacheStatus, error)
	Estimate(ctx context.Context, taskName string, limit int) (domain.Estimate, error)
}

// CLI represents the command line interface for zr.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "zr",
		Short:         "A declarative task orchestrator for monorepos",
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

	rootCmd.PersistentFlags().String("config", "", "Path to a zr.toml/zr.work.toml to use instead of discovering one from the working directory")
	rootCmd.PersistentFlags().String("format", "text", "Output format: text, json, yaml, or toml")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored log output")
	rootCmd.PersistentFlags().Bool("verbose", false, "Print additional diagnostic detail")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress non-essential output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		noColor, _ := cmd.Flags().GetBool("no-color")
		if noColor {
			_ = os.Setenv("NO_COLOR", "1")
		}
		return nil
	}

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newValidateCmd())
	rootCmd.AddCommand(c.newAffectedCmd())
	rootCmd.AddCommand(c.newWorkflowCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newEstimateCmd())
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

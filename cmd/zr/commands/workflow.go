package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"zr/internal/app"
)

func (c *CLI) newWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow <name>",
		Short: "Run a named workflow stage by stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, _ := cmd.Flags().GetString("profile")
			configPath, _ := cmd.Flags().GetString("config")
			jobs, _ := cmd.Flags().GetInt("jobs")
			noCache, _ := cmd.Flags().GetBool("no-cache")
			keepGoing, _ := cmd.Flags().GetBool("keep-going")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			res, err := c.app.Workflow(cmd.Context(), args[0], app.WorkflowOptions{
				Profile:    profile,
				ConfigPath: configPath,
				Jobs:       jobs,
				NoCache:    noCache,
				KeepGoing:  keepGoing,
				DryRun:     dryRun,
			})
			if res != nil {
				for _, stage := range res.Stages {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "== stage %s: %s ==\n", stage.Name, stage.Status)
					printTaskResults(cmd.OutOrStdout(), stage.Tasks)
				}
			}
			if err != nil {
				return err
			}
			if res != nil {
				return res.Err
			}
			return nil
		},
	}
	cmd.Flags().String("profile", "", "Config profile to apply")
	cmd.Flags().IntP("jobs", "j", 0, "Maximum concurrent tasks per stage (0 = number of CPUs)")
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the cache and force execution")
	cmd.Flags().Bool("keep-going", false, "Keep running independent branches after a failure")
	cmd.Flags().Bool("dry-run", false, "Compute fingerprints and print the plan without executing or gating")
	return cmd
}

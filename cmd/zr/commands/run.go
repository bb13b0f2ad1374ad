package commands

import (
	"github.com/spf13/cobra"

	"zr/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run specified tasks and their dependencies",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			profile, _ := cmd.Flags().GetString("profile")
			configPath, _ := cmd.Flags().GetString("config")
			jobs, _ := cmd.Flags().GetInt("jobs")
			noCache, _ := cmd.Flags().GetBool("no-cache")
			keepGoing, _ := cmd.Flags().GetBool("keep-going")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			res, err := c.app.Run(cmd.Context(), args, app.RunOptions{
				Profile:    profile,
				ConfigPath: configPath,
				Jobs:       jobs,
				NoCache:    noCache,
				KeepGoing:  keepGoing,
				DryRun:     dryRun,
			})
			if res != nil {
				printTaskResults(cmd.OutOrStdout(), res.Tasks)
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
	cmd.Flags().IntP("jobs", "j", 0, "Maximum concurrent tasks (0 = number of CPUs)")
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the cache and force execution")
	cmd.Flags().Bool("keep-going", false, "Keep running independent branches after a failure")
	cmd.Flags().Bool("dry-run", false, "Compute fingerprints and print the plan without executing")
	return cmd
}

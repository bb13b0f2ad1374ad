package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"zr/internal/app"
)

func (c *CLI) newAffectedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "affected [task]",
		Short: "List or run tasks affected by changes since a base revision",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("base")
			profile, _ := cmd.Flags().GetString("profile")
			configPath, _ := cmd.Flags().GetString("config")
			list, _ := cmd.Flags().GetBool("list")
			includeDependents, _ := cmd.Flags().GetBool("include-dependents")
			includeDependencies, _ := cmd.Flags().GetBool("include-dependencies")
			excludeSelf, _ := cmd.Flags().GetBool("exclude-self")
			format, _ := cmd.Flags().GetString("format")

			var taskFilter string
			if len(args) > 0 {
				taskFilter = args[0]
			}

			result, err := c.app.Affected(cmd.Context(), base, app.AffectedOptions{
				Profile:             profile,
				ConfigPath:          configPath,
				TaskFilter:          taskFilter,
				IncludeDependents:   includeDependents,
				IncludeDependencies: includeDependencies,
				ExcludeSelf:         excludeSelf,
			})
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if list {
				for _, name := range result.Tasks {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			if len(result.Tasks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no affected tasks")
				return nil
			}

			res, err := c.app.Run(cmd.Context(), result.Tasks, app.RunOptions{Profile: profile})
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
	cmd.Flags().String("base", "HEAD", "Revision to diff against")
	cmd.Flags().String("profile", "", "Config profile to apply")
	cmd.Flags().Bool("list", false, "Print affected task names without executing them")
	cmd.Flags().Bool("include-dependents", false, "Expand the affected set to every transitive dependent")
	cmd.Flags().Bool("include-dependencies", false, "Expand the affected set to every transitive dependency")
	cmd.Flags().Bool("exclude-self", false, "Drop the directly-touched tasks, keeping only the dependent/dependency expansion")
	// --format is a global persistent flag registered on the root command.
	return cmd
}

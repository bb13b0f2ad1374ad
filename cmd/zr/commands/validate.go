package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"zr/internal/app"
)

func (c *CLI) newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the task graph and workflows without executing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, _ := cmd.Flags().GetString("profile")
			configPath, _ := cmd.Flags().GetString("config")
			strict, _ := cmd.Flags().GetBool("strict")
			schema, _ := cmd.Flags().GetBool("schema")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if schema {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), configSchemaDescription)
				return nil
			}

			if err := c.app.Validate(cmd.Context(), app.ValidateOptions{Profile: profile, ConfigPath: configPath, Strict: strict}); err != nil {
				return err
			}
			if verbose {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid (profile=%q, strict=%t)\n", profile, strict)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
	cmd.Flags().String("profile", "", "Config profile to apply")
	cmd.Flags().Bool("strict", false, "Treat configuration warnings as validation failures")
	cmd.Flags().Bool("schema", false, "Print the recognized configuration schema instead of validating")
	// --verbose is a global persistent flag registered on the root command.
	return cmd
}

const configSchemaDescription = `[tasks.<name>]
  cmd, description, cwd, deps, deps_serial, env, timeout, retry,
  allow_failure, tags, max_concurrent, max_cpu, max_memory, condition,
  matrix, template, template_params, toolchain, cache (table or boolean)
[cache]
  enabled (no other cache keys, such as local_dir, are read)
[workflows.<name>]
  [[workflows.<name>.stages]] name, tasks, approval, fail_fast, condition, on_failure
[templates.<name>], [profiles.<name>]`

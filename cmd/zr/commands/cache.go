package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"zr/internal/app"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the content-addressed cache",
	}
	cmd.AddCommand(c.newCacheStatusCmd())
	cmd.AddCommand(c.newCacheClearCmd())
	return cmd
}

func (c *CLI) newCacheStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report cache entry count and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := c.app.CacheStatus(cmd.Context())
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d entries, %d bytes, root %s\n",
				status.EntryCount, status.TotalBytes, status.Root)
			return nil
		},
	}
}

func (c *CLI) newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			selective, _ := cmd.Flags().GetString("task")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			configPath, _ := cmd.Flags().GetString("config")

			status, err := c.app.CacheClear(cmd.Context(), app.CacheClearOptions{
				ConfigPath: configPath,
				Selective:  selective,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries\n", status.EntryCount)
			return nil
		},
	}
	cmd.Flags().String("task", "", "Clear cache entries for a single task only")
	cmd.Flags().Bool("dry-run", false, "Report what would be cleared without deleting anything")
	return cmd
}

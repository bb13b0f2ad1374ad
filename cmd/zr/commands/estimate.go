package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"zr/internal/core/domain"
)

func (c *CLI) newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate <task>",
		Short: "Estimate a task's duration from run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			format, _ := cmd.Flags().GetString("format")

			est, err := c.app.Estimate(cmd.Context(), args[0], limit)
			if err != nil {
				if errors.Is(err, domain.ErrNoHistory) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no run history for %q yet\n", args[0])
					return nil
				}
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(est)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: mean %s (stddev %s, n=%d)\n",
				est.TaskName, est.Mean, est.StdDev, est.SampleSize)
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Number of historical samples to consider")
	return cmd
}

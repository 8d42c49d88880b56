package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Resolve the manifest and install every environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			refresh, _ := cmd.Flags().GetBool("refresh")
			jobs, _ := cmd.Flags().GetInt("jobs")

			reports, err := c.app.Sync(cmd.Context(), app.SyncOptions{
				LockOptions: app.LockOptions{
					Refresh:     refresh,
					Parallelism: jobs,
				},
			})
			if err != nil {
				return err
			}
			return c.report(cmd, reports)
		},
	}
	cmd.Flags().BoolP("refresh", "r", false, "Re-resolve every pair even if the lockfile is current")
	cmd.Flags().IntP("jobs", "j", 0, "Maximum concurrent pair operations (0 = number of CPUs)")
	return cmd
}

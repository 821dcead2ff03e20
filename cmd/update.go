package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/report"
)

// newUpdateCmd creates the incremental-update command.
func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Run one incremental update cycle (shard re-verification plus discovery)",
		Long: `update re-verifies the rotation shard that is due, runs a budgeted
discovery crawl seeded from incomplete categories, merges the results into
the catalog, and advances the rotation. Falls back to a full build when no
catalog exists yet.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			defer startProgressServer(a)()

			rep, err := a.Engine.RunUpdate(cmd.Context())
			if err != nil {
				return fmt.Errorf("update cycle failed: %w", err)
			}
			report.Render(os.Stdout, rep)
			return nil
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/report"
)

// newScheduleCmd creates the daemon command that runs update cycles on a
// cron schedule.
func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run update cycles on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			defer startProgressServer(a)()

			ctx := cmd.Context()
			c := cron.New()
			_, err = c.AddFunc(a.Config.Schedule.Spec, func() {
				rep, runErr := a.Engine.RunUpdate(ctx)
				if runErr != nil {
					a.Logger.Error("scheduled cycle failed", zap.Error(runErr))
					return
				}
				a.Logger.Info("scheduled cycle finished",
					zap.String("run_id", rep.RunID),
					zap.Int("rows", rep.TotalRows),
					zap.Int("new", rep.NewRows),
					zap.Int("updated", rep.UpdatedRows),
				)
				report.Render(cmd.OutOrStdout(), rep)
			})
			if err != nil {
				return fmt.Errorf("invalid cron spec %q: %w", a.Config.Schedule.Spec, err)
			}

			a.Logger.Info("scheduler started", zap.String("spec", a.Config.Schedule.Spec))
			c.Start()
			<-ctx.Done()
			a.Logger.Info("scheduler stopping")
			<-c.Stop().Done()
			return nil
		},
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/app"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/report"
)

// newBuildCmd creates the full-build command.
func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run a full catalog discovery build from the strategic seeds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			defer startProgressServer(a)()

			rep, err := a.Engine.RunBuild(cmd.Context())
			if err != nil {
				return fmt.Errorf("full build failed: %w", err)
			}
			report.Render(os.Stdout, rep)
			return nil
		},
	}
}

// startProgressServer runs the observation server alongside the command when
// enabled and returns a stop function.
func startProgressServer(a *app.App) func() {
	if a.Server == nil {
		return func() {}
	}
	go func() {
		if err := a.Server.Start(); err != nil {
			a.Logger.Warn("progress server stopped", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Logger.Warn("progress server shutdown error", zap.Error(err))
		}
	}
}

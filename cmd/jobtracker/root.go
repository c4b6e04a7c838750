package main

import (
	"context"
	"time"

	"job-tracker/internal/app"
	"job-tracker/internal/config"
	"job-tracker/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	envFile  string
	logLevel string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "jobtracker",
		Short:         "Capture job postings and track applications",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv(opts.envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(
		newCaptureCommand(opts),
		newBatchCommand(opts),
		newAddCommand(opts),
		newListCommand(opts),
		newStatsCommand(opts),
		newUpdateCommand(opts),
		newCycleCommand(opts),
		newDeleteCommand(opts),
		newClearCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newSettingsCommand(opts),
		newRemindCommand(opts),
		newTokenCommand(opts),
		newMigrateCommand(opts),
	)
	return cmd
}

// withContainer builds the container for one command run and flushes it
// afterwards.
func withContainer(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, c *app.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.App.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log := logger.New(level, cfg.App.IsDevelopment())
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	c, err := app.NewContainer(ctx, cfg, log, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Close(closeCtx); err != nil {
			log.Warn("close failed", zap.Error(err))
		}
	}()

	return fn(ctx, c)
}

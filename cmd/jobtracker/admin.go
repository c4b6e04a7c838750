package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"job-tracker/internal/app"
	"job-tracker/internal/config"
	"job-tracker/internal/database/migration"
	dbpostgres "job-tracker/internal/database/postgres"
	"job-tracker/internal/logger"
	"job-tracker/internal/pkg/jwt"

	"github.com/spf13/cobra"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every application and the settings as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				if out == "" || out == "-" {
					return c.Tracker.WriteExport(cmd.OutOrStdout())
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := c.Tracker.WriteExport(f); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace every application with an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				n, err := c.Tracker.Import(ctx, data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d applications\n", n)
				return nil
			})
		},
	}
}

func newSettingsCommand(opts *rootOptions) *cobra.Command {
	var autoCapture, notifications string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				s := c.Tracker.Settings()
				changed := false
				if cmd.Flags().Changed("auto-capture") {
					v, err := strconv.ParseBool(autoCapture)
					if err != nil {
						return fmt.Errorf("--auto-capture: %w", err)
					}
					s.AutoCapture, changed = v, true
				}
				if cmd.Flags().Changed("notifications") {
					v, err := strconv.ParseBool(notifications)
					if err != nil {
						return fmt.Errorf("--notifications: %w", err)
					}
					s.Notifications, changed = v, true
				}
				if changed {
					if err := c.Tracker.SaveSettings(ctx, s); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "autoCapture=%t notifications=%t\n", s.AutoCapture, s.Notifications)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&autoCapture, "auto-capture", "", "true|false")
	cmd.Flags().StringVar(&notifications, "notifications", "", "true|false")
	return cmd
}

func newRemindCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run the stale application check once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				n, err := c.Capture.CheckStale(ctx, time.Now(), c.Config.Reminder.StaleAfterDays)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d stale applications\n", n)
				return nil
			})
		},
	}
}

func newTokenCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token <client>",
		Short: "Issue an API access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tok, err := jwt.NewHMACService(cfg.Token.Secret, cfg.Token.TTL).GenerateAccessToken(args[0])
			if errors.Is(err, jwt.ErrNotConfigured) {
				return errors.New("set API_TOKEN_SECRET to issue tokens")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.App.StoreBackend != config.StorePostgres {
				return errors.New("migrate needs STORE_BACKEND=postgres")
			}
			log := logger.New(cfg.App.LogLevel, cfg.App.IsDevelopment())
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			db, err := dbpostgres.Connect(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			r := migration.Runner{Dir: dir, Logger: log}
			if err := r.Run(ctx, db.SQLDB()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the built-in set")
	return cmd
}

// Command reminderctl is the operator and cron entry point for the reminder
// subsystem: one-shot dispatch passes, (re)scheduling and reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bondtrack/golang_services/internal/platform/config"
	"github.com/bondtrack/golang_services/internal/platform/logger"
	"github.com/bondtrack/golang_services/internal/reminder_service/bootstrap"
)

const appName = "reminderctl"

var (
	configName string
	logLevel   string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Operate the court-date reminder scheduler",
	Long: `reminderctl runs reminder scheduling and dispatch against the reminder database.

Typical cron usage:
  */5 * * * *  reminderctl dispatch
  0 2 * * *    reminderctl schedule-all`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configName, "config-name", "", "Config file name without extension (default config.defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall command timeout")

	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(scheduleAllCmd)
	rootCmd.AddCommand(upcomingCmd)
	rootCmd.AddCommand(overdueCmd)
	rootCmd.AddCommand(migrateCmd)
}

// withComponents loads config, builds the components and runs fn under a
// signal- and timeout-bound context.
func withComponents(cmd *cobra.Command, migrate bool, fn func(ctx context.Context, c *bootstrap.Components) error) error {
	cfg, err := config.Load(configName)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level).With("app", appName)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	comps, err := bootstrap.Build(ctx, cfg, log, bootstrap.Options{AppName: appName, Migrate: migrate})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer comps.Close()
	return fn(ctx, comps)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

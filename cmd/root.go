// Package cmd defines and implements the CLI commands for the newscheck
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/app"
	"github.com/newscheck/newscheck/internal/config"
	"github.com/newscheck/newscheck/internal/logging"
	"github.com/newscheck/newscheck/internal/notify"
)

var cfgFile string

type appKeyType struct{}

var appKey appKeyType

// App is the application surface the commands drive. Commands retrieve it
// from the command context; tests substitute a fake via newApp.
type App interface {
	Run(ctx context.Context) (notify.RunSummary, error)
	Close()
}

// newApp is the application factory. It is a variable so tests can replace
// it with a mock factory.
var newApp = func(ctx context.Context, cfg config.Config, log *zap.Logger) (App, error) {
	return app.New(ctx, cfg, log)
}

// newRootCmd creates and configures the root command. PersistentPreRunE
// builds the full application from config and stores it in the command
// context for subcommands.
func newRootCmd() *cobra.Command {
	var logger *zap.Logger

	cmd := &cobra.Command{
		Use:   "newscheck",
		Short: "A resilient keyword news scraper",
		Long: `newscheck sweeps Google News for configured keywords, rides out rate
limits and bot blocks with adaptive retries and graceful degradation, and
turns what it collects into ranked reports, archives, and run notifications.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			instance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, instance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if instance, ok := cmd.Context().Value(appKey).(App); ok && instance != nil {
				instance.Close()
			}
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is environment-only)")
	cmd.AddCommand(newScrapeCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	instance, ok := ctx.Value(appKey).(App)
	if !ok || instance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return instance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

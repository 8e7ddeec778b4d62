package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newScrapeCmd creates the 'scrape' subcommand, which runs one complete
// sweep of the configured keywords.
func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Runs one full scrape of the configured keywords",
		Long: `Sweeps every configured keyword over the configured date window, then
ranks, reports, archives, and announces the results. SIGINT or SIGTERM stops
the sweep and still produces reports from whatever was collected.`,

		RunE: runScrapeCommand,
	}
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	instance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := instance.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			zap.L().Info("scrape interrupted")
			return nil
		}
		return fmt.Errorf("run scrape: %w", err)
	}

	zap.L().Info("scrape finished",
		zap.String("run_id", summary.RunID),
		zap.Int("articles", summary.ArticlesCollected),
		zap.Int("ranked", summary.RankedArticles),
		zap.Bool("degraded", summary.Degraded))
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-credits/internal/app"
	"github.com/wekeepgrowing/semo-credits/internal/config"
	"github.com/wekeepgrowing/semo-credits/internal/usecase"
	"github.com/wekeepgrowing/semo-credits/pkg/logger"
)

func grantsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "grants",
		Short: "Credit confirmed purchases that have no grant recorded",
		Long: `Finds purchases in the confirmed state without a credit grant row and
credits each one in its own transaction. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) (*usecase.SweepReport, error) {
				return a.Sweep.RepairGrants(cmd.Context(), limit)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 500, "maximum purchases to repair")
	return cmd
}

func pendingCmd() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Ask providers about stale pending purchases",
		Long: `Queries the payment provider for every pending purchase with a provider
reference that is older than --older-than, and resolves the ones with a final answer.

Examples:
  reconcile pending --older-than 30m
  reconcile pending --older-than 24h --limit 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) (*usecase.SweepReport, error) {
				return a.Sweep.ResolveStalePending(cmd.Context(), olderThan, limit)
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*time.Minute, "minimum purchase age")
	cmd.Flags().IntVarP(&limit, "limit", "n", 500, "maximum purchases to query")
	return cmd
}

// withApp runs one sweep against a freshly wired application and prints its report
func withApp(run func(a *app.App) (*usecase.SweepReport, error)) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		// operator runs still need output when the configured log file is unwritable
		log = logger.DefaultZapLogger()
		log.Warn("Falling back to stdout logger", zap.Error(err))
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := run(a)
	if err != nil {
		return err
	}

	log.Info("Sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("confirmed", report.Confirmed),
		zap.Int("failed", report.Failed),
		zap.Int("repaired", report.Repaired),
		zap.Int("errors", report.Errors))
	fmt.Println(report.String())
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NouctheCo/Casskai-sub005/internal/anomaly"
	"github.com/NouctheCo/Casskai-sub005/internal/cashflow"
	"github.com/NouctheCo/Casskai-sub005/internal/insight"
	"github.com/NouctheCo/Casskai-sub005/internal/storage"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full analysis pipeline",
		Long: `Run anomaly detection, the cash-flow projection, and categorization of
uncoded transactions in parallel, then store the merged insights. With
--schedule the run repeats on the given cron expression until interrupted.`,
		RunE: runAnalyze,
	}

	cmd.Flags().Int("horizon", cashflow.DefaultHorizonDays, "cash-flow projection horizon in days")
	cmd.Flags().Int("lookback", 90, "trailing transaction window in days")
	cmd.Flags().String("schedule", "", "cron expression for repeated runs (e.g. \"0 6 * * *\")")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	company, err := requireCompany()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	orchestrator, cleanup, err := newOrchestrator(cmd, ctx, store, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	schedule, _ := cmd.Flags().GetString("schedule")
	if schedule == "" {
		return runOnce(ctx, orchestrator, company)
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(schedule, func() {
		if runErr := runOnce(ctx, orchestrator, company); runErr != nil {
			logger.Error("scheduled analysis run failed", "error", runErr)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	logger.Info("analysis scheduled", "company_id", company, "schedule", schedule)
	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

func runOnce(ctx context.Context, orchestrator *insight.Orchestrator, company string) error {
	result, err := orchestrator.Run(ctx, company)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fmt.Printf("Analysis complete: %d insights written (%d anomalies, %d categorization batches, %d analysis errors)\n",
		result.InsightsWritten, result.Anomalies, result.Categorizations, result.AnalysisErrors)
	return nil
}

func newOrchestrator(cmd *cobra.Command, ctx context.Context, store *storage.SQLiteStorage, logger *slog.Logger) (*insight.Orchestrator, func(), error) {
	resolver, cleanup, err := newResolver(ctx, store, logger)
	if err != nil {
		return nil, nil, err
	}

	detectorCfg := anomaly.DefaultConfig()
	if v := viper.GetInt("anomaly.min_cohort_size"); v > 0 {
		detectorCfg.MinCohortSize = v
	}
	if v := viper.GetFloat64("anomaly.z_threshold"); v > 0 {
		detectorCfg.ZThreshold = v
	}

	orchestratorCfg := insight.DefaultConfig()
	if v, _ := cmd.Flags().GetInt("horizon"); v > 0 {
		orchestratorCfg.HorizonDays = v
	}
	if v, _ := cmd.Flags().GetInt("lookback"); v > 0 {
		orchestratorCfg.LookbackDays = v
	}
	if v := viper.GetInt("analysis.max_uncoded_suggestions"); v > 0 {
		orchestratorCfg.MaxUncodedSuggestions = v
	}

	orchestrator := insight.NewWithConfig(
		store,
		resolver,
		anomaly.NewWithConfig(logger, detectorCfg),
		cashflow.New(logger),
		logger,
		orchestratorCfg,
	)
	return orchestrator, cleanup, nil
}

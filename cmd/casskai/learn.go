package main

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/NouctheCo/Casskai-sub005/internal/engine"
)

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Learn categorization suggestions from validated history",
		Long: `Mine the validated journal history for recurring descriptions and seed
the suggestion cache with the account code most often used for each one.`,
		RunE: runLearn,
	}

	cmd.Flags().Int("limit", 500, "maximum validated entries to read")

	return cmd
}

func runLearn(cmd *cobra.Command, _ []string) error {
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

	limit, _ := cmd.Flags().GetInt("limit")

	// History learning uses no generative tier.
	resolver := engine.NewWithConfig(store, nil, logger, resolverConfig())

	bar := progressbar.Default(-1, "Learning from history")
	created, err := resolver.LearnFromHistory(ctx, company, limit)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("learning failed: %w", err)
	}

	fmt.Printf("Created %d suggestions from history\n", created)
	return nil
}

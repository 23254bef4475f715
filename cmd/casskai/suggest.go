package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NouctheCo/Casskai-sub005/internal/engine"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest [description]",
		Short: "Suggest account codes for a transaction description",
		Long: `Resolve a free-text transaction description to ranked account-code
suggestions, trying cached history first, then the configured text-generation
provider, then keyword matching.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSuggest,
	}

	cmd.Flags().Float64("amount", 0, "transaction amount for context")
	cmd.Flags().String("type", "", "transaction type for context (income, expense)")
	cmd.Flags().Bool("stats", false, "show categorization accuracy stats instead of suggesting")

	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
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

	showStats, _ := cmd.Flags().GetBool("stats")
	if showStats {
		stats, statsErr := store.GetCategorizationStats(ctx, company)
		if statsErr != nil {
			return fmt.Errorf("failed to load stats: %w", statsErr)
		}
		fmt.Printf("Feedback events:  %d (%d validated, %d rejected)\n",
			stats.TotalSuggestions, stats.ValidatedSuggestions, stats.RejectedSuggestions)
		fmt.Printf("Accuracy rate:    %.1f%%\n", stats.AccuracyRate)
		fmt.Printf("Avg confidence:   %.1f\n", stats.AvgConfidenceScore)
		for _, usage := range stats.MostUsedAccounts {
			fmt.Printf("  %s used %d times\n", usage.AccountCode, usage.UsageCount)
		}
		return nil
	}

	resolver, cleanup, err := newResolver(ctx, store, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	description := strings.Join(args, " ")

	var txnCtx *engine.TransactionContext
	amount, _ := cmd.Flags().GetFloat64("amount")
	txnType, _ := cmd.Flags().GetString("type")
	if amount != 0 || txnType != "" {
		txnCtx = &engine.TransactionContext{TransactionType: txnType}
		if amount != 0 {
			txnCtx.Amount = &amount
		}
	}

	suggestions := resolver.Suggest(ctx, company, description, txnCtx)

	fmt.Printf("Suggestions for %q:\n", description)
	for i, suggestion := range suggestions {
		fmt.Printf("%d. %s  %s (confidence %.0f)\n",
			i+1, suggestion.AccountCode, suggestion.AccountName, suggestion.ConfidenceScore)
		fmt.Printf("   %s\n", suggestion.Reason)
	}

	return nil
}

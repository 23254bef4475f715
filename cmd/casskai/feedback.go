package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback [description]",
		Short: "Record whether a suggestion was accepted",
		Long: `Record the outcome of a suggestion: the account that was proposed, the
account actually used, and whether the user validated the proposal. Accepted
suggestions also bump the cache row's usage counter.`,
		Args: cobra.ExactArgs(1),
		RunE: runFeedback,
	}

	cmd.Flags().String("suggested", "", "account code that was suggested")
	cmd.Flags().String("actual", "", "account code actually used")
	cmd.Flags().Bool("validated", false, "the suggestion was accepted as-is")
	_ = cmd.MarkFlagRequired("suggested")
	_ = cmd.MarkFlagRequired("actual")

	return cmd
}

func runFeedback(cmd *cobra.Command, args []string) error {
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

	resolver, cleanup, err := newResolver(ctx, store, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	description := args[0]
	suggested, _ := cmd.Flags().GetString("suggested")
	actual, _ := cmd.Flags().GetString("actual")
	validated, _ := cmd.Flags().GetBool("validated")

	resolver.RecordFeedback(ctx, company, description, suggested, actual, validated)
	if validated {
		resolver.IncrementUsage(ctx, company, description, actual)
		if err := store.SaveValidatedEntry(ctx, company, description, actual); err != nil {
			logger.Warn("failed to record validated journal entry", "error", err)
		}
	}

	fmt.Println("Feedback recorded")
	return nil
}

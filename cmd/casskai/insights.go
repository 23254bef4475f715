package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "List stored insights",
		Long:  `Show the company's unexpired insights, most severe first.`,
		RunE:  runInsights,
	}

	cmd.Flags().String("type", "", "filter by insight type (anomaly, prediction, categorization)")

	return cmd
}

func runInsights(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	company, err := requireCompany()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	insights, err := store.GetInsights(ctx, company)
	if err != nil {
		return fmt.Errorf("failed to load insights: %w", err)
	}

	typeFilter, _ := cmd.Flags().GetString("type")

	shown := 0
	for _, item := range insights {
		if typeFilter != "" && string(item.Type) != typeFilter {
			continue
		}
		shown++
		fmt.Printf("[%s/%s] %s\n", item.Type, item.Severity, item.Title)
		if item.Description != "" {
			fmt.Printf("  %s\n", item.Description)
		}
		for _, action := range item.SuggestedActions {
			fmt.Printf("  - %s\n", action)
		}
		fmt.Printf("  confidence %.0f, created %s\n", item.ConfidenceScore, item.CreatedAt.Format("2006-01-02 15:04"))
	}

	if shown == 0 {
		fmt.Println("No insights found. Run 'casskai analyze' first.")
	}
	return nil
}

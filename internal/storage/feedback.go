package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
	"github.com/NouctheCo/Casskai-sub005/internal/service"
)

// RecordFeedbackEvent appends one accept/reject decision to the feedback log.
func (s *SQLiteStorage) RecordFeedbackEvent(ctx context.Context, event service.FeedbackEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(event.CompanyID, "companyID"); err != nil {
		return err
	}
	if err := validateString(event.Description, "description"); err != nil {
		return err
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_events (
			id, company_id, description, suggested_account, actual_account, validated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.CompanyID,
		event.Description,
		event.SuggestedAccount,
		event.ActualAccount,
		event.Validated,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record feedback event: %w", err)
	}
	return nil
}

// GetCategorizationStats aggregates the feedback log and the suggestion
// cache into accuracy numbers for the stats display.
func (s *SQLiteStorage) GetCategorizationStats(ctx context.Context, companyID string) (*model.CategorizationStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}

	stats := &model.CategorizationStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN validated THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN validated THEN 0 ELSE 1 END), 0)
		FROM feedback_events
		WHERE company_id = ?
	`, companyID).Scan(&stats.TotalSuggestions, &stats.ValidatedSuggestions, &stats.RejectedSuggestions)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback: %w", err)
	}

	if decided := stats.ValidatedSuggestions + stats.RejectedSuggestions; decided > 0 {
		stats.AccuracyRate = 100 * float64(stats.ValidatedSuggestions) / float64(decided)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(confidence_score), 0)
		FROM ai_suggestions
		WHERE company_id = ?
	`, companyID).Scan(&stats.AvgConfidenceScore)
	if err != nil {
		return nil, fmt.Errorf("failed to average confidence: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT account_code, SUM(usage_count)
		FROM ai_suggestions
		WHERE company_id = ? AND usage_count > 0
		GROUP BY account_code
		ORDER BY SUM(usage_count) DESC, account_code ASC
		LIMIT 5
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query top accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var usage model.AccountUsage
		if err := rows.Scan(&usage.AccountCode, &usage.UsageCount); err != nil {
			return nil, fmt.Errorf("failed to scan account usage: %w", err)
		}
		stats.MostUsedAccounts = append(stats.MostUsedAccounts, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account usage: %w", err)
	}

	return stats, nil
}

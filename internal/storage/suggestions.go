package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NouctheCo/Casskai-sub005/internal/common"
	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

// FindCachedSuggestions returns cached suggestions for an exact description
// key, best first. An unknown key yields an empty slice, not an error.
func (s *SQLiteStorage) FindCachedSuggestions(ctx context.Context, companyID, descriptionKey string) ([]model.CategorizationSuggestion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}
	if err := validateString(descriptionKey, "descriptionKey"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id, description_key, account_code, account_name,
		       confidence_score, usage_count, learned_from_history, last_used_at
		FROM ai_suggestions
		WHERE company_id = ? AND description_key = ?
		ORDER BY confidence_score DESC, usage_count DESC
	`, companyID, descriptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanSuggestions(rows)
}

// RecentSuggestions returns up to limit of the company's most recently
// created cache rows, used for similarity-assisted lookups.
func (s *SQLiteStorage) RecentSuggestions(ctx context.Context, companyID string, limit int) ([]model.CategorizationSuggestion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id, description_key, account_code, account_name,
		       confidence_score, usage_count, learned_from_history, last_used_at
		FROM ai_suggestions
		WHERE company_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanSuggestions(rows)
}

// UpsertCachedSuggestion inserts a cache row, superseding an existing row on
// the same (company, description key, account code) only when the new
// confidence is higher. A no-op conflict is reported as ErrDuplicateEntry so
// callers can count actual writes; they are expected to swallow it.
func (s *SQLiteStorage) UpsertCachedSuggestion(ctx context.Context, suggestion model.CategorizationSuggestion) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(suggestion.CompanyID, "companyID"); err != nil {
		return err
	}
	if err := validateString(suggestion.DescriptionKey, "descriptionKey"); err != nil {
		return err
	}
	if err := validateString(suggestion.AccountCode, "accountCode"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_suggestions (
			company_id, description_key, account_code, account_name,
			confidence_score, usage_count, learned_from_history
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, description_key, account_code) DO UPDATE SET
			account_name = excluded.account_name,
			confidence_score = excluded.confidence_score,
			learned_from_history = excluded.learned_from_history
		WHERE excluded.confidence_score > ai_suggestions.confidence_score
	`,
		suggestion.CompanyID,
		suggestion.DescriptionKey,
		suggestion.AccountCode,
		suggestion.AccountName,
		suggestion.ConfidenceScore,
		suggestion.UsageCount,
		suggestion.LearnedFromHistory,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert suggestion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check upsert result: %w", err)
	}
	if affected == 0 {
		return common.ErrDuplicateEntry
	}
	return nil
}

// IncrementSuggestionUsage bumps usage_count and refreshes last_used_at on
// the matching cache row. A missing row is a no-op.
func (s *SQLiteStorage) IncrementSuggestionUsage(ctx context.Context, companyID, descriptionKey, accountCode string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return err
	}
	if err := validateString(descriptionKey, "descriptionKey"); err != nil {
		return err
	}
	if err := validateString(accountCode, "accountCode"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE ai_suggestions
		SET usage_count = usage_count + 1,
		    last_used_at = CURRENT_TIMESTAMP
		WHERE company_id = ? AND description_key = ? AND account_code = ?
	`, companyID, descriptionKey, accountCode)
	if err != nil {
		return fmt.Errorf("failed to increment suggestion usage: %w", err)
	}
	return nil
}

func scanSuggestions(rows *sql.Rows) ([]model.CategorizationSuggestion, error) {
	var suggestions []model.CategorizationSuggestion
	for rows.Next() {
		var suggestion model.CategorizationSuggestion
		var lastUsedAt sql.NullTime
		if err := rows.Scan(
			&suggestion.CompanyID,
			&suggestion.DescriptionKey,
			&suggestion.AccountCode,
			&suggestion.AccountName,
			&suggestion.ConfidenceScore,
			&suggestion.UsageCount,
			&suggestion.LearnedFromHistory,
			&lastUsedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		if lastUsedAt.Valid {
			t := lastUsedAt.Time
			suggestion.LastUsedAt = &t
		}
		suggestions = append(suggestions, suggestion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestions: %w", err)
	}
	return suggestions, nil
}

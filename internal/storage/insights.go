package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

// UpsertInsights writes a batch of insights keyed by their deterministic id,
// replacing earlier results for the same source entity. The whole batch
// commits atomically.
func (s *SQLiteStorage) UpsertInsights(ctx context.Context, insights []model.Insight) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateInsights(insights); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range insights {
		insight := &insights[i]

		data, marshalErr := json.Marshal(insight.Data)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal insight %s payload: %w", insight.ID, marshalErr)
		}
		actions, marshalErr := json.Marshal(insight.SuggestedActions)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal insight %s actions: %w", insight.ID, marshalErr)
		}

		var expiresAt any
		if insight.ExpiresAt != nil {
			expiresAt = *insight.ExpiresAt
		}

		if _, execErr := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO insights (
				id, company_id, type, severity, title, description,
				data, suggested_actions, confidence_score, created_at, expires_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			insight.ID,
			insight.CompanyID,
			insight.Type,
			insight.Severity,
			insight.Title,
			insight.Description,
			string(data),
			string(actions),
			insight.ConfidenceScore,
			insight.CreatedAt,
			expiresAt,
		); execErr != nil {
			return fmt.Errorf("failed to upsert insight %s: %w", insight.ID, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insights: %w", err)
	}
	return nil
}

// GetInsights returns a company's unexpired insights, most severe and most
// recent first. The Data payload is returned as raw JSON.
func (s *SQLiteStorage) GetInsights(ctx context.Context, companyID string) ([]model.Insight, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, type, severity, title, description,
		       data, suggested_actions, confidence_score, created_at, expires_at
		FROM insights
		WHERE company_id = ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY
			CASE severity
				WHEN 'critical' THEN 0
				WHEN 'high' THEN 1
				WHEN 'medium' THEN 2
				ELSE 3
			END,
			created_at DESC,
			id ASC
	`, companyID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var insights []model.Insight
	for rows.Next() {
		var insight model.Insight
		var data, actions string
		var expiresAt sql.NullTime
		if err := rows.Scan(
			&insight.ID,
			&insight.CompanyID,
			&insight.Type,
			&insight.Severity,
			&insight.Title,
			&insight.Description,
			&data,
			&actions,
			&insight.ConfidenceScore,
			&insight.CreatedAt,
			&expiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		insight.Data = json.RawMessage(data)
		if err := json.Unmarshal([]byte(actions), &insight.SuggestedActions); err != nil {
			return nil, fmt.Errorf("failed to decode insight %s actions: %w", insight.ID, err)
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			insight.ExpiresAt = &t
		}
		insights = append(insights, insight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate insights: %w", err)
	}
	return insights, nil
}

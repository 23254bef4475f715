package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
	"github.com/NouctheCo/Casskai-sub005/internal/service"
)

// FetchTransactions returns a company's transactions dated on or after
// since, oldest first.
func (s *SQLiteStorage) FetchTransactions(ctx context.Context, companyID string, since time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, description, category, account_code, amount
		FROM transactions
		WHERE company_id = ? AND date >= ?
		ORDER BY date ASC, id ASC
	`, companyID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		if err := rows.Scan(
			&txn.ID,
			&txn.Date,
			&txn.Description,
			&txn.Category,
			&txn.AccountCode,
			&txn.Amount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// SaveTransactions inserts transactions, skipping rows whose content hash is
// already present for the company. Returns the number of rows written.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, companyID string, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return 0, err
	}
	if len(transactions) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved := 0
	for i := range transactions {
		txn := &transactions[i]
		if txn.ID == "" {
			return 0, fmt.Errorf("transaction at index %d: id is required", i)
		}
		result, execErr := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, company_id, hash, date, description, category, account_code, amount)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(company_id, hash) DO NOTHING
		`,
			txn.ID,
			companyID,
			txn.GenerateHash(),
			txn.Date,
			txn.Description,
			txn.Category,
			txn.AccountCode,
			txn.Amount,
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to save transaction %s: %w", txn.ID, execErr)
		}
		if affected, _ := result.RowsAffected(); affected > 0 {
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return saved, nil
}

// ValidatedEntries returns up to limit validated journal lines for history
// learning, newest first.
func (s *SQLiteStorage) ValidatedEntries(ctx context.Context, companyID string, limit int) ([]service.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT description, account_code
		FROM journal_entries
		WHERE company_id = ? AND validated = 1
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []service.LedgerEntry
	for rows.Next() {
		var entry service.LedgerEntry
		if err := rows.Scan(&entry.Description, &entry.AccountCode); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}
	return entries, nil
}

// SaveValidatedEntry records one validated journal line for later learning.
func (s *SQLiteStorage) SaveValidatedEntry(ctx context.Context, companyID, description, accountCode string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return err
	}
	if err := validateString(description, "description"); err != nil {
		return err
	}
	if err := validateString(accountCode, "accountCode"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (company_id, description, account_code, validated)
		VALUES (?, ?, ?, 1)
	`, companyID, description, accountCode)
	if err != nil {
		return fmt.Errorf("failed to save journal entry: %w", err)
	}
	return nil
}

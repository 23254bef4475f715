package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Categorization cache and feedback log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS ai_suggestions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					company_id TEXT NOT NULL,
					description_key TEXT NOT NULL,
					account_code TEXT NOT NULL,
					account_name TEXT NOT NULL DEFAULT '',
					confidence_score REAL NOT NULL DEFAULT 0,
					usage_count INTEGER NOT NULL DEFAULT 0,
					learned_from_history INTEGER NOT NULL DEFAULT 0,
					last_used_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(company_id, description_key, account_code)
				)`,
				`CREATE INDEX idx_ai_suggestions_lookup ON ai_suggestions(company_id, description_key)`,

				`CREATE TABLE IF NOT EXISTS feedback_events (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL,
					description TEXT NOT NULL,
					suggested_account TEXT NOT NULL,
					actual_account TEXT NOT NULL,
					validated INTEGER NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_feedback_events_company ON feedback_events(company_id)`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     2,
		Description: "Analysis inputs: transactions, invoices, balances, journal history",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL,
					hash TEXT NOT NULL,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					account_code TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(company_id, hash)
				)`,
				`CREATE INDEX idx_transactions_company_date ON transactions(company_id, date)`,

				`CREATE TABLE IF NOT EXISTS invoices (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL,
					counterparty TEXT NOT NULL DEFAULT '',
					direction TEXT NOT NULL,
					due_date DATETIME NOT NULL,
					amount_total REAL NOT NULL,
					amount_paid REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_invoices_company_direction ON invoices(company_id, direction)`,

				`CREATE TABLE IF NOT EXISTS cash_balances (
					company_id TEXT PRIMARY KEY,
					balance REAL NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS journal_entries (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					company_id TEXT NOT NULL,
					description TEXT NOT NULL,
					account_code TEXT NOT NULL,
					validated INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_journal_entries_company ON journal_entries(company_id, validated)`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     3,
		Description: "Insight store",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS insights (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL,
					type TEXT NOT NULL,
					severity TEXT NOT NULL,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					data TEXT NOT NULL DEFAULT '{}',
					suggested_actions TEXT NOT NULL DEFAULT '[]',
					confidence_score REAL NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					expires_at DATETIME
				)`,
				`CREATE INDEX idx_insights_company_type ON insights(company_id, type)`,
			}
			return execAll(tx, queries)
		},
	},
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies pending schema migrations, tracked via PRAGMA user_version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

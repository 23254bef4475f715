package storage

import (
	"context"
	"fmt"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

// FetchOpenInvoices returns invoices of one direction with an unpaid
// balance, ordered by due date.
func (s *SQLiteStorage) FetchOpenInvoices(ctx context.Context, companyID string, direction model.InvoiceDirection) ([]model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}
	if direction != model.DirectionReceivable && direction != model.DirectionPayable {
		return nil, fmt.Errorf("invalid invoice direction: %s", direction)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, counterparty, direction, due_date, amount_total, amount_paid
		FROM invoices
		WHERE company_id = ? AND direction = ? AND amount_total - amount_paid > 0
		ORDER BY due_date ASC, id ASC
	`, companyID, direction)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var invoices []model.Invoice
	for rows.Next() {
		var invoice model.Invoice
		if err := rows.Scan(
			&invoice.ID,
			&invoice.Counterparty,
			&invoice.Direction,
			&invoice.DueDate,
			&invoice.AmountTotal,
			&invoice.AmountPaid,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return invoices, nil
}

// SaveInvoice inserts or replaces an invoice.
func (s *SQLiteStorage) SaveInvoice(ctx context.Context, companyID string, invoice model.Invoice) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return err
	}
	if err := invoice.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, company_id, counterparty, direction, due_date, amount_total, amount_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			counterparty = excluded.counterparty,
			direction = excluded.direction,
			due_date = excluded.due_date,
			amount_total = excluded.amount_total,
			amount_paid = excluded.amount_paid
	`,
		invoice.ID,
		companyID,
		invoice.Counterparty,
		invoice.Direction,
		invoice.DueDate,
		invoice.AmountTotal,
		invoice.AmountPaid,
	)
	if err != nil {
		return fmt.Errorf("failed to save invoice %s: %w", invoice.ID, err)
	}
	return nil
}

// FetchCashBalance returns the company's aggregate cash balance, 0 when none
// has been recorded yet.
func (s *SQLiteStorage) FetchCashBalance(ctx context.Context, companyID string) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return 0, err
	}

	var balance float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(
			(SELECT balance FROM cash_balances WHERE company_id = ?), 0)
	`, companyID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to query cash balance: %w", err)
	}
	return balance, nil
}

// SetCashBalance records the company's current aggregate cash balance.
func (s *SQLiteStorage) SetCashBalance(ctx context.Context, companyID string, balance float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_balances (company_id, balance, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(company_id) DO UPDATE SET
			balance = excluded.balance,
			updated_at = CURRENT_TIMESTAMP
	`, companyID, balance)
	if err != nil {
		return fmt.Errorf("failed to set cash balance: %w", err)
	}
	return nil
}

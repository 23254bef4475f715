package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Load transactions, invoices and balances from a JSON export",
		Long: `Load accounting data exported from the bookkeeping system into the local
database. Transactions are deduplicated by content hash, invoices are upserted
by id, and the cash balance replaces the previous snapshot for the company.`,
		Args: cobra.ExactArgs(1),
		RunE: runLoad,
	}

	cmd.Flags().Bool("dry-run", false, "parse and validate without saving")

	return cmd
}

// loadFile is the JSON shape accepted by the load command. Dates use the
// 2006-01-02 layout.
type loadFile struct {
	Transactions []loadTransaction `json:"transactions"`
	Invoices     []loadInvoice     `json:"invoices"`
	CashBalance  *float64          `json:"cash_balance"`
}

type loadTransaction struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	AccountCode string  `json:"account_code"`
	Amount      float64 `json:"amount"`
}

type loadInvoice struct {
	ID           string  `json:"id"`
	DueDate      string  `json:"due_date"`
	Counterparty string  `json:"counterparty"`
	Direction    string  `json:"direction"`
	AmountTotal  float64 `json:"amount_total"`
	AmountPaid   float64 `json:"amount_paid"`
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	company, err := requireCompany()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var file loadFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	transactions, invoices, err := convertLoadFile(file)
	if err != nil {
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		fmt.Printf("Parsed %d transactions and %d invoices (dry run, nothing saved)\n",
			len(transactions), len(invoices))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	saved := 0
	if len(transactions) > 0 {
		saved, err = store.SaveTransactions(ctx, company, transactions)
		if err != nil {
			return fmt.Errorf("failed to save transactions: %w", err)
		}
	}

	for _, invoice := range invoices {
		if err := store.SaveInvoice(ctx, company, invoice); err != nil {
			return fmt.Errorf("failed to save invoice %s: %w", invoice.ID, err)
		}
	}

	if file.CashBalance != nil {
		if err := store.SetCashBalance(ctx, company, *file.CashBalance); err != nil {
			return fmt.Errorf("failed to save cash balance: %w", err)
		}
	}

	logger.Info("load complete",
		"company", company,
		"transactions_saved", saved,
		"transactions_skipped", len(transactions)-saved,
		"invoices", len(invoices))

	fmt.Printf("Saved %d new transactions (%d duplicates skipped) and %d invoices\n",
		saved, len(transactions)-saved, len(invoices))
	return nil
}

func convertLoadFile(file loadFile) ([]model.Transaction, []model.Invoice, error) {
	transactions := make([]model.Transaction, 0, len(file.Transactions))
	for i, t := range file.Transactions {
		date, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("transaction %d: invalid date %q: %w", i, t.Date, err)
		}
		transactions = append(transactions, model.Transaction{
			ID:          t.ID,
			Date:        date,
			Description: t.Description,
			Category:    t.Category,
			AccountCode: t.AccountCode,
			Amount:      t.Amount,
		})
	}

	invoices := make([]model.Invoice, 0, len(file.Invoices))
	for i, inv := range file.Invoices {
		dueDate, err := time.Parse("2006-01-02", inv.DueDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invoice %d: invalid due date %q: %w", i, inv.DueDate, err)
		}
		invoice := model.Invoice{
			ID:           inv.ID,
			DueDate:      dueDate,
			Counterparty: inv.Counterparty,
			Direction:    model.InvoiceDirection(inv.Direction),
			AmountTotal:  inv.AmountTotal,
			AmountPaid:   inv.AmountPaid,
		}
		if err := invoice.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invoice %d: %w", i, err)
		}
		invoices = append(invoices, invoice)
	}

	return transactions, invoices, nil
}

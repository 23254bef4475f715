package model

import (
	"fmt"
	"time"
)

// InvoiceDirection distinguishes receivables from payables.
type InvoiceDirection string

const (
	// DirectionReceivable marks money owed to the company.
	DirectionReceivable InvoiceDirection = "receivable"
	// DirectionPayable marks money the company owes.
	DirectionPayable InvoiceDirection = "payable"
)

// Invoice is an open accounts-receivable or accounts-payable document.
type Invoice struct {
	DueDate      time.Time
	ID           string
	Counterparty string
	Direction    InvoiceDirection
	AmountTotal  float64
	AmountPaid   float64
}

// Remaining returns the unpaid balance. It is never negative.
func (i *Invoice) Remaining() float64 {
	remaining := i.AmountTotal - i.AmountPaid
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Validate checks the invoice invariants supplied by the store.
func (i *Invoice) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("invoice id is required")
	}
	if i.Direction != DirectionReceivable && i.Direction != DirectionPayable {
		return fmt.Errorf("invalid invoice direction: %s", i.Direction)
	}
	if i.AmountTotal-i.AmountPaid < 0 {
		return fmt.Errorf("invoice %s: paid amount %.2f exceeds total %.2f", i.ID, i.AmountPaid, i.AmountTotal)
	}
	return nil
}

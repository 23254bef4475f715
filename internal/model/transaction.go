// Package model defines the core domain types shared across the engine.
package model

import (
	"crypto/sha256"
	"fmt"
	"math"
	"time"
)

// Transaction represents a single accounting transaction supplied by the
// persistence collaborator. A transaction is immutable once categorized
// except through explicit user feedback.
type Transaction struct {
	Date        time.Time
	ID          string
	Description string
	Category    string // empty when the transaction is uncoded
	AccountCode string
	Amount      float64 // signed, expense-negative
}

// NormalizedAmount returns the absolute amount with non-finite values
// coerced to zero so statistical passes never see NaN or Inf.
func (t *Transaction) NormalizedAmount() float64 {
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return 0
	}
	return math.Abs(t.Amount)
}

// GenerateHash creates a stable hash for duplicate detection and
// deterministic insight ids.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

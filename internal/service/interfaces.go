// Package service defines the collaborator contracts consumed by the engine.
package service

import (
	"context"
	"time"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

// Storage defines the contract for the persistence collaborator. The engine
// treats every failure here as recoverable: a failed read is a miss, a
// duplicate write is ignored.
type Storage interface {
	// Categorization cache
	FindCachedSuggestions(ctx context.Context, companyID, description string) ([]model.CategorizationSuggestion, error)
	RecentSuggestions(ctx context.Context, companyID string, limit int) ([]model.CategorizationSuggestion, error)
	UpsertCachedSuggestion(ctx context.Context, suggestion model.CategorizationSuggestion) error
	IncrementSuggestionUsage(ctx context.Context, companyID, description, accountCode string) error

	// Feedback
	RecordFeedbackEvent(ctx context.Context, event FeedbackEvent) error
	GetCategorizationStats(ctx context.Context, companyID string) (*model.CategorizationStats, error)

	// Analysis inputs
	FetchTransactions(ctx context.Context, companyID string, since time.Time) ([]model.Transaction, error)
	FetchOpenInvoices(ctx context.Context, companyID string, direction model.InvoiceDirection) ([]model.Invoice, error)
	FetchCashBalance(ctx context.Context, companyID string) (float64, error)
	ValidatedEntries(ctx context.Context, companyID string, limit int) ([]LedgerEntry, error)

	// Analysis outputs
	UpsertInsights(ctx context.Context, insights []model.Insight) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// TextGenerator is the generative-text collaborator. It is opaque and may
// fail or time out; callers must tolerate both.
type TextGenerator interface {
	Complete(ctx context.Context, prompt, systemInstructions string) (string, error)
}

// FeedbackEvent records a user accepting or rejecting a suggestion.
type FeedbackEvent struct {
	CreatedAt        time.Time
	ID               string
	CompanyID        string
	Description      string
	SuggestedAccount string
	ActualAccount    string
	Validated        bool
}

// LedgerEntry is one validated journal line used for history learning.
type LedgerEntry struct {
	Description string
	AccountCode string
}

// RetryOptions configures retry behavior for collaborator calls.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

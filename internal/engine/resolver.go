// Package engine implements the categorization resolver: a tiered strategy
// chain that maps free-text transaction descriptions to ranked account-code
// suggestions, falling back from cached history through generative text to a
// static keyword table.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
	"github.com/NouctheCo/Casskai-sub005/internal/service"
)

// TransactionContext carries optional numeric hints alongside a description.
type TransactionContext struct {
	Amount          *float64
	TransactionType string
}

// Config holds configuration options for the resolver.
type Config struct {
	AccountingStandard  string
	Country             string
	SimilarityThreshold float64
	RecentLimit         int
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{
		AccountingStandard:  "PCG",
		Country:             "France",
		SimilarityThreshold: 0.82,
		RecentLimit:         200,
	}
}

// tier is one resolution strategy. Returning an empty list or an error both
// mean "try the next tier".
type tier interface {
	name() string
	resolve(ctx context.Context, companyID, description string, txnCtx *TransactionContext) ([]model.AccountSuggestion, error)
}

// Resolver orchestrates the resolution tiers and the feedback loop.
type Resolver struct {
	storage service.Storage
	logger  *slog.Logger
	tiers   []tier
}

// New creates a resolver with the default configuration.
func New(storage service.Storage, generator service.TextGenerator, logger *slog.Logger) *Resolver {
	return NewWithConfig(storage, generator, logger, DefaultConfig())
}

// NewWithConfig creates a resolver with custom configuration. The generator
// may be nil, in which case the generative tier is skipped entirely and
// cache misses fall straight through to keywords.
func NewWithConfig(storage service.Storage, generator service.TextGenerator, logger *slog.Logger, cfg Config) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	tiers := []tier{
		&cacheTier{
			storage:     storage,
			threshold:   cfg.SimilarityThreshold,
			recentLimit: cfg.RecentLimit,
		},
	}
	if generator != nil {
		tiers = append(tiers, &generativeTier{
			storage:            storage,
			generator:          generator,
			logger:             logger,
			accountingStandard: cfg.AccountingStandard,
			country:            cfg.Country,
		})
	}
	tiers = append(tiers, keywordTier{})

	return &Resolver{
		storage: storage,
		logger:  logger,
		tiers:   tiers,
	}
}

// Suggest resolves a description to ranked account suggestions. Errors from
// the cache and generative tiers are logged and treated as misses; the
// keyword tier cannot fail, so the result is never empty.
func (r *Resolver) Suggest(ctx context.Context, companyID, description string, txnCtx *TransactionContext) []model.AccountSuggestion {
	for _, t := range r.tiers {
		suggestions, err := t.resolve(ctx, companyID, description, txnCtx)
		if err != nil {
			r.logger.Warn("resolution tier failed, falling through",
				"tier", t.name(),
				"company_id", companyID,
				"error", err)
			continue
		}
		if len(suggestions) > 0 {
			r.logger.Debug("resolution tier matched",
				"tier", t.name(),
				"company_id", companyID,
				"suggestions", len(suggestions))
			return suggestions
		}
	}

	// Unreachable while the keyword tier terminates the chain, kept so a
	// misconfigured tier list still satisfies the non-empty contract.
	return keywordSuggestions(description)
}

// RecordFeedback persists a user's accept/reject decision for a suggestion.
// Failures are logged and swallowed: feedback must never break the caller's
// flow.
func (r *Resolver) RecordFeedback(ctx context.Context, companyID, description, suggestedAccount, actualAccount string, validated bool) {
	event := service.FeedbackEvent{
		ID:               uuid.New().String(),
		CompanyID:        companyID,
		Description:      description,
		SuggestedAccount: suggestedAccount,
		ActualAccount:    actualAccount,
		Validated:        validated,
		CreatedAt:        time.Now().UTC(),
	}
	if err := r.storage.RecordFeedbackEvent(ctx, event); err != nil {
		r.logger.Warn("failed to record categorization feedback",
			"company_id", companyID,
			"error", err)
	}
}

// IncrementUsage bumps the usage counter on the matching cache row after a
// user accepts a suggestion. A missing row is a no-op, not an error.
func (r *Resolver) IncrementUsage(ctx context.Context, companyID, description, accountCode string) {
	key := NormalizeDescription(description)
	if err := r.storage.IncrementSuggestionUsage(ctx, companyID, key, accountCode); err != nil {
		r.logger.Warn("failed to increment suggestion usage",
			"company_id", companyID,
			"account_code", accountCode,
			"error", err)
	}
}

// Stats returns aggregate feedback accuracy numbers for a company.
func (r *Resolver) Stats(ctx context.Context, companyID string) (*model.CategorizationStats, error) {
	return r.storage.GetCategorizationStats(ctx, companyID)
}

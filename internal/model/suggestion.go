package model

import "time"

// AccountSuggestion is one ranked account-code suggestion returned by the
// categorization resolver.
type AccountSuggestion struct {
	AccountCode     string
	AccountName     string
	Reason          string
	ConfidenceScore float64 // 0-100
	UsageCount      int
	LastUsedAt      *time.Time
}

// CategorizationSuggestion is a cached resolver result, uniquely keyed by
// (company, description key, account code). Rows are never hard-deleted,
// only superseded by higher-confidence entries.
type CategorizationSuggestion struct {
	LastUsedAt         *time.Time
	CompanyID          string
	DescriptionKey     string
	AccountCode        string
	AccountName        string
	ConfidenceScore    float64
	UsageCount         int
	LearnedFromHistory bool
}

// AsAccountSuggestion converts a cache row into the resolver's output shape.
func (c *CategorizationSuggestion) AsAccountSuggestion(reason string) AccountSuggestion {
	return AccountSuggestion{
		AccountCode:     c.AccountCode,
		AccountName:     c.AccountName,
		ConfidenceScore: c.ConfidenceScore,
		UsageCount:      c.UsageCount,
		LastUsedAt:      c.LastUsedAt,
		Reason:          reason,
	}
}

// CategorizationStats aggregates feedback outcomes for monitoring
// suggestion accuracy.
type CategorizationStats struct {
	MostUsedAccounts     []AccountUsage
	TotalSuggestions     int
	ValidatedSuggestions int
	RejectedSuggestions  int
	AvgConfidenceScore   float64
	AccuracyRate         float64 // percent of decided feedback that validated
}

// AccountUsage pairs an account code with how often its suggestion was used.
type AccountUsage struct {
	AccountCode string
	UsageCount  int
}

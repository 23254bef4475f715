package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/NouctheCo/Casskai-sub005/internal/common"
	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

const (
	// minGroupSize is the occurrence floor below which a description group
	// carries too little evidence to learn from.
	minGroupSize = 2
	// maxLearnedConfidence caps history-derived confidence: past usage is
	// strong evidence but never certainty.
	maxLearnedConfidence = 95
)

// LearnFromHistory mines up to limit validated ledger entries, groups them by
// exact description, and caches one suggestion per group that recurs at
// least twice, scored by how dominant the modal account code is within the
// group. Returns the number of cache entries written.
func (r *Resolver) LearnFromHistory(ctx context.Context, companyID string, limit int) (int, error) {
	entries, err := r.storage.ValidatedEntries(ctx, companyID, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load validated entries: %w", err)
	}

	type group struct {
		codes map[string]int
		total int
	}
	groups := make(map[string]*group)
	for _, entry := range entries {
		if entry.Description == "" || entry.AccountCode == "" {
			continue
		}
		g, ok := groups[entry.Description]
		if !ok {
			g = &group{codes: make(map[string]int)}
			groups[entry.Description] = g
		}
		g.codes[entry.AccountCode]++
		g.total++
	}

	created := 0
	for description, g := range groups {
		if g.total < minGroupSize {
			continue
		}

		modeCode, modeCount := "", 0
		for code, count := range g.codes {
			if count > modeCount || (count == modeCount && code < modeCode) {
				modeCode, modeCount = code, count
			}
		}

		confidence := math.Min(maxLearnedConfidence, math.Round(100*float64(modeCount)/float64(g.total)))

		suggestion := learnedSuggestion(companyID, description, modeCode, confidence, g.total)
		if err := r.storage.UpsertCachedSuggestion(ctx, suggestion); err != nil {
			if errors.Is(err, common.ErrDuplicateEntry) {
				continue
			}
			r.logger.Warn("failed to persist learned suggestion",
				"company_id", companyID,
				"account_code", modeCode,
				"error", err)
			continue
		}
		created++
	}

	r.logger.Info("learned suggestions from history",
		"company_id", companyID,
		"entries", len(entries),
		"groups", len(groups),
		"created", created)

	return created, nil
}

func learnedSuggestion(companyID, description, accountCode string, confidence float64, usage int) model.CategorizationSuggestion {
	return model.CategorizationSuggestion{
		CompanyID:          companyID,
		DescriptionKey:     NormalizeDescription(description),
		AccountCode:        accountCode,
		AccountName:        accountNameFor(accountCode),
		ConfidenceScore:    confidence,
		UsageCount:         usage,
		LearnedFromHistory: true,
	}
}

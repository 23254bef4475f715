package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/NouctheCo/Casskai-sub005/internal/common"
	"github.com/NouctheCo/Casskai-sub005/internal/llm"
	"github.com/NouctheCo/Casskai-sub005/internal/model"
	"github.com/NouctheCo/Casskai-sub005/internal/service"
)

// cacheTier answers from previously recorded suggestions. Exact key lookup
// first, then a similarity scan over the company's recent cache rows for
// near-identical wordings ("VIR SALAIRES JANVIER" vs "VIR SALAIRES FEVRIER").
type cacheTier struct {
	storage     service.Storage
	threshold   float64
	recentLimit int
}

func (t *cacheTier) name() string { return "cache" }

func (t *cacheTier) resolve(ctx context.Context, companyID, description string, _ *TransactionContext) ([]model.AccountSuggestion, error) {
	key := NormalizeDescription(description)

	rows, err := t.storage.FindCachedSuggestions(ctx, companyID, key)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}

	if len(rows) == 0 {
		rows, err = t.similarRows(ctx, companyID, key)
		if err != nil {
			return nil, err
		}
	}

	if len(rows) == 0 {
		return nil, nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ConfidenceScore != rows[j].ConfidenceScore {
			return rows[i].ConfidenceScore > rows[j].ConfidenceScore
		}
		return rows[i].UsageCount > rows[j].UsageCount
	})

	suggestions := make([]model.AccountSuggestion, len(rows))
	for i := range rows {
		suggestions[i] = rows[i].AsAccountSuggestion("Basé sur historique")
	}
	return suggestions, nil
}

// similarRows scans recent cache entries for descriptions close enough to
// the lookup key to reuse their suggestion.
func (t *cacheTier) similarRows(ctx context.Context, companyID, key string) ([]model.CategorizationSuggestion, error) {
	recent, err := t.storage.RecentSuggestions(ctx, companyID, t.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent suggestions: %w", err)
	}

	var matched []model.CategorizationSuggestion
	for _, row := range recent {
		if DescriptionSimilarity(key, row.DescriptionKey) >= t.threshold {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

// generativeTier asks the text-generation collaborator for a suggestion and
// caches the parsed result for future exact lookups.
type generativeTier struct {
	storage            service.Storage
	generator          service.TextGenerator
	logger             *slog.Logger
	accountingStandard string
	country            string
}

func (t *generativeTier) name() string { return "generative" }

func (t *generativeTier) resolve(ctx context.Context, companyID, description string, txnCtx *TransactionContext) ([]model.AccountSuggestion, error) {
	prompt := t.buildPrompt(description, txnCtx)
	system := t.systemMessage()

	response, err := t.generator.Complete(ctx, prompt, system)
	if err != nil {
		return nil, fmt.Errorf("text generation: %w", err)
	}

	parsed, err := llm.ParseAccountResponse(response)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	cached := model.CategorizationSuggestion{
		CompanyID:       companyID,
		DescriptionKey:  NormalizeDescription(description),
		AccountCode:     parsed.AccountCode,
		AccountName:     parsed.AccountName,
		ConfidenceScore: parsed.Confidence,
	}
	if err := t.storage.UpsertCachedSuggestion(ctx, cached); err != nil {
		// Duplicate keys are expected under concurrent resolution; anything
		// else is logged but does not invalidate the suggestion we hold.
		if !errors.Is(err, common.ErrDuplicateEntry) {
			t.logger.Warn("failed to cache generated suggestion",
				"company_id", companyID,
				"account_code", parsed.AccountCode,
				"error", err)
		}
	}

	return []model.AccountSuggestion{{
		AccountCode:     parsed.AccountCode,
		AccountName:     parsed.AccountName,
		ConfidenceScore: parsed.Confidence,
		Reason:          parsed.Reason,
	}}, nil
}

func (t *generativeTier) buildPrompt(description string, txnCtx *TransactionContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Norme comptable: %s (%s)\n", t.accountingStandard, t.country)
	fmt.Fprintf(&b, "Transaction: %q\n", description)

	if txnCtx != nil {
		if txnCtx.Amount != nil {
			fmt.Fprintf(&b, "Montant: %.2f €\n", *txnCtx.Amount)
		}
		if txnCtx.TransactionType != "" {
			fmt.Fprintf(&b, "Type: %s\n", txnCtx.TransactionType)
		}
	}

	fmt.Fprintf(&b, "\nQuel compte comptable %s utiliser pour cette transaction ?", t.accountingStandard)
	return b.String()
}

func (t *generativeTier) systemMessage() string {
	return fmt.Sprintf(`Tu es un expert-comptable spécialisé en %s.
Ton rôle est de suggérer le compte comptable le plus approprié pour une transaction.
Réponds UNIQUEMENT avec un objet JSON au format:
{"account_code": "XXXXXX", "account_name": "Nom du compte", "confidence": 85, "reason": "Explication courte"}`, t.accountingStandard)
}

// keywordTier is the terminal fallback: static table matching over the
// description. Always returns at least one suggestion and never fails.
type keywordTier struct{}

func (keywordTier) name() string { return "keyword" }

func (keywordTier) resolve(_ context.Context, _, description string, _ *TransactionContext) ([]model.AccountSuggestion, error) {
	return keywordSuggestions(description), nil
}

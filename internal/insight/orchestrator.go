// Package insight fans the three analyses out in parallel, normalizes their
// native outputs into the shared Insight shape, and hands the batch to the
// persistence collaborator for an idempotent upsert.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NouctheCo/Casskai-sub005/internal/anomaly"
	"github.com/NouctheCo/Casskai-sub005/internal/cashflow"
	"github.com/NouctheCo/Casskai-sub005/internal/engine"
	"github.com/NouctheCo/Casskai-sub005/internal/model"
	"github.com/NouctheCo/Casskai-sub005/internal/service"
)

// Config holds orchestration settings.
type Config struct {
	// LookbackDays bounds the trailing transaction window fed to the
	// anomaly detector and recurring-expense estimate.
	LookbackDays int
	// HorizonDays is the cash-flow projection window.
	HorizonDays int
	// MaxUncodedSuggestions caps how many uncoded transactions are resolved
	// per run, bounding generative-tier calls.
	MaxUncodedSuggestions int
	// AnomalyTTL is how long anomaly insights stay fresh before expiring.
	AnomalyTTL time.Duration
}

// DefaultConfig returns the default orchestration settings.
func DefaultConfig() Config {
	return Config{
		LookbackDays:          90,
		HorizonDays:           cashflow.DefaultHorizonDays,
		MaxUncodedSuggestions: 20,
		AnomalyTTL:            30 * 24 * time.Hour,
	}
}

// RunResult summarizes one orchestration run.
type RunResult struct {
	Anomalies       int
	Categorizations int
	InsightsWritten int
	PredictionRuns  int
	AnalysisErrors  int
}

// Orchestrator coordinates the three analyses for a company.
type Orchestrator struct {
	storage   service.Storage
	resolver  *engine.Resolver
	detector  *anomaly.Detector
	projector *cashflow.Projector
	logger    *slog.Logger
	now       func() time.Time
	cfg       Config
}

// New creates an orchestrator with the default settings.
func New(storage service.Storage, resolver *engine.Resolver, detector *anomaly.Detector, projector *cashflow.Projector, logger *slog.Logger) *Orchestrator {
	return NewWithConfig(storage, resolver, detector, projector, logger, DefaultConfig())
}

// NewWithConfig creates an orchestrator with custom settings.
func NewWithConfig(storage service.Storage, resolver *engine.Resolver, detector *anomaly.Detector, projector *cashflow.Projector, logger *slog.Logger, cfg Config) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		storage:   storage,
		resolver:  resolver,
		detector:  detector,
		projector: projector,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Run executes all three analyses in parallel and upserts the merged insight
// batch. A failing analysis is logged and skipped rather than aborting the
// run; only a failed upsert of the surviving results is returned as an error.
func (o *Orchestrator) Run(ctx context.Context, companyID string) (RunResult, error) {
	now := o.now().UTC()
	since := now.AddDate(0, 0, -o.cfg.LookbackDays)

	transactions, err := o.storage.FetchTransactions(ctx, companyID, since)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	var (
		mu       sync.Mutex
		insights []model.Insight
		result   RunResult
	)
	collect := func(batch []model.Insight, analysisErr error, name string) {
		mu.Lock()
		defer mu.Unlock()
		if analysisErr != nil {
			result.AnalysisErrors++
			o.logger.Error("analysis failed, continuing without its results",
				"analysis", name,
				"company_id", companyID,
				"error", analysisErr)
			return
		}
		insights = append(insights, batch...)
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		batch := o.anomalyInsights(companyID, transactions, now)
		mu.Lock()
		result.Anomalies = len(batch)
		mu.Unlock()
		collect(batch, nil, "anomaly")
	}()

	go func() {
		defer wg.Done()
		batch, err := o.predictionInsight(ctx, companyID, transactions, now)
		if err == nil {
			mu.Lock()
			result.PredictionRuns = 1
			mu.Unlock()
		}
		collect(batch, err, "cashflow")
	}()

	go func() {
		defer wg.Done()
		batch := o.categorizationInsight(ctx, companyID, transactions, now)
		mu.Lock()
		result.Categorizations = len(batch)
		mu.Unlock()
		collect(batch, nil, "categorization")
	}()

	wg.Wait()

	// Deterministic batch order regardless of goroutine completion order.
	sort.Slice(insights, func(i, j int) bool { return insights[i].ID < insights[j].ID })

	if len(insights) > 0 {
		if err := o.storage.UpsertInsights(ctx, insights); err != nil {
			return result, fmt.Errorf("failed to persist insights: %w", err)
		}
	}
	result.InsightsWritten = len(insights)

	o.logger.Info("analysis run complete",
		"company_id", companyID,
		"insights", result.InsightsWritten,
		"anomalies", result.Anomalies,
		"categorizations", result.Categorizations,
		"analysis_errors", result.AnalysisErrors)

	return result, nil
}

// anomalyInsights runs the detector and normalizes each flagged transaction.
func (o *Orchestrator) anomalyInsights(companyID string, transactions []model.Transaction, now time.Time) []model.Insight {
	detected := o.detector.Detect(transactions)
	if len(detected) == 0 {
		return nil
	}

	expires := now.Add(o.cfg.AnomalyTTL)
	insights := make([]model.Insight, len(detected))
	for i, a := range detected {
		insights[i] = model.Insight{
			ID:               model.InsightID(model.InsightAnomaly, companyID, a.TransactionID),
			CompanyID:        companyID,
			Type:             model.InsightAnomaly,
			Severity:         a.Severity,
			Title:            "Transaction inhabituelle détectée",
			Description:      strings.Join(a.Reasons, " ; "),
			Data:             a,
			SuggestedActions: a.SuggestedActions,
			ConfidenceScore:  a.Score * 100,
			CreatedAt:        now,
			ExpiresAt:        &expires,
		}
	}
	return insights
}

// predictionInsight gathers the projector inputs and wraps the projection in
// a single insight.
func (o *Orchestrator) predictionInsight(ctx context.Context, companyID string, transactions []model.Transaction, now time.Time) ([]model.Insight, error) {
	balance, err := o.storage.FetchCashBalance(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cash balance: %w", err)
	}
	receivables, err := o.storage.FetchOpenInvoices(ctx, companyID, model.DirectionReceivable)
	if err != nil {
		return nil, fmt.Errorf("failed to load receivables: %w", err)
	}
	payables, err := o.storage.FetchOpenInvoices(ctx, companyID, model.DirectionPayable)
	if err != nil {
		return nil, fmt.Errorf("failed to load payables: %w", err)
	}

	prediction := o.projector.Project(cashflow.Inputs{
		CompanyID:       companyID,
		Today:           now,
		CurrentBalance:  balance,
		Receivables:     receivables,
		Payables:        payables,
		MonthlyExpenses: monthlyExpenseTotals(transactions, now),
		HorizonDays:     o.cfg.HorizonDays,
	})

	return []model.Insight{{
		ID:        model.InsightID(model.InsightPrediction, companyID, "cashflow"),
		CompanyID: companyID,
		Type:      model.InsightPrediction,
		Severity:  severityForRisk(prediction.RiskLevel),
		Title:     "Projection de trésorerie",
		Description: fmt.Sprintf("Solde minimum projeté: %.2f€ le %s (risque %s)",
			prediction.MinBalance,
			prediction.MinBalanceDate.Format("2006-01-02"),
			prediction.RiskLevel),
		Data:             prediction,
		SuggestedActions: prediction.Recommendations,
		ConfidenceScore:  meanDayConfidence(prediction.Predictions) * 100,
		CreatedAt:        now,
	}}, nil
}

// categorizationInsight resolves suggestions for uncoded transactions. The
// resolver never fails, so neither does this analysis.
func (o *Orchestrator) categorizationInsight(ctx context.Context, companyID string, transactions []model.Transaction, now time.Time) []model.Insight {
	type suggested struct {
		TransactionID string                  `json:"transaction_id"`
		Description   string                  `json:"description"`
		Suggestion    model.AccountSuggestion `json:"suggestion"`
	}

	var resolved []suggested
	for _, txn := range transactions {
		if txn.Category != "" || txn.AccountCode != "" {
			continue
		}
		if len(resolved) >= o.cfg.MaxUncodedSuggestions {
			break
		}
		amount := txn.Amount
		suggestions := o.resolver.Suggest(ctx, companyID, txn.Description, &engine.TransactionContext{Amount: &amount})
		resolved = append(resolved, suggested{
			TransactionID: txn.ID,
			Description:   txn.Description,
			Suggestion:    suggestions[0],
		})
	}

	if len(resolved) == 0 {
		return nil
	}

	var confidenceSum float64
	for _, r := range resolved {
		confidenceSum += r.Suggestion.ConfidenceScore
	}

	return []model.Insight{{
		ID:          model.InsightID(model.InsightCategorization, companyID, "uncoded"),
		CompanyID:   companyID,
		Type:        model.InsightCategorization,
		Severity:    model.SeverityLow,
		Title:       fmt.Sprintf("%d transactions à catégoriser", len(resolved)),
		Description: "Des suggestions de comptes sont disponibles pour les transactions non codées",
		Data:        resolved,
		SuggestedActions: []string{
			"Passer en revue les suggestions de catégorisation",
			"Valider ou corriger les comptes proposés",
		},
		ConfidenceScore: confidenceSum / float64(len(resolved)),
		CreatedAt:       now,
	}}
}

// monthlyExpenseTotals sums expense amounts per calendar month over the last
// three full months, oldest first, skipping months with no activity.
func monthlyExpenseTotals(transactions []model.Transaction, now time.Time) []float64 {
	totals := make(map[string]float64)
	for _, txn := range transactions {
		if txn.Amount >= 0 {
			continue
		}
		totals[txn.Date.Format("2006-01")] += -txn.Amount
	}

	var months []float64
	for i := 3; i >= 1; i-- {
		key := now.AddDate(0, -i, 0).Format("2006-01")
		if total, ok := totals[key]; ok {
			months = append(months, total)
		}
	}
	return months
}

func severityForRisk(risk model.RiskLevel) model.Severity {
	switch risk {
	case model.RiskCritical:
		return model.SeverityCritical
	case model.RiskHigh:
		return model.SeverityHigh
	case model.RiskMedium:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func meanDayConfidence(days []model.DailyPrediction) float64 {
	if len(days) == 0 {
		return 0
	}
	var sum float64
	for _, day := range days {
		sum += day.Confidence
	}
	return sum / float64(len(days))
}

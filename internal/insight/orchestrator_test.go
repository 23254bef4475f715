package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NouctheCo/Casskai-sub005/internal/anomaly"
	"github.com/NouctheCo/Casskai-sub005/internal/cashflow"
	"github.com/NouctheCo/Casskai-sub005/internal/engine"
	"github.com/NouctheCo/Casskai-sub005/internal/model"
	"github.com/NouctheCo/Casskai-sub005/internal/service"
)

var runDate = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) // a Wednesday

type stubStorage struct {
	transactions []model.Transaction
	receivables  []model.Invoice
	payables     []model.Invoice
	upserts      [][]model.Insight
	txnErr       error
	balanceErr   error
	upsertErr    error
	balance      float64
}

func (s *stubStorage) FindCachedSuggestions(_ context.Context, _, _ string) ([]model.CategorizationSuggestion, error) {
	return nil, nil
}

func (s *stubStorage) RecentSuggestions(_ context.Context, _ string, _ int) ([]model.CategorizationSuggestion, error) {
	return nil, nil
}

func (s *stubStorage) UpsertCachedSuggestion(_ context.Context, _ model.CategorizationSuggestion) error {
	return nil
}

func (s *stubStorage) IncrementSuggestionUsage(_ context.Context, _, _, _ string) error { return nil }

func (s *stubStorage) RecordFeedbackEvent(_ context.Context, _ service.FeedbackEvent) error {
	return nil
}

func (s *stubStorage) GetCategorizationStats(_ context.Context, _ string) (*model.CategorizationStats, error) {
	return &model.CategorizationStats{}, nil
}

func (s *stubStorage) FetchTransactions(_ context.Context, _ string, _ time.Time) ([]model.Transaction, error) {
	if s.txnErr != nil {
		return nil, s.txnErr
	}
	return s.transactions, nil
}

func (s *stubStorage) FetchOpenInvoices(_ context.Context, _ string, direction model.InvoiceDirection) ([]model.Invoice, error) {
	if direction == model.DirectionReceivable {
		return s.receivables, nil
	}
	return s.payables, nil
}

func (s *stubStorage) FetchCashBalance(_ context.Context, _ string) (float64, error) {
	if s.balanceErr != nil {
		return 0, s.balanceErr
	}
	return s.balance, nil
}

func (s *stubStorage) ValidatedEntries(_ context.Context, _ string, _ int) ([]service.LedgerEntry, error) {
	return nil, nil
}

func (s *stubStorage) UpsertInsights(_ context.Context, insights []model.Insight) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	batch := make([]model.Insight, len(insights))
	copy(batch, insights)
	s.upserts = append(s.upserts, batch)
	return nil
}

func (s *stubStorage) Migrate(_ context.Context) error { return nil }
func (s *stubStorage) Close() error                    { return nil }

func newTestOrchestrator(store *stubStorage) *Orchestrator {
	resolver := engine.New(store, nil, nil)
	orchestrator := New(store, resolver, anomaly.New(nil), cashflow.New(nil), nil)
	orchestrator.now = func() time.Time { return runDate }
	return orchestrator
}

func anomalousTransactions() []model.Transaction {
	txns := make([]model.Transaction, 0, 20)
	for i := 0; i < 19; i++ {
		txns = append(txns, model.Transaction{
			ID:          string(rune('a' + i)),
			Date:        runDate,
			Description: "achat fournitures",
			Category:    "Divers",
			Amount:      -100,
		})
	}
	return append(txns, model.Transaction{
		ID:          "outlier",
		Date:        runDate,
		Description: "achat exceptionnel",
		Category:    "Divers",
		Amount:      -50000,
	})
}

func TestRunProducesAllInsightTypes(t *testing.T) {
	store := &stubStorage{
		balance:      10000,
		transactions: append(anomalousTransactions(), model.Transaction{
			ID:          "uncoded",
			Date:        runDate,
			Description: "VIR SALAIRES JANVIER",
			Amount:      -2000,
		}),
	}

	orchestrator := newTestOrchestrator(store)
	result, err := orchestrator.Run(context.Background(), "co1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Anomalies)
	assert.Equal(t, 1, result.Categorizations)
	assert.Equal(t, 1, result.PredictionRuns)
	assert.Zero(t, result.AnalysisErrors)
	assert.Equal(t, 3, result.InsightsWritten)

	require.Len(t, store.upserts, 1)
	types := make(map[model.InsightType]model.Insight)
	for _, insight := range store.upserts[0] {
		types[insight.Type] = insight
		assert.Equal(t, "co1", insight.CompanyID)
		assert.NotEmpty(t, insight.ID)
	}

	anomalyInsight := types[model.InsightAnomaly]
	assert.Equal(t, "Transaction inhabituelle détectée", anomalyInsight.Title)
	require.NotNil(t, anomalyInsight.ExpiresAt)
	assert.Equal(t, runDate.UTC().Add(30*24*time.Hour), *anomalyInsight.ExpiresAt)

	prediction := types[model.InsightPrediction]
	assert.Equal(t, model.SeverityLow, prediction.Severity)
	assert.Nil(t, prediction.ExpiresAt)

	categorization := types[model.InsightCategorization]
	assert.Equal(t, model.SeverityLow, categorization.Severity)
}

func TestRunDeterministicIDs(t *testing.T) {
	store := &stubStorage{balance: 10000, transactions: anomalousTransactions()}
	orchestrator := newTestOrchestrator(store)

	_, err := orchestrator.Run(context.Background(), "co1")
	require.NoError(t, err)
	_, err = orchestrator.Run(context.Background(), "co1")
	require.NoError(t, err)

	require.Len(t, store.upserts, 2)
	require.Equal(t, len(store.upserts[0]), len(store.upserts[1]))
	for i := range store.upserts[0] {
		assert.Equal(t, store.upserts[0][i].ID, store.upserts[1][i].ID,
			"re-running analysis must produce the same insight ids")
	}
}

func TestRunToleratesPartialFailure(t *testing.T) {
	store := &stubStorage{
		balanceErr:   errors.New("balances table unavailable"),
		transactions: anomalousTransactions(),
	}

	orchestrator := newTestOrchestrator(store)
	result, err := orchestrator.Run(context.Background(), "co1")

	require.NoError(t, err, "a failing analysis must not abort the run")
	assert.Equal(t, 1, result.AnalysisErrors)
	assert.Zero(t, result.PredictionRuns)
	assert.Equal(t, 1, result.Anomalies)
	assert.Equal(t, 1, result.InsightsWritten)
}

func TestRunTransactionLoadFailureAborts(t *testing.T) {
	store := &stubStorage{txnErr: errors.New("database locked")}
	orchestrator := newTestOrchestrator(store)

	_, err := orchestrator.Run(context.Background(), "co1")
	require.Error(t, err)
	assert.Empty(t, store.upserts)
}

func TestRunEmptyTransactionsStillPredicts(t *testing.T) {
	store := &stubStorage{balance: 10000}
	orchestrator := newTestOrchestrator(store)

	result, err := orchestrator.Run(context.Background(), "co1")
	require.NoError(t, err)

	// An empty transaction set still produces the prediction insight.
	assert.Equal(t, 1, result.InsightsWritten)
	assert.Zero(t, result.Anomalies)
	assert.Zero(t, result.Categorizations)
}

func TestRunUpsertFailureIsReported(t *testing.T) {
	store := &stubStorage{balance: 10000, upsertErr: errors.New("disk full")}
	orchestrator := newTestOrchestrator(store)

	_, err := orchestrator.Run(context.Background(), "co1")
	require.Error(t, err)
}

func TestMonthlyExpenseTotals(t *testing.T) {
	txns := []model.Transaction{
		{Date: runDate.AddDate(0, -1, 0), Amount: -1000},
		{Date: runDate.AddDate(0, -1, 1), Amount: -500},
		{Date: runDate.AddDate(0, -2, 0), Amount: -2000},
		{Date: runDate.AddDate(0, -3, 0), Amount: -3000},
		{Date: runDate.AddDate(0, -1, 2), Amount: 4000}, // income, ignored
		{Date: runDate, Amount: -999},                   // current month, ignored
	}

	got := monthlyExpenseTotals(txns, runDate)
	assert.Equal(t, []float64{3000, 2000, 1500}, got, "oldest month first")
}

func TestSeverityForRisk(t *testing.T) {
	assert.Equal(t, model.SeverityCritical, severityForRisk(model.RiskCritical))
	assert.Equal(t, model.SeverityHigh, severityForRisk(model.RiskHigh))
	assert.Equal(t, model.SeverityMedium, severityForRisk(model.RiskMedium))
	assert.Equal(t, model.SeverityLow, severityForRisk(model.RiskLow))
}

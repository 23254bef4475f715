package anomaly

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

// weekday returns a date guaranteed not to fall on a weekend.
func weekday() time.Time {
	return time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC) // a Wednesday
}

func makeCohort(category string, count int, amount float64) []model.Transaction {
	txns := make([]model.Transaction, count)
	for i := range txns {
		txns[i] = model.Transaction{
			ID:          fmt.Sprintf("%s-%03d", category, i),
			Date:        weekday(),
			Description: "achat fournitures",
			Category:    category,
			Amount:      amount,
		}
	}
	return txns
}

func TestDetectEmptyInput(t *testing.T) {
	detector := New(nil)
	assert.Empty(t, detector.Detect(nil))
	assert.Empty(t, detector.Detect([]model.Transaction{}))
}

func TestDetectThinCohortSkipped(t *testing.T) {
	detector := New(nil)

	// Nine transactions, one wildly different: below the minimum cohort
	// size, so nothing is computed at all.
	txns := makeCohort("Transport", 8, 100)
	txns = append(txns, model.Transaction{
		ID: "Transport-big", Date: weekday(), Description: "achat", Category: "Transport", Amount: 50000,
	})

	assert.Empty(t, detector.Detect(txns))
}

func TestDetectStatisticalOutlier(t *testing.T) {
	detector := New(nil)

	// 19 transactions around 100 and one at 50000.
	txns := makeCohort("Transport", 19, 100)
	txns = append(txns, model.Transaction{
		ID:          "Transport-outlier",
		Date:        weekday(),
		Description: "achat exceptionnel",
		Category:    "Transport",
		Amount:      50000,
	})

	got := detector.Detect(txns)
	require.Len(t, got, 1)
	assert.Equal(t, "Transport-outlier", got[0].TransactionID)
	assert.Greater(t, math.Abs(got[0].ZScore), 3.0)
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.NotEmpty(t, got[0].Reasons)
	assert.NotEmpty(t, got[0].SuggestedActions)
}

func TestDetectZeroVarianceCohort(t *testing.T) {
	detector := New(nil)

	// All amounts identical: stddev is 0, z must be 0, nothing flagged.
	got := detector.Detect(makeCohort("Loyer", 15, 800))
	assert.Empty(t, got)
}

func TestDetectSuspiciousKeywordForcesHigh(t *testing.T) {
	detector := New(nil)

	txns := makeCohort("Divers", 12, 100)
	txns = append(txns, model.Transaction{
		ID:          "Divers-cash",
		Date:        weekday(),
		Description: "retrait cash remboursement personnel",
		Category:    "Divers",
		Amount:      100, // statistically unremarkable
	})

	got := detector.Detect(txns)
	require.Len(t, got, 1)
	assert.Equal(t, "Divers-cash", got[0].TransactionID)
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.InDelta(t, 0.5, got[0].Score, 1e-9)
}

func TestDetectWeekendAloneIsNotEnough(t *testing.T) {
	detector := New(nil)

	saturday := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	txns := makeCohort("Divers", 12, 100)
	txns = append(txns, model.Transaction{
		ID:          "Divers-weekend",
		Date:        saturday,
		Description: "achat fournitures",
		Category:    "Divers",
		Amount:      100,
	})

	// Weekend contributes 0.2, below the 0.3 reporting threshold.
	assert.Empty(t, detector.Detect(txns))
}

func TestDetectWeekendPlusUrgentReports(t *testing.T) {
	detector := New(nil)

	saturday := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	txns := makeCohort("Divers", 12, 100)
	txns = append(txns, model.Transaction{
		ID:          "Divers-urgent",
		Date:        saturday,
		Description: "paiement URGENT fournisseur",
		Category:    "Divers",
		Amount:      100,
	})

	got := detector.Detect(txns)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.5, got[0].Score, 1e-9)
	assert.Equal(t, model.SeverityMedium, got[0].Severity)
	assert.Len(t, got[0].Reasons, 2)
}

func TestDetectMergesBothPaths(t *testing.T) {
	detector := New(nil)

	txns := makeCohort("Divers", 19, 100)
	txns = append(txns, model.Transaction{
		ID:          "Divers-both",
		Date:        weekday(),
		Description: "avance espèce urgente",
		Category:    "Divers",
		Amount:      50000,
	})

	got := detector.Detect(txns)
	require.Len(t, got, 1)
	// Statistical reason plus large-amount, urgent and suspicious-keyword
	// heuristics, merged into one insight.
	assert.GreaterOrEqual(t, len(got[0].Reasons), 3)
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.Greater(t, math.Abs(got[0].ZScore), 2.0)
	assert.Greater(t, got[0].Score, 0.3)
}

func TestDetectUncategorizedCohort(t *testing.T) {
	detector := New(nil)

	txns := makeCohort("", 19, 100)
	txns = append(txns, model.Transaction{
		ID: "uncat-outlier", Date: weekday(), Description: "achat", Amount: 50000,
	})

	got := detector.Detect(txns)
	require.Len(t, got, 1)
	assert.Equal(t, "uncat-outlier", got[0].TransactionID)
}

func TestDetectNonFiniteAmountsCoerced(t *testing.T) {
	detector := New(nil)

	txns := makeCohort("Divers", 14, 100)
	txns = append(txns,
		model.Transaction{ID: "nan", Date: weekday(), Description: "achat", Category: "Divers", Amount: math.NaN()},
		model.Transaction{ID: "inf", Date: weekday(), Description: "achat", Category: "Divers", Amount: math.Inf(1)},
	)

	got := detector.Detect(txns)
	for _, insight := range got {
		assert.False(t, math.IsNaN(insight.Score))
		assert.False(t, math.IsNaN(insight.ZScore))
	}
}

func TestDetectDeterministicOrdering(t *testing.T) {
	detector := New(nil)

	txns := makeCohort("Divers", 18, 100)
	txns = append(txns,
		model.Transaction{ID: "b-outlier", Date: weekday(), Description: "achat", Category: "Divers", Amount: 40000},
		model.Transaction{ID: "a-outlier", Date: weekday(), Description: "achat", Category: "Divers", Amount: 40000},
	)

	first := detector.Detect(txns)
	require.Len(t, first, 2)
	assert.Equal(t, "a-outlier", first[0].TransactionID, "equal scores break ties by transaction id")

	for i := 0; i < 5; i++ {
		again := detector.Detect(txns)
		require.Len(t, again, 2)
		assert.Equal(t, first[0].TransactionID, again[0].TransactionID)
		assert.Equal(t, first[1].TransactionID, again[1].TransactionID)
	}
}

package cashflow

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

var today = time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

func TestCollectionProbability(t *testing.T) {
	tests := []struct {
		name    string
		dueDate time.Time
		want    float64
	}{
		{name: "due in 3 days", dueDate: today.AddDate(0, 0, 3), want: 0.95},
		{name: "due today", dueDate: today, want: 0.95},
		{name: "due in exactly 7 days", dueDate: today.AddDate(0, 0, 7), want: 0.95},
		{name: "due in 20 days", dueDate: today.AddDate(0, 0, 20), want: 0.8},
		{name: "due in exactly 30 days", dueDate: today.AddDate(0, 0, 30), want: 0.8},
		{name: "due in 60 days", dueDate: today.AddDate(0, 0, 60), want: 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollectionProbability(tt.dueDate, today)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCollectionProbabilityOverdueDecay(t *testing.T) {
	// 30 days overdue: 0.85 * e^-1.
	got := CollectionProbability(today.AddDate(0, 0, -30), today)
	assert.InDelta(t, 0.85*math.Exp(-1), got, 1e-9)

	// One day overdue decays only slightly.
	oneDay := CollectionProbability(today.AddDate(0, 0, -1), today)
	assert.Less(t, oneDay, 0.85)
	assert.Greater(t, oneDay, 0.8)

	// Far overdue clamps at the floor instead of reaching zero.
	farOverdue := CollectionProbability(today.AddDate(0, 0, -365), today)
	assert.InDelta(t, 0.1, farOverdue, 1e-9)

	// Monotonic decay while above the floor.
	for days := 1; days < 60; days++ {
		newer := CollectionProbability(today.AddDate(0, 0, -days), today)
		older := CollectionProbability(today.AddDate(0, 0, -days-1), today)
		assert.GreaterOrEqual(t, newer, older, "probability must not increase with age (day %d)", days)
	}
}

func TestEstimateRecurringDailyExpense(t *testing.T) {
	tests := []struct {
		name    string
		monthly []float64
		want    float64
	}{
		{name: "no history", monthly: nil, want: 0},
		{name: "single month is insufficient", monthly: []float64{3000}, want: 0},
		{name: "two months", monthly: []float64{3000, 3300}, want: 3150.0 / 30},
		{name: "three months", monthly: []float64{3000, 3300, 2700}, want: 100},
		{name: "only last three months count", monthly: []float64{99999, 3000, 3300, 2700}, want: 100},
		{name: "negative totals treated as magnitude", monthly: []float64{-3000, -3000}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EstimateRecurringDailyExpense(tt.monthly), 1e-9)
		})
	}
}

func TestProjectHorizonAndBalances(t *testing.T) {
	projector := New(nil)

	got := projector.Project(Inputs{
		CompanyID:      "co1",
		Today:          today,
		CurrentBalance: 10000,
		HorizonDays:    30,
	})

	require.Len(t, got.Predictions, 30)
	assert.Equal(t, today, got.Predictions[0].Date)
	assert.Equal(t, today.AddDate(0, 0, 29), got.Predictions[29].Date)

	// No flows at all: the balance never moves and every day sits at the
	// base confidence.
	for _, day := range got.Predictions {
		assert.Equal(t, 10000.0, day.PredictedBalance)
		assert.InDelta(t, 0.5, day.Confidence, 1e-9)
	}
	assert.Equal(t, model.RiskLow, got.RiskLevel)
}

func TestProjectDefaultHorizon(t *testing.T) {
	projector := New(nil)
	got := projector.Project(Inputs{CompanyID: "co1", Today: today, CurrentBalance: 1})
	assert.Len(t, got.Predictions, DefaultHorizonDays)
}

func TestProjectReceivableContribution(t *testing.T) {
	projector := New(nil)

	due := today.AddDate(0, 0, 5)
	got := projector.Project(Inputs{
		CompanyID:      "co1",
		Today:          today,
		CurrentBalance: 1000,
		HorizonDays:    10,
		Receivables: []model.Invoice{{
			ID:           "inv-1",
			Counterparty: "ACME",
			Direction:    model.DirectionReceivable,
			DueDate:      due,
			AmountTotal:  1000,
		}},
	})

	day := got.Predictions[5]
	require.Len(t, day.IncomeSources, 1)
	// Due in 5 days: probability 0.95, expected income 950.
	assert.InDelta(t, 950, day.ExpectedIncome, 1e-9)
	assert.InDelta(t, 0.95, day.IncomeSources[0].Probability, 1e-9)
	assert.InDelta(t, 1950, day.PredictedBalance, 1e-9)
	assert.InDelta(t, 0.55, day.Confidence, 1e-9, "one identified flow lifts confidence")

	// Other days are untouched.
	assert.InDelta(t, 1000, got.Predictions[4].PredictedBalance, 1e-9)
	assert.InDelta(t, 1950, got.Predictions[9].PredictedBalance, 1e-9)
}

func TestProjectPayablesAreCertain(t *testing.T) {
	projector := New(nil)

	got := projector.Project(Inputs{
		CompanyID:      "co1",
		Today:          today,
		CurrentBalance: 500,
		HorizonDays:    5,
		Payables: []model.Invoice{{
			ID:          "sup-1",
			Direction:   model.DirectionPayable,
			DueDate:     today.AddDate(0, 0, 2),
			AmountTotal: 800,
			AmountPaid:  200,
		}},
	})

	day := got.Predictions[2]
	require.Len(t, day.ExpenseSources, 1)
	assert.InDelta(t, 600, day.ExpectedExpenses, 1e-9, "remaining amount at probability 1.0")
	assert.InDelta(t, 1.0, day.ExpenseSources[0].Probability, 1e-9)
	assert.InDelta(t, -100, day.PredictedBalance, 1e-9)

	assert.Equal(t, model.RiskCritical, got.RiskLevel, "negative minimum balance is critical")
	assert.Equal(t, today.AddDate(0, 0, 2), got.MinBalanceDate)
	assert.InDelta(t, -100, got.MinBalance, 1e-9)
	assert.NotEmpty(t, got.Recommendations)
}

func TestProjectRecurringExpenseAmortized(t *testing.T) {
	projector := New(nil)

	got := projector.Project(Inputs{
		CompanyID:       "co1",
		Today:           today,
		CurrentBalance:  100000,
		HorizonDays:     30,
		MonthlyExpenses: []float64{3000, 3000, 3000}, // 100 per day
	})

	first := got.Predictions[0]
	require.Len(t, first.ExpenseSources, 1)
	assert.InDelta(t, 100, first.ExpectedExpenses, 1e-9)
	assert.InDelta(t, 0.95, first.ExpenseSources[0].Probability, 1e-9)
	assert.InDelta(t, 99900, first.PredictedBalance, 1e-9)
	assert.InDelta(t, 97000, got.Predictions[29].PredictedBalance, 1e-6)

	// The amortized flow is not an identified flow for confidence purposes.
	assert.InDelta(t, 0.5, first.Confidence, 1e-9)
}

func TestProjectRiskTiers(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		want    model.RiskLevel
	}{
		{name: "well above a month of costs", balance: 100000, want: model.RiskLow},
		{name: "under one month of costs", balance: 2900, want: model.RiskMedium},
		{name: "under half a month of costs", balance: 1400, want: model.RiskHigh},
		{name: "goes negative", balance: 50, want: model.RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projector := New(nil)
			got := projector.Project(Inputs{
				CompanyID:       "co1",
				Today:           today,
				CurrentBalance:  tt.balance,
				HorizonDays:     1,
				MonthlyExpenses: []float64{3000, 3000, 3000},
			})
			assert.Equal(t, tt.want, got.RiskLevel)
		})
	}
}

func TestProjectMinBalanceTakenOverSimulatedDays(t *testing.T) {
	projector := New(nil)

	// A large receivable lands on day 0, so every simulated balance sits
	// far above the starting balance. The reported minimum must come from
	// the series, not from the pre-simulation balance.
	got := projector.Project(Inputs{
		CompanyID:       "co1",
		Today:           today,
		CurrentBalance:  1600,
		HorizonDays:     10,
		MonthlyExpenses: []float64{3000, 3000, 3000}, // 100 per day
		Receivables: []model.Invoice{{
			ID:          "inv-big",
			Direction:   model.DirectionReceivable,
			DueDate:     today,
			AmountTotal: 100000,
		}},
	})

	// Day 0: 1600 + 100000*0.95 - 100 = 96500; each later day drops by the
	// amortized 100, bottoming out on the last day.
	assert.InDelta(t, 96500, got.Predictions[0].PredictedBalance, 1e-6)
	assert.InDelta(t, 95600, got.MinBalance, 1e-6)
	assert.Equal(t, today.AddDate(0, 0, 9), got.MinBalanceDate)

	// Risk follows the minimum over the window, which is well above a
	// month of recurring costs.
	assert.Equal(t, model.RiskLow, got.RiskLevel)

	for _, day := range got.Predictions {
		assert.GreaterOrEqual(t, day.PredictedBalance, got.MinBalance)
	}
}

func TestProjectConfidenceCap(t *testing.T) {
	projector := New(nil)

	// Ten invoices all due tomorrow would push confidence past the cap.
	invoices := make([]model.Invoice, 10)
	for i := range invoices {
		invoices[i] = model.Invoice{
			ID:          string(rune('a' + i)),
			Direction:   model.DirectionReceivable,
			DueDate:     today.AddDate(0, 0, 1),
			AmountTotal: 100,
		}
	}

	got := projector.Project(Inputs{
		CompanyID:      "co1",
		Today:          today,
		CurrentBalance: 1000,
		HorizonDays:    3,
		Receivables:    invoices,
	})

	assert.InDelta(t, 0.95, got.Predictions[1].Confidence, 1e-9)
}

func TestProjectFullyPaidInvoicesIgnored(t *testing.T) {
	projector := New(nil)

	got := projector.Project(Inputs{
		CompanyID:      "co1",
		Today:          today,
		CurrentBalance: 1000,
		HorizonDays:    5,
		Receivables: []model.Invoice{{
			ID:          "paid",
			Direction:   model.DirectionReceivable,
			DueDate:     today.AddDate(0, 0, 2),
			AmountTotal: 500,
			AmountPaid:  500,
		}},
	})

	assert.Empty(t, got.Predictions[2].IncomeSources)
	assert.InDelta(t, 1000, got.Predictions[4].PredictedBalance, 1e-9)
}

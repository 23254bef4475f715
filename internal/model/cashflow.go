package model

import "time"

// RiskLevel summarizes the worst projected cash position over a horizon.
type RiskLevel string

const (
	// RiskLow means the balance stays comfortably above recurring costs.
	RiskLow RiskLevel = "low"
	// RiskMedium means the minimum balance dips under one month of costs.
	RiskMedium RiskLevel = "medium"
	// RiskHigh means the minimum balance dips under half a month of costs.
	RiskHigh RiskLevel = "high"
	// RiskCritical means the projected balance goes negative.
	RiskCritical RiskLevel = "critical"
)

// FlowSource names one identified income or expense flow on a given day.
type FlowSource struct {
	Label       string
	Amount      float64
	Probability float64
}

// DailyPrediction is one day of the simulated balance path.
type DailyPrediction struct {
	Date             time.Time
	IncomeSources    []FlowSource
	ExpenseSources   []FlowSource
	PredictedBalance float64
	ExpectedIncome   float64
	ExpectedExpenses float64
	Confidence       float64 // 0..1
}

// CashFlowPrediction is the full projector output: a contiguous daily
// series starting today, plus the risk classification derived from it.
type CashFlowPrediction struct {
	GeneratedAt     time.Time
	MinBalanceDate  time.Time
	CompanyID       string
	RiskLevel       RiskLevel
	Predictions     []DailyPrediction
	Recommendations []string
	CurrentBalance  float64
	MinBalance      float64
}

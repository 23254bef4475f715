// Package cashflow simulates a day-by-day projected bank balance from open
// invoices and a recurring-expense estimate, then classifies the risk of the
// company running out of cash over the horizon.
package cashflow

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

const (
	// DefaultHorizonDays is the projection window when none is configured.
	DefaultHorizonDays = 90

	// baseCollectionRate is the prior probability that an overdue receivable
	// is eventually collected, before decay.
	baseCollectionRate = 0.85
	// overdueDecayDays controls how fast collection probability decays once
	// an invoice is past due.
	overdueDecayDays = 30.0

	// recurringExpenseProbability weights the amortized daily recurring
	// expense in the simulation.
	recurringExpenseProbability = 0.95

	minProbability = 0.1
	maxProbability = 1.0

	baseDayConfidence    = 0.5
	perFlowConfidence    = 0.05
	maxDayConfidence     = 0.95
	recurringMonthsNeed  = 2
	recurringMonthsSpan  = 3
	daysPerMonthEstimate = 30.0
)

// Inputs carries everything the simulation reads. All fields are supplied by
// the caller; the projector itself performs no I/O.
type Inputs struct {
	Today           time.Time
	CompanyID       string
	Receivables     []model.Invoice
	Payables        []model.Invoice
	MonthlyExpenses []float64 // most recent last, up to three months
	CurrentBalance  float64
	HorizonDays     int
}

// Projector runs the deterministic daily simulation.
type Projector struct {
	logger *slog.Logger
}

// New creates a projector.
func New(logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{logger: logger}
}

// Project simulates the balance path over the horizon and classifies risk.
func (p *Projector) Project(in Inputs) model.CashFlowPrediction {
	horizon := in.HorizonDays
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}

	today := truncateToDay(in.Today)
	dailyRecurring := EstimateRecurringDailyExpense(in.MonthlyExpenses)
	monthlyRecurring := dailyRecurring * daysPerMonthEstimate

	receivablesByDay := groupByDueDate(in.Receivables)
	payablesByDay := groupByDueDate(in.Payables)

	predictions := make([]model.DailyPrediction, 0, horizon)
	balance := in.CurrentBalance
	var minBalance float64
	var minDate time.Time

	for offset := 0; offset < horizon; offset++ {
		date := today.AddDate(0, 0, offset)
		day := model.DailyPrediction{Date: date}

		for _, invoice := range receivablesByDay[dayKey(date)] {
			probability := CollectionProbability(invoice.DueDate, today)
			amount := invoice.Remaining() * probability
			day.ExpectedIncome += amount
			day.IncomeSources = append(day.IncomeSources, model.FlowSource{
				Label:       fmt.Sprintf("Facture %s (%s)", invoice.ID, invoice.Counterparty),
				Amount:      amount,
				Probability: probability,
			})
		}

		for _, invoice := range payablesByDay[dayKey(date)] {
			amount := invoice.Remaining()
			day.ExpectedExpenses += amount
			day.ExpenseSources = append(day.ExpenseSources, model.FlowSource{
				Label:       fmt.Sprintf("Facture fournisseur %s (%s)", invoice.ID, invoice.Counterparty),
				Amount:      amount,
				Probability: 1.0,
			})
		}

		identifiedFlows := len(day.IncomeSources) + len(day.ExpenseSources)

		if dailyRecurring > 0 {
			day.ExpectedExpenses += dailyRecurring
			day.ExpenseSources = append(day.ExpenseSources, model.FlowSource{
				Label:       "Charges récurrentes (amorties)",
				Amount:      dailyRecurring,
				Probability: recurringExpenseProbability,
			})
		}

		balance += day.ExpectedIncome - day.ExpectedExpenses
		day.PredictedBalance = balance
		day.Confidence = math.Min(maxDayConfidence, baseDayConfidence+perFlowConfidence*float64(identifiedFlows))

		// The minimum is taken over the simulated days only, not the
		// starting balance.
		if offset == 0 || balance < minBalance {
			minBalance = balance
			minDate = date
		}

		predictions = append(predictions, day)
	}

	risk := classifyRisk(minBalance, monthlyRecurring)

	p.logger.Info("cash-flow projection complete",
		"company_id", in.CompanyID,
		"horizon_days", horizon,
		"min_balance", minBalance,
		"min_balance_date", minDate.Format("2006-01-02"),
		"risk", risk)

	return model.CashFlowPrediction{
		GeneratedAt:     time.Now().UTC(),
		CompanyID:       in.CompanyID,
		CurrentBalance:  in.CurrentBalance,
		Predictions:     predictions,
		MinBalance:      minBalance,
		MinBalanceDate:  minDate,
		RiskLevel:       risk,
		Recommendations: recommendationsFor(risk),
	}
}

// CollectionProbability estimates how likely a receivable due on dueDate is
// to be paid, seen from today. Overdue invoices decay exponentially from the
// base collection rate; invoices not yet due are tiered by proximity. The
// result is clamped to [0.1, 1.0].
func CollectionProbability(dueDate, today time.Time) float64 {
	daysOverdue := int(truncateToDay(today).Sub(truncateToDay(dueDate)).Hours() / 24)

	var probability float64
	switch {
	case daysOverdue > 0:
		probability = baseCollectionRate * math.Exp(-float64(daysOverdue)/overdueDecayDays)
	case daysOverdue >= -7:
		probability = 0.95
	case daysOverdue >= -30:
		probability = 0.8
	default:
		probability = 0.6
	}

	return math.Min(maxProbability, math.Max(minProbability, probability))
}

// EstimateRecurringDailyExpense amortizes the mean of up to the last three
// monthly expense totals over a 30-day month. Fewer than two months of
// history yields 0: the simulation simply runs without a recurring component.
func EstimateRecurringDailyExpense(monthlyTotals []float64) float64 {
	if len(monthlyTotals) < recurringMonthsNeed {
		return 0
	}
	if len(monthlyTotals) > recurringMonthsSpan {
		monthlyTotals = monthlyTotals[len(monthlyTotals)-recurringMonthsSpan:]
	}

	var sum float64
	for _, total := range monthlyTotals {
		sum += math.Abs(total)
	}
	return sum / float64(len(monthlyTotals)) / daysPerMonthEstimate
}

func classifyRisk(minBalance, monthlyRecurring float64) model.RiskLevel {
	switch {
	case minBalance < 0:
		return model.RiskCritical
	case monthlyRecurring > 0 && minBalance < monthlyRecurring*0.5:
		return model.RiskHigh
	case monthlyRecurring > 0 && minBalance < monthlyRecurring:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// recommendationsFor derives the ordered advice list from the risk tier.
// Text is fixed per tier, never generated.
func recommendationsFor(risk model.RiskLevel) []string {
	switch risk {
	case model.RiskCritical:
		return []string{
			"Relancer immédiatement les factures clients en retard",
			"Négocier des délais de paiement avec les fournisseurs",
			"Envisager une ligne de crédit court terme",
		}
	case model.RiskHigh:
		return []string{
			"Relancer les factures clients arrivant à échéance",
			"Reporter les dépenses non essentielles",
		}
	case model.RiskMedium:
		return []string{
			"Surveiller les encaissements des deux prochaines semaines",
		}
	default:
		return []string{
			"Trésorerie saine sur l'horizon projeté",
		}
	}
}

func groupByDueDate(invoices []model.Invoice) map[string][]model.Invoice {
	byDay := make(map[string][]model.Invoice)
	for _, invoice := range invoices {
		if invoice.Remaining() <= 0 {
			continue
		}
		byDay[dayKey(invoice.DueDate)] = append(byDay[dayKey(invoice.DueDate)], invoice)
	}
	return byDay
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

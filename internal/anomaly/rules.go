package anomaly

import (
	"fmt"
	"strings"
	"time"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

// rule is one heuristic red-flag generator. Each firing rule adds its delta
// to the running anomaly score and contributes a human-readable reason.
// severityFloor, when set, is the minimum severity a firing forces.
type rule struct {
	applies       func(txn model.Transaction, stats cohortStats) bool
	reason        func(txn model.Transaction) string
	name          string
	severityFloor model.Severity
	delta         float64
}

var suspiciousKeywords = []string{"cash", "espèce", "remboursement personnel", "avance"}

var heuristicRules = []rule{
	{
		name:  "large_amount",
		delta: 0.4,
		applies: func(txn model.Transaction, stats cohortStats) bool {
			return stats.size > 0 && txn.NormalizedAmount() > stats.outlierThreshold()
		},
		reason: func(txn model.Transaction) string {
			return fmt.Sprintf("Montant inhabituel (%.2f€)", txn.Amount)
		},
		severityFloor: model.SeverityMedium,
	},
	{
		name:  "weekend",
		delta: 0.2,
		applies: func(txn model.Transaction, _ cohortStats) bool {
			day := txn.Date.Weekday()
			return day == time.Saturday || day == time.Sunday
		},
		reason: func(model.Transaction) string {
			return "Transaction un weekend"
		},
	},
	{
		name:  "urgent_marker",
		delta: 0.3,
		applies: func(txn model.Transaction, _ cohortStats) bool {
			return strings.Contains(strings.ToLower(txn.Description), "urgent")
		},
		reason: func(model.Transaction) string {
			return "Transaction marquée comme urgente"
		},
		severityFloor: model.SeverityMedium,
	},
	{
		name:  "suspicious_keyword",
		delta: 0.5,
		applies: func(txn model.Transaction, _ cohortStats) bool {
			desc := strings.ToLower(txn.Description)
			for _, keyword := range suspiciousKeywords {
				if strings.Contains(desc, keyword) {
					return true
				}
			}
			return false
		},
		reason: func(model.Transaction) string {
			return "Description contenant des mots-clés suspects"
		},
		severityFloor: model.SeverityHigh,
	},
}

package model

import "time"

// Severity is the four-value ordinal shared by anomalies and insights.
type Severity string

const (
	// SeverityLow marks informational findings.
	SeverityLow Severity = "low"
	// SeverityMedium marks findings worth a look.
	SeverityMedium Severity = "medium"
	// SeverityHigh marks findings that need review.
	SeverityHigh Severity = "high"
	// SeverityCritical marks findings that need immediate attention.
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// AtLeast raises s to floor when floor is the more severe of the two.
func (s Severity) AtLeast(floor Severity) Severity {
	if severityRank[floor] > severityRank[s] {
		return floor
	}
	return s
}

// AnomalyInsight is one flagged transaction produced by a detection run.
// Runs produce fresh insights every time; deduplication against earlier
// runs belongs to the persistence layer.
type AnomalyInsight struct {
	DetectedAt       time.Time
	ID               string
	TransactionID    string
	Severity         Severity
	Reasons          []string
	SuggestedActions []string
	Score            float64
	ZScore           float64
}

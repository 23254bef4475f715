package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// InsightType classifies a normalized insight.
type InsightType string

const (
	// InsightAnomaly wraps a flagged transaction.
	InsightAnomaly InsightType = "anomaly"
	// InsightPrediction wraps a cash-flow projection.
	InsightPrediction InsightType = "prediction"
	// InsightCategorization wraps categorization suggestions for uncoded entries.
	InsightCategorization InsightType = "categorization"
	// InsightOptimization is reserved for optimization advisories.
	InsightOptimization InsightType = "optimization"
)

// Insight is the normalized output shape shared by all three analyses.
// The Data payload is analysis-specific and opaque to the orchestrator.
type Insight struct {
	CreatedAt        time.Time
	ExpiresAt        *time.Time
	Data             any
	ID               string
	CompanyID        string
	Type             InsightType
	Severity         Severity
	Title            string
	Description      string
	SuggestedActions []string
	ConfidenceScore  float64 // 0-100
}

// InsightID derives a deterministic id from the insight's source entity so
// that re-running an analysis upserts rather than duplicates.
func InsightID(insightType InsightType, companyID, sourceID string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", insightType, companyID, sourceID)))
	return fmt.Sprintf("%x", hash[:16])
}

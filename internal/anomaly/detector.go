package anomaly

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/NouctheCo/Casskai-sub005/internal/model"
)

const uncategorizedCohort = "uncategorized"

// Config holds the detection thresholds.
type Config struct {
	// MinCohortSize is the smallest category cohort worth computing
	// statistics for. Thinner cohorts are skipped entirely.
	MinCohortSize int
	// ZThreshold is the |z| above which an amount is a statistical outlier.
	ZThreshold float64
	// ZSevereThreshold is the |z| above which the outlier escalates to high.
	ZSevereThreshold float64
	// ScoreThreshold is the heuristic score above which a transaction is
	// reported even without a statistical flag.
	ScoreThreshold float64
}

// DefaultConfig returns the default detection thresholds.
func DefaultConfig() Config {
	return Config{
		MinCohortSize:    10,
		ZThreshold:       2.0,
		ZSevereThreshold: 3.0,
		ScoreThreshold:   0.3,
	}
}

// Detector partitions transactions into category cohorts and flags outliers
// through two complementary paths: per-cohort z-scores and heuristic rules.
type Detector struct {
	logger *slog.Logger
	now    func() time.Time
	cfg    Config
}

// New creates a detector with the default thresholds.
func New(logger *slog.Logger) *Detector {
	return NewWithConfig(logger, DefaultConfig())
}

// NewWithConfig creates a detector with custom thresholds.
func NewWithConfig(logger *slog.Logger, cfg Config) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
}

// Detect returns one AnomalyInsight per flagged transaction, reasons merged
// from both detection paths, sorted by score descending with transaction id
// as the stable tie-break. An empty input yields an empty result.
func (d *Detector) Detect(transactions []model.Transaction) []model.AnomalyInsight {
	if len(transactions) == 0 {
		return nil
	}

	cohorts := partitionByCategory(transactions)
	detectedAt := d.now().UTC()

	var insights []model.AnomalyInsight
	for category, cohort := range cohorts {
		if len(cohort) < d.cfg.MinCohortSize {
			d.logger.Debug("skipping thin cohort",
				"category", category,
				"size", len(cohort),
				"min", d.cfg.MinCohortSize)
			continue
		}

		amounts := make([]float64, len(cohort))
		for i := range cohort {
			amounts[i] = cohort[i].NormalizedAmount()
		}
		stats := computeCohortStats(amounts)

		for i := range cohort {
			if insight, ok := d.evaluate(cohort[i], stats, detectedAt); ok {
				insights = append(insights, insight)
			}
		}
	}

	sort.Slice(insights, func(i, j int) bool {
		if insights[i].Score != insights[j].Score {
			return insights[i].Score > insights[j].Score
		}
		return insights[i].TransactionID < insights[j].TransactionID
	})

	return insights
}

// evaluate runs both detection paths against one transaction and merges
// their findings.
func (d *Detector) evaluate(txn model.Transaction, stats cohortStats, detectedAt time.Time) (model.AnomalyInsight, bool) {
	var reasons []string
	severity := model.SeverityLow
	score := 0.0

	z := stats.zScore(txn.NormalizedAmount())
	statistical := math.Abs(z) > d.cfg.ZThreshold
	if statistical {
		if math.Abs(z) > d.cfg.ZSevereThreshold {
			severity = severity.AtLeast(model.SeverityHigh)
		} else {
			severity = severity.AtLeast(model.SeverityMedium)
		}
		reasons = append(reasons, fmt.Sprintf("Écart statistique: %.1f écarts-types de la moyenne de la catégorie", z))
	}

	for _, r := range heuristicRules {
		if !r.applies(txn, stats) {
			continue
		}
		score += r.delta
		reasons = append(reasons, r.reason(txn))
		if r.severityFloor != "" {
			severity = severity.AtLeast(r.severityFloor)
		}
	}

	heuristic := score > d.cfg.ScoreThreshold
	if !statistical && !heuristic {
		return model.AnomalyInsight{}, false
	}

	return model.AnomalyInsight{
		ID:            "anomaly_" + txn.ID,
		TransactionID: txn.ID,
		Severity:      severity,
		Score:         math.Min(score, 1),
		ZScore:        z,
		Reasons:       reasons,
		SuggestedActions: []string{
			"Vérifier la justification de la transaction",
			"Contrôler les pièces justificatives",
			"Valider avec le responsable concerné",
		},
		DetectedAt: detectedAt,
	}, true
}

// partitionByCategory groups transactions by category, routing uncoded rows
// into their own cohort.
func partitionByCategory(transactions []model.Transaction) map[string][]model.Transaction {
	cohorts := make(map[string][]model.Transaction)
	for _, txn := range transactions {
		category := txn.Category
		if category == "" {
			category = uncategorizedCohort
		}
		cohorts[category] = append(cohorts[category], txn)
	}
	return cohorts
}

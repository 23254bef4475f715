// Package anomaly flags transactions whose amounts are statistical outliers
// within their category cohort or which trip independent heuristic red flags.
package anomaly

import (
	"gonum.org/v1/gonum/stat"
)

// cohortStats summarizes the absolute amounts of one category cohort.
type cohortStats struct {
	mean   float64
	stdDev float64
	size   int
}

// computeCohortStats returns mean and population standard deviation of the
// given absolute amounts.
func computeCohortStats(amounts []float64) cohortStats {
	if len(amounts) == 0 {
		return cohortStats{}
	}
	return cohortStats{
		mean:   stat.Mean(amounts, nil),
		stdDev: stat.PopStdDev(amounts, nil),
		size:   len(amounts),
	}
}

// zScore returns how many standard deviations amount sits from the cohort
// mean. A zero-variance cohort yields 0: identical amounts mean nothing is
// anomalous, and it avoids dividing by zero.
func (s cohortStats) zScore(amount float64) float64 {
	if s.stdDev == 0 {
		return 0
	}
	return (amount - s.mean) / s.stdDev
}

// outlierThreshold is the amount above which the large-amount heuristic
// fires, matching the 2-sigma statistical cut.
func (s cohortStats) outlierThreshold() float64 {
	return s.mean + 2*s.stdDev
}

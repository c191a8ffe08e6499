// internal/scoring/statistics.go
package scoring

import (
	"math"
	"sort"

	"diagnosis-pipeline/internal/models"
)

// ==========================
// Statistical analyzer
// ==========================

// Analyze computes distribution statistics over the full response set.
// All moments use population formulas. Degenerate inputs (n <= 1) yield
// zero standard deviation and zero reliability rather than NaN.
func Analyze(responses []models.QuestionResponse) models.StatisticalAnalysis {
	n := len(responses)
	if n == 0 {
		return models.StatisticalAnalysis{}
	}

	scores := make([]float64, n)
	for i, r := range responses {
		scores[i] = float64(r.Score)
	}

	mean := meanOf(scores)
	variance := populationVariance(scores, mean)
	stddev := math.Sqrt(variance)

	analysis := models.StatisticalAnalysis{
		Mean:              mean,
		Median:            medianOf(scores),
		Variance:          variance,
		StandardDeviation: stddev,
		SampleSize:        n,
	}

	if n > 1 && stddev > 0 {
		var skew, kurt float64
		for _, s := range scores {
			z := (s - mean) / stddev
			skew += z * z * z
			kurt += z * z * z * z
		}
		analysis.Skewness = skew / float64(n)
		analysis.ExcessKurtosis = kurt/float64(n) - 3
	}

	// 95% confidence interval: mean +/- 1.96 * (sigma / sqrt(n))
	margin := 1.96 * stddev / math.Sqrt(float64(n))
	analysis.ConfidenceInterval = models.ConfidenceInterval{
		Lower: mean - margin,
		Upper: mean + margin,
	}

	analysis.CronbachAlpha = cronbachAlpha(responses)

	return analysis
}

// cronbachAlpha estimates internal-consistency reliability, treating each
// competency category as one item: alpha = (k/(k-1)) * (1 - sumItemVar/totalVar),
// clamped to [0,1]. Fewer than two items or zero total variance yields 0.
func cronbachAlpha(responses []models.QuestionResponse) float64 {
	if len(responses) <= 1 {
		return 0
	}

	byCategory := make(map[string][]float64)
	all := make([]float64, 0, len(responses))
	for _, r := range responses {
		s := float64(r.Score)
		byCategory[r.CategoryID] = append(byCategory[r.CategoryID], s)
		all = append(all, s)
	}

	k := len(byCategory)
	if k <= 1 {
		return 0
	}

	totalVariance := populationVariance(all, meanOf(all))
	if totalVariance == 0 {
		return 0
	}

	var itemVarianceSum float64
	for _, item := range byCategory {
		itemVarianceSum += populationVariance(item, meanOf(item))
	}

	alpha := (float64(k) / float64(k-1)) * (1 - itemVarianceSum/totalVariance)
	return clamp(alpha, 0, 1)
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// medianOf averages the two middle values when the count is even.
func medianOf(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func populationVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

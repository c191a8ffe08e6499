// internal/scoring/aggregator.go
package scoring

import (
	"context"

	"diagnosis-pipeline/internal/models"
)

// ==========================
// Score aggregator
// ==========================

// Aggregate turns raw per-question responses into per-category scores.
// Pure function: same responses and framework always yield the same
// result, and neither input is mutated.
//
// Per category:
//
//	raw        = sum(score * weight) over matching responses
//	weighted   = raw * category.weight
//	normalized = weighted / (matchingCount * 5 * category.weight) * 100
//
// A category with zero matching responses scores 0 and is flagged
// incomplete rather than failing the aggregation.
func Aggregate(responses []models.QuestionResponse, framework *models.AssessmentFramework) []models.CategoryScore {
	scores := make([]models.CategoryScore, 0, len(framework.Categories))

	byCategory := make(map[string][]models.QuestionResponse)
	byQuestion := make(map[string][]models.QuestionResponse)
	for _, r := range responses {
		byCategory[r.CategoryID] = append(byCategory[r.CategoryID], r)
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}

	for _, cat := range framework.Categories {
		matching := byCategory[cat.ID]

		var raw float64
		for _, r := range matching {
			raw += float64(r.Score) * r.EffectiveWeight()
		}
		weighted := raw * cat.Weight

		var normalized float64
		incomplete := len(matching) == 0
		if !incomplete {
			normalized = weighted / (float64(len(matching)) * 5 * cat.Weight) * 100
			normalized = clamp(normalized, 0, 100)
		}

		score := models.CategoryScore{
			CategoryID:       cat.ID,
			CategoryName:     cat.Name,
			RawScore:         raw,
			WeightedScore:    weighted,
			NormalizedScore:  normalized,
			MaturityLevel:    models.MaturityLevelFor(normalized),
			Incomplete:       incomplete,
			SubCategories:    scoreSubCategories(cat, byQuestion),
			StrengthAreas:    []string{},
			ImprovementAreas: []string{},
			CriticalGaps:     []string{},
		}

		for _, sub := range score.SubCategories {
			diff := sub.Score - sub.Benchmark
			switch {
			case diff > 10:
				score.StrengthAreas = append(score.StrengthAreas, sub.Name)
			case diff < -15:
				score.CriticalGaps = append(score.CriticalGaps, sub.Name)
				score.ImprovementAreas = append(score.ImprovementAreas, sub.Name)
			case diff < -5:
				score.ImprovementAreas = append(score.ImprovementAreas, sub.Name)
			}
		}

		scores = append(scores, score)
	}

	return scores
}

// scoreSubCategories averages the responses matched by question ID onto a
// 0..100 scale. Subcategories with no matching responses score 0 against
// their benchmark but keep a zero response count so callers can tell the
// difference.
func scoreSubCategories(cat models.CompetencyCategory, byQuestion map[string][]models.QuestionResponse) []models.SubCategoryScore {
	subScores := make([]models.SubCategoryScore, 0, len(cat.SubCategories))
	for _, sub := range cat.SubCategories {
		var sum float64
		var count int
		for _, qid := range sub.QuestionIDs {
			for _, r := range byQuestion[qid] {
				sum += float64(r.Score)
				count++
			}
		}

		var score float64
		if count > 0 {
			score = clamp(sum/float64(count)/5*100, 0, 100)
		}

		subScores = append(subScores, models.SubCategoryScore{
			SubCategoryID: sub.ID,
			Name:          sub.Name,
			Score:         score,
			Benchmark:     sub.Benchmark.IndustryAverage,
			ResponseCount: count,
		})
	}
	return subScores
}

// Scorer composes aggregation, statistics, and benchmark comparison into
// a single ScoreResult per diagnosis submission.
type Scorer struct {
	framework  *models.AssessmentFramework
	comparator *Comparator
}

func NewScorer(framework *models.AssessmentFramework, comparator *Comparator) *Scorer {
	return &Scorer{framework: framework, comparator: comparator}
}

// Score builds the composite result consumed by the pipeline. The result
// is immutable after construction.
func (s *Scorer) Score(ctx context.Context, submission *models.DiagnosisSubmission) (*models.ScoreResult, error) {
	categoryScores := Aggregate(submission.Responses, s.framework)
	analysis := Analyze(submission.Responses)

	comparison, err := s.comparator.Compare(ctx, categoryScores, submission.CompanyInfo.Industry, submission.CompanyInfo.SizeTier)
	if err != nil {
		return nil, err
	}

	// Percentile per category against its own benchmark reference points.
	for i := range categoryScores {
		cat := s.framework.Category(categoryScores[i].CategoryID)
		if cat == nil {
			continue
		}
		categoryScores[i].Percentile = percentileFor(categoryScores[i].NormalizedScore, categoryBenchmark(cat))
	}

	var total, maxPossible float64
	for _, r := range submission.Responses {
		total += float64(r.Score) * r.EffectiveWeight()
		maxPossible += 5 * r.EffectiveWeight()
	}

	var percentage float64
	if maxPossible > 0 {
		percentage = total / maxPossible * 100
	}

	return &models.ScoreResult{
		TotalScore:          total,
		MaxPossibleScore:    maxPossible,
		PercentageScore:     percentage,
		CategoryScores:      categoryScores,
		StatisticalAnalysis: analysis,
		BenchmarkComparison: *comparison,
		QualityMetrics:      qualityMetrics(submission.Responses, s.framework, analysis.CronbachAlpha),
	}, nil
}

func qualityMetrics(responses []models.QuestionResponse, framework *models.AssessmentFramework, reliability float64) models.QualityMetrics {
	metrics := models.QualityMetrics{Reliability: reliability}

	if expected := framework.QuestionCount(); expected > 0 {
		metrics.Completeness = clamp(float64(len(responses))/float64(expected), 0, 1)
	}

	var confSum float64
	var confCount int
	for _, r := range responses {
		if r.Confidence > 0 {
			confSum += float64(r.Confidence)
			confCount++
		}
	}
	if confCount > 0 {
		metrics.AverageConfidence = confSum / float64(confCount)
	}

	return metrics
}

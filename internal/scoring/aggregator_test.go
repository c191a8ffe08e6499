// internal/scoring/aggregator_test.go
package scoring

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFramework() *models.AssessmentFramework {
	return &models.AssessmentFramework{
		Version: "test-1",
		Categories: []models.CompetencyCategory{
			{
				ID:     "data_management",
				Name:   "Data Management",
				Weight: 1.0,
				SubCategories: []models.SubCategory{
					{
						ID:          "dm_governance",
						Name:        "Governance",
						QuestionIDs: []string{"q1", "q2", "q3"},
						Benchmark:   models.Benchmark{IndustryAverage: 55, SizeAverage: 52, TopPercentile: 80, GlobalBest: 95},
					},
					{
						ID:          "dm_quality",
						Name:        "Data Quality",
						QuestionIDs: []string{"q4", "q5"},
						Benchmark:   models.Benchmark{IndustryAverage: 60, SizeAverage: 58, TopPercentile: 82, GlobalBest: 96},
					},
				},
			},
			{
				ID:     "analytics",
				Name:   "Analytics",
				Weight: 1.5,
				SubCategories: []models.SubCategory{
					{
						ID:          "an_reporting",
						Name:        "Reporting",
						QuestionIDs: []string{"q6", "q7"},
						Benchmark:   models.Benchmark{IndustryAverage: 50, SizeAverage: 48, TopPercentile: 78, GlobalBest: 94},
					},
				},
			},
			{
				ID:     "culture",
				Name:   "Data Culture",
				Weight: 0.5,
				SubCategories: []models.SubCategory{
					{
						ID:          "cu_literacy",
						Name:        "Data Literacy",
						QuestionIDs: []string{"q8", "q9"},
						Benchmark:   models.Benchmark{IndustryAverage: 45, SizeAverage: 44, TopPercentile: 75, GlobalBest: 92},
					},
				},
			},
		},
	}
}

func responsesForCategory(categoryID string, questionIDs []string, score int) []models.QuestionResponse {
	out := make([]models.QuestionResponse, 0, len(questionIDs))
	for _, qid := range questionIDs {
		out = append(out, models.QuestionResponse{
			QuestionID: qid,
			Score:      score,
			CategoryID: categoryID,
			Weight:     1.0,
		})
	}
	return out
}

func TestAggregate_NormalizedScoreAlwaysInRange(t *testing.T) {
	framework := testFramework()

	tests := []struct {
		name      string
		responses []models.QuestionResponse
	}{
		{name: "no responses", responses: nil},
		{
			name: "all minimum scores",
			responses: append(
				responsesForCategory("data_management", []string{"q1", "q2", "q3", "q4", "q5"}, 1),
				responsesForCategory("analytics", []string{"q6", "q7"}, 1)...,
			),
		},
		{
			name: "all maximum scores",
			responses: append(
				responsesForCategory("data_management", []string{"q1", "q2", "q3", "q4", "q5"}, 5),
				responsesForCategory("analytics", []string{"q6", "q7"}, 5)...,
			),
		},
		{
			name: "mixed weights",
			responses: []models.QuestionResponse{
				{QuestionID: "q1", Score: 5, CategoryID: "data_management", Weight: 2.5},
				{QuestionID: "q2", Score: 1, CategoryID: "data_management", Weight: 0.1},
				{QuestionID: "q6", Score: 3, CategoryID: "analytics"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := Aggregate(tt.responses, framework)
			require.Len(t, scores, len(framework.Categories))
			for _, cs := range scores {
				assert.GreaterOrEqual(t, cs.NormalizedScore, 0.0, "category %s", cs.CategoryID)
				assert.LessOrEqual(t, cs.NormalizedScore, 100.0, "category %s", cs.CategoryID)
			}
		})
	}
}

func TestAggregate_EmptyCategoryFlaggedIncomplete(t *testing.T) {
	framework := testFramework()

	// Only answer data_management questions; analytics and culture stay empty.
	responses := responsesForCategory("data_management", []string{"q1", "q2", "q3"}, 4)

	scores := Aggregate(responses, framework)
	require.Len(t, scores, 3)

	byID := make(map[string]models.CategoryScore)
	for _, cs := range scores {
		byID[cs.CategoryID] = cs
	}

	assert.False(t, byID["data_management"].Incomplete)
	assert.True(t, byID["analytics"].Incomplete)
	assert.Equal(t, 0.0, byID["analytics"].NormalizedScore)
	assert.Equal(t, models.MaturityBeginner, byID["analytics"].MaturityLevel)
}

func TestAggregate_ScoreFormula(t *testing.T) {
	framework := testFramework()

	// Three score-4 responses in a weight-1.5 category:
	// raw = 12, weighted = 18, normalized = 18/(3*5*1.5)*100 = 80
	responses := []models.QuestionResponse{
		{QuestionID: "q6", Score: 4, CategoryID: "analytics", Weight: 1.0},
		{QuestionID: "q7", Score: 4, CategoryID: "analytics", Weight: 1.0},
		{QuestionID: "q10", Score: 4, CategoryID: "analytics", Weight: 1.0},
	}

	scores := Aggregate(responses, framework)
	var analytics models.CategoryScore
	for _, cs := range scores {
		if cs.CategoryID == "analytics" {
			analytics = cs
		}
	}

	assert.InDelta(t, 12.0, analytics.RawScore, 1e-9)
	assert.InDelta(t, 18.0, analytics.WeightedScore, 1e-9)
	assert.InDelta(t, 80.0, analytics.NormalizedScore, 1e-9)
	assert.Equal(t, models.MaturityAdvanced, analytics.MaturityLevel)
}

func TestAggregate_MaturityThresholds(t *testing.T) {
	tests := []struct {
		normalized float64
		expected   models.MaturityLevel
	}{
		{0, models.MaturityBeginner},
		{39.99, models.MaturityBeginner},
		{40, models.MaturityDeveloping},
		{59.99, models.MaturityDeveloping},
		{60, models.MaturityProficient},
		{74.99, models.MaturityProficient},
		{75, models.MaturityAdvanced},
		{89.99, models.MaturityAdvanced},
		{90, models.MaturityExpert},
		{100, models.MaturityExpert},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, models.MaturityLevelFor(tt.normalized), "normalized=%v", tt.normalized)
	}
}

func TestAggregate_StrengthAndGapClassification(t *testing.T) {
	framework := &models.AssessmentFramework{
		Categories: []models.CompetencyCategory{
			{
				ID:     "cat",
				Name:   "Category",
				Weight: 1.0,
				SubCategories: []models.SubCategory{
					// score 100 vs benchmark 55: +45 -> strength
					{ID: "s1", Name: "Strong", QuestionIDs: []string{"q1"}, Benchmark: models.Benchmark{IndustryAverage: 55}},
					// score 40 vs benchmark 50: -10 -> improvement only
					{ID: "s2", Name: "Weak", QuestionIDs: []string{"q2"}, Benchmark: models.Benchmark{IndustryAverage: 50}},
					// score 20 vs benchmark 60: -40 -> critical gap (and improvement)
					{ID: "s3", Name: "Critical", QuestionIDs: []string{"q3"}, Benchmark: models.Benchmark{IndustryAverage: 60}},
				},
			},
		},
	}

	responses := []models.QuestionResponse{
		{QuestionID: "q1", Score: 5, CategoryID: "cat"},
		{QuestionID: "q2", Score: 2, CategoryID: "cat"},
		{QuestionID: "q3", Score: 1, CategoryID: "cat"},
	}

	scores := Aggregate(responses, framework)
	require.Len(t, scores, 1)

	assert.Equal(t, []string{"Strong"}, scores[0].StrengthAreas)
	assert.ElementsMatch(t, []string{"Weak", "Critical"}, scores[0].ImprovementAreas)
	assert.Equal(t, []string{"Critical"}, scores[0].CriticalGaps)
}

func TestAggregate_Idempotent(t *testing.T) {
	framework := testFramework()
	responses := append(
		responsesForCategory("data_management", []string{"q1", "q2", "q3", "q4", "q5"}, 3),
		responsesForCategory("analytics", []string{"q6", "q7"}, 4)...,
	)

	first := Aggregate(responses, framework)
	second := Aggregate(responses, framework)

	assert.True(t, reflect.DeepEqual(first, second), "repeated aggregation must be bit-identical")
}

func TestScorer_PercentageScore(t *testing.T) {
	// 45 responses, each score 3, all weights 1.0:
	// percentage = (3*45)/(45*5)*100 = 60.0
	framework := testFramework()
	responses := make([]models.QuestionResponse, 0, 45)
	for i := 0; i < 45; i++ {
		catID := "data_management"
		if i%3 == 1 {
			catID = "analytics"
		} else if i%3 == 2 {
			catID = "culture"
		}
		responses = append(responses, models.QuestionResponse{
			QuestionID: fmt.Sprintf("q%d", i+1),
			Score:      3,
			CategoryID: catID,
			Weight:     1.0,
		})
	}

	store := &StaticBenchmarkStore{Benchmark: models.Benchmark{
		IndustryAverage: 55, SizeAverage: 52, TopPercentile: 80, GlobalBest: 95,
	}}
	scorer := NewScorer(framework, NewComparator(store, logger.NewNoOpLogger()))

	result, err := scorer.Score(context.Background(), &models.DiagnosisSubmission{
		CompanyInfo: models.CompanyInfo{Name: "Acme", Industry: "manufacturing", SizeTier: "medium"},
		Responses:   responses,
	})
	require.NoError(t, err)

	assert.InDelta(t, 135.0, result.TotalScore, 1e-9)
	assert.InDelta(t, 225.0, result.MaxPossibleScore, 1e-9)
	assert.InDelta(t, 60.0, result.PercentageScore, 1e-9)
	assert.Equal(t, 45, result.StatisticalAnalysis.SampleSize)
}

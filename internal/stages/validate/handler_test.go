// internal/stages/validate/handler_test.go
package validate

import (
	"context"
	"testing"

	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"
	"diagnosis-pipeline/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	framework := &models.AssessmentFramework{
		Categories: []models.CompetencyCategory{
			{
				ID:     "data_management",
				Name:   "Data Management",
				Weight: 1.0,
				SubCategories: []models.SubCategory{
					{ID: "s1", Name: "Governance", QuestionIDs: []string{"q1", "q2"},
						Benchmark: models.Benchmark{IndustryAverage: 55, SizeAverage: 52, TopPercentile: 80, GlobalBest: 95}},
				},
			},
		},
	}

	store := &scoring.StaticBenchmarkStore{Benchmark: models.Benchmark{
		IndustryAverage: 55, SizeAverage: 52, TopPercentile: 80, GlobalBest: 95,
	}}
	scorer := scoring.NewScorer(framework, scoring.NewComparator(store, logger.NewNoOpLogger()))

	handler, err := New(scorer, logger.NewTestLogger(t))
	require.NoError(t, err)
	return handler
}

func validSubmission() models.DiagnosisSubmission {
	return models.DiagnosisSubmission{
		CompanyInfo: models.CompanyInfo{
			Name:         "Acme",
			ContactEmail: "ops@acme.test",
			Industry:     "manufacturing",
			SizeTier:     "medium",
		},
		Responses: []models.QuestionResponse{
			{QuestionID: "q1", Score: 4, CategoryID: "data_management", Weight: 1.0},
			{QuestionID: "q2", Score: 3, CategoryID: "data_management", Weight: 1.0},
		},
	}
}

func TestHandler_AcceptsValidSubmissionAndScoresIt(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(),
		models.SubmissionReceived{Submission: validSubmission()})
	require.NoError(t, err)

	processed, ok := output.(models.DataProcessed)
	require.True(t, ok)
	require.NotNil(t, processed.Score)
	assert.Equal(t, "Acme", processed.Submission.CompanyInfo.Name)
	// 4+3 of 10 possible points.
	assert.InDelta(t, 70.0, processed.Score.PercentageScore, 1e-9)
	require.Len(t, processed.Score.CategoryScores, 1)
}

func TestHandler_RejectsInvalidSubmissions(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name   string
		mutate func(*models.DiagnosisSubmission)
	}{
		{"empty company name", func(s *models.DiagnosisSubmission) { s.CompanyInfo.Name = "" }},
		{"malformed email", func(s *models.DiagnosisSubmission) { s.CompanyInfo.ContactEmail = "not-an-email" }},
		{"no responses", func(s *models.DiagnosisSubmission) { s.Responses = nil }},
		{"score above range", func(s *models.DiagnosisSubmission) { s.Responses[0].Score = 6 }},
		{"score below range", func(s *models.DiagnosisSubmission) { s.Responses[0].Score = 0 }},
		{"empty question id", func(s *models.DiagnosisSubmission) { s.Responses[0].QuestionID = "" }},
		{"unknown size tier", func(s *models.DiagnosisSubmission) { s.CompanyInfo.SizeTier = "gigantic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submission := validSubmission()
			tt.mutate(&submission)

			_, err := handler.Execute(context.Background(),
				models.SubmissionReceived{Submission: submission})
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err), "expected a validation error, got %v", err)
			assert.False(t, errors.IsRetryable(err))
		})
	}
}

func TestHandler_RejectsWrongInputShape(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Execute(context.Background(), models.Analyzed{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

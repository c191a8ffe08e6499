// test/e2e/pipeline_e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"diagnosis-pipeline/internal/common/config"
	"diagnosis-pipeline/internal/common/errors"
	httpclient "diagnosis-pipeline/internal/common/http"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/history"
	"diagnosis-pipeline/internal/models"
	"diagnosis-pipeline/internal/pipeline"
	"diagnosis-pipeline/internal/scoring"
	"diagnosis-pipeline/internal/stages/analyze"
	"diagnosis-pipeline/internal/stages/deliver"
	"diagnosis-pipeline/internal/stages/qualitygate"
	"diagnosis-pipeline/internal/stages/synthesize"
	"diagnosis-pipeline/internal/stages/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryMailer struct {
	sent []string
	fail int
}

func (m *memoryMailer) Send(_ context.Context, to, _, _ string) (string, error) {
	if m.fail > 0 {
		m.fail--
		return "", fmt.Errorf("smtp backend unavailable")
	}
	m.sent = append(m.sent, to)
	return fmt.Sprintf("msg-%d", len(m.sent)), nil
}

func e2eFramework() *models.AssessmentFramework {
	categories := []struct {
		id, name string
		weight   float64
	}{
		{"data_management", "Data Management", 1.2},
		{"analytics", "Analytics & Insights", 1.5},
		{"culture", "Data Culture", 0.8},
	}

	framework := &models.AssessmentFramework{Version: "e2e"}
	question := 1
	for _, cat := range categories {
		category := models.CompetencyCategory{ID: cat.id, Name: cat.name, Weight: cat.weight}
		for s := 0; s < 3; s++ {
			sub := models.SubCategory{
				ID:        fmt.Sprintf("%s_s%d", cat.id, s),
				Name:      fmt.Sprintf("%s area %d", cat.name, s+1),
				Benchmark: models.Benchmark{IndustryAverage: 55, SizeAverage: 52, TopPercentile: 80, GlobalBest: 95},
			}
			for q := 0; q < 5; q++ {
				sub.QuestionIDs = append(sub.QuestionIDs, fmt.Sprintf("q%d", question))
				question++
			}
			category.SubCategories = append(category.SubCategories, sub)
		}
		framework.Categories = append(framework.Categories, category)
	}
	return framework
}

func e2eSubmission(framework *models.AssessmentFramework) *models.DiagnosisSubmission {
	submission := &models.DiagnosisSubmission{
		CompanyInfo: models.CompanyInfo{
			Name:         "Acme Manufacturing",
			ContactEmail: "ops@acme.test",
			Industry:     "manufacturing",
			SizeTier:     "medium",
		},
	}
	for _, cat := range framework.Categories {
		for _, sub := range cat.SubCategories {
			for i, qid := range sub.QuestionIDs {
				submission.Responses = append(submission.Responses, models.QuestionResponse{
					QuestionID: qid,
					Score:      2 + (i % 3),
					CategoryID: cat.ID,
					Weight:     1.0,
					Confidence: 4,
				})
			}
		}
	}
	return submission
}

func e2eCatalog() *pipeline.Catalog {
	raw := `{"stages":[
		{"id":"validate","name":"Data Validation & Scoring","dependencies":[],"timeoutMs":5000,"retry":{"maxAttempts":1,"delayMs":10,"exponentialBackoff":false}},
		{"id":"analyze","name":"AI Analysis","dependencies":["validate"],"timeoutMs":5000,"retry":{"maxAttempts":3,"delayMs":10,"exponentialBackoff":true}},
		{"id":"synthesize","name":"Report Synthesis","dependencies":["analyze"],"timeoutMs":5000,"retry":{"maxAttempts":3,"delayMs":10,"exponentialBackoff":true}},
		{"id":"quality-gate","name":"Quality Gate","dependencies":["synthesize"],"timeoutMs":5000,"retry":{"maxAttempts":1,"delayMs":10,"exponentialBackoff":false}},
		{"id":"deliver","name":"Report Delivery","dependencies":["quality-gate"],"timeoutMs":5000,"retry":{"maxAttempts":3,"delayMs":10,"exponentialBackoff":true}}
	]}`
	var catalog pipeline.Catalog
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		panic(err)
	}
	return &catalog
}

func buildPipeline(t *testing.T, inferenceURL string, mailer deliver.Mailer, store *history.MemoryStore) *pipeline.Orchestrator {
	t.Helper()
	log := logger.NewTestLogger(t)

	framework := e2eFramework()
	require.NoError(t, scoring.ValidateFramework(framework))

	benchmarks := &scoring.StaticBenchmarkStore{Benchmark: models.Benchmark{
		IndustryAverage: 55, SizeAverage: 52, TopPercentile: 80, GlobalBest: 95,
	}}
	scorer := scoring.NewScorer(framework, scoring.NewComparator(benchmarks, log))

	validateHandler, err := validate.New(scorer, log)
	require.NoError(t, err)

	analyzeHandler := analyze.New(config.GenAIConfig{
		BaseURL: inferenceURL, MaxTokens: 512, Temperature: 0.2,
	}, httpclient.NewClient(2*time.Second), log)

	synthesizeHandler, err := synthesize.New(log)
	require.NoError(t, err)

	orchestrator, err := pipeline.NewOrchestrator(e2eCatalog(), map[string]pipeline.Handler{
		"validate":     validateHandler,
		"analyze":      analyzeHandler,
		"synthesize":   synthesizeHandler,
		"quality-gate": qualitygate.New(qualitygate.DefaultChecks(), log),
		"deliver":      deliver.New(mailer, nil, log),
	}, pipeline.NewExecutor(store, log), time.Second, log)
	require.NoError(t, err)

	return orchestrator
}

func inferenceStub(t *testing.T, failures *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failures != nil && *failures > 0 {
			*failures--
			http.Error(w, "model overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": strings.Repeat("The assessment shows consistent mid-level capability. ", 5),
				}},
			},
		})
	}))
}

func TestPipeline_EndToEnd(t *testing.T) {
	server := inferenceStub(t, nil)
	defer server.Close()

	mailer := &memoryMailer{}
	store := history.NewMemoryStore()
	orchestrator := buildPipeline(t, server.URL, mailer, store)

	framework := e2eFramework()
	progress := make(chan models.PipelineExecution, 32)

	result, err := orchestrator.Run(context.Background(), e2eSubmission(framework), progress)
	require.NoError(t, err)

	execution := result.Execution
	assert.Equal(t, models.PipelineCompleted, execution.Status)
	assert.InDelta(t, 100.0, execution.OverallProgress, 1e-9)

	delivered, ok := result.Output.(models.Delivered)
	require.True(t, ok)
	assert.Equal(t, "ops@acme.test", delivered.Receipt.Recipient)
	assert.Contains(t, delivered.Artifact.Body, "## Executive Summary")
	assert.Contains(t, delivered.Artifact.Body, "Acme Manufacturing")
	assert.Equal(t, []string{"ops@acme.test"}, mailer.sent)

	// The validate stage's output carries the full score result.
	processed, ok := execution.Stages[0].Output.(models.DataProcessed)
	require.True(t, ok)
	assert.Equal(t, 45, processed.Score.StatisticalAnalysis.SampleSize)
	assert.GreaterOrEqual(t, processed.Score.PercentageScore, 0.0)
	assert.LessOrEqual(t, processed.Score.PercentageScore, 100.0)

	// One history row per stage, all successful.
	assert.Len(t, store.All(), 5)

	var snapshots int
	for range progress {
		snapshots++
	}
	assert.Greater(t, snapshots, 5)
}

func TestPipeline_EndToEnd_TransientFailuresAreAbsorbed(t *testing.T) {
	failures := 2
	server := inferenceStub(t, &failures)
	defer server.Close()

	mailer := &memoryMailer{fail: 1}
	store := history.NewMemoryStore()
	orchestrator := buildPipeline(t, server.URL, mailer, store)

	result, err := orchestrator.Run(context.Background(), e2eSubmission(e2eFramework()), nil)
	require.NoError(t, err, "retries must absorb transient inference and delivery failures")
	assert.Equal(t, models.PipelineCompleted, result.Execution.Status)

	// 1 validate + 3 analyze attempts + 1 synthesize + 1 gate + 2 deliver attempts.
	assert.Len(t, store.All(), 8)
}

func TestPipeline_EndToEnd_ValidationFailsFast(t *testing.T) {
	server := inferenceStub(t, nil)
	defer server.Close()

	mailer := &memoryMailer{}
	orchestrator := buildPipeline(t, server.URL, mailer, history.NewMemoryStore())

	submission := e2eSubmission(e2eFramework())
	submission.CompanyInfo.ContactEmail = "not-an-email"

	result, err := orchestrator.Run(context.Background(), submission, nil)
	require.Error(t, err)

	assert.Equal(t, models.PipelineFailed, result.Execution.Status)
	assert.Equal(t, 0, result.Execution.CompletedStages())
	assert.Empty(t, mailer.sent)

	stdErr := errors.AsStandard(err)
	require.NotNil(t, stdErr)
	assert.Equal(t, errors.ErrCodePipelineFatal, stdErr.Code)
}

// internal/stages/analyze/handler.go
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"diagnosis-pipeline/internal/common/config"
	"diagnosis-pipeline/internal/common/errors"
	httpclient "diagnosis-pipeline/internal/common/http"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"
)

// Handler is the pipeline's second stage: it turns the computed score
// into a prompt, calls the inference service, and carries the analysis
// text forward. Failures here are transient and retried by the executor.
type Handler struct {
	cfg    config.GenAIConfig
	client *httpclient.Client
	log    logger.Logger
}

func New(cfg config.GenAIConfig, client *httpclient.Client, log logger.Logger) *Handler {
	return &Handler{cfg: cfg, client: client, log: log}
}

func (h *Handler) Execute(ctx context.Context, input models.StageOutput) (models.StageOutput, error) {
	processed, ok := input.(models.DataProcessed)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unexpected stage input %T", input))
	}

	prompt := buildPrompt(processed.Submission.CompanyInfo, processed.Score)
	analysis, err := h.complete(ctx, prompt)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewAIAnalysisTimeoutError()
		}
		return nil, errors.NewAIAnalysisFailedError(err)
	}

	h.log.Info("analysis generated", map[string]interface{}{
		"company": processed.Submission.CompanyInfo.Name,
		"length":  len(analysis),
	})

	return models.Analyzed{
		Score:        processed.Score,
		AnalysisText: analysis,
		Company:      processed.Submission.CompanyInfo,
	}, nil
}

func (h *Handler) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   h.cfg.MaxTokens,
		Temperature: h.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(h.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference service returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse inference response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("inference service error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("inference service returned no content")
	}

	return parsed.Choices[0].Message.Content, nil
}

// buildPrompt flattens the score result into the text the model sees.
func buildPrompt(company models.CompanyInfo, score *models.ScoreResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s (industry: %s, size: %s)\n", company.Name, orUnknown(company.Industry), orUnknown(company.SizeTier))
	fmt.Fprintf(&b, "Overall score: %.1f%% (maturity spread below)\n", score.PercentageScore)
	fmt.Fprintf(&b, "Market position: %s, competitive position: %s\n\n",
		score.BenchmarkComparison.MarketPosition, score.BenchmarkComparison.CompetitivePosition)

	b.WriteString("Category scores:\n")
	for _, cs := range score.CategoryScores {
		fmt.Fprintf(&b, "- %s: %.1f/100 (%s)", cs.CategoryName, cs.NormalizedScore, cs.MaturityLevel)
		if cs.Incomplete {
			b.WriteString(" [no responses]")
		}
		b.WriteString("\n")
		if len(cs.CriticalGaps) > 0 {
			fmt.Fprintf(&b, "  critical gaps: %s\n", strings.Join(cs.CriticalGaps, ", "))
		}
		if len(cs.StrengthAreas) > 0 {
			fmt.Fprintf(&b, "  strengths: %s\n", strings.Join(cs.StrengthAreas, ", "))
		}
	}

	if len(score.BenchmarkComparison.GapAnalysis.PriorityAreas) > 0 {
		fmt.Fprintf(&b, "\nPriority areas: %s\n",
			strings.Join(score.BenchmarkComparison.GapAnalysis.PriorityAreas, ", "))
	}
	fmt.Fprintf(&b, "\nReliability (Cronbach alpha): %.2f, completeness: %.0f%%\n",
		score.StatisticalAnalysis.CronbachAlpha, score.QualityMetrics.Completeness*100)

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

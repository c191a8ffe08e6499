// internal/stages/synthesize/handler.go
package synthesize

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"
)

// Handler is the pipeline's third stage: it renders the analysis and the
// score result into the markdown report artifact.
type Handler struct {
	tmpl *template.Template
	log  logger.Logger
}

type reportData struct {
	Company      models.CompanyInfo
	Score        *models.ScoreResult
	AnalysisText string
	GeneratedAt  time.Time
}

func New(log logger.Logger) (*Handler, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"join": strings.Join,
		"pct":  func(v float64) float64 { return v * 100 },
	}).Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Handler{tmpl: tmpl, log: log}, nil
}

func (h *Handler) Execute(_ context.Context, input models.StageOutput) (models.StageOutput, error) {
	analyzed, ok := input.(models.Analyzed)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unexpected stage input %T", input))
	}

	generatedAt := time.Now().UTC()
	var body strings.Builder
	err := h.tmpl.Execute(&body, reportData{
		Company:      analyzed.Company,
		Score:        analyzed.Score,
		AnalysisText: analyzed.AnalysisText,
		GeneratedAt:  generatedAt,
	})
	if err != nil {
		return nil, errors.NewReportSynthesisFailedError(err)
	}

	artifact := models.ReportArtifact{
		Title:       fmt.Sprintf("Data Capability Diagnosis: %s", analyzed.Company.Name),
		Body:        body.String(),
		Format:      "markdown",
		GeneratedAt: generatedAt,
	}

	h.log.Info("report synthesized", map[string]interface{}{
		"company": analyzed.Company.Name,
		"bytes":   len(artifact.Body),
	})

	return models.Synthesized{Artifact: artifact, Company: analyzed.Company}, nil
}

// internal/stages/qualitygate/handler.go
package qualitygate

import (
	"context"
	"fmt"
	"strings"

	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"
)

// Checks configures the gate applied to every synthesized report before
// delivery. A failed check is a content problem, not an infrastructure
// problem: it is terminal for the run and never retried.
type Checks struct {
	MinContentLength int
	RequiredSections []string
}

// DefaultChecks mirrors the structure the synthesizer emits.
func DefaultChecks() Checks {
	return Checks{
		MinContentLength: 500,
		RequiredSections: []string{
			"## Executive Summary",
			"## Category Breakdown",
			"## Analysis",
			"## Benchmark Position",
		},
	}
}

// Handler is the pipeline's fourth stage.
type Handler struct {
	checks Checks
	log    logger.Logger
}

func New(checks Checks, log logger.Logger) *Handler {
	return &Handler{checks: checks, log: log}
}

func (h *Handler) Execute(_ context.Context, input models.StageOutput) (models.StageOutput, error) {
	synthesized, ok := input.(models.Synthesized)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unexpected stage input %T", input))
	}
	artifact := synthesized.Artifact

	var passed []string
	var failures []string

	if len(artifact.Body) >= h.checks.MinContentLength {
		passed = append(passed, "content-length")
	} else {
		failures = append(failures, fmt.Sprintf("content length %d below minimum %d",
			len(artifact.Body), h.checks.MinContentLength))
	}

	for _, section := range h.checks.RequiredSections {
		if strings.Contains(artifact.Body, section) {
			passed = append(passed, "section:"+section)
		} else {
			failures = append(failures, fmt.Sprintf("missing section %q", section))
		}
	}

	if artifact.Title == "" {
		failures = append(failures, "empty report title")
	} else {
		passed = append(passed, "title")
	}

	if len(failures) > 0 {
		return nil, errors.NewQualityGateError(strings.Join(failures, "; "))
	}

	h.log.Info("quality gate passed", map[string]interface{}{
		"company": synthesized.Company.Name,
		"checks":  len(passed),
	})

	return models.Gated{
		Artifact:     artifact,
		Company:      synthesized.Company,
		ChecksPassed: passed,
	}, nil
}

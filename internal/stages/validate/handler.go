// internal/stages/validate/handler.go
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"
	"diagnosis-pipeline/internal/scoring"

	"github.com/xeipuuv/gojsonschema"
)

// Handler is the pipeline's first stage: it validates the raw submission
// against the schema, then runs the scoring engine over the accepted
// responses. Validation failures are non-retryable and fail the run
// before any external call.
type Handler struct {
	scorer *scoring.Scorer
	schema *gojsonschema.Schema
	log    logger.Logger
}

func New(scorer *scoring.Scorer, log logger.Logger) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(submissionSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile submission schema: %w", err)
	}
	return &Handler{scorer: scorer, schema: schema, log: log}, nil
}

func (h *Handler) Execute(ctx context.Context, input models.StageOutput) (models.StageOutput, error) {
	received, ok := input.(models.SubmissionReceived)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unexpected stage input %T", input))
	}
	submission := received.Submission

	if err := h.validateSchema(&submission); err != nil {
		return nil, err
	}

	h.log.Info("submission validated", map[string]interface{}{
		"company":   submission.CompanyInfo.Name,
		"responses": len(submission.Responses),
	})

	score, err := h.scorer.Score(ctx, &submission)
	if err != nil {
		return nil, err
	}

	return models.DataProcessed{Submission: submission, Score: score}, nil
}

func (h *Handler) validateSchema(submission *models.DiagnosisSubmission) error {
	payload, err := json.Marshal(submission)
	if err != nil {
		return errors.NewValidationError(fmt.Sprintf("submission not serializable: %v", err))
	}

	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return errors.NewValidationError(fmt.Sprintf("schema validation error: %v", err))
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return errors.NewValidationError(strings.Join(details, "; "))
	}

	return nil
}

// internal/stages/deliver/handler.go
package deliver

import (
	"context"
	"fmt"
	"time"

	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"
)

// Mailer sends the rendered report to the submitting company.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) (messageID string, err error)
}

// Archiver persists a copy of every delivered report for later search.
type Archiver interface {
	Archive(ctx context.Context, docID string, report ArchivedReport) error
}

// ArchivedReport is the document stored per delivered report.
type ArchivedReport struct {
	Company     string    `json:"company"`
	Recipient   string    `json:"recipient"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Format      string    `json:"format"`
	GeneratedAt time.Time `json:"generatedAt"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

// Handler is the pipeline's final stage: it mails the gated artifact to
// the contact address and archives a copy. Delivery failures are
// transient and retried; archive failures are logged but never fail a
// run whose mail already went out, to avoid duplicate sends on retry.
type Handler struct {
	mailer   Mailer
	archiver Archiver
	log      logger.Logger
}

func New(mailer Mailer, archiver Archiver, log logger.Logger) *Handler {
	return &Handler{mailer: mailer, archiver: archiver, log: log}
}

func (h *Handler) Execute(ctx context.Context, input models.StageOutput) (models.StageOutput, error) {
	gated, ok := input.(models.Gated)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unexpected stage input %T", input))
	}

	recipient := gated.Company.ContactEmail
	messageID, err := h.mailer.Send(ctx, recipient, gated.Artifact.Title, gated.Artifact.Body)
	if err != nil {
		return nil, errors.NewDeliveryFailedError(err)
	}

	receipt := models.DeliveryReceipt{
		MessageID: messageID,
		Recipient: recipient,
		SentAt:    time.Now().UTC(),
	}

	h.log.Info("report delivered", map[string]interface{}{
		"company":   gated.Company.Name,
		"recipient": recipient,
		"messageId": messageID,
	})

	if h.archiver != nil {
		doc := ArchivedReport{
			Company:     gated.Company.Name,
			Recipient:   recipient,
			Title:       gated.Artifact.Title,
			Body:        gated.Artifact.Body,
			Format:      gated.Artifact.Format,
			GeneratedAt: gated.Artifact.GeneratedAt,
			DeliveredAt: receipt.SentAt,
		}
		if err := h.archiver.Archive(ctx, messageID, doc); err != nil {
			h.log.WithError(err).Warn("report archive failed", map[string]interface{}{
				"company":   gated.Company.Name,
				"messageId": messageID,
			})
		}
	}

	return models.Delivered{Artifact: gated.Artifact, Receipt: receipt}, nil
}

// internal/stages/deliver/mailer.go
package deliver

import (
	"context"
	"fmt"

	awsclient "diagnosis-pipeline/internal/common/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESMailer sends reports over Amazon SES as plain-text email.
type SESMailer struct {
	client    *awsclient.SESClient
	fromEmail string
}

func NewSESMailer(client *awsclient.SESClient, fromEmail string) *SESMailer {
	return &SESMailer{client: client, fromEmail: fromEmail}
}

func (m *SESMailer) Send(ctx context.Context, to, subject, body string) (string, error) {
	out, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(m.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ses send failed: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// Package aws wraps the AWS SDK v2 clients the pipeline talks to: SES
// for mailing finished diagnosis reports and SNS for failure
// notifications.
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// SESClient sends diagnosis report emails through Amazon SES.
type SESClient struct {
	client *ses.Client
}

// NewSESClient resolves credentials from the default chain for the
// given region.
func NewSESClient(ctx context.Context, region string) (*SESClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESClient{client: ses.NewFromConfig(cfg)}, nil
}

// SendEmail submits one report email and returns the SES message ID on
// the output.
func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input)
}

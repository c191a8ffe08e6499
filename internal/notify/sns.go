// internal/notify/sns.go
package notify

import (
	"context"
	"encoding/json"
	"time"

	awsclient "diagnosis-pipeline/internal/common/aws"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// failurePayload is the JSON body published for a failed pipeline run.
type failurePayload struct {
	ExecutionID     string    `json:"executionId"`
	Status          string    `json:"status"`
	FailedStage     string    `json:"failedStage,omitempty"`
	Error           string    `json:"error"`
	CompletedStages int       `json:"completedStages"`
	FailedAt        time.Time `json:"failedAt"`
}

// SNSNotifier publishes a message to an SNS topic when a pipeline run
// fails, so operators learn about degraded runs without polling. Publish
// errors are logged and swallowed: notification must never mask the
// original failure.
type SNSNotifier struct {
	client   *awsclient.SNSClient
	topicARN string
	log      logger.Logger
}

func NewSNSNotifier(client *awsclient.SNSClient, topicARN string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN, log: log}
}

func (n *SNSNotifier) NotifyFailure(ctx context.Context, execution *models.PipelineExecution, cause error) {
	payload := failurePayload{
		ExecutionID:     execution.ExecutionID,
		Status:          string(execution.Status),
		Error:           cause.Error(),
		CompletedStages: execution.CompletedStages(),
		FailedAt:        time.Now().UTC(),
	}
	if execution.CurrentStageIndex < len(execution.Stages) {
		payload.FailedStage = execution.Stages[execution.CurrentStageIndex].ID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.log.Error("failed to marshal failure notification", map[string]interface{}{
			"pipelineId": execution.ExecutionID,
			"error":      err.Error(),
		})
		return
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Diagnosis pipeline failed"),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		n.log.Error("failed to publish failure notification", map[string]interface{}{
			"pipelineId": execution.ExecutionID,
			"topicArn":   n.topicARN,
			"error":      err.Error(),
		})
		return
	}

	n.log.Info("failure notification published", map[string]interface{}{
		"pipelineId": execution.ExecutionID,
		"topicArn":   n.topicARN,
	})
}

// internal/models/pipeline.go
package models

import "time"

type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageError     StageStatus = "error"
)

type PipelineStatus string

const (
	PipelineInitialized PipelineStatus = "initialized"
	PipelineInProgress  PipelineStatus = "in_progress"
	PipelineCompleted   PipelineStatus = "completed"
	PipelineFailed      PipelineStatus = "failed"
)

// StageState tracks one stage of a pipeline run. A stage's Output becomes the
// next stage's sole input.
type StageState struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Dependencies []string    `json:"dependencies"`
	Status       StageStatus `json:"status"`
	StartTime    time.Time   `json:"startTime,omitempty"`
	EndTime      time.Time   `json:"endTime,omitempty"`
	Output       StageOutput `json:"-"`
	Errors       []string    `json:"errors,omitempty"`
}

// PipelineExecution is created at pipeline start and mutated only by the
// orchestrator goroutine that owns it.
type PipelineExecution struct {
	ExecutionID            string         `json:"executionId"`
	Status                 PipelineStatus `json:"status"`
	Stages                 []StageState   `json:"stages"`
	CurrentStageIndex      int            `json:"currentStageIndex"`
	OverallProgress        float64        `json:"overallProgress"` // 0..100
	EstimatedTimeRemaining time.Duration  `json:"estimatedTimeRemaining"`
	Errors                 []string       `json:"errors,omitempty"`
	StartTime              time.Time      `json:"startTime"`
	EndTime                time.Time      `json:"endTime,omitempty"`
}

// CompletedStages counts stages that reached completed.
func (p *PipelineExecution) CompletedStages() int {
	n := 0
	for _, s := range p.Stages {
		if s.Status == StageCompleted {
			n++
		}
	}
	return n
}

type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionError   ExecutionStatus = "error"
	ExecutionRunning ExecutionStatus = "running"
	ExecutionWaiting ExecutionStatus = "waiting"
)

// WorkflowExecutionResult records one external-call attempt. Retried attempts
// each produce a new result; the last one is returned to the stage.
type WorkflowExecutionResult struct {
	ExecutionID string          `json:"executionId"`
	Operation   string          `json:"operation"`
	Attempt     int             `json:"attempt"`
	Status      ExecutionStatus `json:"status"`
	Data        string          `json:"data,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     time.Time       `json:"endTime"`
	Duration    time.Duration   `json:"duration"`
}

// RetryConfig bounds re-attempts for transient collaborator failures.
type RetryConfig struct {
	MaxAttempts        int           `json:"maxAttempts"`
	Delay              time.Duration `json:"delayMs"`
	ExponentialBackoff bool          `json:"exponentialBackoff"`
}

// ==========================
// Tagged stage payloads
// ==========================

// StageOutput is the tagged-variant payload passed between stages, so a stage
// cannot consume the wrong shape.
type StageOutput interface {
	stageOutput()
}

// SubmissionReceived is the pipeline's initial payload, handed to the
// validate stage.
type SubmissionReceived struct {
	Submission DiagnosisSubmission `json:"submission"`
}

// DataProcessed is produced by the validate stage: the accepted submission
// plus its freshly computed score.
type DataProcessed struct {
	Submission DiagnosisSubmission `json:"submission"`
	Score      *ScoreResult        `json:"score"`
}

// Analyzed carries the AI analysis text alongside the score it interprets.
type Analyzed struct {
	Score        *ScoreResult `json:"score"`
	AnalysisText string       `json:"analysisText"`
	Company      CompanyInfo  `json:"company"`
}

// ReportArtifact is the rendered deliverable.
type ReportArtifact struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Format      string    `json:"format"` // "markdown"
	GeneratedAt time.Time `json:"generatedAt"`
}

type Synthesized struct {
	Artifact ReportArtifact `json:"artifact"`
	Company  CompanyInfo    `json:"company"`
}

type Gated struct {
	Artifact     ReportArtifact `json:"artifact"`
	Company      CompanyInfo    `json:"company"`
	ChecksPassed []string       `json:"checksPassed"`
}

type DeliveryReceipt struct {
	MessageID string    `json:"messageId"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sentAt"`
}

type Delivered struct {
	Artifact ReportArtifact  `json:"artifact"`
	Receipt  DeliveryReceipt `json:"receipt"`
}

func (SubmissionReceived) stageOutput() {}
func (DataProcessed) stageOutput()      {}
func (Analyzed) stageOutput()           {}
func (Synthesized) stageOutput()        {}
func (Gated) stageOutput()              {}
func (Delivered) stageOutput()          {}

// internal/pipeline/orchestrator.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/common/metrics"
	"diagnosis-pipeline/internal/models"

	"github.com/google/uuid"
)

// Handler implements one stage's business logic against its external
// collaborator. The input is always the previous stage's output.
type Handler interface {
	Execute(ctx context.Context, input models.StageOutput) (models.StageOutput, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, input models.StageOutput) (models.StageOutput, error)

func (f HandlerFunc) Execute(ctx context.Context, input models.StageOutput) (models.StageOutput, error) {
	return f(ctx, input)
}

// FailureNotifier is invoked once when a pipeline run reaches the failed
// state. Implementations must not block the orchestrator.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, execution *models.PipelineExecution, cause error)
}

// RunResult is what a finished pipeline hands back: the delivered
// artifact on success, and in every case the full execution trace with
// each prior stage's output preserved for diagnostics.
type RunResult struct {
	Output    models.StageOutput
	Execution *models.PipelineExecution
}

// Orchestrator sequences the catalog's stages strictly in order within a
// single goroutine per run. Stage k+1 starts only after stage k
// completes; the first stage error fails the run and no later stage is
// started. Distinct runs are fully independent.
type Orchestrator struct {
	catalog          *Catalog
	handlers         map[string]Handler
	executor         *Executor
	notifier         FailureNotifier
	avgStageDuration time.Duration
	log              logger.Logger
}

func NewOrchestrator(catalog *Catalog, handlers map[string]Handler, executor *Executor, avgStageDuration time.Duration, log logger.Logger) (*Orchestrator, error) {
	for _, spec := range catalog.Stages {
		if _, ok := handlers[spec.ID]; !ok {
			return nil, fmt.Errorf("no handler registered for stage %s", spec.ID)
		}
	}
	return &Orchestrator{
		catalog:          catalog,
		handlers:         handlers,
		executor:         executor,
		avgStageDuration: avgStageDuration,
		log:              log,
	}, nil
}

// SetFailureNotifier installs an optional notifier for failed runs.
func (o *Orchestrator) SetFailureNotifier(n FailureNotifier) {
	o.notifier = n
}

// Run executes one pipeline for one diagnosis submission. A snapshot of
// the execution is sent on progress after every stage transition; sends
// never block, so a slow observer drops snapshots rather than stalling
// the run. progress may be nil. The channel is closed when the run
// reaches a terminal state.
func (o *Orchestrator) Run(ctx context.Context, submission *models.DiagnosisSubmission, progress chan<- models.PipelineExecution) (*RunResult, error) {
	execution := o.newExecution()
	if progress != nil {
		defer close(progress)
	}

	log := o.log.WithFields(map[string]interface{}{
		"pipelineId": execution.ExecutionID,
		"company":    submission.CompanyInfo.Name,
	})
	log.Info("pipeline started", map[string]interface{}{
		"stages": len(execution.Stages),
	})

	execution.Status = models.PipelineInProgress
	var input models.StageOutput = models.SubmissionReceived{Submission: *submission}

	for i := range o.catalog.Stages {
		spec := o.catalog.Stages[i]
		stage := &execution.Stages[i]
		execution.CurrentStageIndex = i

		stage.Status = models.StageRunning
		stage.StartTime = time.Now().UTC()
		o.emit(progress, execution)

		output, err := o.runStage(ctx, spec, input)

		stage.EndTime = time.Now().UTC()
		metrics.StageDuration.WithLabelValues(spec.ID).Observe(stage.EndTime.Sub(stage.StartTime).Seconds())

		if err != nil {
			stdErr := errors.Normalize(err)
			stage.Status = models.StageError
			stage.Errors = append(stage.Errors, stdErr.Error())

			execution.Status = models.PipelineFailed
			execution.EndTime = stage.EndTime
			execution.Errors = append(execution.Errors, stdErr.Error())
			o.refreshProgress(execution)
			o.emit(progress, execution)

			metrics.StagesFailed.WithLabelValues(spec.ID, string(stdErr.Code)).Inc()
			metrics.PipelinesFailed.Inc()

			log.WithError(err).Error("pipeline failed", map[string]interface{}{
				"stage": spec.ID,
			})
			if o.notifier != nil {
				o.notifier.NotifyFailure(ctx, execution, err)
			}

			// Prior stage outputs stay on the execution for diagnostics.
			return &RunResult{Execution: execution}, errors.NewPipelineFatalError(spec.ID, err)
		}

		stage.Status = models.StageCompleted
		stage.Output = output
		o.refreshProgress(execution)
		o.emit(progress, execution)

		metrics.StagesCompleted.WithLabelValues(spec.ID).Inc()
		log.Info("stage completed", map[string]interface{}{
			"stage":    spec.ID,
			"progress": execution.OverallProgress,
		})

		input = output
	}

	execution.Status = models.PipelineCompleted
	execution.EndTime = time.Now().UTC()
	o.emit(progress, execution)

	metrics.PipelinesCompleted.Inc()
	log.Info("pipeline completed", map[string]interface{}{
		"duration": execution.EndTime.Sub(execution.StartTime).String(),
	})

	return &RunResult{Output: input, Execution: execution}, nil
}

// runStage hands the stage's handler to the retry executor with the
// stage's timeout and retry budget from the catalog.
func (o *Orchestrator) runStage(ctx context.Context, spec StageSpec, input models.StageOutput) (models.StageOutput, error) {
	handler := o.handlers[spec.ID]
	_, output, err := o.executor.Execute(ctx, ExecuteRequest{
		Operation: spec.ID,
		Timeout:   spec.Timeout(),
		Retry:     spec.RetryConfig(),
		Run: func(attemptCtx context.Context) (models.StageOutput, error) {
			return handler.Execute(attemptCtx, input)
		},
	})
	return output, err
}

func (o *Orchestrator) newExecution() *models.PipelineExecution {
	stages := make([]models.StageState, len(o.catalog.Stages))
	for i, spec := range o.catalog.Stages {
		stages[i] = models.StageState{
			ID:           spec.ID,
			Name:         spec.Name,
			Dependencies: spec.Dependencies,
			Status:       models.StagePending,
		}
	}

	execution := &models.PipelineExecution{
		ExecutionID: uuid.NewString(),
		Status:      models.PipelineInitialized,
		Stages:      stages,
		StartTime:   time.Now().UTC(),
	}
	o.refreshProgress(execution)
	return execution
}

// refreshProgress recomputes overall progress as completed/total*100 and
// the time estimate as remaining stages times the configured average.
func (o *Orchestrator) refreshProgress(execution *models.PipelineExecution) {
	total := len(execution.Stages)
	if total == 0 {
		return
	}
	completed := execution.CompletedStages()
	execution.OverallProgress = float64(completed) / float64(total) * 100
	execution.EstimatedTimeRemaining = time.Duration(total-completed) * o.avgStageDuration
}

// emit sends a snapshot without blocking.
func (o *Orchestrator) emit(progress chan<- models.PipelineExecution, execution *models.PipelineExecution) {
	if progress == nil {
		return
	}
	select {
	case progress <- snapshot(execution):
	default:
	}
}

// snapshot deep-copies the mutable slices so observers never see later
// mutation.
func snapshot(execution *models.PipelineExecution) models.PipelineExecution {
	copied := *execution
	copied.Stages = make([]models.StageState, len(execution.Stages))
	copy(copied.Stages, execution.Stages)
	copied.Errors = append([]string(nil), execution.Errors...)
	return copied
}

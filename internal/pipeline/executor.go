// internal/pipeline/executor.go
package pipeline

import (
	"context"
	"time"

	"diagnosis-pipeline/internal/common/errors"
	"diagnosis-pipeline/internal/common/logger"
	"diagnosis-pipeline/internal/common/metrics"
	"diagnosis-pipeline/internal/history"
	"diagnosis-pipeline/internal/models"

	"github.com/google/uuid"
)

// Operation is one attempt against an external collaborator. The context
// carries the per-attempt deadline; implementations must honor it.
type Operation func(ctx context.Context) (models.StageOutput, error)

// ExecuteRequest bundles everything the executor needs for one stage call.
type ExecuteRequest struct {
	Operation string
	Timeout   time.Duration
	Retry     models.RetryConfig
	Run       Operation
}

// Executor is the generic bounded-retry combinator. Each attempt runs
// under its own context deadline; transient failures are retried with
// optional exponential backoff; every attempt is recorded in the
// execution-history store under a freshly generated execution ID. Only
// the final attempt's result is returned to the caller.
type Executor struct {
	history history.Store
	log     logger.Logger
}

func NewExecutor(store history.Store, log logger.Logger) *Executor {
	return &Executor{history: store, log: log}
}

// Execute runs the operation with bounded retries. On success it returns
// the last attempt's record and the operation's output. On exhaustion,
// or on the first non-retryable failure, it returns the last record and
// the triggering error.
func (e *Executor) Execute(ctx context.Context, req ExecuteRequest) (*models.WorkflowExecutionResult, models.StageOutput, error) {
	executionID := uuid.NewString()

	maxAttempts := req.Retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastResult *models.WorkflowExecutionResult
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		output, result, err := e.runAttempt(ctx, req, executionID, attempt)
		lastResult = result
		lastErr = err

		e.record(ctx, result)

		if err == nil {
			return result, output, nil
		}

		e.log.Warn("stage attempt failed", map[string]interface{}{
			"executionId": executionID,
			"operation":   req.Operation,
			"attempt":     attempt,
			"maxAttempts": maxAttempts,
			"error":       err.Error(),
		})

		if !errors.IsRetryable(err) {
			break
		}
		if attempt == maxAttempts {
			break
		}

		metrics.RetryAttempts.WithLabelValues(req.Operation).Inc()
		if err := e.wait(ctx, backoffDelay(req.Retry, attempt)); err != nil {
			return lastResult, nil, err
		}
	}

	return lastResult, nil, lastErr
}

func (e *Executor) runAttempt(ctx context.Context, req ExecuteRequest, executionID string, attempt int) (models.StageOutput, *models.WorkflowExecutionResult, error) {
	attemptCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now().UTC()
	output, err := req.Run(attemptCtx)
	end := time.Now().UTC()

	result := &models.WorkflowExecutionResult{
		ExecutionID: executionID,
		Operation:   req.Operation,
		Attempt:     attempt,
		StartTime:   start,
		EndTime:     end,
		Duration:    end.Sub(start),
	}

	if err != nil {
		result.Status = models.ExecutionError
		result.Error = err.Error()
		return nil, result, err
	}

	result.Status = models.ExecutionSuccess
	return output, result, nil
}

// record appends the attempt to the history store. History failures are
// logged but never fail the attempt itself.
func (e *Executor) record(ctx context.Context, result *models.WorkflowExecutionResult) {
	if e.history == nil {
		return
	}
	if err := e.history.Record(ctx, result); err != nil {
		e.log.Error("failed to record execution history", map[string]interface{}{
			"executionId": result.ExecutionID,
			"operation":   result.Operation,
			"attempt":     result.Attempt,
			"error":       err.Error(),
		})
	}
}

// wait sleeps for the backoff delay, returning early if the caller's
// context is cancelled.
func (e *Executor) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoffDelay computes the wait after a failed attempt: fixed delay, or
// delay doubled on every retry after the first when exponential backoff
// is enabled (1000ms, 2000ms, 4000ms, ...).
func backoffDelay(cfg models.RetryConfig, failedAttempt int) time.Duration {
	if !cfg.ExponentialBackoff {
		return cfg.Delay
	}
	return cfg.Delay * (1 << (failedAttempt - 1))
}

// Package errors provides standardized error handling for the diagnosis
// report pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation errors: malformed or incomplete input, never retried.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeFrameworkInvalid ErrorCode = "FRAMEWORK_INVALID"

	// Transient collaborator errors, absorbed by the retry policy.
	ErrCodeAIAnalysisFailed      ErrorCode = "AI_ANALYSIS_FAILED"
	ErrCodeAIAnalysisTimeout     ErrorCode = "AI_ANALYSIS_TIMEOUT"
	ErrCodeReportSynthesisFailed ErrorCode = "REPORT_SYNTHESIS_FAILED"
	ErrCodeDeliveryFailed        ErrorCode = "DELIVERY_FAILED"
	ErrCodeBenchmarkLookupFailed ErrorCode = "BENCHMARK_LOOKUP_FAILED"
	ErrCodeHistoryWriteFailed    ErrorCode = "HISTORY_WRITE_FAILED"
	ErrCodeArchiveWriteFailed    ErrorCode = "ARCHIVE_WRITE_FAILED"

	// Quality gate: a content problem, not an infrastructure problem.
	// Terminal for the run.
	ErrCodeQualityGateFailed ErrorCode = "QUALITY_GATE_FAILED"

	// A stage reported error after exhausting local remedies.
	ErrCodePipelineFatal ErrorCode = "PIPELINE_FATAL"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable submission validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Submission data validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFrameworkInvalidError creates a non-retryable framework configuration error.
func NewFrameworkInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFrameworkInvalid,
		Message:   "Assessment framework configuration is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAIAnalysisFailedError creates a retryable inference service error.
func NewAIAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAIAnalysisFailed,
		Message:   "AI analysis service error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAIAnalysisTimeoutError creates a retryable inference timeout error.
func NewAIAnalysisTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAIAnalysisTimeout,
		Message:   "AI analysis call exceeded its deadline",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportSynthesisFailedError creates a retryable synthesis error.
func NewReportSynthesisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportSynthesisFailed,
		Message:   "Report synthesis failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeliveryFailedError creates a retryable delivery error.
func NewDeliveryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeliveryFailed,
		Message:   "Report delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBenchmarkLookupFailedError creates a retryable benchmark store error.
func NewBenchmarkLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBenchmarkLookupFailed,
		Message:   "Benchmark table lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryWriteFailedError creates a retryable execution-history error.
func NewHistoryWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryWriteFailed,
		Message:   "Execution history write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewArchiveWriteFailedError creates a retryable report-archive error.
func NewArchiveWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArchiveWriteFailed,
		Message:   "Report archive indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQualityGateError creates a non-retryable quality gate failure. It is
// terminal for the run and distinct from a service error.
func NewQualityGateError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQualityGateFailed,
		Message:   "Synthesized report failed quality checks",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPipelineFatalError wraps a stage failure that halts all subsequent
// stages. The triggering error stays reachable through Unwrap so callers
// can still classify the root cause.
func NewPipelineFatalError(stageID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePipelineFatal,
		Message:   fmt.Sprintf("Stage '%s' failed", stageID),
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"stageId": stageID},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Retry Policy Table
// ==========================

// GetRetryCount returns the recommended attempt budget for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeAIAnalysisFailed,
		ErrCodeReportSynthesisFailed,
		ErrCodeDeliveryFailed,
		ErrCodeBenchmarkLookupFailed,
		ErrCodeHistoryWriteFailed,
		ErrCodeArchiveWriteFailed:
		return 3

	case ErrCodeAIAnalysisTimeout:
		return 2

	default:
		return 0 // validation, quality gate, fatal: no retry
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandard extracts a *StandardError from err, or nil.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return nil
}

// IsRetryable reports whether err should be re-attempted by the executor.
func IsRetryable(err error) bool {
	if stdErr := AsStandard(err); stdErr != nil {
		return stdErr.Retryable
	}
	// Unknown errors are treated as transient infrastructure failures.
	return true
}

// HasCode reports whether the error chain contains the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if stdErr, ok := err.(*StandardError); ok && stdErr.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsValidation reports whether err is a submission validation failure,
// anywhere in the chain.
func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidationFailed)
}

// IsQualityGateFailure reports whether err is a terminal content-quality
// failure, anywhere in the chain.
func IsQualityGateFailure(err error) bool {
	return HasCode(err, ErrCodeQualityGateFailed)
}

// Normalize ensures any error is represented as a StandardError.
func Normalize(err error) *StandardError {
	if stdErr := AsStandard(err); stdErr != nil {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryability(t *testing.T) {
	assert.False(t, IsRetryable(NewValidationError("bad input")))
	assert.False(t, IsRetryable(NewQualityGateError("too short")))
	assert.False(t, IsRetryable(NewFrameworkInvalidError("no categories")))

	assert.True(t, IsRetryable(NewAIAnalysisFailedError(assert.AnError)))
	assert.True(t, IsRetryable(NewAIAnalysisTimeoutError()))
	assert.True(t, IsRetryable(NewDeliveryFailedError(assert.AnError)))
	assert.True(t, IsRetryable(NewBenchmarkLookupFailedError(assert.AnError)))

	// Unknown errors are treated as transient infrastructure failures.
	assert.True(t, IsRetryable(fmt.Errorf("connection reset")))
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeAIAnalysisFailed))
	assert.Equal(t, 3, GetRetryCount(ErrCodeDeliveryFailed))
	assert.Equal(t, 2, GetRetryCount(ErrCodeAIAnalysisTimeout))
	assert.Equal(t, 0, GetRetryCount(ErrCodeValidationFailed))
	assert.Equal(t, 0, GetRetryCount(ErrCodeQualityGateFailed))
	assert.Equal(t, 0, GetRetryCount(ErrCodePipelineFatal))
}

func TestPipelineFatalPreservesCause(t *testing.T) {
	cause := NewQualityGateError("missing sections")
	fatal := NewPipelineFatalError("quality-gate", cause)

	assert.Equal(t, ErrCodePipelineFatal, fatal.Code)
	assert.Equal(t, "quality-gate", fatal.Metadata["stageId"])

	// The outer error classifies as fatal, the chain still exposes the gate failure.
	stdErr := AsStandard(fatal)
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodePipelineFatal, stdErr.Code)
	assert.True(t, IsQualityGateFailure(fatal))
	assert.False(t, IsValidation(fatal))
	assert.False(t, IsRetryable(fatal))
}

func TestNormalize(t *testing.T) {
	std := NewValidationError("x")
	assert.Same(t, std, Normalize(std))

	plain := Normalize(fmt.Errorf("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

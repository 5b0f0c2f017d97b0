package exception_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
)

func TestNewBatchError(t *testing.T) {
	originalErr := errors.New("db connection refused")
	be := exception.NewBatchError("db", "failed to connect", originalErr)

	assert.Equal(t, "db", be.Module)
	assert.Equal(t, "failed to connect", be.Message)
	assert.Equal(t, originalErr, be.Unwrap())
	assert.Equal(t, "[db] failed to connect: db connection refused", be.Error())
	assert.False(t, exception.IsStepError(be))
	assert.False(t, exception.IsItemError(be))
}

func TestNewBatchErrorf(t *testing.T) {
	be := exception.NewBatchErrorf("reader", "item %d not found", 10)
	assert.Nil(t, be.Unwrap())
	assert.Equal(t, "[reader] item 10 not found", be.Error())

	be = exception.NewBatchErrorf("io", "read of %s failed", "chunk-1", io.EOF)
	assert.Equal(t, "read of chunk-1 failed", be.Message)
	assert.ErrorIs(t, be, io.EOF)
}

func TestClassification(t *testing.T) {
	cause := errors.New("boom")

	item := exception.NewItemError("executor", "item 4 failed", cause)
	source := exception.NewSourceError("source", "query failed", cause)
	step := exception.NewStepError("executor", "chunk 2 aborted", cause)
	invalid := exception.NewValidationError("arguments", "bad limit", cause)

	assert.True(t, exception.IsItemError(item))
	assert.False(t, exception.IsItemError(step))
	assert.True(t, exception.IsSourceError(source))
	assert.True(t, exception.IsStepError(step))
	assert.ErrorIs(t, invalid, exception.ErrInvalidArguments)

	// Classification and the cause both survive further wrapping.
	wrapped := fmt.Errorf("orchestrator: %w", step)
	assert.True(t, exception.IsStepError(wrapped))
	assert.ErrorIs(t, wrapped, cause)
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.Equal(t, "plain", exception.ExtractErrorMessage(errors.New("plain")))

	be := exception.NewStepError("executor", "chunk aborted", errors.New("ctx done"))
	assert.Equal(t, "chunk aborted", exception.ExtractErrorMessage(fmt.Errorf("wrap: %w", be)))
}

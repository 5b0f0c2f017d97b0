// Package exception defines the error types shared by the batch engine.
//
// Errors fall into three groups that the engine treats differently:
// per-item errors (recorded and isolated), source errors (fatal before any chunk runs)
// and step errors (fatal, halting the remaining chunks). Each group has a sentinel
// so callers can classify a wrapped error with errors.Is.
package exception

import (
	"errors"
	"fmt"
)

var (
	// ErrItemFailed marks an error raised while processing a single identifier.
	ErrItemFailed = errors.New("item processing failed")
	// ErrSourceFailed marks an error raised while resolving the identifier universe.
	ErrSourceFailed = errors.New("item source failed")
	// ErrStepFailed marks an error that escaped a chunk step boundary.
	ErrStepFailed = errors.New("chunk step failed")
	// ErrInvalidArguments marks malformed job input.
	ErrInvalidArguments = errors.New("invalid job arguments")
	// ErrInvalidTransition marks an illegal job state change.
	ErrInvalidTransition = errors.New("invalid job state transition")
)

// BatchError is the error type returned across package boundaries in the engine.
// It holds the module where the error occurred, a message, the wrapped original error
// and the taxonomy sentinel it belongs to.
type BatchError struct {
	// Module indicates where the error occurred (e.g., "source", "executor", "orchestrator", "config").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// kind is one of the package sentinels, or nil when unclassified.
	kind error
}

// NewBatchError creates a new, unclassified BatchError.
//
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
func NewBatchError(module, message string, originalErr error) *BatchError {
	return &BatchError{Module: module, Message: message, OriginalErr: originalErr}
}

// NewBatchErrorf creates an unclassified BatchError with a formatted message.
// If the last argument is an error it becomes OriginalErr and is not used for formatting.
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	if len(a) > 0 {
		if err, ok := a[len(a)-1].(error); ok {
			originalErr = err
			a = a[:len(a)-1]
		}
	}
	return NewBatchError(module, fmt.Sprintf(format, a...), originalErr)
}

// NewItemError wraps an error raised for one identifier.
func NewItemError(module, message string, originalErr error) *BatchError {
	return &BatchError{Module: module, Message: message, OriginalErr: originalErr, kind: ErrItemFailed}
}

// NewSourceError wraps an error raised by an item source.
func NewSourceError(module, message string, originalErr error) *BatchError {
	return &BatchError{Module: module, Message: message, OriginalErr: originalErr, kind: ErrSourceFailed}
}

// NewStepError wraps an error that aborts a chunk step.
func NewStepError(module, message string, originalErr error) *BatchError {
	return &BatchError{Module: module, Message: message, OriginalErr: originalErr, kind: ErrStepFailed}
}

// NewValidationError wraps malformed job input.
func NewValidationError(module, message string, originalErr error) *BatchError {
	return &BatchError{Module: module, Message: message, OriginalErr: originalErr, kind: ErrInvalidArguments}
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is the sentinel this error was classified with.
func (e *BatchError) Is(target error) bool {
	return e.kind != nil && target == e.kind
}

// IsItemError reports whether err belongs to the per-item group.
func IsItemError(err error) bool { return errors.Is(err, ErrItemFailed) }

// IsSourceError reports whether err belongs to the source group.
func IsSourceError(err error) bool { return errors.Is(err, ErrSourceFailed) }

// IsStepError reports whether err belongs to the step group.
func IsStepError(err error) bool { return errors.Is(err, ErrStepFailed) }

// ExtractErrorMessage extracts the error message string from an error.
// For BatchError, it returns the cleaner Message field.
// Otherwise, it returns the standard Error() string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

package entity

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors
var (
	// Request errors
	ErrInvalidRequest     = errors.New("invalid generation request")
	ErrEmptyInstruction   = errors.New("instruction must not be empty")
	ErrInstructionTooLong = errors.New("instruction exceeds maximum length")
	ErrTooManyFiles       = errors.New("too many reference files")
	ErrFileTooLarge       = errors.New("reference file too large")

	// Pipeline errors
	ErrGenerationFailed = errors.New("generation capability failed")
	ErrEmptyArtifact    = errors.New("generation returned an empty artifact")
)

// ErrorCategory is the normalized user-facing failure category. The UI
// layer branches on these three values and nothing else.
type ErrorCategory string

const (
	ErrorCategoryTimeout ErrorCategory = "timeout"
	ErrorCategoryNetwork ErrorCategory = "network"
	ErrorCategoryOther   ErrorCategory = "other"
)

// PipelineError carries retryability as an explicit property set at the
// point of origin, so the resilience layer never inspects message text.
type PipelineError struct {
	Category  ErrorCategory
	Retryable bool
	Err       error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewRetryableError marks err as transient, eligible for retry.
func NewRetryableError(category ErrorCategory, err error) *PipelineError {
	return &PipelineError{Category: category, Retryable: true, Err: err}
}

// NewTerminalError marks err as terminal. It is returned to the caller
// immediately, never retried.
func NewTerminalError(category ErrorCategory, err error) *PipelineError {
	return &PipelineError{Category: category, Retryable: false, Err: err}
}

// IsRetryable reports whether err may be retried. Context cancellation and
// deadline expiry are always terminal, as is anything rooted in request
// validation. Unclassified errors default to retryable so transient
// infrastructure failures get another chance.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrInvalidRequest) {
		return false
	}
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Retryable
	}
	return true
}

// Classify maps err onto one of the three user-facing categories.
func Classify(err error) ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCategoryTimeout
	}
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Category
	}
	return ErrorCategoryOther
}

package entity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "cancellation", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "wrapped deadline", err: fmt.Errorf("run: %w", context.DeadlineExceeded), want: false},
		{name: "invalid request", err: fmt.Errorf("%w: empty", ErrInvalidRequest), want: false},
		{name: "tagged retryable", err: NewRetryableError(ErrorCategoryNetwork, errors.New("reset")), want: true},
		{name: "tagged terminal", err: NewTerminalError(ErrorCategoryOther, errors.New("refused")), want: false},
		{name: "wrapped tagged terminal", err: fmt.Errorf("iteration 1: %w", NewTerminalError(ErrorCategoryOther, errors.New("refused"))), want: false},
		{name: "unclassified defaults to retryable", err: errors.New("mystery"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorCategoryTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, ErrorCategoryNetwork, Classify(NewRetryableError(ErrorCategoryNetwork, errors.New("reset"))))
	assert.Equal(t, ErrorCategoryOther, Classify(errors.New("mystery")))
}

func TestPipelineErrorUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	perr := NewTerminalError(ErrorCategoryNetwork, fmt.Errorf("call: %w", inner))

	assert.ErrorIs(t, perr, inner)
	assert.Contains(t, perr.Error(), "network")
	assert.Contains(t, perr.Error(), "root cause")
}

func TestValidationResultFilters(t *testing.T) {
	result := &ValidationResult{Issues: []ValidationIssue{
		{Severity: SeverityError, Category: CategoryStructural, Message: "e1"},
		{Severity: SeverityWarning, Category: CategoryResponsive, Message: "w1"},
		{Severity: SeverityError, Category: CategoryConsole, Message: "e2"},
	}}

	assert.Len(t, result.Errors(), 2)
	assert.Len(t, result.Warnings(), 1)
	assert.Equal(t, "w1", result.Warnings()[0].Message)
}

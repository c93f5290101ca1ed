package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/futig/diagram-backend/internal/config"
	"github.com/futig/diagram-backend/internal/entity"
	pkgRetry "github.com/futig/diagram-backend/internal/pkg/retry"
	"github.com/futig/diagram-backend/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPipeline struct {
	calls   int
	results []pipelineStep
}

type pipelineStep struct {
	result *entity.PipelineResult
	err    error
}

func (p *stubPipeline) Run(ctx context.Context, _ *entity.GenerationRequest) (*entity.PipelineResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	step := p.results[p.calls]
	p.calls++
	return step.result, step.err
}

type blockingPipeline struct{}

func (p *blockingPipeline) Run(ctx context.Context, _ *entity.GenerationRequest) (*entity.PipelineResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func okResult() *entity.PipelineResult {
	return &entity.PipelineResult{Success: true, Artifact: "<!DOCTYPE html><html></html>"}
}

func testLimits() config.RequestLimitsConfig {
	return config.RequestLimitsConfig{
		MaxInstructionLength: 8000,
		MaxFileCount:         16,
		MaxFileSize:          5 << 20,
	}
}

func newTestClient(p Pipeline, timeout time.Duration) *Client {
	cfg := config.ClientConfig{
		Timeout: timeout,
		Retry: pkgRetry.RetryConfig{
			Attempts: 4,
			Delay:    5 * time.Millisecond,
			MaxDelay: 20 * time.Millisecond,
		},
	}
	return New(p, validator.NewRequestValidator(testLimits()), cfg, nil, zap.NewNop())
}

func sampleRequest() *entity.GenerationRequest {
	return &entity.GenerationRequest{Instruction: "draw three boxes"}
}

func TestInvokeSucceedsFirstAttempt(t *testing.T) {
	pipe := &stubPipeline{results: []pipelineStep{{result: okResult()}}}
	c := newTestClient(pipe, time.Second)

	result, err := c.Invoke(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, pipe.calls)
	assert.Equal(t, 1, c.Attempt())
}

func TestInvokeRetriesTransientFailures(t *testing.T) {
	transient := entity.NewRetryableError(entity.ErrorCategoryNetwork, errors.New("connection reset"))
	pipe := &stubPipeline{results: []pipelineStep{
		{err: transient},
		{err: transient},
		{result: okResult()},
	}}
	c := newTestClient(pipe, time.Second)

	start := time.Now()
	result, err := c.Invoke(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, pipe.calls)
	assert.Equal(t, 3, c.Attempt())
	// Backoff before retries: 5ms then 10ms.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestInvokeStopsAfterConfiguredAttempts(t *testing.T) {
	transient := entity.NewRetryableError(entity.ErrorCategoryNetwork, errors.New("connection reset"))
	pipe := &stubPipeline{results: []pipelineStep{
		{err: transient}, {err: transient}, {err: transient}, {err: transient},
	}}
	c := newTestClient(pipe, time.Second)

	_, err := c.Invoke(context.Background(), sampleRequest())
	require.Error(t, err)

	assert.Equal(t, 4, pipe.calls, "one initial attempt plus three retries")
	assert.Equal(t, 4, c.Attempt())

	var perr *entity.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, entity.ErrorCategoryNetwork, perr.Category)
	assert.False(t, perr.Retryable, "returned error is terminal after exhaustion")
}

func TestInvokeNeverRetriesTerminalFailure(t *testing.T) {
	terminal := entity.NewTerminalError(entity.ErrorCategoryOther, errors.New("model refused"))
	pipe := &stubPipeline{results: []pipelineStep{{err: terminal}}}
	c := newTestClient(pipe, time.Second)

	_, err := c.Invoke(context.Background(), sampleRequest())
	require.Error(t, err)

	assert.Equal(t, 1, pipe.calls)

	var perr *entity.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, entity.ErrorCategoryOther, perr.Category)
}

func TestInvokeRejectsInvalidRequestWithoutCallingPipeline(t *testing.T) {
	pipe := &stubPipeline{}
	c := newTestClient(pipe, time.Second)

	_, err := c.Invoke(context.Background(), &entity.GenerationRequest{Instruction: "   "})
	require.Error(t, err)

	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
	assert.Equal(t, 0, pipe.calls)
}

func TestInvokeTimeoutYieldsTimeoutCategory(t *testing.T) {
	c := newTestClient(&blockingPipeline{}, 50*time.Millisecond)

	_, err := c.Invoke(context.Background(), sampleRequest())
	require.Error(t, err)

	var perr *entity.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, entity.ErrorCategoryTimeout, perr.Category)
	assert.False(t, entity.IsRetryable(err))
}

func TestInvokeCancellationIsNotRetried(t *testing.T) {
	pipe := &stubPipeline{results: []pipelineStep{{err: context.Canceled}}}
	c := newTestClient(pipe, time.Second)

	_, err := c.Invoke(context.Background(), sampleRequest())
	require.Error(t, err)

	assert.Equal(t, 1, pipe.calls)

	var perr *entity.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, entity.ErrorCategoryOther, perr.Category)
}

func TestRetryWithoutPriorRequest(t *testing.T) {
	c := newTestClient(&stubPipeline{}, time.Second)

	_, err := c.Retry(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPreviousRequest)
}

func TestRetryReplaysLastRequest(t *testing.T) {
	transient := entity.NewRetryableError(entity.ErrorCategoryNetwork, errors.New("connection reset"))
	pipe := &stubPipeline{results: []pipelineStep{
		{err: transient}, {err: transient}, {err: transient}, {err: transient},
		{result: okResult()},
	}}
	c := newTestClient(pipe, time.Second)

	_, err := c.Invoke(context.Background(), sampleRequest())
	require.Error(t, err)

	result, err := c.Retry(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 5, pipe.calls)
}

func TestNormalizeClassifiesUnknownErrors(t *testing.T) {
	perr := normalize(errors.New("something odd"))
	assert.Equal(t, entity.ErrorCategoryOther, perr.Category)
	assert.False(t, perr.Retryable)

	perr = normalize(entity.NewRetryableError(entity.ErrorCategoryNetwork, errors.New("dial tcp: refused")))
	assert.Equal(t, entity.ErrorCategoryNetwork, perr.Category)
	assert.False(t, perr.Retryable)
}

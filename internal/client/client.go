// Package client wraps pipeline invocations with deadline, retry and
// failure-normalization semantics. It is the only place in the system that
// decides whether an error is retried.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/diagram-backend/internal/config"
	"github.com/futig/diagram-backend/internal/entity"
	"github.com/futig/diagram-backend/internal/pkg/metrics"
	"github.com/futig/diagram-backend/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrNoPreviousRequest is returned by Retry when nothing has been invoked yet.
var ErrNoPreviousRequest = errors.New("no previous request to retry")

// Pipeline is one feedback-loop invocation.
type Pipeline interface {
	Run(ctx context.Context, req *entity.GenerationRequest) (*entity.PipelineResult, error)
}

// Client is the resilience layer around the pipeline. It enforces an
// overall deadline, retries transient failures with exponential backoff and
// translates terminal failures into one of three normalized categories.
type Client struct {
	pipeline  Pipeline
	validator *validator.Validator
	timeout   time.Duration
	retryOpts []retry.Option
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu      sync.Mutex
	lastReq *entity.GenerationRequest
	attempt atomic.Int64
}

func New(
	pipeline Pipeline,
	requestValidator *validator.Validator,
	cfg config.ClientConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		pipeline:  pipeline,
		validator: requestValidator,
		timeout:   timeout,
		retryOpts: cfg.Retry.ToRetryOptions(),
		metrics:   m,
		logger:    logger,
	}
}

// Invoke runs one pipeline call under the configured deadline. Transient
// failures are retried with exponential backoff; terminal failures
// (cancellation, deadline expiry, invalid input) return immediately. The
// returned error, when non-nil, is always a normalized *entity.PipelineError.
func (c *Client) Invoke(ctx context.Context, req *entity.GenerationRequest) (*entity.PipelineResult, error) {
	if err := c.validator.ValidateGenerationRequest(req); err != nil {
		return nil, c.fail(entity.NewTerminalError(entity.ErrorCategoryOther, err))
	}

	c.mu.Lock()
	c.lastReq = req
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.attempt.Store(1)

	opts := append([]retry.Option{}, c.retryOpts...)
	opts = append(opts,
		retry.Context(ctx),
		retry.RetryIf(entity.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			// n is zero-based: the first retry is overall attempt 2.
			c.attempt.Store(int64(n) + 2)
			ctxzap.Warn(ctx, "retrying pipeline invocation",
				zap.Uint("retry", n+1),
				zap.Error(err),
			)
		}),
	)

	var result *entity.PipelineResult
	err := retry.Do(func() error {
		r, err := c.pipeline.Run(ctx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	}, opts...)
	if err != nil {
		return nil, c.fail(normalize(err))
	}

	return result, nil
}

// Retry replays the most recent request without the caller resupplying it.
func (c *Client) Retry(ctx context.Context) (*entity.PipelineResult, error) {
	c.mu.Lock()
	req := c.lastReq
	c.mu.Unlock()

	if req == nil {
		return nil, c.fail(entity.NewTerminalError(entity.ErrorCategoryOther, ErrNoPreviousRequest))
	}
	return c.Invoke(ctx, req)
}

// Attempt reports the current (or last) overall attempt number, starting at
// 1, for UI progress feedback.
func (c *Client) Attempt() int {
	return int(c.attempt.Load())
}

func (c *Client) fail(perr *entity.PipelineError) *entity.PipelineError {
	if c.metrics != nil {
		c.metrics.PipelineFailures.WithLabelValues(string(perr.Category)).Inc()
	}
	if c.logger != nil {
		c.logger.Error("pipeline invocation failed",
			zap.String("category", string(perr.Category)),
			zap.Error(perr.Err),
		)
	}
	return perr
}

// normalize translates any terminal failure into a tagged, categorized
// error: timeout, network, or other.
func normalize(err error) *entity.PipelineError {
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.NewTerminalError(entity.ErrorCategoryTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return entity.NewTerminalError(entity.ErrorCategoryOther, err)
	}

	var perr *entity.PipelineError
	if errors.As(err, &perr) && !perr.Retryable {
		return perr
	}
	// Retries exhausted on a transient failure, or an unclassified error.
	return entity.NewTerminalError(entity.Classify(err), err)
}
